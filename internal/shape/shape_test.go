package shape

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pgdash/canvaschart/internal/geometry"
)

const sampleList = `[
	{"type":"rectangle","id":"A","x":1,"y":2,"width":30,"height":20,"fillStyle":"#fff",
	 "children":[{"type":"text","x":4,"y":4,"text":"users","opacity":0.5}]},
	{"type":"circle","x":5,"y":6,"r":3,"data":{"row":7}},
	{"type":"multiline","points":[{"x":0,"y":0},{"x":1,"y":1}],"variant":"smooth","withGradient":true},
	{"type":"linkline","sourceId":"A","targetId":"B"}
]`

func TestDecodeList(t *testing.T) {
	list, err := DecodeList([]byte(sampleList))
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("len = %d, want 4", len(list))
	}

	rect, ok := list[0].(*Rectangle)
	if !ok {
		t.Fatalf("list[0] is %T", list[0])
	}
	if rect.Width != 30 || len(rect.Children) != 1 {
		t.Errorf("rect = %+v", rect)
	}
	if txt := rect.Children[0].(*Text); txt.Alpha() != 0.5 {
		t.Errorf("child alpha = %v", txt.Alpha())
	}
	if c := list[1].(*Circle); string(c.Data) != `{"row":7}` {
		t.Errorf("payload = %s", c.Data)
	}
	if l := list[3].(*LinkLine); l.SourceID != "A" || l.TargetID != "B" {
		t.Errorf("link = %+v", l)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := DecodeList([]byte(`[{"type":"hexagon"}]`))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("err = %v, want ErrUnknownType", err)
	}
}

func TestMarshalIncludesType(t *testing.T) {
	list := List{&Circle{X: 1, Y: 2, R: 3}, &Polygon{Points: []geometry.Point{{X: 1, Y: 1}}}}
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `{"type":"circle","x":1,"y":2,"r":3}`) {
		t.Errorf("json = %s", data)
	}
	back, err := DecodeList(data)
	if err != nil {
		t.Fatal(err)
	}
	if back[1].Type() != TypePolygon {
		t.Errorf("round trip type = %s", back[1].Type())
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := List{
		&Rectangle{Common: Common{ID: "A", Opacity: Opacity(0.4)}, Children: List{&Circle{R: 2}}},
		&MultiLine{Points: []geometry.Point{{X: 1, Y: 1}}},
	}
	cp := Clone(orig)

	cp[0].(*Rectangle).Children[0].(*Circle).R = 99
	*cp[0].Attrs().Opacity = 1
	cp[1].(*MultiLine).Points[0].X = 50

	if orig[0].(*Rectangle).Children[0].(*Circle).R != 2 {
		t.Error("child mutated through clone")
	}
	if orig[0].Attrs().Alpha() != 0.4 {
		t.Error("opacity mutated through clone")
	}
	if orig[1].(*MultiLine).Points[0].X != 1 {
		t.Error("points mutated through clone")
	}
}

func TestFindRectangle(t *testing.T) {
	list := List{&Circle{Common: Common{ID: "A"}}, &Rectangle{Common: Common{ID: "A"}, Width: 5}}
	r, ok := FindRectangle(list, "A")
	if !ok || r.Width != 5 {
		t.Fatalf("FindRectangle = %v, %v", r, ok)
	}
	if _, ok := FindRectangle(list, "missing"); ok {
		t.Error("found missing rectangle")
	}
}
