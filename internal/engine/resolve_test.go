package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

func testOptions() Options {
	return Options{Width: 400, Height: 200, Measure: NewMeasureCache(FixedWidth(7), 0)}
}

func TestResolveSkipsDanglingLink(t *testing.T) {
	list := shape.List{
		&shape.Rectangle{Common: shape.Common{ID: "B"}, X: 100, Y: 0, Width: 50, Height: 20},
		&shape.LinkLine{Common: shape.Common{ID: "L"}, SourceID: "A", TargetID: "B"},
	}
	cmds, err := Resolve(list, view.Identity(), testOptions())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for _, c := range cmds {
		if c.ObjectID == "L" {
			t.Fatal("dangling link was drawn")
		}
	}
	if len(cmds) != 1 {
		t.Errorf("got %d commands, want 1", len(cmds))
	}
}

func TestResolveLinkLineFacesTarget(t *testing.T) {
	list := shape.List{
		&shape.Rectangle{Common: shape.Common{ID: "A"}, X: 0, Y: 0, Width: 50, Height: 20},
		&shape.Rectangle{Common: shape.Common{ID: "B"}, X: 200, Y: 100, Width: 50, Height: 20},
		&shape.LinkLine{Common: shape.Common{ID: "L"}, SourceID: "A", TargetID: "B", SourceYOffset: 5},
	}
	cmds, err := Resolve(list, view.Identity(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	link := cmds[len(cmds)-1]
	if link.ObjectID != "L" {
		t.Fatalf("last command = %q", link.ObjectID)
	}
	start := link.Path[0].Args
	end := link.Path[len(link.Path)-1].Args
	if start[0] != 50 || start[1] != 5 {
		t.Errorf("start = %v, want right edge of A at offset 5", start)
	}
	if end[0] != 200 || end[1] != 110 {
		t.Errorf("end = %v, want left edge of B at its centre", end)
	}
}

func TestResolveUnknownShape(t *testing.T) {
	_, err := Resolve(shape.List{nil}, view.Identity(), testOptions())
	if !errors.Is(err, ErrUnknownShape) {
		t.Fatalf("err = %v, want ErrUnknownShape", err)
	}
}

func TestResolveChildrenCompoundOpacity(t *testing.T) {
	list := shape.List{
		&shape.Rectangle{
			Common: shape.Common{ID: "parent", Opacity: shape.Opacity(0.5)},
			X:      10, Y: 20, Width: 100, Height: 50, FillStyle: "#eee",
			Children: shape.List{
				&shape.Circle{Common: shape.Common{ID: "child", Opacity: shape.Opacity(0.5)}, X: 5, Y: 5, R: 2, FillStyle: "red"},
			},
		},
	}
	v := view.View{XScale: 2, YScale: 2, XOffset: 1, YOffset: 1}
	cmds, err := Resolve(list, v, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d commands", len(cmds))
	}
	child := cmds[1]
	if child.Opacity != 0.25 {
		t.Errorf("child opacity = %v, want 0.25", child.Opacity)
	}
	// Parent origin (10,20) + child (5,5) in data space, then the view.
	cx, cy := child.Bounds.Center()
	if cx != 31 || cy != 51 {
		t.Errorf("child centre = (%v,%v), want (31,51)", cx, cy)
	}
	if parent := cmds[0]; parent.Bounds.Width != 200 {
		t.Errorf("rectangle width = %v, want scaled 200", parent.Bounds.Width)
	}
}

func TestResolveFixedShapesIgnoreView(t *testing.T) {
	list := shape.List{&shape.Circle{Common: shape.Common{Fixed: true}, X: 10, Y: 10, R: 1, FillStyle: "#000"}}
	cmds, err := Resolve(list, view.View{XScale: 5, YScale: 5, XOffset: 100, YOffset: 100}, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if cx, cy := cmds[0].Bounds.Center(); cx != 10 || cy != 10 {
		t.Errorf("centre = (%v,%v), want (10,10)", cx, cy)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	list := shape.List{
		&shape.MultiLine{Points: []geometry.Point{{X: 0, Y: 10}, {X: 10, Y: 20}, {X: 20, Y: 5}, {X: 30, Y: 150}}, StrokeStyle: "#336699", Variant: "smooth", WithGradient: true},
		&shape.Text{X: 5, Y: 5, Text: "hello", Background: &shape.TextBackground{FillStyle: "#fff", Padding: 2}},
	}
	before := shape.Clone(list)
	a, err := Resolve(list, view.Identity(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := Resolve(list, view.Identity(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("two resolves of the same input differ")
	}
	if !reflect.DeepEqual(before, list) {
		t.Error("input shapes were mutated")
	}
}

func TestResolveGradientSections(t *testing.T) {
	// Threshold is 0.6 * 200 = 120.
	pts := []geometry.Point{{X: 0, Y: 10}, {X: 10, Y: 20}, {X: 20, Y: 150}, {X: 30, Y: 30}, {X: 40, Y: 180}, {X: 50, Y: 40}, {X: 60, Y: 50}}
	list := shape.List{&shape.MultiLine{Common: shape.Common{ID: "m"}, Points: pts, StrokeStyle: "#ff0000", WithGradient: true}}
	cmds, err := Resolve(list, view.Identity(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	var grads []DrawCommand
	for _, c := range cmds {
		if c.FillGradient != nil {
			grads = append(grads, c)
		}
	}
	if len(grads) != 2 {
		t.Fatalf("got %d gradient sections, want 2", len(grads))
	}
	g := grads[0].FillGradient
	if g.Y0 != 10 || g.Y1 != 200 {
		t.Errorf("gradient span = %v..%v", g.Y0, g.Y1)
	}
	if g.Stops[0].Color != "rgba(255,0,0,0.35)" || g.Stops[1].Color != "rgba(255,0,0,0)" {
		t.Errorf("stops = %+v", g.Stops)
	}
	if cmds[len(cmds)-1].ObjectID != "m" {
		t.Error("stroke should be drawn after its gradients")
	}
}

func TestPeakSections(t *testing.T) {
	pts := []geometry.Point{{Y: 1}, {Y: 9}, {Y: 1}, {Y: 2}, {Y: 3}, {Y: 9}, {Y: 1}}
	got := PeakSections(pts, 5)
	if len(got) != 1 || len(got[0]) != 3 {
		t.Fatalf("sections = %v", got)
	}
	if got := PeakSections(nil, 5); got != nil {
		t.Errorf("empty input = %v", got)
	}
}

func TestResolveTextAlignment(t *testing.T) {
	tests := []struct {
		align    shape.Align
		baseline shape.Baseline
		wantX    float64
		wantY    float64
	}{
		{shape.AlignStart, shape.BaselineAlphabetic, 100, 50},
		{shape.AlignCenter, shape.BaselineTop, 100 - 17.5, 50 + 8},
		{shape.AlignEnd, shape.BaselineBottom, 100 - 35, 50 - 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.align), func(t *testing.T) {
			list := shape.List{&shape.Text{X: 100, Y: 50, Text: "abcde", Font: "10px sans-serif", TextAlign: tt.align, TextBaseline: tt.baseline}}
			cmds, err := Resolve(list, view.Identity(), testOptions())
			if err != nil {
				t.Fatal(err)
			}
			c := cmds[0]
			if c.X != tt.wantX || c.Y != tt.wantY {
				t.Errorf("text at (%v,%v), want (%v,%v)", c.X, c.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestResolveElevationShadow(t *testing.T) {
	list := shape.List{&shape.Rectangle{Common: shape.Common{ID: "r", Elevation: 2}, Width: 10, Height: 10, FillStyle: "#fff"}}
	cmds, err := Resolve(list, view.Identity(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 {
		t.Fatalf("got %d commands", len(cmds))
	}
	if cmds[0].Fill != "rgba(0,0,0,0.12)" || cmds[0].Bounds.Y != 2 {
		t.Errorf("shadow = %+v", cmds[0])
	}
}

func TestHitTestTopmost(t *testing.T) {
	list := shape.List{
		&shape.Rectangle{Common: shape.Common{ID: "under"}, Width: 100, Height: 100, FillStyle: "#000"},
		&shape.Rectangle{Common: shape.Common{ID: "over"}, X: 10, Y: 10, Width: 20, Height: 20, FillStyle: "#fff"},
	}
	cmds, err := Resolve(list, view.Identity(), testOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got := HitTest(cmds, 15, 15); got != "over" {
		t.Errorf("HitTest = %q, want over", got)
	}
	if got := HitTest(cmds, 80, 80); got != "under" {
		t.Errorf("HitTest = %q, want under", got)
	}
	if got := HitTest(cmds, 500, 500); got != "" {
		t.Errorf("HitTest = %q, want empty", got)
	}
	b := SelectionBounds(cmds, []string{"over"})
	if b.X != 10 || b.Width != 20 {
		t.Errorf("SelectionBounds = %+v", b)
	}
}
