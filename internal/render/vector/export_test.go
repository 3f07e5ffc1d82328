package vector

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

func export(t *testing.T, list shape.List) string {
	t.Helper()
	cmds, err := engine.Resolve(list, view.Identity(), engine.Options{Width: 100, Height: 50, Measure: engine.NewMeasureCache(engine.FixedWidth(6), 0)})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	var buf bytes.Buffer
	if err := Export(&buf, cmds, 100, 50, Options{Background: "white", Title: "test"}); err != nil {
		t.Fatalf("Export: %v", err)
	}
	return buf.String()
}

func TestExportRectangle(t *testing.T) {
	out := export(t, shape.List{&shape.Rectangle{X: 10, Y: 5, Width: 20, Height: 10, FillStyle: "rgba(255,0,0,0.5)"}})
	if !strings.Contains(out, `d="M 10 5 L 30 5 L 30 15 L 10 15 Z"`) {
		t.Errorf("missing rectangle path:\n%s", out)
	}
	if !strings.Contains(out, "fill:#ff0000;fill-opacity:0.5") {
		t.Errorf("missing fill style:\n%s", out)
	}
}

func TestExportIsWellFormed(t *testing.T) {
	out := export(t, shape.List{
		&shape.MultiLine{Points: []geometry.Point{{X: 0, Y: 10}, {X: 20, Y: 5}, {X: 40, Y: 12}, {X: 60, Y: 40}}, StrokeStyle: "#336699", Variant: "smooth", WithGradient: true},
		&shape.Text{X: 50, Y: 25, Text: "a < b & c", TextAlign: shape.AlignCenter, Background: &shape.TextBackground{FillStyle: "#fff", Padding: 2}},
		&shape.Image{X: 1, Y: 1, Width: 10.4, Height: 9.6, Src: "/assets/logo.png", Common: shape.Common{Opacity: shape.Opacity(0.5)}},
	})
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("invalid XML: %v\n%s", err, out)
		}
	}
	if !strings.Contains(out, `gradientUnits="userSpaceOnUse"`) || !strings.Contains(out, "fill:url(#grad0)") {
		t.Errorf("missing gradient:\n%s", out)
	}
	if !strings.Contains(out, "translate(23,25)") {
		t.Errorf("text not anchored at its resolved left edge:\n%s", out)
	}
}

// The vector path must carry exactly the geometry the raster backend
// replays.
func TestPathDataMatchesResolvedGeometry(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 20, Y: 0}}
	cmds, err := engine.Resolve(shape.List{&shape.MultiLine{Points: pts, Variant: "smooth"}}, view.Identity(), engine.Options{})
	if err != nil {
		t.Fatal(err)
	}
	got := PathData(cmds[0].Path)
	want := "M 0 0 Q 10 10 15 5 L 20 0"
	if got != want {
		t.Errorf("PathData = %q, want %q", got, want)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExportReportsWriteErrors(t *testing.T) {
	if err := Export(failingWriter{}, nil, 10, 10, Options{}); err == nil {
		t.Error("expected write error")
	}
}

func TestNumFormatting(t *testing.T) {
	tests := map[float64]string{
		1:          "1",
		1.23456:    "1.235",
		-0.0001:    "0",
		1234.5:     "1234.5",
		-7.0000001: "-7",
	}
	for in, want := range tests {
		if got := num(in); got != want {
			t.Errorf("num(%v) = %q, want %q", in, got, want)
		}
	}
}
