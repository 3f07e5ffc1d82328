package tooltip

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/shape"
)

func TestNearest(t *testing.T) {
	pts := []Point{{X: 0}, {X: 10}, {X: 20}}
	tests := []struct {
		x    float64
		want int
	}{
		{-5, 0}, {4, 0}, {5, 0}, {6, 1}, {14, 1}, {16, 2}, {100, 2},
	}
	for _, tt := range tests {
		if got := Nearest(pts, tt.x); got != tt.want {
			t.Errorf("Nearest(%v) = %d, want %d", tt.x, got, tt.want)
		}
	}
	if Nearest(nil, 1) != -1 {
		t.Error("empty series should have no nearest point")
	}
}

func TestDateFormatFor(t *testing.T) {
	tests := []struct {
		delta time.Duration
		want  string
	}{
		{100 * time.Millisecond, LayoutMillis},
		{10 * time.Second, LayoutSecond},
		{time.Minute, LayoutMinute},
		{6 * time.Hour, LayoutMinute},
		{24 * time.Hour, LayoutDay},
		{45 * 24 * time.Hour, LayoutMonth},
	}
	for _, tt := range tests {
		if got := DateFormatFor(tt.delta); got != tt.want {
			t.Errorf("DateFormatFor(%v) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

func TestStackAuto(t *testing.T) {
	tests := []struct {
		name       string
		ys         []float64
		yMin, yMax float64
		want       []float64
	}{
		{"untouched", []float64{10, 50, 90}, 0, 300, []float64{10, 50, 90}},
		{"pushed up", []float64{100, 105, 110}, 0, 300, []float64{70, 90, 110}},
		{"top overflow", []float64{0, 0, 0}, 10, 300, []float64{10, 30, 50}},
		{"bottom clamp", []float64{290, 400}, 0, 300, []float64{280, 300}},
		{"spread", []float64{0, 0, 0, 0}, 0, 30, []float64{0, 10, 20, 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StackAuto(tt.ys, 20, tt.yMin, tt.yMax)
			if !slices.Equal(got, tt.want) {
				t.Errorf("StackAuto = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStackAutoBounds(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 5))
	const h, yMin, yMax = 16.0, 20.0, 320.0
	for i := 0; i < 500; i++ {
		n := 1 + rng.IntN(19)
		ys := make([]float64, n)
		for j := range ys {
			ys[j] = rng.Float64()*400 - 50
		}
		slices.Sort(ys)
		got := StackAuto(ys, h, yMin, yMax)
		for j, y := range got {
			if y < yMin-1e-9 || y > yMax+1e-9 {
				t.Fatalf("label %d of %d at %v outside [%v,%v]", j, n, y, yMin, yMax)
			}
			if j > 0 && got[j]-got[j-1] < h-1e-9 {
				t.Fatalf("labels %d and %d only %v apart: %v", j-1, j, got[j]-got[j-1], got)
			}
		}
	}
}

func TestStackFixed(t *testing.T) {
	tests := []struct {
		pos  Position
		want []float64
	}{
		{PositionTop, []float64{0, 20, 40}},
		{PositionBottom, []float64{60, 80, 100}},
		{PositionMiddle, []float64{30, 50, 70}},
	}
	for _, tt := range tests {
		if got := StackFixed(3, 20, tt.pos, 0, 100); !slices.Equal(got, tt.want) {
			t.Errorf("%s: %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func sampleInput(cursorX float64, pos Position) Input {
	base := time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC).UnixMilli()
	mk := func(values ...float64) []Point {
		pts := make([]Point, len(values))
		for i, v := range values {
			pts[i] = Point{Millis: base + int64(i)*60_000, Value: v, X: 50 + float64(i)*100, Y: 200 - v}
		}
		return pts
	}
	return Input{
		CursorX: cursorX, CursorY: 100,
		Series: []Series{
			{Label: "cpu", Color: "#f00", Points: mk(10, 20, 30, 40)},
			{Label: "io", Color: "#00f", Points: mk(100, 90, 80, 70)},
			{Label: "empty", Color: "#0f0"},
		},
		Plot:     engine.Rect{X: 0, Y: 0, Width: 400, Height: 300},
		Position: pos,
		Font:     "12px sans-serif",
	}
}

func TestBuild(t *testing.T) {
	list := Build(sampleInput(160, PositionAuto))
	// guide, two markers per hit, date label, one value label per hit
	if len(list) != 1+4+1+2 {
		t.Fatalf("shapes = %d", len(list))
	}
	guide := list[0].(*shape.MultiLine)
	if guide.Points[0].X != 150 {
		t.Errorf("guide at %v, want the snapped sample x 150", guide.Points[0].X)
	}
	date := list[5].(*shape.Text)
	if date.Text != "2024-05-01 09:31" {
		t.Errorf("date label = %q", date.Text)
	}
	first := list[6].(*shape.Text)
	if first.Text != "io: 90" || first.TextAlign != shape.AlignStart {
		t.Errorf("top label = %q (%s)", first.Text, first.TextAlign)
	}
	for _, s := range list {
		if !s.Attrs().Fixed {
			t.Fatalf("%s is not fixed", s.Type())
		}
	}
}

func TestBuildDateFollowsSnappedSeries(t *testing.T) {
	in := sampleInput(185, PositionHidden)
	hour := time.Hour.Milliseconds()
	late := make([]Point, 0, 4)
	for i, p := range in.Series[1].Points {
		p.Millis += hour
		p.X = 90 + float64(i)*100
		late = append(late, p)
	}
	in.Series[1].Points = late

	list := Build(in)
	if len(list) != 1+4+1 {
		t.Fatalf("shapes = %d", len(list))
	}
	if x := list[0].(*shape.MultiLine).Points[0].X; x != 190 {
		t.Fatalf("guide at %v, want 190", x)
	}
	date := list[5].(*shape.Text)
	if date.Text != "2024-05-01 10:31" || date.X != 190 {
		t.Errorf("date label = %q at %v, want 2024-05-01 10:31 at 190", date.Text, date.X)
	}
}

func TestBuildMirrorsNearRightEdge(t *testing.T) {
	list := Build(sampleInput(340, PositionTop))
	last := list[len(list)-1].(*shape.Text)
	if last.TextAlign != shape.AlignEnd || last.X >= 350 {
		t.Errorf("label not mirrored: x=%v align=%s", last.X, last.TextAlign)
	}
}

func TestBuildHidden(t *testing.T) {
	list := Build(sampleInput(160, PositionHidden))
	if len(list) != 1+4+1 {
		t.Errorf("hidden tooltip has %d shapes", len(list))
	}
}

func TestBuildOutsidePlot(t *testing.T) {
	in := sampleInput(160, PositionAuto)
	in.CursorY = 500
	if got := Build(in); got != nil {
		t.Errorf("cursor outside plot produced %d shapes", len(got))
	}
}
