package tooltip

import (
	"math"
	"slices"
	"sort"
	"time"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
)

// Layout constants in pixels.
const (
	LabelPadding = 4
	CursorGap    = 10
	HaloRadius   = 5
	DotRadius    = 3
)

// Point is one sample in screen coordinates.
type Point struct {
	Millis int64
	Value  float64
	X, Y   float64
}

// Series is a layer's visible samples, sorted by X.
type Series struct {
	Label  string
	Color  string
	Points []Point
}

// Input is everything needed to lay out one tooltip.
type Input struct {
	CursorX, CursorY float64
	Series           []Series
	// Plot is the screen rectangle of the plot area.
	Plot     engine.Rect
	Position Position
	Font     string
	// Measure returns the rendered width of a label.
	Measure  func(string) float64
	Format   func(float64) string
	Location *time.Location
}

// Hit is the sample chosen for one series.
type Hit struct {
	Series int
	Point  Point
}

// Nearest returns the index of the point closest to x, or -1.
func Nearest(points []Point, x float64) int {
	if len(points) == 0 {
		return -1
	}
	i := sort.Search(len(points), func(i int) bool { return points[i].X >= x })
	switch {
	case i == 0:
		return 0
	case i == len(points):
		return len(points) - 1
	}
	if x-points[i-1].X <= points[i].X-x {
		return i - 1
	}
	return i
}

// Hits finds the nearest sample of every non-empty series, and the X of
// the globally nearest one.
func Hits(series []Series, x float64) ([]Hit, float64, bool) {
	var hits []Hit
	snapX, best := 0.0, math.Inf(1)
	for si, s := range series {
		i := Nearest(s.Points, x)
		if i < 0 {
			continue
		}
		p := s.Points[i]
		hits = append(hits, Hit{Series: si, Point: p})
		if d := math.Abs(p.X - x); d < best {
			best, snapX = d, p.X
		}
	}
	return hits, snapX, len(hits) > 0
}

// medianDelta is the median spacing between consecutive samples.
func medianDelta(points []Point) time.Duration {
	if len(points) < 2 {
		return 0
	}
	deltas := make([]int64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		deltas = append(deltas, points[i].Millis-points[i-1].Millis)
	}
	slices.Sort(deltas)
	return time.Duration(deltas[len(deltas)/2]) * time.Millisecond
}

// Build returns the tooltip as fixed shapes. It returns nil when the cursor
// is outside the plot or no series has data.
func Build(in Input) shape.List {
	if !in.Plot.Contains(in.CursorX, in.CursorY) {
		return nil
	}
	hits, snapX, ok := Hits(in.Series, in.CursorX)
	if !ok {
		return nil
	}
	if in.Measure == nil {
		in.Measure = func(s string) float64 { return 7 * float64(len([]rune(s))) }
	}
	if in.Format == nil {
		in.Format = func(v float64) string { return engine.FormatNumber(v) }
	}
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	font := engine.ParseFont(in.Font)
	top, bottom := in.Plot.Y, in.Plot.Y+in.Plot.Height

	out := shape.List{&shape.MultiLine{
		Common:      shape.Common{Fixed: true},
		Points:      []geometry.Point{{X: snapX, Y: top}, {X: snapX, Y: bottom}},
		StrokeStyle: "#999",
		LineWidth:   1,
		LineDash:    []float64{4, 4},
	}}

	for _, h := range hits {
		p := h.Point
		out = append(out,
			&shape.Circle{Common: shape.Common{Fixed: true}, X: p.X, Y: p.Y, R: HaloRadius, FillStyle: "#fff"},
			&shape.Circle{Common: shape.Common{Fixed: true}, X: p.X, Y: p.Y, R: DotRadius, FillStyle: in.Series[h.Series].Color},
		)
	}

	// The date belongs to the sample under the guide.
	snapped := hits[0]
	for _, h := range hits {
		if h.Point.X == snapX {
			snapped = h
			break
		}
	}
	layout := DateFormatFor(medianDelta(in.Series[snapped.Series].Points))
	date := time.UnixMilli(snapped.Point.Millis).In(loc).Format(layout)
	out = append(out, &shape.Text{
		Common:       shape.Common{Fixed: true},
		X:            snapX,
		Y:            bottom + LabelPadding,
		Text:         date,
		Font:         in.Font,
		FillStyle:    "#fff",
		TextAlign:    shape.AlignCenter,
		TextBaseline: shape.BaselineTop,
		Background:   &shape.TextBackground{FillStyle: "#333", BorderRadius: 3, Padding: LabelPadding},
	})

	if in.Position == PositionHidden {
		return out
	}
	return append(out, valueLabels(in, hits, snapX, font.Size)...)
}

func valueLabels(in Input, hits []Hit, snapX, size float64) shape.List {
	type label struct {
		text  string
		color string
		y     float64
	}
	labels := make([]label, len(hits))
	widest := 0.0
	for i, h := range hits {
		s := in.Series[h.Series]
		text := in.Format(h.Point.Value)
		if s.Label != "" {
			text = s.Label + ": " + text
		}
		labels[i] = label{text: text, color: s.Color, y: h.Point.Y}
		widest = max(widest, in.Measure(text))
	}
	// Highest value first.
	sort.SliceStable(labels, func(a, b int) bool { return labels[a].y < labels[b].y })

	h := size + 2*LabelPadding
	yMin := in.Plot.Y + LabelPadding
	yMax := in.Plot.Y + in.Plot.Height - h
	var ys []float64
	if in.Position == PositionAuto || in.Position == "" {
		natural := make([]float64, len(labels))
		for i, l := range labels {
			natural[i] = l.y - h/2
		}
		ys = StackAuto(natural, h, yMin, yMax)
	} else {
		ys = StackFixed(len(labels), h, in.Position, yMin, yMax)
	}

	x, align := snapX+CursorGap+LabelPadding, shape.AlignStart
	if x+widest+LabelPadding > in.Plot.X+in.Plot.Width {
		x, align = snapX-CursorGap-LabelPadding, shape.AlignEnd
	}

	out := make(shape.List, 0, len(labels))
	for i, l := range labels {
		out = append(out, &shape.Text{
			Common:       shape.Common{Fixed: true},
			X:            x,
			Y:            ys[i] + LabelPadding,
			Text:         l.text,
			Font:         in.Font,
			FillStyle:    "#222",
			TextAlign:    align,
			TextBaseline: shape.BaselineTop,
			Background: &shape.TextBackground{
				FillStyle:    "#fff",
				StrokeStyle:  l.color,
				LineWidth:    1,
				BorderRadius: 3,
				Padding:      LabelPadding,
			},
		})
	}
	return out
}
