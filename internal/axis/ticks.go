package axis

import (
	"math"
	"strings"
	"time"

	"github.com/pgdash/canvaschart/internal/shape"
)

// Spacing rule for mid ticks, in pixels of free space between labels.
const (
	MinSpacing   = 20
	IdealSpacing = 30
)

// Edge tick label layouts.
const (
	EdgeTimeLayout = "15:04:05"
	EdgeDateLayout = "2006-01-02"
)

// maxTicks bounds grid iteration.
const maxTicks = 1000

// Tick is one labeled axis position. Lines holds one entry for mid ticks
// and two (time over date) for edge ticks.
type Tick struct {
	Millis int64
	X      float64
	Lines  []string
	Align  shape.Align
	Width  float64
}

// Label joins the tick's lines.
func (t Tick) Label() string {
	return strings.Join(t.Lines, "\n")
}

func (t Tick) left() float64 {
	switch t.Align {
	case shape.AlignCenter:
		return t.X - t.Width/2
	case shape.AlignEnd:
		return t.X - t.Width
	}
	return t.X
}

func (t Tick) right() float64 { return t.left() + t.Width }

// Input describes the visible range and the pixels available for it.
type Input struct {
	MinMillis, MaxMillis int64
	// Left and Width locate the plot horizontally in screen pixels.
	Left, Width float64
	// Samples are sorted sample dates; when sparse enough ticks snap to
	// them instead of the regular grid.
	Samples []int64
	// Measure returns the rendered width of a label.
	Measure  func(string) float64
	Location *time.Location
}

// Result is the generated axis.
type Result struct {
	// Granularity is nil for a single-instant range or when no step fits.
	Granularity *Granularity
	Snapped     bool
	Ticks       []Tick
	Edges       []Tick
}

// All returns mid ticks followed by edge ticks.
func (r Result) All() []Tick {
	out := make([]Tick, 0, len(r.Ticks)+len(r.Edges))
	out = append(out, r.Ticks...)
	return append(out, r.Edges...)
}

// Generate selects a granularity and places ticks for the input range.
func Generate(in Input) Result {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	measure := in.Measure
	if measure == nil {
		measure = func(s string) float64 { return 7 * float64(len(s)) }
	}
	if in.Width <= 0 {
		return Result{}
	}

	if in.MinMillis >= in.MaxMillis {
		t := time.UnixMilli(in.MinMillis).In(loc)
		tick := twoLine(t, in.Left+in.Width/2, shape.AlignCenter, measure)
		tick.Millis = in.MinMillis
		return Result{Ticks: []Tick{tick}}
	}

	pxPerMs := in.Width / float64(in.MaxMillis-in.MinMillis)
	xOf := func(ms int64) float64 { return in.Left + float64(ms-in.MinMillis)*pxPerMs }

	minT := time.UnixMilli(in.MinMillis).In(loc)
	maxT := time.UnixMilli(in.MaxMillis).In(loc)
	edges := []Tick{
		twoLine(minT, in.Left, shape.AlignStart, measure),
		twoLine(maxT, in.Left+in.Width, shape.AlignEnd, measure),
	}
	edges[0].Millis, edges[1].Millis = in.MinMillis, in.MaxMillis

	res := Result{Edges: edges}
	g, ok := choose(minT, pxPerMs, measure)
	if !ok {
		return res
	}
	res.Granularity = &g

	ticks, snapped := snap(in, g, loc, xOf, measure)
	if !snapped {
		ticks = grid(g, minT, maxT, xOf, measure)
	}
	res.Snapped = snapped
	for _, t := range ticks {
		if overlaps(t, edges[0]) || overlaps(t, edges[1]) {
			continue
		}
		res.Ticks = append(res.Ticks, t)
	}
	return res
}

// choose picks the viable granularity whose free gap is closest to
// IdealSpacing.
func choose(ref time.Time, pxPerMs float64, measure func(string) float64) (Granularity, bool) {
	best, bestDiff := -1, math.Inf(1)
	for i, g := range catalogue {
		spacing := float64(g.Approx().Milliseconds()) * pxPerMs
		gap := spacing - measure(g.Format(ref))
		if gap <= MinSpacing {
			continue
		}
		if d := math.Abs(gap - IdealSpacing); d < bestDiff {
			best, bestDiff = i, d
		}
	}
	if best < 0 {
		return Granularity{}, false
	}
	return catalogue[best], true
}

// snap places one tick per visible sample when no two neighboring labels
// come closer than MinSpacing.
func snap(in Input, g Granularity, loc *time.Location, xOf func(int64) float64, measure func(string) float64) ([]Tick, bool) {
	var ticks []Tick
	for _, ms := range in.Samples {
		if ms < in.MinMillis || ms > in.MaxMillis {
			continue
		}
		ticks = append(ticks, mid(ms, g, loc, xOf, measure))
	}
	if len(ticks) == 0 {
		return nil, false
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].left()-ticks[i-1].right() < MinSpacing {
			return nil, false
		}
	}
	return ticks, true
}

func grid(g Granularity, minT, maxT time.Time, xOf func(int64) float64, measure func(string) float64) []Tick {
	var ticks []Tick
	for t, n := g.Floor(minT), 0; !t.After(maxT) && n < maxTicks; t, n = g.Next(t), n+1 {
		if t.Before(minT) {
			continue
		}
		ticks = append(ticks, mid(t.UnixMilli(), g, minT.Location(), xOf, measure))
	}
	return ticks
}

func mid(ms int64, g Granularity, loc *time.Location, xOf func(int64) float64, measure func(string) float64) Tick {
	label := g.Format(time.UnixMilli(ms).In(loc))
	return Tick{
		Millis: ms,
		X:      xOf(ms),
		Lines:  []string{label},
		Align:  shape.AlignCenter,
		Width:  measure(label),
	}
}

func twoLine(t time.Time, x float64, align shape.Align, measure func(string) float64) Tick {
	lines := []string{t.Format(EdgeTimeLayout), t.Format(EdgeDateLayout)}
	return Tick{
		X:     x,
		Lines: lines,
		Align: align,
		Width: math.Max(measure(lines[0]), measure(lines[1])),
	}
}

func overlaps(a, b Tick) bool {
	return a.left() < b.right() && b.left() < a.right()
}
