package timeseries

import (
	"math"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
)

// Value label placement in pixels and degrees.
const (
	LabelOffset      = 10
	MinLabelGap      = 4
	SteepAngleMin    = 55
	SteepAngleMax    = 120
	labelFontDefault = 12
)

// ValueLabel is a positioned value annotation in screen space.
type ValueLabel struct {
	X, Y     float64
	Text     string
	Baseline shape.Baseline
}

// LabelInput is what BinValueLabels needs about one layer.
type LabelInput struct {
	// Points are the layer's samples in screen coordinates, sorted by X.
	Points   []Sample
	Mode     LabelMode
	Smooth   bool
	Plot     engine.Rect
	FontSize float64
	Measure  func(string) float64
	Format   func(float64) string
}

// BinValueLabels places value labels on a layer according to the label
// mode. Labels sit LabelOffset above the line, or below it where the line
// climbs steeply, at troughs, and where above would leave the plot.
func BinValueLabels(in LabelInput) []ValueLabel {
	pts := in.Points
	if len(pts) == 0 || in.Mode == LabelsOff || in.Mode == "" {
		return nil
	}
	if in.Format == nil {
		in.Format = engine.FormatNumber
	}
	if in.Measure == nil {
		in.Measure = func(s string) float64 { return 7 * float64(len(s)) }
	}
	if in.FontSize <= 0 {
		in.FontSize = labelFontDefault
	}
	var curve []geometry.Point
	if in.Smooth {
		curve = make([]geometry.Point, len(pts))
		for i, p := range pts {
			curve[i] = geometry.Point{X: p.X, Y: p.Y}
		}
	}

	var out []ValueLabel
	prevRight := math.Inf(-1)
	add := func(i int, trough bool) {
		p := pts[i]
		text := in.Format(p.Value)
		y := p.Y
		if curve != nil {
			y = geometry.YAtX(curve, p.X)
		}
		l := ValueLabel{X: p.X, Text: text}
		if trough || steep(pts, i) || y-LabelOffset-in.FontSize < in.Plot.Y {
			l.Y, l.Baseline = y+LabelOffset, shape.BaselineTop
		} else {
			l.Y, l.Baseline = y-LabelOffset, shape.BaselineBottom
		}
		out = append(out, l)
		prevRight = p.X + in.Measure(text)/2
	}

	switch in.Mode {
	case LabelsLatest:
		add(len(pts)-1, false)
	case LabelsAll:
		for i, p := range pts {
			w := in.Measure(in.Format(p.Value))
			if p.X-w/2 < prevRight+MinLabelGap {
				continue
			}
			add(i, false)
		}
	case LabelsPeaks:
		for i := 1; i < len(pts)-1; i++ {
			a, b, c := pts[i-1].Y, pts[i].Y, pts[i+1].Y
			switch {
			case b <= a && b <= c && (b < a || b < c):
				add(i, false)
			case b >= a && b >= c && (b > a || b > c):
				add(i, true)
			}
		}
	}
	return out
}

// steep reports whether the segment leaving point i climbs at an angle
// between SteepAngleMin and SteepAngleMax degrees.
func steep(pts []Sample, i int) bool {
	if i+1 >= len(pts) {
		return false
	}
	dx := pts[i+1].X - pts[i].X
	dy := pts[i].Y - pts[i+1].Y
	deg := math.Atan2(dy, dx) * 180 / math.Pi
	return deg >= SteepAngleMin && deg <= SteepAngleMax
}

// labelShapes converts labels to fixed text shapes.
func labelShapes(labels []ValueLabel, font, color string) shape.List {
	out := make(shape.List, 0, len(labels))
	for _, l := range labels {
		out = append(out, &shape.Text{
			Common:       shape.Common{Fixed: true},
			X:            l.X,
			Y:            l.Y,
			Text:         l.Text,
			Font:         font,
			FillStyle:    color,
			TextAlign:    shape.AlignCenter,
			TextBaseline: l.Baseline,
		})
	}
	return out
}
