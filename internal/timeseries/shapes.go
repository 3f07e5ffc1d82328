package timeseries

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

// MinLineLength is the on-screen polyline length below which a layer is
// drawn as points instead of a line.
const MinLineLength = 4

// Shape sizes in pixels.
const (
	PointRadius = 3
	LineWidth   = 2
	BarGap      = 1
)

// Mode is how one layer is drawn.
type Mode int

const (
	ModeLine Mode = iota
	ModeSmooth
	ModeBars
	ModePoints
)

func (m Mode) String() string {
	switch m {
	case ModeLine:
		return "line"
	case ModeSmooth:
		return "smooth"
	case ModeBars:
		return "bars"
	case ModePoints:
		return "points"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// SelectMode picks the rendering mode for a layer from its on-screen
// points.
func SelectMode(style RenderStyle, screen []geometry.Point) Mode {
	switch style {
	case StyleScatter:
		return ModePoints
	case StyleBars:
		return ModeBars
	}
	if geometry.PolylineLength(screen) < MinLineLength {
		return ModePoints
	}
	if style == StyleSmooth {
		return ModeSmooth
	}
	return ModeLine
}

// BinWidth is the data-space width of one bin. Without a usable bin size
// the plot width is shared evenly by the samples of one layer.
func (d *Dataset) BinWidth() float64 {
	if d.Options.BinSize > 0 {
		w := d.X.Map(d.X.D0+float64(d.Options.BinSize)) - d.X.Map(d.X.D0)
		if w > 0 && !math.IsInf(w, 0) {
			return w
		}
	}
	total, layers := 0, 0
	for _, s := range d.Samples {
		if len(s) > 0 {
			total += len(s)
			layers++
		}
	}
	perLayer := 1
	if layers > 0 {
		perLayer = max(1, total/layers)
	}
	return d.Plot.Width / float64(perLayer)
}

// Bar is the data-space box of one sample.
type Bar struct {
	Sample        Sample
	X, Y          float64
	Width, Height float64
}

// Bars lays out layer i's samples as bars. Layers share each bin side by
// side, the group centered on the sample date.
func (d *Dataset) Bars(i int) []Bar {
	bin := d.BinWidth()
	n := float64(len(d.Layers))
	each := bin / n
	width := math.Max(each-BarGap, each/2)
	y := d.Y[i]
	base := y.Map(math.Max(y.D0, math.Min(y.D1, 0)))

	out := make([]Bar, 0, len(d.Samples[i]))
	for _, s := range d.Samples[i] {
		x := s.X - bin/2 + float64(i)*each
		out = append(out, Bar{
			Sample: s,
			X:      x,
			Y:      math.Min(s.Y, base),
			Width:  width,
			Height: math.Abs(base - s.Y),
		})
	}
	return out
}

// ScreenPoints projects layer i through the view.
func (d *Dataset) ScreenPoints(i int, v view.View) []geometry.Point {
	out := make([]geometry.Point, len(d.Samples[i]))
	for j, s := range d.Samples[i] {
		out[j].X, out[j].Y = v.DataToScreen(s.X, s.Y)
	}
	return out
}

// ScreenSamples is ScreenPoints keeping dates and values.
func (d *Dataset) ScreenSamples(i int, v view.View) []Sample {
	out := make([]Sample, len(d.Samples[i]))
	for j, s := range d.Samples[i] {
		out[j] = s
		out[j].X, out[j].Y = v.DataToScreen(s.X, s.Y)
	}
	return out
}

// payload is attached to every data shape so hit tests can find the layer.
type payload struct {
	Layer        string   `json:"layer"`
	Cols         []string `json:"cols,omitempty"`
	GroupByValue string   `json:"groupByValue,omitempty"`
	DateMillis   int64    `json:"dateMillis,omitempty"`
}

func (d *Dataset) payload(i int, ms int64) json.RawMessage {
	l := d.Layers[i]
	b, err := json.Marshal(payload{Layer: l.Label, Cols: l.Cols, GroupByValue: l.GroupByValue, DateMillis: ms})
	if err != nil {
		return nil
	}
	return b
}

// Shapes returns the data-space shapes of every layer for the view.
func (d *Dataset) Shapes(v view.View) (shape.List, []Mode) {
	var out shape.List
	modes := make([]Mode, len(d.Layers))
	for i, l := range d.Layers {
		if len(d.Samples[i]) == 0 {
			continue
		}
		mode := SelectMode(d.Options.Style, d.ScreenPoints(i, v))
		modes[i] = mode
		id := fmt.Sprintf("layer-%d", i)
		switch mode {
		case ModeBars:
			for _, b := range d.Bars(i) {
				out = append(out, &shape.Rectangle{
					Common:    shape.Common{ID: id, Data: d.payload(i, b.Sample.Millis)},
					X:         b.X,
					Y:         b.Y,
					Width:     b.Width,
					Height:    b.Height,
					FillStyle: l.Color,
				})
			}
		case ModePoints:
			for _, s := range d.Samples[i] {
				out = append(out, &shape.Circle{
					Common:    shape.Common{ID: id, Data: d.payload(i, s.Millis)},
					X:         s.X,
					Y:         s.Y,
					R:         PointRadius,
					FillStyle: l.Color,
				})
			}
		default:
			pts := make([]geometry.Point, len(d.Samples[i]))
			for j, s := range d.Samples[i] {
				pts[j] = geometry.Point{X: s.X, Y: s.Y}
			}
			line := &shape.MultiLine{
				Common:       shape.Common{ID: id, Data: d.payload(i, 0)},
				Points:       pts,
				StrokeStyle:  l.Color,
				LineWidth:    LineWidth,
				WithGradient: d.Options.Gradient,
			}
			if mode == ModeSmooth {
				line.Variant = shape.VariantSmooth
			}
			out = append(out, line)
		}
	}
	return out, modes
}
