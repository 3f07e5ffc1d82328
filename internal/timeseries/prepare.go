package timeseries

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/tooltip"
)

// BottomMargin reserves room under the plot for two-line edge labels.
const BottomMargin = 40

// PixelsPerSecond is the zoom ceiling: one second of data never spans
// more than this many pixels.
const PixelsPerSecond = 70

var (
	// ErrNoData is returned when no layer has a usable sample.
	ErrNoData = errors.New("timeseries: no data")
	// ErrNoSpace is returned when padding leaves no plot area.
	ErrNoSpace = errors.New("timeseries: no room for the plot area")
)

// RenderStyle selects how layers are drawn.
type RenderStyle string

const (
	StyleLine    RenderStyle = "line"
	StyleSmooth  RenderStyle = "smooth"
	StyleBars    RenderStyle = "bars"
	StyleScatter RenderStyle = "scatter plot"
)

// LabelMode selects which samples get a value label.
type LabelMode string

const (
	LabelsOff    LabelMode = "off"
	LabelsLatest LabelMode = "latest point"
	LabelsAll    LabelMode = "all points"
	LabelsPeaks  LabelMode = "peaks and troughs"
)

// YAxisMode selects shared or per-layer value domains.
type YAxisMode string

const (
	YAxisSingle   YAxisMode = "single"
	YAxisMultiple YAxisMode = "multiple"
)

// Padding insets the plot area from the surface edges.
type Padding struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Options configure the pipeline and the time chart.
type Options struct {
	Style           RenderStyle      `json:"renderStyle,omitempty"`
	BinSize         int64            `json:"binSize,omitempty"`
	LabelMode       LabelMode        `json:"labelMode,omitempty"`
	YAxisMode       YAxisMode        `json:"yAxisScaleMode,omitempty"`
	Padding         Padding          `json:"padding"`
	TooltipPosition tooltip.Position `json:"tooltipPosition,omitempty"`
	Gradient        bool             `json:"gradient,omitempty"`
	MaxSamples      int              `json:"maxSamples,omitempty"`
	Font            string           `json:"font,omitempty"`

	Location *time.Location `json:"-"`
	Logger   *slog.Logger   `json:"-"`
}

// withDefaults fills zero values and rejects unknown enum values.
func (o Options) withDefaults() (Options, error) {
	switch o.Style {
	case "":
		o.Style = StyleLine
	case StyleLine, StyleSmooth, StyleBars, StyleScatter:
	default:
		return o, fmt.Errorf("timeseries: unknown render style %q", o.Style)
	}
	switch o.LabelMode {
	case "":
		o.LabelMode = LabelsOff
	case LabelsOff, LabelsLatest, LabelsAll, LabelsPeaks:
	default:
		return o, fmt.Errorf("timeseries: unknown label mode %q", o.LabelMode)
	}
	switch o.YAxisMode {
	case "":
		o.YAxisMode = YAxisSingle
	case YAxisSingle, YAxisMultiple:
	default:
		return o, fmt.Errorf("timeseries: unknown y axis mode %q", o.YAxisMode)
	}
	switch o.TooltipPosition {
	case "":
		o.TooltipPosition = tooltip.PositionAuto
	case tooltip.PositionAuto, tooltip.PositionTop, tooltip.PositionBottom, tooltip.PositionMiddle, tooltip.PositionHidden:
	default:
		return o, fmt.Errorf("timeseries: unknown tooltip position %q", o.TooltipPosition)
	}
	if o.MaxSamples <= 0 {
		o.MaxSamples = DefaultMaxSamples
	}
	if o.Font == "" {
		o.Font = "12px sans-serif"
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o, nil
}

// LinearScale maps the domain [D0, D1] onto the range [R0, R1].
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// Map converts a domain value to the range.
func (s LinearScale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert converts a range value back to the domain.
func (s LinearScale) Invert(r float64) float64 {
	if s.R1 == s.R0 {
		return (s.D0 + s.D1) / 2
	}
	return s.D0 + (r-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Dataset is the prepared geometry of a set of layers for one surface
// size.
type Dataset struct {
	Layers  []*Layer
	Samples [][]Sample
	Options Options

	Width, Height    float64
	MinDate, MaxDate int64
	Plot             engine.Rect

	X LinearScale
	// Y holds one scale per layer; in single mode they are identical.
	Y []LinearScale

	// MaxXScale is the zoom ceiling for the view's x axis.
	MaxXScale float64
}

// Prepare parses, caps and projects the layers onto a width x height
// surface.
func Prepare(layers []*Layer, width, height float64, opts Options) (*Dataset, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	pad := opts.Padding
	plot := engine.Rect{
		X:      pad.Left,
		Y:      pad.Top,
		Width:  width - pad.Left - pad.Right,
		Height: height - pad.Top - pad.Bottom - BottomMargin,
	}
	if plot.IsEmpty() {
		return nil, ErrNoSpace
	}

	d := &Dataset{
		Layers:  layers,
		Samples: make([][]Sample, len(layers)),
		Options: opts,
		Width:   width,
		Height:  height,
		Plot:    plot,
		Y:       make([]LinearScale, len(layers)),
	}

	minDate, maxDate := int64(math.MaxInt64), int64(math.MinInt64)
	minV, maxV := math.Inf(1), math.Inf(-1)
	found := false
	for i, l := range layers {
		s := l.Samples(opts.MaxSamples, opts.Logger)
		d.Samples[i] = s
		if len(s) == 0 {
			continue
		}
		found = true
		minDate = min(minDate, s[0].Millis)
		maxDate = max(maxDate, s[len(s)-1].Millis)
		if fe := l.FullExtent; fe != nil && fe.Min <= fe.Max {
			minDate = min(minDate, fe.Min)
			maxDate = max(maxDate, fe.Max)
		}
		lo, hi, _ := l.Domain()
		minV, maxV = math.Min(minV, lo), math.Max(maxV, hi)
	}
	if !found {
		return nil, ErrNoData
	}
	d.MinDate, d.MaxDate = minDate, maxDate

	d0, d1 := float64(minDate), float64(maxDate)
	if d0 == d1 {
		d0, d1 = d0-1, d1+1
	}
	d.X = LinearScale{D0: d0, D1: d1, R0: plot.X, R1: plot.X + plot.Width}

	bottom := plot.Y + plot.Height
	for i, l := range layers {
		lo, hi := minV, maxV
		if opts.YAxisMode == YAxisMultiple {
			var ok bool
			if lo, hi, ok = l.Domain(); !ok {
				lo, hi = minV, maxV
			}
		}
		if lo == hi {
			lo, hi = lo-1, hi+1
		}
		// Larger values sit higher on screen.
		d.Y[i] = LinearScale{D0: lo, D1: hi, R0: bottom, R1: plot.Y}
		for j := range d.Samples[i] {
			s := &d.Samples[i][j]
			s.X = d.X.Map(float64(s.Millis))
			s.Y = d.Y[i].Map(s.Value)
		}
	}

	spanMs := float64(maxDate - minDate)
	d.MaxXScale = math.Max(1, PixelsPerSecond*spanMs/(1000*plot.Width))
	return d, nil
}

// DateAt converts an x in data space to epoch milliseconds.
func (d *Dataset) DateAt(x float64) int64 {
	return int64(math.Round(d.X.Invert(x)))
}

// Nearest returns the sample of layer i closest in time to ms.
func (d *Dataset) Nearest(i int, ms int64) (Sample, bool) {
	s := d.Samples[i]
	if len(s) == 0 {
		return Sample{}, false
	}
	lo, hi := 0, len(s)
	for lo < hi {
		m := (lo + hi) / 2
		if s[m].Millis < ms {
			lo = m + 1
		} else {
			hi = m
		}
	}
	switch {
	case lo == 0:
		return s[0], true
	case lo == len(s):
		return s[len(s)-1], true
	}
	if ms-s[lo-1].Millis <= s[lo].Millis-ms {
		return s[lo-1], true
	}
	return s[lo], true
}
