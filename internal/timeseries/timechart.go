package timeseries

import (
	"errors"
	"math"

	"github.com/pgdash/canvaschart/internal/axis"
	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/geometry"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/tooltip"
)

// NoDataText is drawn when there is nothing to plot.
const NoDataText = "No data"

// ClickInfo identifies the sample nearest to a click.
type ClickInfo struct {
	DateMillis int64 `json:"dateMillis"`
	IsMinDate  bool  `json:"isMinDate"`
}

// TimeChart binds layers to a chart host. The host's y axis is locked and
// its x zoom is capped by the prepared dataset.
type TimeChart struct {
	host    *chart.Host
	opts    Options
	layers  []*Layer
	data    *Dataset
	style   axis.Style
	onClick func(ClickInfo)
}

// NewTimeChart creates the host from hostOpts and installs the chart's
// shape generator. onClick may be nil.
func NewTimeChart(hostOpts chart.Options, opts Options, onClick func(ClickInfo)) (*TimeChart, error) {
	checked, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	tc := &TimeChart{opts: checked, style: axis.DefaultStyle(), onClick: onClick}
	tc.style.Font = checked.Font

	next := hostOpts.OnClick
	hostOpts.OnClick = func(c chart.Click) {
		tc.click(c)
		if next != nil {
			next(c)
		}
	}
	hostOpts.Policy.YScaleLocked = true
	hostOpts.Policy.YPanLocked = true
	tc.host = chart.NewHost(hostOpts)
	if err := tc.host.SetGenerator(tc.generate); err != nil {
		return nil, err
	}
	return tc, nil
}

// Host returns the underlying chart host.
func (tc *TimeChart) Host() *chart.Host { return tc.host }

// Dataset returns the prepared data, or nil when there is none.
func (tc *TimeChart) Dataset() *Dataset { return tc.data }

// SetLayers assigns new layers and re-renders.
func (tc *TimeChart) SetLayers(layers []*Layer) error {
	tc.layers = layers
	return tc.refresh()
}

// Resize resizes the host and re-projects the data.
func (tc *TimeChart) Resize(width, height, ratio float64) error {
	if err := tc.host.Resize(width, height, ratio); err != nil {
		return err
	}
	return tc.refresh()
}

func (tc *TimeChart) refresh() error {
	st := tc.host.State()
	tc.data = nil
	if st.Width > 0 && st.Height > 0 {
		d, err := Prepare(tc.layers, st.Width, st.Height, tc.opts)
		switch {
		case errors.Is(err, ErrNoData), errors.Is(err, ErrNoSpace):
		case err != nil:
			return err
		default:
			tc.data = d
			p := st.Policy
			p.MaxXScale = d.MaxXScale
			if err := tc.host.SetPolicy(p); err != nil {
				return err
			}
		}
	}
	return tc.host.SetGenerator(tc.generate)
}

func (tc *TimeChart) measure() func(string) float64 {
	cache := tc.host.Measure()
	font := engine.ParseFont(tc.opts.Font)
	return func(s string) float64 { return cache.Width(s, font, shape.AlignCenter) }
}

func (tc *TimeChart) generate(sc chart.Scene) shape.List {
	d := tc.data
	if d == nil {
		return shape.List{&shape.Text{
			Common:       shape.Common{Fixed: true},
			X:            sc.Width / 2,
			Y:            sc.Height / 2,
			Text:         NoDataText,
			Font:         tc.opts.Font,
			FillStyle:    "#888",
			TextAlign:    shape.AlignCenter,
			TextBaseline: shape.BaselineMiddle,
		}}
	}

	list, modes := d.Shapes(sc.View)
	measure := tc.measure()
	plot := d.Plot
	bottom := plot.Y + plot.Height

	left, _ := sc.View.ScreenToData(plot.X, 0)
	right, _ := sc.View.ScreenToData(plot.X+plot.Width, 0)
	minMs, maxMs := d.DateAt(left), d.DateAt(right)
	// The date domain of a single instant is widened for projection only;
	// the axis labels the instant itself.
	if d.MinDate == d.MaxDate {
		minMs, maxMs = d.MinDate, d.MaxDate
	}
	ax := axis.Generate(axis.Input{
		MinMillis: minMs,
		MaxMillis: maxMs,
		Left:      plot.X,
		Width:     plot.Width,
		Samples:   d.firstDates(),
		Measure:   measure,
		Location:  tc.opts.Location,
	})
	list = append(list, &shape.MultiLine{
		Common:      shape.Common{Fixed: true},
		Points:      []geometry.Point{{X: plot.X, Y: bottom}, {X: plot.X + plot.Width, Y: bottom}},
		StrokeStyle: tc.style.TickColor,
		LineWidth:   1,
	})
	list = append(list, ax.Shapes(bottom, tc.style)...)

	size := engine.ParseFont(tc.opts.Font).Size
	if tc.opts.LabelMode != LabelsOff {
		for i, l := range d.Layers {
			labels := BinValueLabels(LabelInput{
				Points:   d.ScreenSamples(i, sc.View),
				Mode:     tc.opts.LabelMode,
				Smooth:   modes[i] == ModeSmooth,
				Plot:     plot,
				FontSize: size,
				Measure:  measure,
			})
			list = append(list, labelShapes(labels, tc.opts.Font, l.Color)...)
		}
	}

	if tip := sc.Tooltip; tip != nil {
		series := make([]tooltip.Series, len(d.Layers))
		for i, l := range d.Layers {
			pts := d.ScreenSamples(i, sc.View)
			tp := make([]tooltip.Point, len(pts))
			for j, p := range pts {
				tp[j] = tooltip.Point{Millis: p.Millis, Value: p.Value, X: p.X, Y: p.Y}
			}
			series[i] = tooltip.Series{Label: l.Label, Color: l.Color, Points: tp}
		}
		list = append(list, tooltip.Build(tooltip.Input{
			CursorX:  tip.CursorX,
			CursorY:  tip.CursorY,
			Series:   series,
			Plot:     plot,
			Position: tc.opts.TooltipPosition,
			Font:     tc.opts.Font,
			Measure:  measure,
			Location: tc.opts.Location,
		})...)
	}
	return list
}

// firstDates returns the dates of the first non-empty layer.
func (d *Dataset) firstDates() []int64 {
	for _, s := range d.Samples {
		if len(s) == 0 {
			continue
		}
		out := make([]int64, len(s))
		for i, p := range s {
			out[i] = p.Millis
		}
		return out
	}
	return nil
}

func (tc *TimeChart) click(c chart.Click) {
	d := tc.data
	if d == nil || tc.onClick == nil {
		return
	}
	ms := d.DateAt(c.DataX)
	var best Sample
	bestDist := int64(math.MaxInt64)
	for i := range d.Samples {
		s, ok := d.Nearest(i, ms)
		if !ok {
			continue
		}
		dist := s.Millis - ms
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = s, dist
		}
	}
	if bestDist == math.MaxInt64 {
		return
	}
	tc.onClick(ClickInfo{DateMillis: best.Millis, IsMinDate: best.Millis == d.MinDate})
}
