// Package document is the JSON chart document accepted by the server, the
// CLI and the wasm bridge, and its mounting onto a chart host.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/timeseries"
	"github.com/pgdash/canvaschart/internal/view"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("document: invalid")

// MaxSide bounds the logical width and height of a document.
const MaxSide = 8192

type Document struct {
	ID         string      `json:"id,omitempty"`
	Title      string      `json:"title,omitempty"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	PixelRatio float64     `json:"pixelRatio,omitempty"`
	Background string      `json:"background,omitempty"`
	View       *view.View  `json:"view,omitempty"`
	Policy     view.Policy `json:"policy"`
	Shapes     shape.List  `json:"shapes,omitempty"`
	TimeSeries *TimeSeries `json:"timeseries,omitempty"`
	// Tooltip renders the hover tooltip at a fixed cursor position.
	Tooltip *chart.Tooltip `json:"tooltip,omitempty"`
}

type TimeSeries struct {
	Layers   []*timeseries.Layer `json:"layers"`
	Options  timeseries.Options  `json:"options"`
	TimeZone string              `json:"timeZone,omitempty"`
	// Series names layers to load from the sample store; loaded layers
	// are appended to Layers.
	Series []SeriesRef `json:"series,omitempty"`
}

// SeriesRef selects stored samples for one layer.
type SeriesRef struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	Color string `json:"color,omitempty"`
	// From and To bound the load in epoch milliseconds; zero is open.
	From int64 `json:"from,omitempty"`
	To   int64 `json:"to,omitempty"`
}

// Defaults fill fields a document leaves zero. The zero Defaults fill
// nothing.
type Defaults struct {
	Width, Height float64
	PixelRatio    float64
	Font          string
	MaxSamples    int
}

// Parse decodes and validates a document.
func Parse(r io.Reader) (*Document, error) {
	return ParseWith(r, Defaults{})
}

// ParseWith decodes a document, applies def and validates the result.
func ParseWith(r io.Reader, def Defaults) (*Document, error) {
	var d Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	d.ApplyDefaults(def)
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ApplyDefaults fills zero size, pixel ratio and time-series options.
func (d *Document) ApplyDefaults(def Defaults) {
	if d.Width == 0 {
		d.Width = def.Width
	}
	if d.Height == 0 {
		d.Height = def.Height
	}
	if d.PixelRatio == 0 {
		d.PixelRatio = def.PixelRatio
	}
	if ts := d.TimeSeries; ts != nil {
		if ts.Options.Font == "" {
			ts.Options.Font = def.Font
		}
		if ts.Options.MaxSamples == 0 {
			ts.Options.MaxSamples = def.MaxSamples
		}
	}
}

// Validate checks sizes and the time zone.
func (d *Document) Validate() error {
	switch {
	case d.Width <= 0 || d.Height <= 0:
		return fmt.Errorf("%w: size %gx%g", ErrInvalid, d.Width, d.Height)
	case d.Width > MaxSide || d.Height > MaxSide:
		return fmt.Errorf("%w: size %gx%g exceeds %d", ErrInvalid, d.Width, d.Height, MaxSide)
	case d.PixelRatio < 0 || d.PixelRatio > 4:
		return fmt.Errorf("%w: pixel ratio %g", ErrInvalid, d.PixelRatio)
	}
	if ts := d.TimeSeries; ts != nil {
		if _, err := ts.location(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

func (ts *TimeSeries) location() (*time.Location, error) {
	if ts.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(ts.TimeZone)
}

// Loader fetches stored samples for a series reference.
type Loader interface {
	Load(ctx context.Context, ref SeriesRef) (*timeseries.Layer, error)
}

// LoadSeries appends a layer per series reference. It fails when the
// document references series and no loader is configured.
func (d *Document) LoadSeries(ctx context.Context, l Loader) error {
	ts := d.TimeSeries
	if ts == nil || len(ts.Series) == 0 {
		return nil
	}
	if l == nil {
		return fmt.Errorf("%w: series referenced but no sample source is configured", ErrInvalid)
	}
	for _, ref := range ts.Series {
		layer, err := l.Load(ctx, ref)
		if err != nil {
			return fmt.Errorf("load series %q: %w", ref.Name, err)
		}
		ts.Layers = append(ts.Layers, layer)
	}
	ts.Series = nil
	return nil
}

// Chart is a document mounted on a host.
type Chart struct {
	Host *chart.Host
	// Time is nil for documents without a time series.
	Time *timeseries.TimeChart
}

// Mount creates a host for the document. opts supplies the host's
// collaborators; size, pixel ratio and policy come from the document.
// onClick may be nil.
func (d *Document) Mount(opts chart.Options, onClick func(timeseries.ClickInfo)) (*Chart, error) {
	opts.Width, opts.Height, opts.PixelRatio = d.Width, d.Height, d.PixelRatio
	opts.Policy = d.Policy

	c := &Chart{}
	if ts := d.TimeSeries; ts != nil {
		loc, err := ts.location()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		tsOpts := ts.Options
		tsOpts.Location = loc
		if tsOpts.Logger == nil {
			tsOpts.Logger = opts.Logger
		}
		tc, err := timeseries.NewTimeChart(opts, tsOpts, onClick)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		if err := tc.SetLayers(ts.Layers); err != nil {
			tc.Host().Close()
			return nil, err
		}
		c.Host, c.Time = tc.Host(), tc
	} else {
		c.Host = chart.NewHost(opts)
	}

	if err := d.apply(c.Host); err != nil {
		c.Host.Close()
		return nil, err
	}
	return c, nil
}

func (d *Document) apply(h *chart.Host) error {
	if len(d.Shapes) > 0 {
		if err := h.SetShapes(shape.Clone(d.Shapes)); err != nil {
			return err
		}
	}
	if d.View != nil {
		if err := h.SetView(*d.View); err != nil {
			return err
		}
	}
	if t := d.Tooltip; t != nil {
		return h.HandleInput(interact.Event{Kind: interact.PointerMove, X: t.CursorX, Y: t.CursorY})
	}
	return nil
}
