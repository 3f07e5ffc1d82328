package chart

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/render/raster"
	"github.com/pgdash/canvaschart/internal/render/vector"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

// Callbacks are the outbound notifications of a host. Any may be nil.
type Callbacks struct {
	// OnExtentChange fires synchronously on every committed view change.
	OnExtentChange func(view.Extent)
	// OnExtentChanged fires once the view has been quiet for the debounce
	// period.
	OnExtentChanged func(view.Extent)
	OnPanStart      func(x, y float64)
	OnPan           func(x, y float64)
	OnPanEnd        func(x, y float64)
	OnClick         func(Click)
	// OnResize fires after the resize settle delay.
	OnResize func(width, height, ratio float64)
	OnRender func([]engine.DrawCommand)
	// AllowView can veto a view change before it is committed.
	AllowView func(prev, next view.View) bool
}

// Options configure a Host.
type Options struct {
	Width, Height float64
	PixelRatio    float64
	Policy        view.Policy

	// Measurer backs the host's text measurement cache. Nil uses a
	// size-based estimate.
	Measurer         engine.TextMeasurer
	MeasureCacheSize int
	// Surface, when set, receives every frame and is owned by the host.
	Surface *raster.Surface

	Scheduler      Scheduler
	ExtentDebounce time.Duration
	ResizeSettle   time.Duration
	Logger         *slog.Logger

	Callbacks
}

// Host owns one chart: its state, measurement cache, surface and timers.
// It is not safe for concurrent use; callbacks scheduled after a quiet
// period run on the scheduler's goroutine and only see values captured
// when they were scheduled.
type Host struct {
	state   State
	cb      Callbacks
	log     *slog.Logger
	measure *engine.MeasureCache
	surface *raster.Surface

	extentDebounce *debouncer
	resizeSettle   *debouncer

	frame []engine.DrawCommand
}

// NewHost creates a host with the identity view.
func NewHost(opts Options) *Host {
	if opts.Scheduler == nil {
		opts.Scheduler = RealScheduler()
	}
	if opts.ExtentDebounce <= 0 {
		opts.ExtentDebounce = DefaultExtentDebounce
	}
	if opts.ResizeSettle <= 0 {
		opts.ResizeSettle = DefaultResizeSettle
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := NewState(opts.Width, opts.Height, opts.PixelRatio)
	s.Policy = opts.Policy
	return &Host{
		state:          s,
		cb:             opts.Callbacks,
		log:            opts.Logger,
		measure:        engine.NewMeasureCache(opts.Measurer, opts.MeasureCacheSize),
		surface:        opts.Surface,
		extentDebounce: &debouncer{sched: opts.Scheduler, delay: opts.ExtentDebounce},
		resizeSettle:   &debouncer{sched: opts.Scheduler, delay: opts.ResizeSettle},
	}
}

// State returns a copy of the current state.
func (h *Host) State() State { return h.state }

// View returns the current view.
func (h *Host) View() view.View { return h.state.View }

// Extent returns the visible data-space rectangle.
func (h *Host) Extent() view.Extent { return h.state.Extent() }

// ScreenToData converts a surface point to data space.
func (h *Host) ScreenToData(x, y float64) (float64, float64) {
	return h.state.View.ScreenToData(x, y)
}

// DataToScreen converts a data-space point to surface pixels.
func (h *Host) DataToScreen(x, y float64) (float64, float64) {
	return h.state.View.DataToScreen(x, y)
}

// Measure returns the host's text measurement cache.
func (h *Host) Measure() *engine.MeasureCache { return h.measure }

// Frame returns the commands of the last render.
func (h *Host) Frame() []engine.DrawCommand { return h.frame }

// Dispatch reduces one event and carries out its effects.
func (h *Host) Dispatch(e Event) error {
	prev := h.state
	next, effects := Reduce(prev, e)
	if next.View != prev.View && h.cb.AllowView != nil && !h.cb.AllowView(prev.View, next.View) {
		next.View = prev.View
		effects = dropViewEffects(effects)
	}
	h.state = next
	return h.apply(effects)
}

// HandleInput dispatches a pointer or wheel event.
func (h *Host) HandleInput(ev interact.Event) error {
	return h.Dispatch(Input{Event: ev})
}

// SetShapes replaces the static shapes and re-renders.
func (h *Host) SetShapes(list shape.List) error {
	return h.Dispatch(SetShapes{Shapes: list})
}

// SetGenerator replaces the view-dependent shape generator.
func (h *Host) SetGenerator(g Generator) error {
	return h.Dispatch(SetGenerator{Generator: g})
}

// SetView proposes a view; it is clamped and checked against policy.
func (h *Host) SetView(v view.View) error {
	return h.Dispatch(SetView{View: v})
}

// SetPolicy replaces the view policy.
func (h *Host) SetPolicy(p view.Policy) error {
	return h.Dispatch(SetPolicy{Policy: p})
}

// Resize reallocates the surface for a new container size.
func (h *Host) Resize(width, height, ratio float64) error {
	return h.Dispatch(Resize{Width: width, Height: height, PixelRatio: ratio})
}

func dropViewEffects(effects []Effect) []Effect {
	out := effects[:0:0]
	for _, e := range effects {
		switch e.(type) {
		case ExtentChange, ExtentSettled:
			continue
		}
		out = append(out, e)
	}
	return out
}

func (h *Host) apply(effects []Effect) error {
	redraw := false
	for _, e := range effects {
		switch e := e.(type) {
		case Redraw:
			redraw = true
		case ExtentChange:
			if h.cb.OnExtentChange != nil {
				h.cb.OnExtentChange(e.Extent)
			}
		case ExtentSettled:
			if fn := h.cb.OnExtentChanged; fn != nil {
				ext := e.Extent
				h.extentDebounce.Trigger(func() { fn(ext) })
			}
		case PanStart:
			if h.cb.OnPanStart != nil {
				h.cb.OnPanStart(e.X, e.Y)
			}
		case Pan:
			if h.cb.OnPan != nil {
				h.cb.OnPan(e.X, e.Y)
			}
		case PanEnd:
			if h.cb.OnPanEnd != nil {
				h.cb.OnPanEnd(e.X, e.Y)
			}
		case Click:
			if h.cb.OnClick != nil {
				h.cb.OnClick(e)
			}
		case Resized:
			if err := h.resizeSurface(e); err != nil {
				return err
			}
			if fn := h.cb.OnResize; fn != nil {
				w, ht, r := e.Width, e.Height, e.PixelRatio
				h.resizeSettle.Trigger(func() { fn(w, ht, r) })
			}
		}
	}
	if redraw {
		_, err := h.Render()
		return err
	}
	return nil
}

func (h *Host) resizeSurface(e Resized) error {
	if h.surface == nil {
		return nil
	}
	w := int(math.Round(e.Width))
	ht := int(math.Round(e.Height))
	if w <= 0 || ht <= 0 {
		return nil
	}
	return h.surface.Resize(w, ht, e.PixelRatio)
}

// Render draws the current state. It records the frame, pushes it to the
// surface when there is one and notifies OnRender.
func (h *Host) Render() ([]engine.DrawCommand, error) {
	cmds, err := Render(h.state, RenderOptions{Measure: h.measure, Logger: h.log})
	if err != nil {
		return nil, err
	}
	h.frame = cmds
	if h.surface != nil && h.state.Width > 0 && h.state.Height > 0 {
		if err := h.surface.Draw(cmds); err != nil {
			return cmds, fmt.Errorf("raster frame: %w", err)
		}
	}
	if h.cb.OnRender != nil {
		h.cb.OnRender(cmds)
	}
	return cmds, nil
}

// WritePNG encodes the current raster frame.
func (h *Host) WritePNG(w io.Writer) error {
	if h.surface == nil {
		return ErrNoSurface
	}
	return h.surface.EncodePNG(w)
}

// WriteSVG exports the current state as an SVG document built from the
// same commands the raster surface draws.
func (h *Host) WriteSVG(w io.Writer, opts vector.Options) error {
	cmds, err := Render(h.state, RenderOptions{Measure: h.measure, Logger: h.log})
	if err != nil {
		return err
	}
	return vector.Export(w, cmds, int(math.Round(h.state.Width)), int(math.Round(h.state.Height)), opts)
}

// Close cancels pending timers, clears the measurement cache and releases
// the surface.
func (h *Host) Close() error {
	h.extentDebounce.Stop()
	h.resizeSettle.Stop()
	h.measure.Reset()
	h.frame = nil
	if h.surface != nil {
		err := h.surface.Close()
		h.surface = nil
		return err
	}
	return nil
}
