// Package chart holds the chart state machine: a pure Reduce over input
// events, a pure Render projection, and a Host that owns one chart's
// state, timers and callbacks.
package chart

import (
	"errors"
	"log/slog"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

// ErrNoSurface is returned when a raster frame is requested from a host
// that was never given a surface.
var ErrNoSurface = errors.New("chart: no raster surface")

// Tooltip is the cursor position the tooltip is built around.
type Tooltip struct {
	CursorX float64 `json:"cursorX"`
	CursorY float64 `json:"cursorY"`
}

// Scene is what a shape generator sees at render time.
type Scene struct {
	Width, Height float64
	View          view.View
	Extent        view.Extent
	// Tooltip is nil when the pointer is outside the surface or a pan is
	// in progress.
	Tooltip *Tooltip
}

// Generator produces shapes that depend on the current view, such as axis
// ticks or tooltips. It runs on every render.
type Generator func(Scene) shape.List

// State is everything a chart needs to render and react to input.
type State struct {
	Width      float64
	Height     float64
	PixelRatio float64

	View           view.View
	Policy         view.Policy
	EventsDisabled bool

	Shapes    shape.List
	Generator Generator

	Gesture interact.Gesture
	Tooltip *Tooltip
}

// NewState returns a state with the identity view.
func NewState(width, height, ratio float64) State {
	if ratio <= 0 {
		ratio = 1
	}
	return State{Width: width, Height: height, PixelRatio: ratio, View: view.Identity()}
}

// Extent returns the visible data-space rectangle.
func (s State) Extent() view.Extent {
	return s.View.Extent(s.Width, s.Height)
}

// Scene returns the generator input for the current state.
func (s State) Scene() Scene {
	var tip *Tooltip
	if s.Tooltip != nil {
		t := *s.Tooltip
		tip = &t
	}
	return Scene{Width: s.Width, Height: s.Height, View: s.View, Extent: s.Extent(), Tooltip: tip}
}

// RenderOptions carry the render-time collaborators owned by a host.
type RenderOptions struct {
	Measure *engine.MeasureCache
	Logger  *slog.Logger
}

// Render projects the state to draw commands. It never modifies the
// state: static shapes are cloned before the generator runs. A state with
// no size or no shapes renders nothing.
func Render(s State, opts RenderOptions) ([]engine.DrawCommand, error) {
	if s.Width <= 0 || s.Height <= 0 {
		return nil, nil
	}
	list := shape.Clone(s.Shapes)
	if s.Generator != nil {
		list = append(list, s.Generator(s.Scene())...)
	}
	if len(list) == 0 {
		return nil, nil
	}
	return engine.Resolve(list, s.View, engine.Options{
		Width:   s.Width,
		Height:  s.Height,
		Measure: opts.Measure,
		Logger:  opts.Logger,
	})
}
