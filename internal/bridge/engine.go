// Package bridge exposes a chart host through a string-in, string-out API
// for the js/wasm build, where every value crosses the boundary as JSON.
package bridge

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/timeseries"
	"github.com/pgdash/canvaschart/internal/view"
)

var ErrNoDocument = errors.New("no document loaded")

// Event is a host notification queued for the frontend.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Engine owns one mounted chart. The frontend drives it with commands and
// polls Tick once per animation frame.
type Engine struct {
	opts  chart.Options
	chart *document.Chart

	// Selection state (frontend-owned ids, kept for bounds queries)
	selection []string

	// Debounced callbacks fire on timer goroutines.
	mu     sync.Mutex
	events []Event
	// Dirty flag - a frame was rendered since the last Tick
	dirty bool
}

// NewEngine creates an engine. opts supplies the host's collaborators.
func NewEngine(opts chart.Options) *Engine {
	return &Engine{opts: opts}
}

// --- Commands (frontend → backend) ---

// LoadDocument mounts a chart document from JSON.
func (e *Engine) LoadDocument(jsonData string) error {
	doc, err := document.Parse(strings.NewReader(jsonData))
	if err != nil {
		return err
	}
	return e.mount(doc)
}

// LoadSampleDocument mounts one of the built-in sample documents.
func (e *Engine) LoadSampleDocument(kind string) error {
	doc, err := document.NewSample(kind, time.Now())
	if err != nil {
		return err
	}
	return e.mount(doc)
}

func (e *Engine) mount(doc *document.Document) error {
	opts := e.opts
	opts.Callbacks = e.callbacks()
	c, err := doc.Mount(opts, func(info timeseries.ClickInfo) { e.queue("point.select", info) })
	if err != nil {
		return err
	}
	e.Close()
	e.chart = c
	e.selection = nil
	_, err = c.Host.Render()
	return err
}

func (e *Engine) callbacks() chart.Callbacks {
	return chart.Callbacks{
		OnRender:        func([]engine.DrawCommand) { e.markDirty() },
		OnExtentChange:  func(x view.Extent) { e.queue("extent.change", x) },
		OnExtentChanged: func(x view.Extent) { e.queue("extent.changed", x) },
		OnPanStart:      func(x, y float64) { e.queue("pan.start", point{x, y}) },
		OnPan:           func(x, y float64) { e.queue("pan", point{x, y}) },
		OnPanEnd:        func(x, y float64) { e.queue("pan.end", point{x, y}) },
		OnClick:         func(c chart.Click) { e.queue("click", c) },
		OnResize: func(w, h, r float64) {
			e.queue("resized", map[string]float64{"width": w, "height": h, "pixelRatio": r})
		},
	}
}

func (e *Engine) markDirty() {
	e.mu.Lock()
	e.dirty = true
	e.mu.Unlock()
}

func (e *Engine) queue(typ string, payload any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, Event{Type: typ, Payload: payload})
}

// Input feeds one pointer or wheel event given as JSON.
func (e *Engine) Input(jsonData string) error {
	if e.chart == nil {
		return ErrNoDocument
	}
	var ev interact.Event
	if err := json.Unmarshal([]byte(jsonData), &ev); err != nil {
		return err
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	return e.chart.Host.HandleInput(ev)
}

// Resize follows the canvas container.
func (e *Engine) Resize(width, height, ratio float64) error {
	if e.chart == nil {
		return ErrNoDocument
	}
	if e.chart.Time != nil {
		return e.chart.Time.Resize(width, height, ratio)
	}
	return e.chart.Host.Resize(width, height, ratio)
}

// SetView proposes a view given as JSON.
func (e *Engine) SetView(jsonData string) error {
	if e.chart == nil {
		return ErrNoDocument
	}
	var v view.View
	if err := json.Unmarshal([]byte(jsonData), &v); err != nil {
		return err
	}
	return e.chart.Host.SetView(v)
}

func (e *Engine) SetEventsDisabled(disabled bool) error {
	if e.chart == nil {
		return ErrNoDocument
	}
	return e.chart.Host.Dispatch(chart.SetEventsDisabled{Disabled: disabled})
}

func (e *Engine) SetSelection(ids []string) {
	e.selection = ids
}

// Tick returns the latest frame as JSON when one was rendered since the
// previous call, and an empty string otherwise.
func (e *Engine) Tick() string {
	e.mu.Lock()
	dirty := e.dirty
	e.dirty = false
	e.mu.Unlock()
	if !dirty {
		return ""
	}
	return e.Render()
}

// Close releases the mounted chart.
func (e *Engine) Close() {
	if e.chart != nil {
		e.chart.Host.Close()
		e.chart = nil
	}
}

// --- Queries (frontend ← backend) ---

// Render returns the current frame's draw commands as JSON.
func (e *Engine) Render() string {
	if e.chart == nil {
		return "[]"
	}
	result, _ := engine.DrawCommandsToJSON(e.chart.Host.Frame())
	return result
}

// DrainEvents returns and clears the queued events as a JSON array.
func (e *Engine) DrainEvents() string {
	e.mu.Lock()
	events := e.events
	e.events = nil
	e.mu.Unlock()
	if len(events) == 0 {
		return "[]"
	}
	data, err := json.Marshal(events)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// HitTest returns the id of the topmost shape under the point.
func (e *Engine) HitTest(x, y float64) string {
	if e.chart == nil {
		return ""
	}
	return engine.HitTest(e.chart.Host.Frame(), x, y)
}

// GetSelectionBounds returns the screen bounds of the selection as JSON.
func (e *Engine) GetSelectionBounds() string {
	var r engine.Rect
	if e.chart != nil {
		r = engine.SelectionBounds(e.chart.Host.Frame(), e.selection)
	}
	data, _ := json.Marshal(r)
	return string(data)
}

// GetView returns the view and the visible extent as JSON.
func (e *Engine) GetView() string {
	if e.chart == nil {
		return "{}"
	}
	data, _ := json.Marshal(struct {
		View   view.View   `json:"view"`
		Extent view.Extent `json:"extent"`
	}{e.chart.Host.View(), e.chart.Host.Extent()})
	return string(data)
}

// Transform returns the data-to-screen matrix in canvas setTransform
// order, or nil while the view is the identity.
func (e *Engine) Transform() []float64 {
	if e.chart == nil {
		return nil
	}
	m := engine.ViewMatrix(e.chart.Host.View())
	if m.IsIdentity() {
		return nil
	}
	return m.ToSlice()
}

// ScreenToData maps a canvas point to data space.
func (e *Engine) ScreenToData(x, y float64) (float64, float64) {
	if e.chart == nil {
		return x, y
	}
	return engine.ViewMatrix(e.chart.Host.View()).Invert().TransformPoint(x, y)
}
