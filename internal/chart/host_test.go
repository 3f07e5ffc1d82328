package chart

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/render/raster"
	"github.com/pgdash/canvaschart/internal/render/vector"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

// fakeScheduler fires timers only when the test advances its clock.
type fakeScheduler struct {
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, t)
	return t
}

func (s *fakeScheduler) Advance(d time.Duration) {
	s.now += d
	for _, t := range s.timers {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			t.f()
		}
	}
}

func wheel(x, y, delta float64) interact.Event {
	return interact.Event{Kind: interact.Wheel, X: x, Y: y, DeltaY: delta}
}

func TestExtentChangedIsDebounced(t *testing.T) {
	sched := &fakeScheduler{}
	var immediate, settled []view.Extent
	h := NewHost(Options{
		Width: 800, Height: 400, Scheduler: sched,
		Callbacks: Callbacks{
			OnExtentChange:  func(e view.Extent) { immediate = append(immediate, e) },
			OnExtentChanged: func(e view.Extent) { settled = append(settled, e) },
		},
	})

	if err := h.HandleInput(wheel(100, 100, -100)); err != nil {
		t.Fatal(err)
	}
	sched.Advance(150 * time.Millisecond)
	if err := h.HandleInput(wheel(100, 100, -100)); err != nil {
		t.Fatal(err)
	}
	if len(immediate) != 2 {
		t.Fatalf("immediate callbacks = %d, want 2", len(immediate))
	}

	sched.Advance(150 * time.Millisecond)
	if len(settled) != 0 {
		t.Fatal("debounced callback fired before the quiet period")
	}
	sched.Advance(50 * time.Millisecond)
	if len(settled) != 1 {
		t.Fatalf("settled callbacks = %d, want 1", len(settled))
	}
	if settled[0] != h.Extent() {
		t.Errorf("settled extent = %+v, want %+v", settled[0], h.Extent())
	}
}

func TestUnchangedViewFiresNothing(t *testing.T) {
	calls := 0
	h := NewHost(Options{Width: 100, Height: 100, Scheduler: &fakeScheduler{},
		Callbacks: Callbacks{OnExtentChange: func(view.Extent) { calls++ }}})
	if err := h.SetView(view.Identity()); err != nil {
		t.Fatal(err)
	}
	if calls != 0 {
		t.Errorf("callbacks = %d for an identical view", calls)
	}
}

func TestWheelZoomKeepsCursorDataPoint(t *testing.T) {
	h := NewHost(Options{Width: 800, Height: 400, Scheduler: &fakeScheduler{}})
	if err := h.HandleInput(wheel(100, 100, -math.Log(2)/interact.ZoomSpeed)); err != nil {
		t.Fatal(err)
	}
	v := h.View()
	if math.Abs(v.XScale-2) > 1e-12 {
		t.Fatalf("XScale = %v", v.XScale)
	}
	x, y := h.DataToScreen(h.ScreenToData(100, 100))
	if math.Abs(x-100) > 1e-9 || math.Abs(y-100) > 1e-9 {
		t.Errorf("round trip = (%v,%v)", x, y)
	}
}

func TestYScaleLockedPinsY(t *testing.T) {
	h := NewHost(Options{Width: 800, Height: 400, Policy: view.Policy{YScaleLocked: true}, Scheduler: &fakeScheduler{}})
	if err := h.HandleInput(wheel(100, 100, -300)); err != nil {
		t.Fatal(err)
	}
	v := h.View()
	if v.YScale != 1 || v.YOffset != 0 {
		t.Errorf("y axis moved: %+v", v)
	}
	if v.XScale <= 1 {
		t.Errorf("x axis did not zoom: %+v", v)
	}
}

func TestAllowViewVeto(t *testing.T) {
	changes := 0
	h := NewHost(Options{Width: 100, Height: 100, Scheduler: &fakeScheduler{},
		Callbacks: Callbacks{
			AllowView:      func(prev, next view.View) bool { return next.XScale < 3 },
			OnExtentChange: func(view.Extent) { changes++ },
		}})
	if err := h.SetView(view.View{XScale: 2, YScale: 1}); err != nil {
		t.Fatal(err)
	}
	if err := h.SetView(view.View{XScale: 5, YScale: 1}); err != nil {
		t.Fatal(err)
	}
	if h.View().XScale != 2 || changes != 1 {
		t.Errorf("view = %+v, changes = %d", h.View(), changes)
	}
}

func TestEventsDisabled(t *testing.T) {
	h := NewHost(Options{Width: 100, Height: 100, Scheduler: &fakeScheduler{}})
	if err := h.Dispatch(SetEventsDisabled{Disabled: true}); err != nil {
		t.Fatal(err)
	}
	if err := h.HandleInput(wheel(10, 10, -500)); err != nil {
		t.Fatal(err)
	}
	if h.View() != view.Identity() {
		t.Errorf("view changed while events disabled: %+v", h.View())
	}
}

func TestResizeSettles(t *testing.T) {
	sched := &fakeScheduler{}
	var got []float64
	surf := raster.New(10, 10, 1, nil)
	h := NewHost(Options{Width: 10, Height: 10, Surface: surf, Scheduler: sched,
		Callbacks: Callbacks{OnResize: func(w, ht, r float64) { got = append(got, w, ht, r) }}})
	defer h.Close()

	if err := h.Resize(40, 20, 2); err != nil {
		t.Fatal(err)
	}
	if b := surf.Image().Bounds(); b.Dx() != 80 || b.Dy() != 40 {
		t.Errorf("surface = %v, want 80x40", b)
	}
	if len(got) != 0 {
		t.Fatal("resize callback fired before settling")
	}
	sched.Advance(DefaultResizeSettle)
	if len(got) != 3 || got[0] != 40 || got[1] != 20 || got[2] != 2 {
		t.Errorf("resize callback = %v", got)
	}
}

func TestTooltipClearedByPan(t *testing.T) {
	h := NewHost(Options{Width: 100, Height: 100, Scheduler: &fakeScheduler{}})
	if err := h.HandleInput(interact.Event{Kind: interact.PointerMove, X: 10, Y: 10}); err != nil {
		t.Fatal(err)
	}
	if h.State().Tooltip == nil {
		t.Fatal("hover did not set the tooltip")
	}
	events := []interact.Event{
		{Kind: interact.PointerDown, PointerID: 1, X: 10, Y: 10},
		{Kind: interact.PointerMove, PointerID: 1, X: 40, Y: 10},
	}
	for _, ev := range events {
		if err := h.HandleInput(ev); err != nil {
			t.Fatal(err)
		}
	}
	if h.State().Tooltip != nil {
		t.Error("tooltip survived a pan")
	}
}

func TestClickReportsDataPosition(t *testing.T) {
	var clicks []Click
	h := NewHost(Options{Width: 100, Height: 100, Scheduler: &fakeScheduler{},
		Callbacks: Callbacks{OnClick: func(c Click) { clicks = append(clicks, c) }}})
	if err := h.SetView(view.View{XScale: 2, YScale: 2, XOffset: 10}); err != nil {
		t.Fatal(err)
	}
	for _, k := range []interact.Kind{interact.PointerDown, interact.PointerUp} {
		if err := h.HandleInput(interact.Event{Kind: k, PointerID: 1, X: 50, Y: 20}); err != nil {
			t.Fatal(err)
		}
	}
	if len(clicks) != 1 || clicks[0].DataX != 20 || clicks[0].DataY != 10 {
		t.Errorf("clicks = %+v", clicks)
	}
}

func TestRenderClonesAndIsIdempotent(t *testing.T) {
	rect := &shape.Rectangle{Common: shape.Common{ID: "r"}, Width: 10, Height: 10, FillStyle: "#000"}
	h := NewHost(Options{Width: 50, Height: 50, Scheduler: &fakeScheduler{}})
	if err := h.SetShapes(shape.List{rect}); err != nil {
		t.Fatal(err)
	}
	if err := h.SetGenerator(func(s Scene) shape.List {
		// Generators may not reach the caller's shapes.
		return shape.List{&shape.Text{Common: shape.Common{Fixed: true}, X: 1, Y: 1, Text: "x"}}
	}); err != nil {
		t.Fatal(err)
	}
	a, err := h.Render()
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Render()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 2 || len(a) != len(b) {
		t.Fatalf("frames = %d, %d", len(a), len(b))
	}
	if rect.Width != 10 {
		t.Error("input shape mutated")
	}
}

func TestRenderWithoutSizeIsNoop(t *testing.T) {
	h := NewHost(Options{Scheduler: &fakeScheduler{}})
	if err := h.SetShapes(shape.List{&shape.Circle{R: 1}}); err != nil {
		t.Fatal(err)
	}
	cmds, err := h.Render()
	if err != nil || cmds != nil {
		t.Errorf("Render = %v, %v", cmds, err)
	}
}

func TestWritePNGRequiresSurface(t *testing.T) {
	h := NewHost(Options{Width: 10, Height: 10, Scheduler: &fakeScheduler{}})
	if err := h.WritePNG(&bytes.Buffer{}); !errors.Is(err, ErrNoSurface) {
		t.Errorf("err = %v, want ErrNoSurface", err)
	}
	if err := h.SetShapes(shape.List{&shape.Circle{X: 5, Y: 5, R: 2, FillStyle: "red"}}); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := h.WriteSVG(&buf, vector.Options{}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "<path") {
		t.Errorf("svg = %s", buf.String())
	}
}

func TestCloseStopsTimersAndClearsCache(t *testing.T) {
	sched := &fakeScheduler{}
	fired := false
	h := NewHost(Options{Width: 100, Height: 100, Scheduler: sched, Measurer: engine.FixedWidth(7),
		Callbacks: Callbacks{OnExtentChanged: func(view.Extent) { fired = true }}})
	if err := h.SetShapes(shape.List{&shape.Text{X: 1, Y: 1, Text: "abc"}}); err != nil {
		t.Fatal(err)
	}
	if h.Measure().Len() == 0 {
		t.Fatal("render did not populate the measure cache")
	}
	if err := h.SetView(view.View{XScale: 2, YScale: 2}); err != nil {
		t.Fatal(err)
	}
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}
	sched.Advance(time.Second)
	if fired {
		t.Error("debounced callback fired after Close")
	}
	if h.Measure().Len() != 0 {
		t.Error("measure cache survived Close")
	}
}
