// Package interact turns pointer, wheel and touch input into proposed view
// changes. It holds no references: the gesture state is a value that the
// caller threads through successive calls.
package interact

import (
	"fmt"
	"math"
	"time"

	"github.com/pgdash/canvaschart/internal/view"
)

// Gesture tuning.
const (
	// ZoomSpeed scales normalized wheel pixels into the exponent of the
	// zoom factor.
	ZoomSpeed = 0.002
	// LinePixels and PagePixels convert line and page wheel deltas.
	LinePixels = 16
	PagePixels = 800
	// ClickSlop is the movement below which a press counts as a click.
	ClickSlop = 4
	// DoubleTapWindow and DoubleTapRadius bound the second tap.
	DoubleTapWindow = 300 * time.Millisecond
	DoubleTapRadius = 20
)

// Kind identifies an input event.
type Kind int

const (
	PointerDown Kind = iota + 1
	PointerMove
	PointerUp
	PointerLeave
	Wheel
)

func (k Kind) String() string {
	switch k {
	case PointerDown:
		return "pointerdown"
	case PointerMove:
		return "pointermove"
	case PointerUp:
		return "pointerup"
	case PointerLeave:
		return "pointerleave"
	case Wheel:
		return "wheel"
	}
	return "unknown"
}

// MarshalText encodes a kind as its DOM event name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts DOM pointer, mouse and touch event names.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "pointerdown", "mousedown", "touchstart":
		*k = PointerDown
	case "pointermove", "mousemove", "touchmove":
		*k = PointerMove
	case "pointerup", "mouseup", "touchend", "touchcancel", "pointercancel":
		*k = PointerUp
	case "pointerleave", "mouseleave", "pointerout":
		*k = PointerLeave
	case "wheel":
		*k = Wheel
	default:
		return fmt.Errorf("interact: unknown event %q", b)
	}
	return nil
}

// DeltaMode is the unit of a wheel delta.
type DeltaMode int

const (
	DeltaPixel DeltaMode = iota
	DeltaLine
	DeltaPage
)

// Event is a host input event in surface-local logical pixels.
type Event struct {
	Kind      Kind      `json:"kind"`
	PointerID int       `json:"pointerId,omitempty"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	DeltaY    float64   `json:"deltaY,omitempty"`
	DeltaMode DeltaMode `json:"deltaMode,omitempty"`
	At        time.Time `json:"at"`
}

// SignalKind identifies an interaction outcome other than a view change.
type SignalKind int

const (
	SignalPanStart SignalKind = iota + 1
	SignalPan
	SignalPanEnd
	SignalClick
	SignalDoubleTap
	SignalHover
	SignalLeave
)

// Signal reports a gesture outcome at a screen position.
type Signal struct {
	Kind SignalKind
	X, Y float64
}

type pointer struct {
	id   int
	x, y float64
}

// Gesture is the controller state between events.
type Gesture struct {
	pointers [2]pointer
	count    int

	downX, downY float64
	panning      bool
	pinching     bool
	moved        bool

	lastTapX, lastTapY float64
	lastTapAt          time.Time
}

// Panning reports whether a pan or pinch is in progress.
func (g Gesture) Panning() bool { return g.panning || g.pinching }

// Result is the outcome of one event.
type Result struct {
	Gesture Gesture
	// View is the proposed view; it has not been checked against policy.
	View        view.View
	ViewChanged bool
	Signals     []Signal
}

// NormalizeWheelDelta converts a wheel delta to pixels.
func NormalizeWheelDelta(delta float64, mode DeltaMode) float64 {
	switch mode {
	case DeltaLine:
		return delta * LinePixels
	case DeltaPage:
		return delta * PagePixels
	}
	return delta
}

// WheelFactor is the zoom factor for a normalized wheel delta. Scrolling
// up (negative delta) zooms in.
func WheelFactor(pixels float64) float64 {
	return math.Exp(-pixels * ZoomSpeed)
}

// Handle advances the gesture by one event.
func Handle(g Gesture, v view.View, e Event) Result {
	r := Result{Gesture: g, View: v}
	switch e.Kind {
	case PointerDown:
		r.down(e)
	case PointerMove:
		r.move(e)
	case PointerUp:
		r.up(e)
	case PointerLeave:
		r.leave()
	case Wheel:
		f := WheelFactor(NormalizeWheelDelta(e.DeltaY, e.DeltaMode))
		// Both axes always get the same factor; policy may pin one later.
		r.setView(v.ZoomAt(e.X, e.Y, f, f))
	}
	return r
}

func (r *Result) setView(v view.View) {
	if v != r.View {
		r.View = v
		r.ViewChanged = true
	}
}

func (r *Result) signal(k SignalKind, x, y float64) {
	r.Signals = append(r.Signals, Signal{Kind: k, X: x, Y: y})
}

func (r *Result) down(e Event) {
	g := &r.Gesture
	if g.index(e.PointerID) >= 0 {
		return
	}
	switch g.count {
	case 0:
		g.pointers[0] = pointer{id: e.PointerID, x: e.X, y: e.Y}
		g.count = 1
		g.downX, g.downY = e.X, e.Y
		g.panning, g.moved = false, false
	case 1:
		g.pointers[1] = pointer{id: e.PointerID, x: e.X, y: e.Y}
		g.count = 2
		g.moved = true
		if !g.panning {
			r.signal(SignalPanStart, e.X, e.Y)
		}
		g.panning, g.pinching = false, true
	}
}

func (r *Result) move(e Event) {
	g := &r.Gesture
	i := g.index(e.PointerID)
	if i < 0 {
		if g.count == 0 {
			r.signal(SignalHover, e.X, e.Y)
		}
		return
	}

	if g.pinching {
		a, b := g.pointers[0], g.pointers[1]
		prevDist := math.Hypot(a.x-b.x, a.y-b.y)
		prevMX, prevMY := (a.x+b.x)/2, (a.y+b.y)/2
		g.pointers[i].x, g.pointers[i].y = e.X, e.Y
		a, b = g.pointers[0], g.pointers[1]
		dist := math.Hypot(a.x-b.x, a.y-b.y)
		mx, my := (a.x+b.x)/2, (a.y+b.y)/2

		next := r.View
		if prevDist > 0 && dist > 0 {
			f := dist / prevDist
			next = next.ZoomAt(prevMX, prevMY, f, f)
		}
		r.setView(next.Pan(mx-prevMX, my-prevMY))
		r.signal(SignalPan, mx, my)
		return
	}

	p := g.pointers[i]
	g.pointers[i].x, g.pointers[i].y = e.X, e.Y
	if !g.panning {
		if math.Hypot(e.X-g.downX, e.Y-g.downY) < ClickSlop {
			return
		}
		g.panning, g.moved = true, true
		r.signal(SignalPanStart, g.downX, g.downY)
		// Catch up the movement swallowed by the slop.
		p.x, p.y = g.downX, g.downY
	}
	r.setView(r.View.Pan(e.X-p.x, e.Y-p.y))
	r.signal(SignalPan, e.X, e.Y)
}

func (r *Result) up(e Event) {
	g := &r.Gesture
	i := g.index(e.PointerID)
	if i < 0 {
		return
	}

	if g.pinching {
		// Continue as a one-finger pan with the remaining pointer.
		g.pointers[0] = g.pointers[1-i]
		g.count = 1
		g.pinching, g.panning = false, true
		return
	}

	g.count = 0
	if g.panning {
		g.panning = false
		r.signal(SignalPanEnd, e.X, e.Y)
		return
	}
	if g.moved {
		return
	}

	if !g.lastTapAt.IsZero() && e.At.Sub(g.lastTapAt) <= DoubleTapWindow &&
		math.Hypot(e.X-g.lastTapX, e.Y-g.lastTapY) <= DoubleTapRadius {
		g.lastTapAt = time.Time{}
		r.setView(r.View.ZoomAt(e.X, e.Y, 2, 2))
		r.signal(SignalDoubleTap, e.X, e.Y)
		return
	}
	g.lastTapX, g.lastTapY, g.lastTapAt = e.X, e.Y, e.At
	r.signal(SignalClick, e.X, e.Y)
}

func (r *Result) leave() {
	g := &r.Gesture
	if g.panning || g.pinching {
		r.signal(SignalPanEnd, g.pointers[0].x, g.pointers[0].y)
	}
	g.count = 0
	g.panning, g.pinching = false, false
	r.signal(SignalLeave, 0, 0)
}

func (g *Gesture) index(id int) int {
	for i := 0; i < g.count; i++ {
		if g.pointers[i].id == id {
			return i
		}
	}
	return -1
}
