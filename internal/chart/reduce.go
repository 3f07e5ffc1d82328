package chart

import (
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/shape"
	"github.com/pgdash/canvaschart/internal/view"
)

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Input is a pointer or wheel event from the host environment.
type Input struct {
	interact.Event
}

// Resize reports a new container size.
type Resize struct {
	Width, Height float64
	PixelRatio    float64
}

// SetView proposes a view, for example a restored pan/zoom position.
type SetView struct {
	View view.View
}

// SetPolicy replaces the view policy and re-validates the current view.
type SetPolicy struct {
	Policy view.Policy
}

// SetShapes replaces the static shape list.
type SetShapes struct {
	Shapes shape.List
}

// SetGenerator replaces the shape generator.
type SetGenerator struct {
	Generator Generator
}

// SetEventsDisabled toggles input handling.
type SetEventsDisabled struct {
	Disabled bool
}

func (Input) isEvent()             {}
func (Resize) isEvent()            {}
func (SetView) isEvent()           {}
func (SetPolicy) isEvent()         {}
func (SetShapes) isEvent()         {}
func (SetGenerator) isEvent()      {}
func (SetEventsDisabled) isEvent() {}

// Effect is an outcome of Reduce that the host carries out.
type Effect interface {
	isEffect()
}

// Redraw asks for a new frame.
type Redraw struct{}

// ExtentChange fires on every committed view change.
type ExtentChange struct {
	Extent view.Extent
}

// ExtentSettled restarts the quiet-period timer for the debounced extent
// notification.
type ExtentSettled struct {
	Extent view.Extent
}

// PanStart, Pan and PanEnd mirror pan gestures.
type PanStart struct{ X, Y float64 }
type Pan struct{ X, Y float64 }
type PanEnd struct{ X, Y float64 }

// Click is a press and release without movement. DataX and DataY are in
// data space.
type Click struct {
	X, Y         float64
	DataX, DataY float64
}

// Resized restarts the resize settle timer.
type Resized struct {
	Width, Height float64
	PixelRatio    float64
}

func (Redraw) isEffect()        {}
func (ExtentChange) isEffect()  {}
func (ExtentSettled) isEffect() {}
func (PanStart) isEffect()      {}
func (Pan) isEffect()           {}
func (PanEnd) isEffect()        {}
func (Click) isEffect()         {}
func (Resized) isEffect()       {}

// Reduce applies one event. It is pure: the returned state shares no
// mutable data with the input beyond the caller-owned shape list.
func Reduce(s State, e Event) (State, []Effect) {
	switch e := e.(type) {
	case Input:
		return reduceInput(s, e.Event)
	case Resize:
		ratio := e.PixelRatio
		if ratio <= 0 {
			ratio = 1
		}
		if e.Width == s.Width && e.Height == s.Height && ratio == s.PixelRatio {
			return s, nil
		}
		s.Width, s.Height, s.PixelRatio = e.Width, e.Height, ratio
		return s, []Effect{Resized{Width: e.Width, Height: e.Height, PixelRatio: ratio}, Redraw{}}
	case SetView:
		return commitView(s, e.View, nil)
	case SetPolicy:
		s.Policy = e.Policy
		return commitView(s, s.View, nil)
	case SetShapes:
		s.Shapes = e.Shapes
		return s, []Effect{Redraw{}}
	case SetGenerator:
		s.Generator = e.Generator
		return s, []Effect{Redraw{}}
	case SetEventsDisabled:
		s.EventsDisabled = e.Disabled
		if e.Disabled {
			s.Gesture = interact.Gesture{}
			s.Tooltip = nil
		}
		return s, []Effect{Redraw{}}
	}
	return s, nil
}

// commitView validates a proposed view and reports the change.
func commitView(s State, proposed view.View, effects []Effect) (State, []Effect) {
	next, changed := view.Apply(s.View, proposed, s.Policy)
	if !changed {
		return s, effects
	}
	s.View = next
	ext := s.Extent()
	return s, append(effects, ExtentChange{Extent: ext}, ExtentSettled{Extent: ext}, Redraw{})
}

func reduceInput(s State, ev interact.Event) (State, []Effect) {
	if s.EventsDisabled {
		return s, nil
	}
	r := interact.Handle(s.Gesture, s.View, ev)
	s.Gesture = r.Gesture

	var effects []Effect
	for _, sig := range r.Signals {
		switch sig.Kind {
		case interact.SignalPanStart:
			// Tooltips and panning are mutually exclusive.
			s.Tooltip = nil
			effects = append(effects, PanStart{X: sig.X, Y: sig.Y}, Redraw{})
		case interact.SignalPan:
			effects = append(effects, Pan{X: sig.X, Y: sig.Y})
		case interact.SignalPanEnd:
			effects = append(effects, PanEnd{X: sig.X, Y: sig.Y})
		case interact.SignalClick:
			dx, dy := s.View.ScreenToData(sig.X, sig.Y)
			effects = append(effects, Click{X: sig.X, Y: sig.Y, DataX: dx, DataY: dy})
		case interact.SignalHover:
			if !s.Gesture.Panning() {
				s.Tooltip = &Tooltip{CursorX: sig.X, CursorY: sig.Y}
				effects = append(effects, Redraw{})
			}
		case interact.SignalLeave:
			if s.Tooltip != nil {
				s.Tooltip = nil
				effects = append(effects, Redraw{})
			}
		}
	}
	if r.ViewChanged {
		return commitView(s, r.View, effects)
	}
	return s, effects
}
