package live

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/timeseries"
	"github.com/pgdash/canvaschart/internal/view"
)

var errNoDocument = errors.New("no document set")

// Session is one shared chart. Its host is only touched with mu held;
// debounced callbacks fire on timer goroutines and only broadcast.
type Session struct {
	id      string
	hub     *Hub
	clients map[string]*Client // guarded by hub.mu

	mu    sync.Mutex
	chart *document.Chart
	seq   int64
	frame *Message
	// last known cursor of each viewer, keyed by client id
	cursors map[string]*PresencePayload
}

func newSession(h *Hub, id string) *Session {
	return &Session{
		id:      id,
		hub:     h,
		clients: make(map[string]*Client),
		cursors: make(map[string]*PresencePayload),
	}
}

func (s *Session) currentFrame() *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// updateCursor records a cursor reported directly by a viewer.
func (s *Session) updateCursor(sender *Client, p *PresencePayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Cursor != nil && s.chart != nil {
		dx, dy := s.chart.Host.ScreenToData(p.Cursor.X, p.Cursor.Y)
		p.Data = &CursorPos{X: dx, Y: dy}
	} else {
		p.Data = nil
	}
	s.moveCursor(sender, p)
}

// moveCursor stores and relays a viewer's cursor. Called with mu held.
func (s *Session) moveCursor(sender *Client, p *PresencePayload) {
	p.Subject = sender.Subject
	s.cursors[sender.ClientID] = p

	msg, err := newMessage(TypePresenceUpdate, p)
	if err != nil {
		return
	}
	msg.ClientID = sender.ClientID
	s.hub.broadcast(s.id, msg, sender.ClientID)
}

func (s *Session) dropCursor(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, clientID)
}

// presenceState is the cursor snapshot sent to a joining viewer.
func (s *Session) presenceState() *Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: maps.Clone(s.cursors)})
	if err != nil {
		slog.Error("marshal presence state", "session", s.id, "error", err)
		return nil
	}
	return msg
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chart != nil {
		s.chart.Host.Close()
		s.chart = nil
	}
	s.frame = nil
}

func (s *Session) handle(ctx context.Context, sender *Client, msg *Message) error {
	if msg.Type == TypeDocSet {
		doc, err := document.ParseWith(bytes.NewReader(msg.Payload), s.hub.opts.Defaults)
		if err != nil {
			return err
		}
		if err := doc.LoadSeries(ctx, s.hub.opts.Loader); err != nil {
			return err
		}
		return s.setDocument(doc)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chart == nil {
		return errNoDocument
	}
	host := s.chart.Host

	switch msg.Type {
	case TypeInput:
		var ev interact.Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			return fmt.Errorf("invalid input: %w", err)
		}
		if ev.At.IsZero() {
			ev.At = time.Now()
		}
		switch ev.Kind {
		case interact.PointerMove:
			dx, dy := host.ScreenToData(ev.X, ev.Y)
			s.moveCursor(sender, &PresencePayload{
				Cursor: &CursorPos{X: ev.X, Y: ev.Y},
				Data:   &CursorPos{X: dx, Y: dy},
			})
		case interact.PointerLeave:
			s.moveCursor(sender, &PresencePayload{})
		}
		return host.HandleInput(ev)
	case TypeResize:
		var p ResizePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid resize: %w", err)
		}
		if p.Width <= 0 || p.Height <= 0 || p.Width > document.MaxSide || p.Height > document.MaxSide {
			return fmt.Errorf("invalid resize %gx%g", p.Width, p.Height)
		}
		if s.chart.Time != nil {
			return s.chart.Time.Resize(p.Width, p.Height, p.PixelRatio)
		}
		return host.Resize(p.Width, p.Height, p.PixelRatio)
	case TypeViewSet:
		var v view.View
		if err := json.Unmarshal(msg.Payload, &v); err != nil {
			return fmt.Errorf("invalid view: %w", err)
		}
		return host.SetView(v)
	case TypeEventsDisabled:
		var p EventsDisabledPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid events.disabled: %w", err)
		}
		return host.Dispatch(chart.SetEventsDisabled{Disabled: p.Disabled})
	}
	return nil
}

// setDocument replaces the session's chart.
func (s *Session) setDocument(doc *document.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	opts := s.hub.opts.Chart
	opts.Callbacks = s.callbacks()
	prev := s.chart
	// Frames rendered while mounting are not broadcast.
	s.chart = nil
	c, err := doc.Mount(opts, func(info timeseries.ClickInfo) {
		s.send(TypePointSelect, info)
	})
	if err != nil {
		s.chart = prev
		return err
	}
	if prev != nil {
		prev.Host.Close()
	}
	s.chart = c
	_, err = c.Host.Render()
	return err
}

func (s *Session) callbacks() chart.Callbacks {
	return chart.Callbacks{
		OnRender: func(cmds []engine.DrawCommand) {
			// Runs with s.mu held.
			if s.chart == nil {
				return
			}
			st := s.chart.Host.State()
			msg, err := newMessage(TypeFrame, FramePayload{
				Width:      st.Width,
				Height:     st.Height,
				PixelRatio: st.PixelRatio,
				Commands:   cmds,
			})
			if err != nil {
				return
			}
			s.seq++
			msg.Seq = s.seq
			s.frame = msg
			s.hub.broadcast(s.id, msg, "")
		},
		OnExtentChange:  func(e view.Extent) { s.send(TypeExtentChange, e) },
		OnExtentChanged: func(e view.Extent) { s.send(TypeExtentChanged, e) },
		OnPanStart:      func(x, y float64) { s.send(TypePanStart, CursorPos{X: x, Y: y}) },
		OnPan:           func(x, y float64) { s.send(TypePan, CursorPos{X: x, Y: y}) },
		OnPanEnd:        func(x, y float64) { s.send(TypePanEnd, CursorPos{X: x, Y: y}) },
		OnClick: func(c chart.Click) {
			s.send(TypeClick, ClickPayload{X: c.X, Y: c.Y, DataX: c.DataX, DataY: c.DataY})
		},
		OnResize: func(w, h, r float64) {
			s.send(TypeResized, ResizePayload{Width: w, Height: h, PixelRatio: r})
		},
	}
}

func (s *Session) send(typ string, payload any) {
	msg, err := newMessage(typ, payload)
	if err != nil {
		return
	}
	s.hub.broadcast(s.id, msg, "")
}
