package live

import (
	"encoding/json"

	"github.com/pgdash/canvaschart/internal/engine"
)

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

type ResizePayload struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PixelRatio float64 `json:"pixelRatio"`
}

type EventsDisabledPayload struct {
	Disabled bool `json:"disabled"`
}

type FramePayload struct {
	Width      float64              `json:"width"`
	Height     float64              `json:"height"`
	PixelRatio float64              `json:"pixelRatio"`
	Commands   []engine.DrawCommand `json:"commands"`
}

type ClickPayload struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	DataX float64 `json:"dataX"`
	DataY float64 `json:"dataY"`
}

// PresencePayload is a viewer's cursor. Data is the same point in chart
// data coordinates, filled in by the server once a document is loaded.
type PresencePayload struct {
	Cursor  *CursorPos `json:"cursor,omitempty"`
	Data    *CursorPos `json:"data,omitempty"`
	Subject string     `json:"subject,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ClientID string `json:"clientId"`
	Subject  string `json:"subject,omitempty"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Client to server
	TypeDocSet         = "doc.set"
	TypeInput          = "input"
	TypeResize         = "resize"
	TypeViewSet        = "view.set"
	TypeEventsDisabled = "events.disabled"

	// Server to client
	TypeFrame         = "frame"
	TypeExtentChange  = "extent.change"
	TypeExtentChanged = "extent.changed"
	TypePanStart      = "pan.start"
	TypePan           = "pan"
	TypePanEnd        = "pan.end"
	TypeClick         = "click"
	TypePointSelect   = "point.select"
	TypeResized       = "resized"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

func newMessage(typ string, payload any) (*Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: typ, Payload: data}, nil
}

func errorMessage(text string) *Message {
	data, _ := json.Marshal(ErrorPayload{Message: text})
	return &Message{Type: TypeError, Payload: data}
}
