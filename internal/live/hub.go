// Package live serves interactive chart sessions over websockets. Browsers
// stream pointer and wheel input; the server reduces it on the session's
// chart host and pushes back frames of draw commands and extent events to
// every viewer of the session.
package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/document"
)

// Options configure the sessions a hub creates.
type Options struct {
	// Chart is the base host configuration. Size, policy and callbacks
	// are set per session.
	Chart chart.Options
	// Loader resolves stored series referenced by documents. May be nil.
	Loader document.Loader
	// Defaults fill what documents leave out.
	Defaults document.Defaults
}

type Hub struct {
	opts Options

	mu         sync.RWMutex
	sessions   map[string]*Session // sessionID -> session
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(opts Options) *Hub {
	return &Hub{
		opts:       opts,
		sessions:   make(map[string]*Session),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until ctx is done, then closes every
// session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Sessions returns the number of live sessions.
func (h *Hub) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) session(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	return s, ok
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	s, ok := h.sessions[client.SessionID]
	if !ok {
		s = newSession(h, client.SessionID)
		h.sessions[client.SessionID] = s
	}
	s.clients[client.ClientID] = client
	h.mu.Unlock()

	if msg, err := newMessage(TypeWelcome, WelcomePayload{SessionID: client.SessionID, ClientID: client.ClientID}); err == nil {
		client.Send(msg)
	}
	if stateMsg := s.presenceState(); stateMsg != nil {
		client.Send(stateMsg)
	}
	if frame := s.currentFrame(); frame != nil {
		client.Send(frame)
	}

	joinMsg, _ := newMessage(TypePresenceJoin, PresenceJoinPayload{ClientID: client.ClientID, Subject: client.Subject})
	h.broadcast(client.SessionID, joinMsg, client.ClientID)

	slog.Info("client joined", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	s, ok := h.sessions[client.SessionID]
	if !ok || s.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(s.clients, client.ClientID)
	client.close()

	empty := len(s.clients) == 0
	if empty {
		delete(h.sessions, client.SessionID)
	}
	h.mu.Unlock()

	s.dropCursor(client.ClientID)
	if empty {
		s.close()
		slog.Info("session closed", "session", client.SessionID)
	} else {
		leaveMsg, _ := newMessage(TypePresenceLeave, PresenceLeavePayload{ClientID: client.ClientID})
		h.broadcast(client.SessionID, leaveMsg, "")
	}

	slog.Info("client left", "client", client.ClientID, "session", client.SessionID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	for _, s := range sessions {
		for _, c := range s.clients {
			c.close()
		}
	}
	h.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	s, ok := h.session(sender.SessionID)
	if !ok {
		return
	}
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(s, sender, msg)
	case TypeDocSet, TypeInput, TypeResize, TypeViewSet, TypeEventsDisabled:
		if err := s.handle(ctx, sender, msg); err != nil {
			slog.Debug("session message rejected", "type", msg.Type, "session", s.id, "error", err)
			sender.Send(errorMessage(err.Error()))
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "client", sender.ClientID)
		sender.Send(errorMessage("unknown message type " + msg.Type))
	}
}

func (h *Hub) handlePresenceUpdate(s *Session, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}
	s.updateCursor(sender, &presence)
}

func (h *Hub) broadcast(sessionID string, msg *Message, excludeClientID string) {
	if msg == nil {
		return
	}
	h.mu.RLock()
	s, ok := h.sessions[sessionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(s.clients))
	for _, c := range s.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	msg.SessionID = sessionID
	for _, c := range clients {
		c.Send(msg)
	}
}
