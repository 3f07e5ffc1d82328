package live

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/pgdash/canvaschart/internal/auth"
	"github.com/pgdash/canvaschart/internal/typeid"
)

// ServeWS upgrades /ws/sessions/{sessionId} requests. Without a session id
// a new session is created.
func (h *Hub) ServeWS(originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionId"]
		if sessionID == "" {
			sessionID = typeid.NewSessionID()
		} else if err := typeid.Validate(sessionID, typeid.PrefixSession); err != nil {
			http.Error(w, "invalid session id", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			slog.Error("websocket accept", "error", err)
			return
		}

		clientID := uuid.New().String()
		client := NewClient(h, conn, sessionID, clientID, auth.SubjectFromContext(r.Context()))

		h.Register(client)

		ctx := r.Context()
		go client.WritePump(ctx)
		client.ReadPump(ctx)
	}
}
