package live

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gorilla/mux"

	"github.com/pgdash/canvaschart/internal/chart"
	"github.com/pgdash/canvaschart/internal/document"
	"github.com/pgdash/canvaschart/internal/engine"
	"github.com/pgdash/canvaschart/internal/interact"
	"github.com/pgdash/canvaschart/internal/timeseries"
	"github.com/pgdash/canvaschart/internal/typeid"
)

func newServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(Options{Chart: chart.Options{Measurer: engine.FixedWidth(7)}})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := mux.NewRouter()
	r.HandleFunc("/ws/sessions", hub.ServeWS(nil))
	r.HandleFunc("/ws/sessions/{sessionId}", hub.ServeWS(nil))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// waitFor reads until a message of the given type arrives.
func waitFor(t *testing.T, conn *websocket.Conn, typ string) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		var msg Message
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, Message{Type: typ, Payload: data}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func frameOf(t *testing.T, msg Message) FramePayload {
	t.Helper()
	var f FramePayload
	if err := json.Unmarshal(msg.Payload, &f); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestSessionLifecycle(t *testing.T) {
	hub, srv := newServer(t)
	id := typeid.NewSessionID()

	c1 := dial(t, srv, "/ws/sessions/"+id)
	var welcome WelcomePayload
	json.Unmarshal(waitFor(t, c1, TypeWelcome).Payload, &welcome)
	if welcome.SessionID != id || welcome.ClientID == "" {
		t.Fatalf("welcome = %+v", welcome)
	}

	send(t, c1, TypeDocSet, document.NewSampleDiagram())
	f := frameOf(t, waitFor(t, c1, TypeFrame))
	if f.Width != 640 || len(f.Commands) == 0 {
		t.Fatalf("frame = %vx%v with %d commands", f.Width, f.Height, len(f.Commands))
	}

	send(t, c1, TypeInput, interact.Event{Kind: interact.Wheel, X: 100, Y: 100, DeltaY: -100})
	waitFor(t, c1, TypeExtentChange)
	next := waitFor(t, c1, TypeFrame)
	if next.Seq <= 1 {
		t.Errorf("frame seq = %d", next.Seq)
	}

	c2 := dial(t, srv, "/ws/sessions/"+id)
	waitFor(t, c2, TypeWelcome)
	if got := frameOf(t, waitFor(t, c2, TypeFrame)); len(got.Commands) == 0 {
		t.Error("joining viewer got an empty frame")
	}
	waitFor(t, c1, TypePresenceJoin)

	send(t, c2, TypeInput, interact.Event{Kind: interact.PointerMove, X: 10, Y: 20})
	var p PresencePayload
	json.Unmarshal(waitFor(t, c1, TypePresenceUpdate).Payload, &p)
	if p.Cursor == nil || p.Cursor.X != 10 {
		t.Errorf("presence = %+v", p)
	}

	if hub.Sessions() != 1 {
		t.Errorf("sessions = %d", hub.Sessions())
	}
	c1.Close(websocket.StatusNormalClosure, "")
	waitFor(t, c2, TypePresenceLeave)
	c2.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(5 * time.Second)
	for hub.Sessions() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session not closed after last viewer left")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestJoinReceivesCursors(t *testing.T) {
	_, srv := newServer(t)
	id := typeid.NewSessionID()

	c1 := dial(t, srv, "/ws/sessions/"+id)
	var welcome WelcomePayload
	json.Unmarshal(waitFor(t, c1, TypeWelcome).Payload, &welcome)
	send(t, c1, TypeDocSet, document.NewSampleDiagram())
	waitFor(t, c1, TypeFrame)

	c2 := dial(t, srv, "/ws/sessions/"+id)
	waitFor(t, c2, TypeWelcome)
	waitFor(t, c1, TypePresenceJoin)

	send(t, c1, TypeInput, interact.Event{Kind: interact.PointerMove, X: 30, Y: 40})
	var moved PresencePayload
	json.Unmarshal(waitFor(t, c2, TypePresenceUpdate).Payload, &moved)
	if moved.Cursor == nil || moved.Data == nil {
		t.Fatalf("update = %+v", moved)
	}

	c3 := dial(t, srv, "/ws/sessions/"+id)
	var state PresenceStatePayload
	json.Unmarshal(waitFor(t, c3, TypePresenceState).Payload, &state)
	got, ok := state.Presences[welcome.ClientID]
	if !ok || got.Cursor == nil || got.Cursor.X != 30 || got.Cursor.Y != 40 {
		t.Fatalf("state = %+v", state.Presences)
	}
	if *got.Data != *moved.Data {
		t.Errorf("data cursor = %+v, want %+v", *got.Data, *moved.Data)
	}

	c1.Close(websocket.StatusNormalClosure, "")
	waitFor(t, c3, TypePresenceLeave)
	c4 := dial(t, srv, "/ws/sessions/"+id)
	var after PresenceStatePayload
	json.Unmarshal(waitFor(t, c4, TypePresenceState).Payload, &after)
	if _, ok := after.Presences[welcome.ClientID]; ok {
		t.Error("cursor of a departed viewer is still reported")
	}
}

func TestTimeSeriesClickSelectsPoint(t *testing.T) {
	_, srv := newServer(t)
	c := dial(t, srv, "/ws/sessions")
	waitFor(t, c, TypeWelcome)

	d := document.NewSampleTimeSeries(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	send(t, c, TypeDocSet, d)
	waitFor(t, c, TypeFrame)

	send(t, c, TypeInput, interact.Event{Kind: interact.PointerDown, X: 400, Y: 200})
	send(t, c, TypeInput, interact.Event{Kind: interact.PointerUp, X: 400, Y: 200})
	// The time chart resolves the sample before the raw click is reported.
	var info timeseries.ClickInfo
	json.Unmarshal(waitFor(t, c, TypePointSelect).Payload, &info)
	if info.DateMillis == 0 || info.IsMinDate {
		t.Errorf("selected %+v", info)
	}
	var click ClickPayload
	json.Unmarshal(waitFor(t, c, TypeClick).Payload, &click)
	if click.X != 400 || click.DataX != 400 {
		t.Errorf("click = %+v", click)
	}
}

func TestErrors(t *testing.T) {
	_, srv := newServer(t)
	c := dial(t, srv, "/ws/sessions")
	waitFor(t, c, TypeWelcome)

	tests := []struct {
		typ     string
		payload any
		want    string
	}{
		{TypeInput, interact.Event{Kind: interact.Wheel}, "no document"},
		{TypeDocSet, map[string]any{"width": 0, "height": 10}, "invalid"},
		{"doc.delete", nil, "unknown message type"},
	}
	for _, tt := range tests {
		send(t, c, tt.typ, tt.payload)
		var p ErrorPayload
		json.Unmarshal(waitFor(t, c, TypeError).Payload, &p)
		if !strings.Contains(p.Message, tt.want) {
			t.Errorf("%s: error = %q, want %q", tt.typ, p.Message, tt.want)
		}
	}

	send(t, c, TypeDocSet, document.NewSampleDiagram())
	waitFor(t, c, TypeFrame)
	send(t, c, TypeResize, ResizePayload{Width: -1, Height: 10})
	var p ErrorPayload
	json.Unmarshal(waitFor(t, c, TypeError).Payload, &p)
	if !strings.Contains(p.Message, "invalid resize") {
		t.Errorf("error = %q", p.Message)
	}
}

func TestResizeBroadcastsFrame(t *testing.T) {
	_, srv := newServer(t)
	c := dial(t, srv, "/ws/sessions")
	waitFor(t, c, TypeWelcome)
	send(t, c, TypeDocSet, document.NewSampleDiagram())
	waitFor(t, c, TypeFrame)

	send(t, c, TypeResize, ResizePayload{Width: 300, Height: 200, PixelRatio: 2})
	f := frameOf(t, waitFor(t, c, TypeFrame))
	if f.Width != 300 || f.Height != 200 || f.PixelRatio != 2 {
		t.Errorf("frame = %+v", f)
	}
	waitFor(t, c, TypeResized)
}

func TestInvalidSessionID(t *testing.T) {
	_, srv := newServer(t)
	resp, err := http.Get(srv.URL + "/ws/sessions/proj_123")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
