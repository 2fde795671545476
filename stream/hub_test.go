package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/sim"
)

func testHub(every int) *Hub {
	cfg := config.StreamConfig{SendBuffer: 8, WriteTimeoutS: 1, EveryNTicks: every}
	return NewHub(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(hub.Handler())
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket server: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if msg := read(t, conn); msg.Type != MessageTypeInfo {
		t.Fatalf("first message type %q, want %q", msg.Type, MessageTypeInfo)
	}
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return msg
}

func TestBroadcastSnapshot(t *testing.T) {
	hub := testHub(1)
	conn := dial(t, hub)

	hub.Observe(sim.Snapshot{
		Episode: 3,
		Tick:    7,
		Alive:   1,
		Agents:  []sim.AgentState{{ID: 0, Y: 310, Reason: sim.ReasonNone}},
	})

	msg := read(t, conn)
	if msg.Type != MessageTypeSnapshot || msg.Snapshot == nil {
		t.Fatalf("got %+v, want a snapshot", msg)
	}
	if msg.Snapshot.Episode != 3 || msg.Snapshot.Tick != 7 {
		t.Errorf("snapshot episode %d tick %d, want 3/7", msg.Snapshot.Episode, msg.Snapshot.Tick)
	}
	if len(msg.Snapshot.Agents) != 1 || msg.Snapshot.Agents[0].Y != 310 {
		t.Errorf("agents = %+v", msg.Snapshot.Agents)
	}
}

func TestEveryNTicks(t *testing.T) {
	hub := testHub(3)
	conn := dial(t, hub)

	for tick := 1; tick <= 4; tick++ {
		hub.Observe(sim.Snapshot{Tick: tick})
	}
	hub.Observe(sim.Snapshot{Tick: 5, Done: true})

	for _, want := range []int{3, 5} {
		msg := read(t, conn)
		if msg.Snapshot == nil || msg.Snapshot.Tick != want {
			t.Fatalf("got %+v, want tick %d", msg, want)
		}
	}
}

func TestSlowClientDropsFrames(t *testing.T) {
	hub := testHub(1)
	slow := &client{send: make(chan []byte, 1)}
	hub.register(slow)

	hub.Observe(sim.Snapshot{Tick: 1})
	hub.Observe(sim.Snapshot{Tick: 2})
	hub.Observe(sim.Snapshot{Tick: 3})

	if got := hub.Dropped(); got != 2 {
		t.Errorf("Dropped() = %d, want 2", got)
	}
	var msg Message
	if err := json.Unmarshal(<-slow.send, &msg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if msg.Snapshot.Tick != 1 {
		t.Errorf("buffered tick %d, want 1", msg.Snapshot.Tick)
	}

	hub.Close()
	if hub.Clients() != 0 {
		t.Errorf("Clients() = %d after Close", hub.Clients())
	}
}

func TestHealthz(t *testing.T) {
	hub := testHub(1)
	rec := httptest.NewRecorder()
	hub.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Status != "ok" || body.Clients != 0 {
		t.Errorf("healthz = %+v", body)
	}
}

// closedConn fails every call like a connection the peer already dropped.
type closedConn struct {
	mu     sync.Mutex
	writes []int
}

var errClosed = errors.New("use of closed network connection")

func (c *closedConn) ReadMessage() (int, []byte, error) { return 0, nil, errClosed }

func (c *closedConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, messageType)
	return errClosed
}

func (c *closedConn) SetWriteDeadline(time.Time) error { return errClosed }

func (c *closedConn) Close() error { return nil }

func TestWritePumpLogsFailedClose(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hub := NewHub(config.StreamConfig{SendBuffer: 1, WriteTimeoutS: 1, EveryNTicks: 1}, log)

	conn := &closedConn{}
	c := &client{conn: conn, send: make(chan []byte)}
	close(c.send)
	hub.writePump(c)

	out := buf.String()
	for _, want := range []string{"websocket set write deadline failed", "websocket close frame failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if len(conn.writes) != 1 || conn.writes[0] != websocket.CloseMessage {
		t.Errorf("writes = %v, want one close frame", conn.writes)
	}
}

func TestWritePumpStopsWhenDeadlineFails(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hub := NewHub(config.StreamConfig{SendBuffer: 1, WriteTimeoutS: 1, EveryNTicks: 1}, log)

	conn := &closedConn{}
	c := &client{conn: conn, send: make(chan []byte, 1)}
	c.send <- []byte(`{"type":"info"}`)
	hub.writePump(c)

	if len(conn.writes) != 0 {
		t.Errorf("writes = %v, want none after the deadline failed", conn.writes)
	}
	if !strings.Contains(buf.String(), "websocket set write deadline failed") {
		t.Errorf("deadline failure not logged:\n%s", buf.String())
	}
}
