// Package stream broadcasts simulation snapshots to websocket spectators.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/KevinHern/flappy-bird-ai/config"
	"github.com/KevinHern/flappy-bird-ai/sim"
)

// Message types sent to spectators.
const (
	MessageTypeInfo     = "info"
	MessageTypeSnapshot = "snapshot"
)

// Message is the JSON envelope of everything sent on the socket.
type Message struct {
	Type     string        `json:"type"`
	Info     string        `json:"info,omitempty"`
	Snapshot *sim.Snapshot `json:"snapshot,omitempty"`
}

// wsConn is the part of *websocket.Conn the pumps use.
type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type client struct {
	conn wsConn
	send chan []byte
}

// Hub fans snapshots out to connected spectators. Observe never blocks: a
// client whose send buffer is full misses the frame.
type Hub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	sendBuffer   int
	writeTimeout time.Duration
	every        int

	mu      sync.RWMutex
	clients map[*client]struct{}

	dropped atomic.Int64
}

// NewHub creates a hub from the stream config section.
func NewHub(cfg config.StreamConfig, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		log: log.With("component", "stream"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sendBuffer:   cfg.SendBuffer,
		writeTimeout: time.Duration(cfg.WriteTimeoutS * float64(time.Second)),
		every:        cfg.EveryNTicks,
		clients:      make(map[*client]struct{}),
	}
	if h.sendBuffer < 1 {
		h.sendBuffer = 1
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = time.Second
	}
	return h
}

// Handler returns the hub's HTTP routes: /ws and /healthz.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWS)
	mux.HandleFunc("/healthz", h.handleHealth)
	return mux
}

// Serve listens on addr until ctx is done.
func (h *Hub) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler()}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	h.log.Info("stream listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	h.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Observe implements sim.Observer. Only every Nth tick is sent, plus the
// final snapshot of an episode.
func (h *Hub) Observe(s sim.Snapshot) {
	if h.every > 1 && s.Tick%h.every != 0 && !s.Done {
		return
	}
	if h.Clients() == 0 {
		return
	}
	data, err := json.Marshal(Message{Type: MessageTypeSnapshot, Snapshot: &s})
	if err != nil {
		h.log.Error("encoding snapshot", "error", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.dropped.Add(1)
		}
	}
}

// Clients returns the number of connected spectators.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many frames were skipped for slow clients.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Close disconnects every spectator.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, h.sendBuffer)}
	welcome, _ := json.Marshal(Message{Type: MessageTypeInfo, Info: "connected"})
	c.send <- welcome
	h.register(c)
	h.log.Info("spectator connected", "remote", conn.RemoteAddr().String(), "clients", h.Clients())

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards incoming messages until the connection closes.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Info("spectator disconnected", "clients", h.Clients())
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read failed", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
			h.log.Debug("websocket set write deadline failed", "error", err)
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("websocket write failed", "error", err)
			return
		}
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		h.log.Debug("websocket set write deadline failed", "error", err)
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
		h.log.Debug("websocket close frame failed", "error", err)
	}
}

func (h *Hub) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "clients": h.Clients()})
}
