package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/danniel-isiah-libor/talos-io/internal/events"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second

	// wsSendBuffer bounds how far a slow consumer may fall behind before
	// its events are dropped.
	wsSendBuffer = 64
)

// TaskEventMessage is one frame of the websocket feed.
type TaskEventMessage struct {
	Type events.EventType `json:"type"`
	Task TaskView         `json:"task"`
	At   time.Time        `json:"at"`
}

// WSHandler streams task events to connected websocket clients. It implements
// events.Handler so it can be registered on the emitter; broadcasting never
// blocks the registry.
type WSHandler struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWSHandler creates a websocket handler with no clients connected.
func NewWSHandler(log *slog.Logger) *WSHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WSHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The control channel is already token-gated; the feed accepts
			// any origin the reverse proxy lets through.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  log.With("component", "ws_handler"),
		clients: make(map[*wsClient]struct{}),
	}
}

// Serve handles GET /api/ws, upgrading the connection and streaming task
// events until the client disconnects.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Debug("websocket client connected", "remote_addr", r.RemoteAddr, "clients", count)

	go client.writePump()
	client.readPump()

	h.remove(client)
}

// HandleTaskEvent implements events.Handler: every registry mutation is fanned
// out to all connected clients as a TaskEventMessage.
func (h *WSHandler) HandleTaskEvent(event events.TaskEvent) {
	msg := TaskEventMessage{
		Type: event.Type,
		Task: NewTaskView(event.Task),
		At:   event.At,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal task event", "error", err, "task_id", event.Task.ID)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer: drop the event rather than stall the feed.
			h.logger.Warn("dropping task event for slow websocket client",
				"task_id", event.Task.ID)
		}
	}
}

// ClientCount returns how many clients are currently connected.
func (h *WSHandler) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *WSHandler) remove(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()

	_ = client.conn.Close()
}

// wsClient is one connected feed consumer with its outbound queue.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// readPump discards inbound frames; the feed is one-way. It returns when the
// client closes the connection, which unblocks Serve to clean up.
func (c *wsClient) readPump() {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
