package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/honeypot-labs/cipher/pkg/events"
)

// sendQueueSize is the per-client outbound buffer. A client that cannot
// drain this many frames is dropped rather than allowed to stall the feed.
const sendQueueSize = 16

// wsWriteTimeout bounds a single frame write.
const wsWriteTimeout = 5 * time.Second

// liveFrame is the wire format of the dashboard feed.
type liveFrame struct {
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// clientMessage is the only inbound shape the feed understands.
type clientMessage struct {
	Action string `json:"action"`
}

// wsClient is one connected dashboard. Frames are queued on send and
// written by a dedicated goroutine so one slow socket cannot block
// broadcasting to the rest.
type wsClient struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
}

// WSHub fans engagement events out to every connected websocket client.
// Each process has one hub; it subscribes to the event bus at startup.
type WSHub struct {
	mu      sync.RWMutex
	clients map[string]*wsClient
	closed  bool
}

// NewWSHub creates an empty hub.
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[string]*wsClient)}
}

// Register subscribes the hub to every engagement event type. Call before
// the bus starts consuming.
func (h *WSHub) Register(bus events.Bus) {
	for _, eventType := range []string{
		events.EventScamDetected,
		events.EventEngagementTurn,
		events.EventEngagementCompleted,
	} {
		bus.Subscribe(eventType, func(_ context.Context, evt events.Event) {
			h.BroadcastEvent(evt)
		})
	}
}

// BroadcastEvent wraps a bus event in the feed frame and fans it out.
func (h *WSHub) BroadcastEvent(evt events.Event) {
	frame, err := json.Marshal(&liveFrame{
		Type:      evt.Type,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   evt.Payload,
	})
	if err != nil {
		slog.Warn("Failed to marshal live feed frame",
			"event_type", evt.Type, "error", err)
		return
	}
	h.Broadcast(frame)
}

// Broadcast queues a frame for every connected client. Clients whose queue
// is full are dropped: the feed is best-effort telemetry and a stalled
// dashboard must not hold memory hostage.
func (h *WSHub) Broadcast(frame []byte) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- frame:
		default:
			slog.Warn("Dropping slow websocket client",
				"connection_id", c.id)
			h.remove(c, websocket.StatusPolicyViolation, "send queue overflow")
		}
	}
}

// HandleConnection owns one websocket from upgrade to close. Blocks until
// the client disconnects or the hub shuts down.
func (h *WSHub) HandleConnection(parentCtx context.Context, conn *websocket.Conn) {
	ctx, cancel := context.WithCancel(parentCtx)
	c := &wsClient{
		id:     uuid.New().String(),
		conn:   conn,
		send:   make(chan []byte, sendQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	if !h.add(c) {
		cancel()
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.remove(c, websocket.StatusNormalClosure, "")

	go h.writeLoop(c)

	hello, _ := json.Marshal(map[string]string{
		"type":          "connection.established",
		"connection_id": c.id,
	})
	select {
	case c.send <- hello:
	case <-ctx.Done():
		return
	}

	// Read loop. The feed is write-mostly; the only inbound message with
	// meaning is a ping.
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("Invalid websocket message",
				"connection_id", c.id, "error", err)
			continue
		}
		if msg.Action == "ping" {
			pong, _ := json.Marshal(map[string]string{"type": "pong"})
			select {
			case c.send <- pong:
			default:
			}
		}
	}
}

// Close disconnects every client and rejects new ones. Called on shutdown
// after the bus stops delivering.
func (h *WSHub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*wsClient)
	h.mu.Unlock()

	for _, c := range clients {
		c.cancel()
		_ = c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// ActiveConnections returns the number of connected clients.
func (h *WSHub) ActiveConnections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// writeLoop drains the client's queue onto the socket. Exits when the
// client context ends or a write fails.
func (h *WSHub) writeLoop(c *wsClient) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case frame := <-c.send:
			writeCtx, cancel := context.WithTimeout(c.ctx, wsWriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				slog.Warn("Websocket write failed",
					"connection_id", c.id, "error", err)
				h.remove(c, websocket.StatusNormalClosure, "")
				return
			}
		}
	}
}

// add registers a client unless the hub is already closed.
func (h *WSHub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	return true
}

// remove unregisters a client and closes its socket. Safe to call more
// than once for the same client.
func (h *WSHub) remove(c *wsClient, code websocket.StatusCode, reason string) {
	h.mu.Lock()
	_, present := h.clients[c.id]
	delete(h.clients, c.id)
	h.mu.Unlock()

	c.cancel()
	if present {
		_ = c.conn.Close(code, reason)
	}
}
