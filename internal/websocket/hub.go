package websocket

import (
	"context"
	"sync"
	"time"

	"betportal/internal/events"
	"betportal/internal/metrics"
	"betportal/pkg/logger"

	"github.com/sirupsen/logrus"
)

// Replayer produces the events a connection receives right after it joins
type Replayer interface {
	Replay(ctx context.Context) ([]events.Event, error)
}

// Hub maintains the set of active clients and fans events out to them.
// It implements events.Publisher.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// Encoded events waiting to be fanned out
	broadcast chan outbound

	replayer Replayer
	done     chan struct{}

	mu sync.RWMutex
}

type outbound struct {
	kind   events.Type
	frame  []byte
	except string
}

// NewHub creates a hub; replayer may be nil
func NewHub(replayer Replayer) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		replayer:   replayer,
		done:       make(chan struct{}),
	}
}

// SetReplayer installs the history source; call it before Run
func (h *Hub) SetReplayer(r Replayer) {
	h.replayer = r
}

// Run processes registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case client := <-h.Register:
			h.registerClient(ctx, client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToAll(msg)

		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// registerClient adds the client and queues the history replay. Replay runs
// on the hub goroutine so no broadcast can slip in between the snapshot and
// the registration.
func (h *Hub) registerClient(ctx context.Context, client *Client) {
	if h.replayer != nil {
		replayCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		replay, err := h.replayer.Replay(replayCtx)
		cancel()
		if err != nil {
			logger.WithError(err).Error("Failed to build history replay")
		}
		for _, e := range replay {
			client.Emit(e)
		}
	}

	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketConnections.Set(float64(total))
	logger.WithFields(logrus.Fields{
		"conn_id":       client.ID,
		"username":      client.Username,
		"admin":         client.IsAdmin,
		"total_clients": total,
	}).Info("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.closeSend()
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}
	metrics.WebSocketConnections.Set(float64(total))
	logger.WithFields(logrus.Fields{
		"conn_id":       client.ID,
		"username":      client.Username,
		"total_clients": total,
	}).Info("Client unregistered")
}

// broadcastToAll delivers at most once; a client whose buffer is full is
// dropped and will get a fresh replay when it reconnects.
func (h *Hub) broadcastToAll(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	metrics.EventsBroadcast.WithLabelValues(string(msg.kind)).Inc()
	for client := range h.clients {
		if msg.except != "" && client.ID == msg.except {
			continue
		}
		if !client.trySend(msg.frame) {
			delete(h.clients, client)
			client.closeSend()
			metrics.SlowClientsDropped.Inc()
			logger.WithField("conn_id", client.ID).Warn("Dropping slow websocket client")
		}
	}
	metrics.WebSocketConnections.Set(float64(len(h.clients)))
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		client.closeSend()
	}
	metrics.WebSocketConnections.Set(0)
}

// Join hands a client to the hub; it returns false once the hub stopped
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave removes a client from the hub
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// Publish fans e out to every connected client
func (h *Hub) Publish(e events.Event) {
	h.PublishExcept(e, "")
}

// PublishExcept fans e out to every client but connID
func (h *Hub) PublishExcept(e events.Event, connID string) {
	frame, err := events.Encode(e)
	if err != nil {
		logger.WithError(err).Error("Failed to encode broadcast event")
		return
	}
	select {
	case h.broadcast <- outbound{kind: e.Type(), frame: frame, except: connID}:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
