package websocket

import (
	"context"
	"sync"
	"time"

	"betportal/internal/config"
	"betportal/internal/events"
	"betportal/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Client represents one websocket connection
type Client struct {
	// Connection id, used to exclude the sender from typing fan-out
	ID string

	// Identity resolved at upgrade time; Username is empty for anonymous viewers
	Username  string
	AdminName string
	IsAdmin   bool

	conn    *websocket.Conn
	hub     *Hub
	handler InboundHandler
	cfg     config.WebSocketConfig

	// Buffered channel of outbound frames
	send   chan []byte
	closed bool
	mu     sync.Mutex

	ConnectedAt time.Time
}

// InboundHandler reacts to events a client sends
type InboundHandler interface {
	HandleEvent(ctx context.Context, c *Client, e events.Event) error
}

// NewClient creates a client for an upgraded connection
func NewClient(conn *websocket.Conn, hub *Hub, handler InboundHandler, cfg config.WebSocketConfig) *Client {
	buffer := cfg.SendBuffer
	if buffer <= 0 {
		buffer = 256
	}
	return &Client{
		ID:          uuid.NewString(),
		conn:        conn,
		hub:         hub,
		handler:     handler,
		cfg:         cfg,
		send:        make(chan []byte, buffer),
		ConnectedAt: time.Now(),
	}
}

// Identity returns the sender name used for messages from this connection
func (c *Client) Identity() string {
	if c.IsAdmin {
		return "admin"
	}
	return c.Username
}

func (c *Client) trySend(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Emit queues an event for this connection only
func (c *Client) Emit(e events.Event) {
	frame, err := events.Encode(e)
	if err != nil {
		logger.WithError(err).Error("Failed to encode event")
		return
	}
	if !c.trySend(frame) {
		logger.WithField("conn_id", c.ID).Warn("Send buffer full, event dropped")
	}
}

// ReadPump pumps events from the connection to the inbound handler
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Leave(c)
		c.conn.Close()
		c.logDisconnection()
	}()

	c.conn.SetReadLimit(c.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	c.logConnection()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithFields(logrus.Fields{
					"conn_id": c.ID,
					"error":   err.Error(),
				}).Error("WebSocket read error")
			}
			return
		}

		e, err := events.Decode(frame)
		if err != nil {
			logger.Warnf("Rejected websocket frame from %s: %v", c.ID, err)
			c.Emit(events.Error{Code: "BAD_EVENT", Message: err.Error()})
			continue
		}
		if err := c.handler.HandleEvent(ctx, c, e); err != nil {
			c.sendError(err, messageRef(e))
		}
	}
}

// WritePump pumps frames from the send channel to the connection, one
// event per websocket message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) logConnection() {
	logger.WithFields(logrus.Fields{
		"conn_id":  c.ID,
		"username": c.Username,
		"admin":    c.IsAdmin,
		"remote":   c.conn.RemoteAddr().String(),
	}).Info("WebSocket connection established")
}

func (c *Client) logDisconnection() {
	logger.WithFields(logrus.Fields{
		"conn_id":  c.ID,
		"username": c.Username,
		"duration": time.Since(c.ConnectedAt).String(),
	}).Info("WebSocket connection closed")
}
