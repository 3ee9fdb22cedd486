package client

import (
	"context"
	"sync"
	"time"

	"betportal/internal/events"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// State is the connection badge shown to the user
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateDisconnected State = "disconnected"
)

const (
	defaultMaxAttempts = 5
	defaultBackoff     = 2 * time.Second
	writeWait          = 10 * time.Second
)

// ConnConfig tunes the socket transport
type ConnConfig struct {
	URL string
	// MaxAttempts bounds consecutive failed dials before giving up
	MaxAttempts int
	Backoff     time.Duration
	Dialer      *websocket.Dialer
}

// Conn is a websocket transport that reconnects a bounded number of times
// with a fixed backoff. Nothing is acknowledged: an event emitted while the
// socket is down is refused with TransportUnavailable.
type Conn struct {
	cfg     ConnConfig
	handler func(events.Event)

	mu      sync.Mutex
	ws      *websocket.Conn
	state   State
	changed chan struct{}

	writeMu sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

// Dial starts the transport; handler receives every decoded event on the
// reader goroutine.
func Dial(ctx context.Context, cfg ConnConfig, handler func(events.Event)) *Conn {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.Dialer == nil {
		cfg.Dialer = websocket.DefaultDialer
	}

	ctx, cancel := context.WithCancel(ctx)
	c := &Conn{
		cfg:     cfg,
		handler: handler,
		state:   StateConnecting,
		changed: make(chan struct{}),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go c.run(ctx)
	return c
}

// State returns the current connection state
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conn) setState(s State, ws *websocket.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws = ws
	if c.state == s {
		return
	}
	c.state = s
	close(c.changed)
	c.changed = make(chan struct{})
}

// WaitFor blocks until the connection reaches want or ctx ends
func (c *Conn) WaitFor(ctx context.Context, want State) error {
	for {
		c.mu.Lock()
		state, changed := c.state, c.changed
		c.mu.Unlock()
		if state == want {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Conn) run(ctx context.Context) {
	defer close(c.done)
	defer c.setState(StateDisconnected, nil)

	failures := 0
	for failures < c.cfg.MaxAttempts {
		c.setState(StateConnecting, nil)
		ws, _, err := c.cfg.Dialer.DialContext(ctx, c.cfg.URL, nil)
		if err != nil {
			failures++
			logger.WithFields(logrus.Fields{
				"attempt": failures,
				"error":   err.Error(),
			}).Warn("Socket dial failed")
		} else {
			failures = 0
			c.setState(StateConnected, ws)
			c.read(ctx, ws)
		}

		if ctx.Err() != nil {
			return
		}
		if failures >= c.cfg.MaxAttempts {
			break
		}
		c.setState(StateDisconnected, nil)
		select {
		case <-time.After(c.cfg.Backoff):
		case <-ctx.Done():
			return
		}
	}
	logger.WithField("url", c.cfg.URL).Warn("Giving up on socket after repeated failures")
}

// read pumps frames until the socket fails or ctx ends
func (c *Conn) read(ctx context.Context, ws *websocket.Conn) {
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()
	defer ws.Close()

	for {
		_, frame, err := ws.ReadMessage()
		if err != nil {
			return
		}
		e, err := events.Decode(frame)
		if err != nil {
			logger.WithError(err).Debug("Skipping undecodable frame")
			continue
		}
		if c.handler != nil {
			c.handler(e)
		}
	}
}

// Emit sends e on the live socket
func (c *Conn) Emit(e events.Event) error {
	c.mu.Lock()
	ws, state := c.ws, c.state
	c.mu.Unlock()
	if state != StateConnected || ws == nil {
		return apperrors.TransportUnavailable("socket is "+string(state), nil)
	}

	frame, err := events.Encode(e)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return apperrors.TransportUnavailable("socket write failed", err)
	}
	return nil
}

// Close stops reconnecting and closes the socket
func (c *Conn) Close() {
	c.cancel()
	<-c.done
}
