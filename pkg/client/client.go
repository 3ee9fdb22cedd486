// Package client is the Go side of the portal's realtime clients: a local
// mirror of the chats kept in sync from the socket, with a send path that
// falls back from the socket to REST to the local cache.
package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"betportal/internal/events"
	"betportal/internal/models"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"
)

// Delivery says which route a sent message took
type Delivery string

const (
	DeliveredLive  Delivery = "live"
	DeliveredREST  Delivery = "rest"
	DeliveredLocal Delivery = "local"
)

type Config struct {
	// BaseURL is the HTTP root of the server, e.g. http://localhost:3000
	BaseURL  string
	Username string
	// Token is a user or staff JWT; staff clients must set Admin too
	Token string
	Admin bool

	KV          KV
	HTTPClient  *http.Client
	MaxAttempts int
	Backoff     time.Duration
}

// Client mirrors both chats and tracks the viewer's own account
type Client struct {
	cfg  Config
	rest *REST
	conn *Conn

	Support *MessageStore
	Main    *MessageStore

	mu            sync.RWMutex
	account       *events.UserUpdate
	notifications []events.Notification
	chatEnabled   bool
	listeners     []func(events.Event)
}

func New(cfg Config) *Client {
	if cfg.KV == nil {
		cfg.KV = NewMemoryKV()
	}
	viewer := cfg.Username
	if cfg.Admin {
		viewer = ""
	}
	return &Client{
		cfg:         cfg,
		rest:        NewREST(cfg.BaseURL, cfg.Token, cfg.HTTPClient),
		Support:     NewMessageStore(cfg.KV, SupportChat, viewer),
		Main:        NewMessageStore(cfg.KV, MainChat, ""),
		chatEnabled: true,
	}
}

// SocketURL derives the /ws endpoint from BaseURL
func (c *Client) SocketURL() string {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return ""
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"

	q := url.Values{}
	if c.cfg.Token != "" {
		q.Set("token", c.cfg.Token)
	} else if c.cfg.Username != "" {
		q.Set("username", c.cfg.Username)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Connect opens the socket. It returns immediately; watch State for the badge.
func (c *Client) Connect(ctx context.Context) {
	c.conn = Dial(ctx, ConnConfig{
		URL:         c.SocketURL(),
		MaxAttempts: c.cfg.MaxAttempts,
		Backoff:     c.cfg.Backoff,
	}, c.handle)
}

// State returns the socket state; a client that never connected is disconnected
func (c *Client) State() State {
	if c.conn == nil {
		return StateDisconnected
	}
	return c.conn.State()
}

// WaitFor blocks until the socket reaches want
func (c *Client) WaitFor(ctx context.Context, want State) error {
	if c.conn == nil {
		return apperrors.TransportUnavailable("client is not connected", nil)
	}
	return c.conn.WaitFor(ctx, want)
}

func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// OnEvent registers fn for every event after it was applied locally
func (c *Client) OnEvent(fn func(events.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Client) handle(e events.Event) {
	for _, store := range []*MessageStore{c.Support, c.Main} {
		if _, err := store.ApplyRemote(e); err != nil {
			logger.WithError(err).Warn("Failed to persist local chat cache")
		}
	}
	if refused, ok := e.(events.Error); ok && refused.Ref != 0 {
		// the server refused a live send, drop its optimistic copy
		for _, store := range []*MessageStore{c.Support, c.Main} {
			if err := store.Discard(refused.Ref); err != nil {
				logger.WithError(err).Warn("Failed to persist local chat cache")
			}
		}
	}

	c.mu.Lock()
	switch ev := e.(type) {
	case events.UserUpdate:
		if !c.cfg.Admin && strings.EqualFold(ev.Username, c.cfg.Username) {
			update := ev
			c.account = &update
		}
	case events.Notification:
		if c.ownNotification(ev) {
			c.notifications = append(c.notifications, ev)
		}
	case events.StateChanged:
		c.chatEnabled = ev.Enabled
	}
	listeners := append([]func(events.Event){}, c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}

func (c *Client) ownNotification(n events.Notification) bool {
	if c.cfg.Admin {
		return n.Username == models.AdminSender
	}
	return strings.EqualFold(n.Username, c.cfg.Username)
}

// Account returns the latest balance and history pushed for the viewer
func (c *Client) Account() (events.UserUpdate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.account == nil {
		return events.UserUpdate{}, false
	}
	return *c.account, true
}

func (c *Client) Notifications() []events.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]events.Notification(nil), c.notifications...)
}

func (c *Client) ChatEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.chatEnabled
}

var lastID struct {
	sync.Mutex
	v int64
}

func nextID() int64 {
	lastID.Lock()
	defer lastID.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID.v {
		id = lastID.v + 1
	}
	lastID.v = id
	return id
}

func (c *Client) compose(collection Collection, thread, text string) models.Message {
	msg := models.Message{
		ID:   nextID(),
		Text: text,
		From: c.cfg.Username,
		Time: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if c.cfg.Admin {
		msg.From = models.AdminSender
		msg.AdminName = c.cfg.Username
	}
	if collection == SupportChat {
		msg.Thread = c.cfg.Username
		if c.cfg.Admin {
			msg.Thread = thread
		}
	}
	return msg
}

// Send posts text to collection. thread names the support thread a staff
// client replies to and is ignored otherwise. When both the socket and REST
// fail the message stays in the local cache only and the server never sees it.
func (c *Client) Send(ctx context.Context, collection Collection, thread, text string) (Delivery, models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return "", models.Message{}, apperrors.Validation("message text is required")
	}
	if collection == SupportChat && c.cfg.Admin && thread == "" {
		return "", models.Message{}, apperrors.Validation("staff replies need a thread")
	}

	msg := c.compose(collection, thread, text)
	store, event, path := c.Support, events.Event(events.SupportMessage(msg)), "/messages"
	if collection == MainChat {
		store, event, path = c.Main, events.MainMessage(msg), "/messages/main"
	}

	if err := store.ApplyLocal(msg); err != nil {
		logger.WithError(err).Warn("Failed to persist local chat cache")
	}

	if c.conn != nil {
		if err := c.conn.Emit(event); err == nil {
			return DeliveredLive, msg, nil
		}
	}

	var saved models.Message
	err := c.rest.Do(ctx, http.MethodPost, path, msg, &saved)
	if err == nil {
		if err := store.ApplyLocal(saved); err != nil {
			logger.WithError(err).Warn("Failed to persist local chat cache")
		}
		return DeliveredREST, saved, nil
	}
	if !apperrors.Is(err, apperrors.CodeTransportUnavailable) {
		// the server answered and refused the message
		if derr := store.Discard(msg.ID); derr != nil {
			logger.WithError(derr).Warn("Failed to persist local chat cache")
		}
		return "", msg, err
	}

	logger.WithError(err).Warn("Message kept in local cache only")
	return DeliveredLocal, msg, nil
}

// MarkSeen tells the server the viewer read the staff replies in thread
func (c *Client) MarkSeen(ctx context.Context, thread string) error {
	seen := events.MessagesSeen{Thread: thread, Username: c.cfg.Username}
	if _, err := c.Support.ApplyRemote(seen); err != nil {
		logger.WithError(err).Warn("Failed to persist local chat cache")
	}
	if c.conn != nil && c.conn.Emit(seen) == nil {
		return nil
	}
	return c.rest.Do(ctx, http.MethodPost, "/messages/seen", seen, nil)
}
