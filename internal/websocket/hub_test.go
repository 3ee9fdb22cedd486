package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"betportal/internal/config"
	"betportal/internal/events"
	"betportal/internal/services"
	"betportal/pkg/database"

	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testWSConfig = config.WebSocketConfig{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	PingPeriod:      time.Second,
	PongWait:        2 * time.Second,
	WriteWait:       time.Second,
	MaxMessageSize:  64 << 10,
	SendBuffer:      32,
}

type wsEnv struct {
	hub    *Hub
	chat   *services.ChatService
	server *httptest.Server
}

func newWSEnv(t *testing.T) *wsEnv {
	t.Helper()

	backend, err := database.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := database.NewStore(backend)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil)
	settings := services.NewSettingsService(store, hub)
	chat := services.NewChatService(store, settings, hub)
	handler := NewChatHandler(chat, settings, hub)
	hub.SetReplayer(handler)
	go hub.Run(ctx)

	upgrader := gorillaws.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, hub, handler, testWSConfig)
		client.Username = r.URL.Query().Get("username")
		if r.URL.Query().Get("admin") == "1" {
			client.IsAdmin = true
			client.AdminName = client.Username
		}
		if !hub.Join(client) {
			conn.Close()
			return
		}
		go client.WritePump()
		client.ReadPump(ctx)
	}))
	t.Cleanup(server.Close)

	return &wsEnv{hub: hub, chat: chat, server: server}
}

func (e *wsEnv) dial(t *testing.T, query string) *gorillaws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.server.URL, "http") + "/?" + query
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gorillaws.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	e, err := events.Decode(frame)
	require.NoError(t, err)
	return e
}

func sendEvent(t *testing.T, conn *gorillaws.Conn, e events.Event) {
	t.Helper()
	frame, err := events.Encode(e)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gorillaws.TextMessage, frame))
}

func expectReplay(t *testing.T, conn *gorillaws.Conn) {
	t.Helper()
	assert.Equal(t, events.TypeHistory, readEvent(t, conn).Type())
	assert.Equal(t, events.TypeMainHistory, readEvent(t, conn).Type())
	state, ok := readEvent(t, conn).(events.StateChanged)
	require.True(t, ok)
	assert.True(t, state.Enabled)
}

func TestMainChatReachesEveryClientOnce(t *testing.T) {
	env := newWSEnv(t)
	alice := env.dial(t, "username=alice")
	expectReplay(t, alice)
	admin := env.dial(t, "username=maria&admin=1")
	expectReplay(t, admin)

	sendEvent(t, alice, events.MainMessage{ID: 1, Text: "hola"})

	for _, conn := range []*gorillaws.Conn{alice, admin} {
		msg, ok := readEvent(t, conn).(events.MainMessage)
		require.True(t, ok)
		assert.Equal(t, int64(1), msg.ID)
		assert.Equal(t, "alice", msg.From)
	}

	history, err := env.chat.MainHistory(context.Background())
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestTypingSkipsSender(t *testing.T) {
	env := newWSEnv(t)
	alice := env.dial(t, "username=alice")
	expectReplay(t, alice)
	admin := env.dial(t, "username=maria&admin=1")
	expectReplay(t, admin)

	sendEvent(t, alice, events.Typing{From: "mallory", Main: true, Typing: true})
	sendEvent(t, alice, events.MainMessage{ID: 2, Text: "hola"})

	typing, ok := readEvent(t, admin).(events.Typing)
	require.True(t, ok)
	assert.Equal(t, "alice", typing.From)
	assert.Equal(t, events.TypeMainMessage, readEvent(t, admin).Type())

	// the sender's next frame is its own message, not the typing echo
	assert.Equal(t, events.TypeMainMessage, readEvent(t, alice).Type())
}

func TestUserCannotToggleChat(t *testing.T) {
	env := newWSEnv(t)
	alice := env.dial(t, "username=alice")
	expectReplay(t, alice)

	sendEvent(t, alice, events.ToggleGlobal{Enabled: false})

	e, ok := readEvent(t, alice).(events.Error)
	require.True(t, ok)
	assert.Equal(t, "FORBIDDEN", e.Code)
}

func TestSupportReplyMarksThreadHandled(t *testing.T) {
	env := newWSEnv(t)
	bob := env.dial(t, "username=bob")
	expectReplay(t, bob)
	admin := env.dial(t, "username=maria&admin=1")
	expectReplay(t, admin)

	sendEvent(t, bob, events.SupportMessage{ID: 10, Text: "help", Thread: "someone-else"})
	msg, ok := readEvent(t, admin).(events.SupportMessage)
	require.True(t, ok)
	assert.Equal(t, "bob", msg.Thread)
	assert.Equal(t, events.TypeSupportMessage, readEvent(t, bob).Type())

	sendEvent(t, admin, events.SupportMessage{ID: 11, Text: "on it", Thread: "bob"})
	reply, ok := readEvent(t, bob).(events.SupportMessage)
	require.True(t, ok)
	assert.Equal(t, "admin", reply.From)
	assert.Equal(t, "maria", reply.AdminName)
	handled, ok := readEvent(t, bob).(events.MessagesHandled)
	require.True(t, ok)
	assert.Equal(t, "bob", handled.Thread)

	threads, err := env.chat.Threads(context.Background())
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Zero(t, threads[0].Unread)
}

func TestAnonymousViewerCannotPost(t *testing.T) {
	env := newWSEnv(t)
	viewer := env.dial(t, "")
	expectReplay(t, viewer)

	sendEvent(t, viewer, events.MainMessage{ID: 3, Text: "hi"})
	e, ok := readEvent(t, viewer).(events.Error)
	require.True(t, ok)
	assert.Equal(t, "UNAUTHORIZED", e.Code)
	assert.Equal(t, int64(3), e.Ref)
}

func TestUnknownFrameGetsBadEvent(t *testing.T) {
	env := newWSEnv(t)
	alice := env.dial(t, "username=alice")
	expectReplay(t, alice)

	require.NoError(t, alice.WriteMessage(gorillaws.TextMessage, []byte(`{"type":"chat:nope","data":{}}`)))
	e, ok := readEvent(t, alice).(events.Error)
	require.True(t, ok)
	assert.Equal(t, "BAD_EVENT", e.Code)
	assert.Zero(t, e.Ref)
}

func TestSlowClientIsDropped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	slow := &Client{ID: "slow", send: make(chan []byte, 1)}
	fast := &Client{ID: "fast", send: make(chan []byte, 8)}
	require.True(t, hub.Join(slow))
	require.True(t, hub.Join(fast))
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, time.Second, 10*time.Millisecond)

	hub.Publish(events.Cleared{})
	hub.Publish(events.Cleared{})

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	assert.Len(t, fast.send, 2)

	// the dropped client's channel is closed after its buffered frame
	<-slow.send
	_, open := <-slow.send
	assert.False(t, open)
}

func TestPublishExceptSkipsConnection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	a := &Client{ID: "a", send: make(chan []byte, 4)}
	b := &Client{ID: "b", send: make(chan []byte, 4)}
	require.True(t, hub.Join(a))
	require.True(t, hub.Join(b))

	hub.PublishExcept(events.Typing{From: "alice", Typing: true}, "a")
	require.Eventually(t, func() bool { return len(b.send) == 1 }, time.Second, 10*time.Millisecond)
	assert.Empty(t, a.send)
}
