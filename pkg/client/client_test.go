package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"betportal/internal/config"
	"betportal/internal/events"
	"betportal/internal/models"
	"betportal/internal/routes"
	"betportal/internal/services"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverEnv struct {
	url string
	svc *routes.Services
	ctx context.Context
}

func newServer(t *testing.T) *serverEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	backend, err := database.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Security.JWT.Secret = "test-secret"
	cfg.Security.JWT.ExpiryHour = 1
	cfg.Security.JWT.AdminExpiryHour = 1
	cfg.Security.BcryptCost = 4
	cfg.Media.MaxBytes = 1 << 20
	cfg.Server.WebSocket = config.WebSocketConfig{
		PingPeriod:     time.Second,
		PongWait:       5 * time.Second,
		WriteWait:      time.Second,
		MaxMessageSize: 64 << 10,
		SendBuffer:     64,
	}

	ctx, cancel := context.WithCancel(context.Background())
	svc := routes.NewServices(database.NewStore(backend), cfg, services.InlineImageStore{})
	go svc.Hub.Run(ctx)

	router := gin.New()
	routes.SetupRoutes(ctx, router, cfg, svc)
	server := httptest.NewServer(router)
	t.Cleanup(func() {
		cancel()
		server.Close()
	})
	return &serverEnv{url: server.URL, svc: svc, ctx: ctx}
}

// connect returns a client whose history replay has arrived
func (e *serverEnv) connect(t *testing.T, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = e.url
	c := New(cfg)

	replayed := make(chan struct{}, 1)
	c.OnEvent(func(ev events.Event) {
		if ev.Type() == events.TypeStateChanged {
			select {
			case replayed <- struct{}{}:
			default:
			}
		}
	})
	c.Connect(context.Background())
	t.Cleanup(c.Close)

	select {
	case <-replayed:
	case <-time.After(3 * time.Second):
		t.Fatal("no history replay")
	}
	require.Equal(t, StateConnected, c.State())
	return c
}

func countText(messages []models.Message, text string) int {
	n := 0
	for _, m := range messages {
		if m.Text == text {
			n++
		}
	}
	return n
}

func TestMainChatWithoutEchoDuplicates(t *testing.T) {
	env := newServer(t)
	a := env.connect(t, Config{Username: "alice"})
	b := env.connect(t, Config{Username: "bob"})

	delivery, _, err := a.Send(context.Background(), MainChat, "", "hi")
	require.NoError(t, err)
	assert.Equal(t, DeliveredLive, delivery)

	require.Eventually(t, func() bool { return countText(b.Main.Messages(), "hi") == 1 }, 3*time.Second, 20*time.Millisecond)
	msg := b.Main.Messages()[0]
	assert.Equal(t, "alice", msg.From)

	// the echo back to the sender replaces its optimistic copy
	require.Eventually(t, func() bool {
		messages := a.Main.Messages()
		return len(messages) == 1 && messages[0].Time != "" && countText(messages, "hi") == 1
	}, 3*time.Second, 20*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, countText(a.Main.Messages(), "hi"))
	assert.Equal(t, 1, countText(b.Main.Messages(), "hi"))
}

func TestSendFallsBackToREST(t *testing.T) {
	env := newServer(t)
	c := New(Config{BaseURL: env.url, Username: "carol"})

	delivery, saved, err := c.Send(context.Background(), SupportChat, "", "sin socket")
	require.NoError(t, err)
	assert.Equal(t, DeliveredREST, delivery)
	assert.Equal(t, "carol", saved.Thread)

	history, err := env.svc.Chat.SupportHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "sin socket", history[0].Text)
	assert.Len(t, c.Support.Messages(), 1)
}

func TestSendKeepsMessageLocalWhenServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := New(Config{BaseURL: url, Username: "dave"})
	delivery, _, err := c.Send(context.Background(), MainChat, "", "offline")
	require.NoError(t, err)
	assert.Equal(t, DeliveredLocal, delivery)
	assert.Equal(t, 1, countText(c.Main.Messages(), "offline"))
}

func TestRefusedMessageIsDiscarded(t *testing.T) {
	env := newServer(t)
	require.NoError(t, env.svc.Settings.SetChatEnabled(context.Background(), false))

	c := New(Config{BaseURL: env.url, Username: "erin"})
	_, _, err := c.Send(context.Background(), MainChat, "", "blocked")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
	assert.Empty(t, c.Main.Messages())
}

func TestLiveRefusalDropsOptimisticCopy(t *testing.T) {
	env := newServer(t)
	ctx := context.Background()
	require.NoError(t, env.svc.Settings.SetChatEnabled(ctx, false))

	c := env.connect(t, Config{Username: "erin"})
	refused := make(chan events.Error, 1)
	c.OnEvent(func(ev events.Event) {
		if e, ok := ev.(events.Error); ok {
			refused <- e
		}
	})

	delivery, msg, err := c.Send(ctx, MainChat, "", "blocked")
	require.NoError(t, err)
	assert.Equal(t, DeliveredLive, delivery)

	select {
	case e := <-refused:
		assert.Equal(t, apperrors.CodeForbidden, e.Code)
		assert.Equal(t, msg.ID, e.Ref)
	case <-time.After(3 * time.Second):
		t.Fatal("no error event for the refused message")
	}
	assert.Empty(t, c.Main.Messages())

	history, err := env.svc.Chat.MainHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestEmitWhileDisconnectedIsRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + server.URL[len("http"):]
	server.Close()

	conn := Dial(context.Background(), ConnConfig{URL: url, MaxAttempts: 2, Backoff: 10 * time.Millisecond}, nil)
	defer conn.Close()

	err := conn.Emit(events.Typing{From: "x"})
	assert.True(t, apperrors.Is(err, apperrors.CodeTransportUnavailable))

	select {
	case <-conn.done:
	case <-time.After(3 * time.Second):
		t.Fatal("reconnect loop did not give up")
	}
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestAccountUpdatesAreFilteredToViewer(t *testing.T) {
	env := newServer(t)
	ctx := context.Background()
	_, err := env.svc.Users.Create(ctx, services.CreateUserInput{Username: "alice", Password: "secret"})
	require.NoError(t, err)
	deposit, err := env.svc.Requests.CreateDeposit(ctx, services.DepositInput{User: "alice", Amount: 5000})
	require.NoError(t, err)

	alice := env.connect(t, Config{Username: "alice"})
	bob := env.connect(t, Config{Username: "bob"})

	_, err = env.svc.Ledger.TransitionRequest(ctx, models.DepositRequest, deposit.ID, models.StatusApproved, "")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		account, ok := alice.Account()
		return ok && account.Balance == 5000
	}, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool { return len(alice.Notifications()) == 1 }, 3*time.Second, 20*time.Millisecond)

	_, ok := bob.Account()
	assert.False(t, ok)
	assert.Empty(t, bob.Notifications())
}
