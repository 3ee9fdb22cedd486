package services

import (
	"context"
	"testing"
	"time"

	"betportal/internal/events"
	"betportal/internal/models"
	"betportal/internal/utils"
	"betportal/pkg/database"

	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store    *database.Store
	recorder *events.Recorder
	settings *SettingsService
	users    *UserService
	auth     *AuthService
	ledger   *LedgerService
	requests *RequestService
	chat     *ChatService
	banners  *BannerService
	media    *MediaService
	ctx      context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend, err := database.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store := database.NewStore(backend)
	recorder := &events.Recorder{}
	tokens := utils.NewTokenIssuer("test-secret", time.Hour, time.Hour)

	settings := NewSettingsService(store, recorder)
	media := NewMediaService(InlineImageStore{}, 1<<20)
	return &testEnv{
		store:    store,
		recorder: recorder,
		settings: settings,
		users:    NewUserService(store, tokens, 4),
		auth:     NewAuthService(store, tokens, 4),
		ledger:   NewLedgerService(store, recorder),
		requests: NewRequestService(store, settings, media, recorder, 0, 0),
		chat:     NewChatService(store, settings, recorder),
		banners:  NewBannerService(store, media),
		media:    media,
		ctx:      context.Background(),
	}
}

func (e *testEnv) seedUser(t *testing.T, username string, balance float64) {
	t.Helper()
	_, err := database.UpdateList(e.ctx, e.store, database.Users, func(users []models.User) ([]models.User, error) {
		return append(users, models.User{Username: username, Balance: balance, History: []models.HistoryEntry{}}), nil
	})
	require.NoError(t, err)
}
