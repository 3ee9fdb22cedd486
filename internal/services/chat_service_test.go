package services

import (
	"testing"

	"betportal/internal/events"
	"betportal/internal/models"
	"betportal/internal/support"
	apperrors "betportal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threadByID(threads []models.Thread, id string) *models.Thread {
	for i := range threads {
		if threads[i].ID == id {
			return &threads[i]
		}
	}
	return nil
}

func TestMarkHandledClearsUnread(t *testing.T) {
	env := newTestEnv(t)
	for _, text := range []string{"hola", "no llega mi recarga", "sigo esperando"} {
		_, err := env.chat.PostSupport(env.ctx, models.Message{Text: text, From: "bob"})
		require.NoError(t, err)
	}

	threads, err := env.chat.Threads(env.ctx)
	require.NoError(t, err)
	require.Len(t, threads, 1)
	assert.Equal(t, 3, threads[0].Unread)

	require.NoError(t, env.chat.MarkHandled(env.ctx, "BOB"))

	threads, err = env.chat.Threads(env.ctx)
	require.NoError(t, err)
	assert.Zero(t, threadByID(threads, "bob").Unread)
	assert.Len(t, env.recorder.OfType(events.TypeMessagesHandled), 1)
}

func TestAdminReplyHandlesThreadAndNewMessagesReopen(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.chat.PostSupport(env.ctx, models.Message{Text: "ayuda", From: "carla", Time: "2024-01-01T10:00:00.000Z"})
	require.NoError(t, err)

	reply, err := env.chat.PostSupport(env.ctx, models.Message{Text: "te ayudo", From: "admin", Thread: "carla", AdminName: "Ana", Time: "2024-01-01T10:01:00.000Z"})
	require.NoError(t, err)
	assert.Equal(t, "carla", reply.Thread)
	assert.Equal(t, "Ana", reply.AdminName)

	threads, _ := env.chat.Threads(env.ctx)
	assert.Zero(t, threadByID(threads, "carla").Unread)

	_, err = env.chat.PostSupport(env.ctx, models.Message{Text: "gracias", From: "carla", Time: "2024-01-01T10:02:00.000Z"})
	require.NoError(t, err)
	threads, _ = env.chat.Threads(env.ctx)
	assert.Equal(t, 1, threadByID(threads, "carla").Unread)
}

func TestAdminReplyWithoutThreadIsRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.chat.PostSupport(env.ctx, models.Message{Text: "hola", From: "admin"})
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))
}

func TestMarkSeenIsPersistedAndMonotonic(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.chat.PostSupport(env.ctx, models.Message{Text: "hola", From: "dave"})
	require.NoError(t, err)
	_, err = env.chat.PostSupport(env.ctx, models.Message{Text: "hola dave", From: "admin", Thread: "dave"})
	require.NoError(t, err)

	require.NoError(t, env.chat.MarkSeen(env.ctx, "dave", "dave"))
	require.NoError(t, env.chat.MarkSeen(env.ctx, "dave", "dave"))
	require.NoError(t, env.chat.MarkHandled(env.ctx, "dave"))

	history, err := env.chat.SupportHistory(env.ctx)
	require.NoError(t, err)
	for _, m := range history {
		if support.IsAdmin(m) {
			assert.Equal(t, []string{"dave"}, m.SeenBy)
		}
	}
	assert.Len(t, env.recorder.OfType(events.TypeMessagesSeen), 2)
}

func TestPostKeepsClientIDAndDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	msg := models.Message{ID: 1700000000000, Text: "hi", From: "ana", Time: "2024-01-01T00:00:00.000Z"}

	first, err := env.chat.PostMain(env.ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, first.ID)

	second, err := env.chat.PostMain(env.ctx, msg)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := env.chat.PostMain(env.ctx, models.Message{ID: msg.ID, Text: "different", From: "ben"})
	require.NoError(t, err)
	assert.NotEqual(t, msg.ID, other.ID)
	assert.NotEmpty(t, other.Time)

	history, err := env.chat.MainHistory(env.ctx)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestMainChatRespectsToggleAndBlocks(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "frank", 0)

	require.NoError(t, env.chat.SetChatEnabled(env.ctx, false))
	changed := env.recorder.OfType(events.TypeStateChanged)
	require.Len(t, changed, 1)
	assert.False(t, changed[0].(events.StateChanged).Enabled)

	_, err := env.chat.PostMain(env.ctx, models.Message{Text: "hola", From: "frank"})
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))

	_, err = env.chat.PostMain(env.ctx, models.Message{Text: "volvemos pronto", From: "admin"})
	assert.NoError(t, err)

	require.NoError(t, env.chat.SetChatEnabled(env.ctx, true))
	blocked := true
	_, err = env.users.Update(env.ctx, "frank", UpdateUserInput{ChatBlocked: &blocked})
	require.NoError(t, err)
	_, err = env.chat.PostMain(env.ctx, models.Message{Text: "hola", From: "frank"})
	assert.True(t, apperrors.Is(err, apperrors.CodeForbidden))
}

func TestClearMainAndDeleteThread(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.chat.PostMain(env.ctx, models.Message{Text: "hola", From: "gina"})
	require.NoError(t, err)
	_, err = env.chat.PostSupport(env.ctx, models.Message{Text: "hola", From: "gina"})
	require.NoError(t, err)
	_, err = env.chat.PostSupport(env.ctx, models.Message{Text: "hola", From: "hugo"})
	require.NoError(t, err)

	require.NoError(t, env.chat.ClearMain(env.ctx))
	main, _ := env.chat.MainHistory(env.ctx)
	assert.Empty(t, main)
	assert.Len(t, env.recorder.OfType(events.TypeCleared), 1)

	removed, err := env.chat.DeleteThread(env.ctx, "Gina")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	threads, _ := env.chat.Threads(env.ctx)
	require.Len(t, threads, 1)
	assert.Equal(t, "hugo", threads[0].ID)
}
