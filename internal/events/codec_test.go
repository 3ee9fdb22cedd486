package events

import (
	"encoding/json"
	"testing"

	"betportal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeShape(t *testing.T) {
	frame, err := Encode(UserUpdate{Username: "alice", Balance: 5000, History: []models.HistoryEntry{}})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(frame, &raw))
	assert.Equal(t, "user:update", raw["type"])
	data := raw["data"].(map[string]interface{})
	assert.Equal(t, "alice", data["username"])
	assert.EqualValues(t, 5000, data["balance"])
	assert.Contains(t, raw, "timestamp")
}

func TestDecodeReturnsConcreteValues(t *testing.T) {
	frame, err := Encode(MainMessage{ID: 10, Text: "hi", From: "ana", Time: "2024-01-01T00:00:00Z"})
	require.NoError(t, err)

	e, err := Decode(frame)
	require.NoError(t, err)
	msg, ok := e.(MainMessage)
	require.True(t, ok, "got %T", e)
	assert.Equal(t, "hi", msg.Text)

	history, err := Encode(History{{ID: 1, Text: "a", From: "bob", Thread: "bob"}})
	require.NoError(t, err)
	e, err = Decode(history)
	require.NoError(t, err)
	assert.Len(t, e.(History), 1)
}

func TestDecodeEmptyPayloads(t *testing.T) {
	e, err := Decode([]byte(`{"type":"chat:clear-global"}`))
	require.NoError(t, err)
	assert.Equal(t, ClearGlobal{}, e)

	e, err = Decode([]byte(`{"type":"chat:toggle-global","data":{"enabled":false}}`))
	require.NoError(t, err)
	assert.Equal(t, ToggleGlobal{Enabled: false}, e)
}

func TestDecodeRejectsUnknownTypes(t *testing.T) {
	_, err := Decode([]byte(`{"type":"chat:nope","data":{}}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`not json`))
	assert.Error(t, err)
}
