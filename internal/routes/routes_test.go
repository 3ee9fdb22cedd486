package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"betportal/internal/config"
	"betportal/internal/models"
	"betportal/internal/services"
	"betportal/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	router     *gin.Engine
	dir        string
	adminToken string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	backend, err := database.NewFileBackend(dir)
	require.NoError(t, err)
	store := database.NewStore(backend)

	cfg := &config.Config{}
	cfg.Security.JWT.Secret = "test-secret"
	cfg.Security.JWT.ExpiryHour = 1
	cfg.Security.JWT.AdminExpiryHour = 1
	cfg.Security.BcryptCost = 4
	cfg.Media.MaxBytes = 1 << 20

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc := NewServices(store, cfg, services.InlineImageStore{})
	go svc.Hub.Run(ctx)

	router := gin.New()
	SetupRoutes(ctx, router, cfg, svc)

	token, err := svc.Tokens.IssueAdmin("a1", "maria")
	require.NoError(t, err)
	return &apiEnv{router: router, dir: dir, adminToken: token}
}

func (e *apiEnv) do(t *testing.T, method, path string, body interface{}, token string) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func TestDepositApprovalCreditsBalanceOnce(t *testing.T) {
	env := newAPIEnv(t)

	code, _ := env.do(t, http.MethodPost, "/users", gin.H{"username": "alice", "password": "secret"}, "")
	require.Equal(t, http.StatusCreated, code)

	code, resp := env.do(t, http.MethodPost, "/deposits", gin.H{"user": "alice", "amount": 5000}, "")
	require.Equal(t, http.StatusCreated, code)
	var deposit models.Request
	require.NoError(t, json.Unmarshal(resp.Data, &deposit))
	assert.Equal(t, models.StatusPending, deposit.Status)

	path := "/deposits/" + strconv.FormatInt(deposit.ID, 10)
	approve := gin.H{"status": models.StatusApproved, "adminMessage": "ok"}

	code, _ = env.do(t, http.MethodPut, path, approve, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, resp = env.do(t, http.MethodPut, path, approve, env.adminToken)
	require.Equal(t, http.StatusOK, code)
	var result services.TransitionResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.True(t, result.Changed)

	// approving again changes nothing
	code, resp = env.do(t, http.MethodPut, path, approve, env.adminToken)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.False(t, result.Changed)

	code, resp = env.do(t, http.MethodGet, "/users/alice", nil, "")
	require.Equal(t, http.StatusOK, code)
	var user models.PublicUser
	require.NoError(t, json.Unmarshal(resp.Data, &user))
	assert.Equal(t, 5000.0, user.Balance)
	require.Len(t, user.History, 1)
	assert.Equal(t, models.HistoryDeposit, user.History[0].Type)
	assert.Equal(t, models.HistorySucceeded, user.History[0].Status)
	assert.Equal(t, deposit.ID, user.History[0].RequestID)

	code, resp = env.do(t, http.MethodPut, path, gin.H{"status": models.StatusRejected}, env.adminToken)
	assert.Equal(t, http.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CONFLICT", resp.Error.Code)
}

func TestCorruptCollectionListsEmpty(t *testing.T) {
	env := newAPIEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.dir, "deposits.json"), []byte("{not json"), 0o644))

	code, resp := env.do(t, http.MethodGet, "/deposits", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, "[]", string(resp.Data))
}

func TestSupportThreadHandledOverREST(t *testing.T) {
	env := newAPIEnv(t)

	code, _ := env.do(t, http.MethodPost, "/messages", gin.H{"from": "bob", "text": "necesito ayuda"}, "")
	require.Equal(t, http.StatusCreated, code)

	code, _ = env.do(t, http.MethodGet, "/messages/threads", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	threads := func() []models.Thread {
		code, resp := env.do(t, http.MethodGet, "/messages/threads", nil, env.adminToken)
		require.Equal(t, http.StatusOK, code)
		var out []models.Thread
		require.NoError(t, json.Unmarshal(resp.Data, &out))
		return out
	}
	list := threads()
	require.Len(t, list, 1)
	assert.Equal(t, "bob", list[0].ID)
	assert.Equal(t, 1, list[0].Unread)

	code, _ = env.do(t, http.MethodPost, "/messages/mark-handled", gin.H{"thread": "bob"}, env.adminToken)
	require.Equal(t, http.StatusOK, code)
	assert.Zero(t, threads()[0].Unread)
}

func TestStaffMessagesNeedStaffToken(t *testing.T) {
	env := newAPIEnv(t)

	code, resp := env.do(t, http.MethodPost, "/messages", gin.H{"from": "admin", "thread": "bob", "text": "hola"}, "")
	assert.Equal(t, http.StatusForbidden, code)
	require.NotNil(t, resp.Error)

	code, resp = env.do(t, http.MethodPost, "/messages", gin.H{"from": "admin", "thread": "bob", "text": "hola"}, env.adminToken)
	require.Equal(t, http.StatusCreated, code)
	var msg models.Message
	require.NoError(t, json.Unmarshal(resp.Data, &msg))
	assert.Equal(t, "admin", msg.From)
	assert.Equal(t, "maria", msg.AdminName)
}

func TestMainChatDisabledRejectsUsers(t *testing.T) {
	env := newAPIEnv(t)

	code, _ := env.do(t, http.MethodPost, "/config", gin.H{"chatEnabled": false}, env.adminToken)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.do(t, http.MethodPost, "/messages/main", gin.H{"from": "alice", "text": "hola"}, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = env.do(t, http.MethodPost, "/messages/main", gin.H{"text": "mantenimiento"}, env.adminToken)
	assert.Equal(t, http.StatusCreated, code)
}
