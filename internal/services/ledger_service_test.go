package services

import (
	"sync"
	"testing"

	"betportal/internal/events"
	"betportal/internal/models"
	apperrors "betportal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApproveDepositCreditsOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", 100)

	dep, err := env.requests.CreateDeposit(env.ctx, DepositInput{User: "ALICE", Amount: 5000, Holder: "Alice A"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, dep.Status)
	assert.Equal(t, "alice", dep.User)
	env.recorder.Reset()

	res, err := env.ledger.TransitionRequest(env.ctx, models.DepositRequest, dep.ID, models.StatusApproved, "ok")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	require.NotNil(t, res.User)
	assert.Equal(t, 5100.0, res.User.Balance)

	user, err := env.users.Get(env.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 5100.0, user.Balance)
	require.Len(t, user.History, 1)
	entry := user.History[0]
	assert.Equal(t, models.HistoryDeposit, entry.Type)
	assert.Equal(t, models.HistorySucceeded, entry.Status)
	assert.False(t, entry.CanClaim)
	assert.Equal(t, dep.ID, entry.RequestID)

	updates := env.recorder.OfType(events.TypeUserUpdate)
	require.Len(t, updates, 1)
	update := updates[0].(events.UserUpdate)
	assert.Equal(t, "alice", update.Username)
	assert.Equal(t, 5100.0, update.Balance)
	assert.Len(t, env.recorder.OfType(events.TypeNotification), 1)

	// same decision again
	env.recorder.Reset()
	res, err = env.ledger.TransitionRequest(env.ctx, models.DepositRequest, dep.ID, models.StatusApproved, "ok")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Empty(t, env.recorder.Events())

	user, _ = env.users.Get(env.ctx, "alice")
	assert.Equal(t, 5100.0, user.Balance)
	assert.Len(t, user.History, 1)
}

func TestConcurrentApprovalsApplyOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "alice", 0)
	dep, err := env.requests.CreateDeposit(env.ctx, DepositInput{User: "alice", Amount: 250})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.ledger.TransitionRequest(env.ctx, models.DepositRequest, dep.ID, models.StatusApproved, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	user, err := env.users.Get(env.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 250.0, user.Balance)
	assert.Len(t, user.History, 1)
}

func TestWithdrawalNeverGoesNegative(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "bob", 300)

	wd, err := env.requests.CreateWithdrawal(env.ctx, WithdrawalInput{User: "bob", Amount: 1000, CBU: "0000003100010000000001"})
	require.NoError(t, err)

	res, err := env.ledger.TransitionRequest(env.ctx, models.WithdrawalRequest, wd.ID, models.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.User.Balance)

	user, _ := env.users.Get(env.ctx, "bob")
	assert.Equal(t, 0.0, user.Balance)
	require.Len(t, user.History, 1)
	assert.Equal(t, models.HistoryWithdrawal, user.History[0].Type)
}

func TestRejectionKeepsBalanceAndAllowsClaim(t *testing.T) {
	for _, kind := range []models.RequestKind{models.DepositRequest, models.WithdrawalRequest} {
		t.Run(string(kind), func(t *testing.T) {
			env := newTestEnv(t)
			env.seedUser(t, "carla", 700)

			var id int64
			if kind == models.DepositRequest {
				req, err := env.requests.CreateDeposit(env.ctx, DepositInput{User: "carla", Amount: 200})
				require.NoError(t, err)
				id = req.ID
			} else {
				req, err := env.requests.CreateWithdrawal(env.ctx, WithdrawalInput{User: "carla", Amount: 200, Alias: "carla.mp"})
				require.NoError(t, err)
				id = req.ID
			}

			res, err := env.ledger.TransitionRequest(env.ctx, kind, id, models.StatusRejected, "comprobante ilegible")
			require.NoError(t, err)
			assert.Equal(t, models.StatusRejected, res.Request.Status)
			assert.Equal(t, "comprobante ilegible", res.Request.AdminMessage)

			user, _ := env.users.Get(env.ctx, "carla")
			assert.Equal(t, 700.0, user.Balance)
			require.Len(t, user.History, 1)
			assert.Equal(t, models.HistoryRejected, user.History[0].Status)
			assert.True(t, user.History[0].CanClaim)
			assert.Len(t, env.recorder.OfType(events.TypeUserUpdate), 1)
		})
	}
}

func TestTransitionErrors(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "dave", 0)
	dep, err := env.requests.CreateDeposit(env.ctx, DepositInput{User: "dave", Amount: 10})
	require.NoError(t, err)

	_, err = env.ledger.TransitionRequest(env.ctx, models.DepositRequest, 42, models.StatusApproved, "")
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	_, err = env.ledger.TransitionRequest(env.ctx, models.DepositRequest, dep.ID, models.StatusPending, "")
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = env.ledger.TransitionRequest(env.ctx, "bonuses", dep.ID, models.StatusApproved, "")
	assert.True(t, apperrors.Is(err, apperrors.CodeValidation))

	_, err = env.ledger.TransitionRequest(env.ctx, models.DepositRequest, dep.ID, models.StatusRejected, "")
	require.NoError(t, err)
	_, err = env.ledger.TransitionRequest(env.ctx, models.DepositRequest, dep.ID, models.StatusApproved, "")
	assert.True(t, apperrors.Is(err, apperrors.CodeConflict))

	user, _ := env.users.Get(env.ctx, "dave")
	assert.Equal(t, 0.0, user.Balance)
}

func TestApprovalForMissingUserOnlyUpdatesRequest(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "erin", 0)
	dep, err := env.requests.CreateDeposit(env.ctx, DepositInput{User: "erin", Amount: 10})
	require.NoError(t, err)
	require.NoError(t, env.users.Delete(env.ctx, "erin"))
	env.recorder.Reset()

	res, err := env.ledger.TransitionRequest(env.ctx, models.DepositRequest, dep.ID, models.StatusApproved, "")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Nil(t, res.User)
	assert.Empty(t, env.recorder.Events())

	deposits, err := env.requests.List(env.ctx, models.DepositRequest, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, deposits[0].Status)
}

func TestApplyAmountRounding(t *testing.T) {
	assert.Equal(t, 0.3, applyAmount(models.DepositRequest, 0.1, 0.2))
	assert.Equal(t, 0.0, applyAmount(models.WithdrawalRequest, 5, 5.01))
	assert.Equal(t, 99.99, applyAmount(models.WithdrawalRequest, 100, 0.01))
}
