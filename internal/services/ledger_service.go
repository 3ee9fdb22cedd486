package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"betportal/internal/events"
	"betportal/internal/metrics"
	"betportal/internal/models"
	"betportal/pkg/database"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/shopspring/decimal"
)

var (
	errUnchanged   = errors.New("request already in target status")
	errUserMissing = errors.New("request owner does not exist")
)

// LedgerService applies review decisions to deposit and withdrawal requests
// and is the only writer of user balances and histories.
//
// Transitions are serialized: the request is checked and persisted, then the
// user, before the next transition starts. Requests in Aprobada or Rechazada
// never change again, so a repeated decision is a no-op.
type LedgerService struct {
	store     *database.Store
	publisher events.Publisher

	mu sync.Mutex
}

// TransitionResult says what a transition did
type TransitionResult struct {
	Request models.Request `json:"request"`
	// Changed is false when the request was already in the target status
	Changed bool `json:"changed"`
	// User is nil when nothing was applied or the owner does not exist
	User *models.PublicUser `json:"user,omitempty"`
}

func NewLedgerService(store *database.Store, publisher events.Publisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher}
}

// TransitionRequest moves request id of kind to status (Aprobada or
// Rechazada) and applies the balance and history effects.
func (s *LedgerService) TransitionRequest(ctx context.Context, kind models.RequestKind, id int64, status, adminMessage string) (*TransitionResult, error) {
	if !kind.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown request collection %q", kind))
	}
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, apperrors.Validation("status must be Aprobada or Rechazada")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var req models.Request
	_, err := database.UpdateList(ctx, s.store, string(kind), func(requests []models.Request) ([]models.Request, error) {
		i := findRequest(requests, id)
		if i < 0 {
			return nil, apperrors.NotFound(kind.Noun(), nil)
		}
		current := &requests[i]
		if current.Status == status {
			req = *current
			return nil, errUnchanged
		}
		if current.Status != models.StatusPending && current.Status != "" {
			return nil, apperrors.Conflict(fmt.Sprintf("request is already %s", current.Status))
		}

		now := time.Now().UTC()
		current.Status = status
		current.AdminMessage = adminMessage
		current.ResolvedAt = &now
		req = *current
		return requests, nil
	})
	if errors.Is(err, errUnchanged) {
		return &TransitionResult{Request: req}, nil
	}
	if err != nil {
		return nil, err
	}

	metrics.LedgerTransitions.WithLabelValues(string(kind), status).Inc()
	logger.LogLedgerEvent(string(kind), req.ID, req.User, status, map[string]interface{}{"amount": req.Amount})

	user, err := s.applyToUser(ctx, kind, req)
	if errors.Is(err, errUserMissing) {
		logger.WithField("username", req.User).Warn("Request owner not found, balance untouched")
		return &TransitionResult{Request: req, Changed: true}, nil
	}
	if err != nil {
		return nil, apperrors.Internal("request updated but user could not be saved", err)
	}

	public := user.Public()
	s.publisher.Publish(events.UserUpdate{
		Username: user.Username,
		Balance:  user.Balance,
		History:  public.History,
	})
	s.publisher.Publish(ledgerNotification(kind, req, user.Username))

	return &TransitionResult{Request: req, Changed: true, User: &public}, nil
}

func (s *LedgerService) applyToUser(ctx context.Context, kind models.RequestKind, req models.Request) (*models.User, error) {
	var updated models.User
	_, err := database.UpdateList(ctx, s.store, database.Users, func(users []models.User) ([]models.User, error) {
		i := findUser(users, req.User)
		if i < 0 {
			return nil, errUserMissing
		}
		u := &users[i]

		entry := models.HistoryEntry{
			ID:        ids.Next(),
			RequestID: req.ID,
			Type:      kind.HistoryType(),
			Amount:    req.Amount,
			Date:      time.Now().UTC(),
			Message:   req.AdminMessage,
		}
		if req.Status == models.StatusApproved {
			u.Balance = applyAmount(kind, u.Balance, req.Amount)
			entry.Status = models.HistorySucceeded
			entry.CanClaim = false
		} else {
			entry.Status = models.HistoryRejected
			entry.CanClaim = true
		}
		u.History = append(u.History, entry)

		updated = *u
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// applyAmount credits deposits and debits withdrawals, never going below zero
func applyAmount(kind models.RequestKind, balance, amount float64) float64 {
	b := decimal.NewFromFloat(balance)
	a := decimal.NewFromFloat(amount)

	if kind == models.WithdrawalRequest {
		b = b.Sub(a)
		if b.IsNegative() {
			b = decimal.Zero
		}
	} else {
		b = b.Add(a)
	}
	f, _ := b.Round(2).Float64()
	return f
}

func findRequest(requests []models.Request, id int64) int {
	for i := range requests {
		if requests[i].ID == id {
			return i
		}
	}
	return -1
}

func ledgerNotification(kind models.RequestKind, req models.Request, username string) events.Notification {
	amount := decimal.NewFromFloat(req.Amount).StringFixed(2)

	var title, message string
	switch {
	case kind == models.DepositRequest && req.Status == models.StatusApproved:
		title, message = "Recarga aprobada", fmt.Sprintf("Se acreditaron $%s en tu cuenta", amount)
	case kind == models.DepositRequest:
		title, message = "Recarga rechazada", fmt.Sprintf("Tu recarga de $%s fue rechazada", amount)
	case req.Status == models.StatusApproved:
		title, message = "Retiro aprobado", fmt.Sprintf("Tu retiro de $%s fue aprobado", amount)
	default:
		title, message = "Retiro rechazado", fmt.Sprintf("Tu retiro de $%s fue rechazado", amount)
	}
	if req.AdminMessage != "" {
		message += ": " + req.AdminMessage
	}

	kindLabel := "success"
	if req.Status == models.StatusRejected {
		kindLabel = "error"
	}
	return newNotification(username, title, message, kindLabel)
}
