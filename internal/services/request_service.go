package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"betportal/internal/events"
	"betportal/internal/metrics"
	"betportal/internal/models"
	"betportal/pkg/database"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/shopspring/decimal"
)

// RequestService accepts new deposit and withdrawal requests. Status changes
// go through LedgerService.
type RequestService struct {
	store     *database.Store
	settings  *SettingsService
	media     *MediaService
	publisher events.Publisher

	defaultDailyLimit float64
	minAmount         float64
}

type DepositInput struct {
	User    string  `json:"user" validate:"required"`
	Amount  float64 `json:"amount" validate:"gt=0"`
	Holder  string  `json:"holder"`
	CBU     string  `json:"cbu"`
	Receipt string  `json:"receipt"`
}

type WithdrawalInput struct {
	User   string  `json:"user" validate:"required"`
	Amount float64 `json:"amount" validate:"gt=0"`
	Holder string  `json:"holder"`
	CBU    string  `json:"cbu"`
	Alias  string  `json:"alias"`
}

type UploadReceiptInput struct {
	Base64Image string  `json:"base64Image" validate:"required"`
	Username    string  `json:"username" validate:"required"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Holder      string  `json:"holder"`
}

func NewRequestService(store *database.Store, settings *SettingsService, media *MediaService, publisher events.Publisher, defaultDailyLimit, minAmount float64) *RequestService {
	return &RequestService{
		store:             store,
		settings:          settings,
		media:             media,
		publisher:         publisher,
		defaultDailyLimit: defaultDailyLimit,
		minAmount:         minAmount,
	}
}

// List returns every request of kind, or only those of username when set
func (s *RequestService) List(ctx context.Context, kind models.RequestKind, username string) ([]models.Request, error) {
	if !kind.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown request collection %q", kind))
	}
	requests, err := database.ReadList[models.Request](ctx, s.store, string(kind))
	if err != nil {
		return nil, err
	}
	if username == "" {
		return requests, nil
	}
	out := []models.Request{}
	for _, r := range requests {
		if strings.EqualFold(r.User, username) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *RequestService) checkAmount(amount float64) error {
	if amount <= 0 {
		return apperrors.Validation("amount must be greater than zero")
	}
	if s.minAmount > 0 && amount < s.minAmount {
		return apperrors.Validation(fmt.Sprintf("amount must be at least %.2f", s.minAmount))
	}
	return nil
}

func (s *RequestService) owner(ctx context.Context, username string) (*models.User, error) {
	users, err := database.ReadList[models.User](ctx, s.store, database.Users)
	if err != nil {
		return nil, err
	}
	i := findUser(users, username)
	if i < 0 {
		return nil, apperrors.NotFound("user", nil)
	}
	if users[i].Banned {
		return nil, apperrors.Forbidden("account is banned")
	}
	return &users[i], nil
}

func (s *RequestService) CreateDeposit(ctx context.Context, input DepositInput) (*models.Request, error) {
	if err := s.checkAmount(input.Amount); err != nil {
		return nil, err
	}
	user, err := s.owner(ctx, input.User)
	if err != nil {
		return nil, err
	}

	cbu := input.CBU
	if cbu == "" {
		if settings, err := s.settings.Get(ctx); err == nil {
			cbu = settings.CBU()
		}
	}

	req := models.Request{
		ID:      ids.Next(),
		User:    user.Username,
		Amount:  input.Amount,
		Status:  models.StatusPending,
		Date:    time.Now().UTC(),
		Holder:  input.Holder,
		CBU:     cbu,
		Receipt: input.Receipt,
	}
	if _, err := database.UpdateList(ctx, s.store, database.Deposits, func(requests []models.Request) ([]models.Request, error) {
		return append(requests, req), nil
	}); err != nil {
		return nil, err
	}

	s.submitted(models.DepositRequest, req)
	return &req, nil
}

// dailyLimit prefers the config bag over the environment default
func (s *RequestService) dailyLimit(ctx context.Context) float64 {
	settings, err := s.settings.Get(ctx)
	if err == nil {
		if limit, ok := settings.DailyWithdrawLimit(); ok {
			return limit
		}
	}
	return s.defaultDailyLimit
}

// CreateWithdrawal records a withdrawal and charges it against the user's
// daily allowance. The balance itself is only debited on approval.
func (s *RequestService) CreateWithdrawal(ctx context.Context, input WithdrawalInput) (*models.Request, error) {
	if err := s.checkAmount(input.Amount); err != nil {
		return nil, err
	}
	if input.CBU == "" && input.Alias == "" {
		return nil, apperrors.Validation("cbu or alias is required")
	}
	limit := s.dailyLimit(ctx)
	today := time.Now().UTC().Format("2006-01-02")

	var req models.Request
	_, err := database.UpdateList(ctx, s.store, database.Withdrawals, func(requests []models.Request) ([]models.Request, error) {
		var owner string
		_, err := database.UpdateList(ctx, s.store, database.Users, func(users []models.User) ([]models.User, error) {
			i := findUser(users, input.User)
			if i < 0 {
				return nil, apperrors.NotFound("user", nil)
			}
			u := &users[i]
			if u.Banned {
				return nil, apperrors.Forbidden("account is banned")
			}

			usage := models.DailyUsage{Date: today}
			if u.DailyWithdraw != nil && u.DailyWithdraw.Date == today {
				usage = *u.DailyWithdraw
			}
			total := decimal.NewFromFloat(usage.Total).Add(decimal.NewFromFloat(input.Amount))
			if limit > 0 && total.GreaterThan(decimal.NewFromFloat(limit)) {
				return nil, apperrors.Validation(fmt.Sprintf("daily withdrawal limit of %.2f exceeded", limit))
			}
			usage.Total, _ = total.Float64()
			u.DailyWithdraw = &usage
			owner = u.Username
			return users, nil
		})
		if err != nil {
			return nil, err
		}

		req = models.Request{
			ID:     ids.Next(),
			User:   owner,
			Amount: input.Amount,
			Status: models.StatusPending,
			Date:   time.Now().UTC(),
			Holder: input.Holder,
			CBU:    input.CBU,
			Alias:  input.Alias,
		}
		return append(requests, req), nil
	})
	if err != nil {
		return nil, err
	}

	s.submitted(models.WithdrawalRequest, req)
	return &req, nil
}

// UploadReceipt stores the receipt image and opens a deposit referencing it
func (s *RequestService) UploadReceipt(ctx context.Context, input UploadReceiptInput) (*models.Request, error) {
	if err := s.checkAmount(input.Amount); err != nil {
		return nil, err
	}
	if _, err := s.owner(ctx, input.Username); err != nil {
		return nil, err
	}
	url, err := s.media.StoreBase64(ctx, "receipts", input.Base64Image)
	if err != nil {
		return nil, err
	}
	return s.CreateDeposit(ctx, DepositInput{
		User:    input.Username,
		Amount:  input.Amount,
		Holder:  input.Holder,
		Receipt: url,
	})
}

func (s *RequestService) submitted(kind models.RequestKind, req models.Request) {
	metrics.RequestsSubmitted.WithLabelValues(string(kind)).Inc()
	logger.LogLedgerEvent(string(kind), req.ID, req.User, req.Status, map[string]interface{}{"amount": req.Amount})

	title := "Nueva recarga"
	if kind == models.WithdrawalRequest {
		title = "Nuevo retiro"
	}
	message := fmt.Sprintf("%s solicitó $%s", req.User, decimal.NewFromFloat(req.Amount).StringFixed(2))
	s.publisher.Publish(newNotification(models.AdminSender, title, message, string(kind)))
}
