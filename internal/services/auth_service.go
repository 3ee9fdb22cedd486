package services

import (
	"context"
	"strings"
	"time"

	"betportal/internal/models"
	"betportal/internal/utils"
	"betportal/pkg/database"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/google/uuid"
)

// AuthService manages staff accounts and their sessions
type AuthService struct {
	store      *database.Store
	tokens     *utils.TokenIssuer
	bcryptCost int
}

type AdminInput struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
	Role     string `json:"role" validate:"omitempty,oneof=owner operator"`
}

type AdminUpdateInput struct {
	Password *string `json:"password,omitempty"`
	Name     *string `json:"name,omitempty"`
	Role     *string `json:"role,omitempty"`
}

func NewAuthService(store *database.Store, tokens *utils.TokenIssuer, bcryptCost int) *AuthService {
	return &AuthService{store: store, tokens: tokens, bcryptCost: bcryptCost}
}

func findAdmin(admins []models.Admin, id string) int {
	for i := range admins {
		if admins[i].ID == id {
			return i
		}
	}
	return -1
}

func findAdminByUsername(admins []models.Admin, username string) int {
	for i := range admins {
		if strings.EqualFold(admins[i].Username, username) {
			return i
		}
	}
	return -1
}

func (s *AuthService) ListAdmins(ctx context.Context) ([]models.PublicAdmin, error) {
	admins, err := database.ReadList[models.Admin](ctx, s.store, database.Admins)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicAdmin, 0, len(admins))
	for _, a := range admins {
		out = append(out, a.Public())
	}
	return out, nil
}

func (s *AuthService) CreateAdmin(ctx context.Context, input AdminInput) (*models.Admin, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" || input.Password == "" {
		return nil, apperrors.Validation("username and password are required")
	}
	if input.Role == "" {
		input.Role = models.RoleOperator
	}

	hash, err := utils.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}
	admin := models.Admin{
		ID:           uuid.NewString(),
		Username:     input.Username,
		PasswordHash: hash,
		Name:         input.Name,
		Role:         input.Role,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = database.UpdateList(ctx, s.store, database.Admins, func(admins []models.Admin) ([]models.Admin, error) {
		if findAdminByUsername(admins, admin.Username) >= 0 {
			return nil, apperrors.Conflict("admin username already exists")
		}
		return append(admins, admin), nil
	})
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *AuthService) UpdateAdmin(ctx context.Context, id string, input AdminUpdateInput) (*models.Admin, error) {
	var hash string
	if input.Password != nil && *input.Password != "" {
		h, err := utils.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.Internal("failed to hash password", err)
		}
		hash = h
	}

	var updated models.Admin
	_, err := database.UpdateList(ctx, s.store, database.Admins, func(admins []models.Admin) ([]models.Admin, error) {
		i := findAdmin(admins, id)
		if i < 0 {
			return nil, apperrors.NotFound("admin", nil)
		}
		a := &admins[i]
		if hash != "" {
			a.PasswordHash = hash
		}
		if input.Name != nil {
			a.Name = *input.Name
		}
		if input.Role != nil {
			if *input.Role != models.RoleOwner && *input.Role != models.RoleOperator {
				return nil, apperrors.Validation("unknown role")
			}
			a.Role = *input.Role
		}
		updated = *a
		return admins, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *AuthService) DeleteAdmin(ctx context.Context, id string) error {
	_, err := database.UpdateList(ctx, s.store, database.Admins, func(admins []models.Admin) ([]models.Admin, error) {
		i := findAdmin(admins, id)
		if i < 0 {
			return nil, apperrors.NotFound("admin", nil)
		}
		return append(admins[:i], admins[i+1:]...), nil
	})
	return err
}

// AdminLogin validates staff credentials and issues an admin token
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (string, *models.Admin, error) {
	admins, err := database.ReadList[models.Admin](ctx, s.store, database.Admins)
	if err != nil {
		return "", nil, err
	}
	i := findAdminByUsername(admins, username)
	if i < 0 || !utils.CheckPassword(password, admins[i].PasswordHash) {
		logger.LogSecurityEvent("admin_login_failed", username, "", nil)
		return "", nil, apperrors.Unauthorized("invalid username or password", nil)
	}

	admin := admins[i]
	token, err := s.tokens.IssueAdmin(admin.ID, admin.Username)
	if err != nil {
		return "", nil, apperrors.Internal("failed to issue token", err)
	}
	logger.LogAdminAction(admin.Username, "login", admin.ID, nil)
	return token, &admin, nil
}

// EnsureBootstrapAdmin creates the owner account from configuration when the
// admins collection is empty.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, username, password, name string) error {
	if username == "" || password == "" {
		return nil
	}
	admins, err := database.ReadList[models.Admin](ctx, s.store, database.Admins)
	if err != nil {
		return err
	}
	if len(admins) > 0 {
		return nil
	}
	_, err = s.CreateAdmin(ctx, AdminInput{Username: username, Password: password, Name: name, Role: models.RoleOwner})
	if apperrors.Is(err, apperrors.CodeConflict) {
		return nil
	}
	if err == nil {
		logger.Infof("Bootstrap admin %q created", username)
	}
	return err
}
