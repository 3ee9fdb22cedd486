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
)

// UserService manages portal accounts. Balance and history are never written
// here; only LedgerService mutates them.
type UserService struct {
	store      *database.Store
	tokens     *utils.TokenIssuer
	bcryptCost int
}

type CreateUserInput struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=4"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// UpdateUserInput lists every field an admin may change; nil keeps the value
type UpdateUserInput struct {
	Password    *string `json:"password,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	ChatBlocked *bool   `json:"chatBlocked,omitempty"`
	Banned      *bool   `json:"banned,omitempty"`
}

// SyncUser is one entry pushed by an external account source
type SyncUser struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

type SyncResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

func NewUserService(store *database.Store, tokens *utils.TokenIssuer, bcryptCost int) *UserService {
	return &UserService{store: store, tokens: tokens, bcryptCost: bcryptCost}
}

func (s *UserService) List(ctx context.Context) ([]models.PublicUser, error) {
	users, err := database.ReadList[models.User](ctx, s.store, database.Users)
	if err != nil {
		return nil, err
	}
	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Get looks a user up case-insensitively
func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	users, err := database.ReadList[models.User](ctx, s.store, database.Users)
	if err != nil {
		return nil, err
	}
	i := findUser(users, username)
	if i < 0 {
		return nil, apperrors.NotFound("user", nil)
	}
	return &users[i], nil
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if !utils.ValidateUsername(input.Username) {
		return nil, apperrors.Validation("invalid username")
	}
	if input.Password == "" {
		return nil, apperrors.Validation("password is required")
	}

	hash, err := utils.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.Internal("failed to hash password", err)
	}

	user := models.User{
		Username:     input.Username,
		PasswordHash: hash,
		Balance:      0,
		History:      []models.HistoryEntry{},
		Email:        input.Email,
		Phone:        input.Phone,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = database.UpdateList(ctx, s.store, database.Users, func(users []models.User) ([]models.User, error) {
		if findUser(users, user.Username) >= 0 {
			return nil, apperrors.Conflict("username already exists")
		}
		return append(users, user), nil
	})
	if err != nil {
		return nil, err
	}

	logger.LogUserAction(user.Username, "register", nil)
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, username string, input UpdateUserInput) (*models.User, error) {
	var hash string
	if input.Password != nil {
		if *input.Password == "" {
			return nil, apperrors.Validation("password cannot be empty")
		}
		h, err := utils.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.Internal("failed to hash password", err)
		}
		hash = h
	}

	var updated models.User
	_, err := database.UpdateList(ctx, s.store, database.Users, func(users []models.User) ([]models.User, error) {
		i := findUser(users, username)
		if i < 0 {
			return nil, apperrors.NotFound("user", nil)
		}
		u := &users[i]
		if hash != "" {
			u.PasswordHash = hash
		}
		if input.Email != nil {
			u.Email = *input.Email
		}
		if input.Phone != nil {
			u.Phone = *input.Phone
		}
		if input.ChatBlocked != nil {
			u.ChatBlocked = *input.ChatBlocked
		}
		if input.Banned != nil {
			u.Banned = *input.Banned
		}
		updated = *u
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	_, err := database.UpdateList(ctx, s.store, database.Users, func(users []models.User) ([]models.User, error) {
		i := findUser(users, username)
		if i < 0 {
			return nil, apperrors.NotFound("user", nil)
		}
		return append(users[:i], users[i+1:]...), nil
	})
	return err
}

// Sync creates the users that do not exist yet. Existing accounts, their
// balance and their history are left alone.
func (s *UserService) Sync(ctx context.Context, incoming []SyncUser) (*SyncResult, error) {
	result := &SyncResult{Created: []string{}, Skipped: []string{}}

	prepared := make([]models.User, 0, len(incoming))
	for _, in := range incoming {
		name := strings.TrimSpace(in.Username)
		if !utils.ValidateUsername(name) {
			result.Skipped = append(result.Skipped, in.Username)
			continue
		}
		var hash string
		if in.Password != "" {
			h, err := utils.HashPassword(in.Password, s.bcryptCost)
			if err != nil {
				return nil, apperrors.Internal("failed to hash password", err)
			}
			hash = h
		}
		prepared = append(prepared, models.User{
			Username:     name,
			PasswordHash: hash,
			History:      []models.HistoryEntry{},
			Email:        in.Email,
			Phone:        in.Phone,
			CreatedAt:    time.Now().UTC(),
		})
	}

	_, err := database.UpdateList(ctx, s.store, database.Users, func(users []models.User) ([]models.User, error) {
		for _, u := range prepared {
			if findUser(users, u.Username) >= 0 {
				result.Skipped = append(result.Skipped, u.Username)
				continue
			}
			users = append(users, u)
			result.Created = append(result.Created, u.Username)
		}
		return users, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Login checks credentials and issues a user token
func (s *UserService) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.Get(ctx, username)
	if apperrors.Is(err, apperrors.CodeNotFound) {
		return "", nil, apperrors.Unauthorized("invalid username or password", nil)
	}
	if err != nil {
		return "", nil, err
	}
	if user.PasswordHash == "" || !utils.CheckPassword(password, user.PasswordHash) {
		return "", nil, apperrors.Unauthorized("invalid username or password", nil)
	}
	if user.Banned {
		return "", nil, apperrors.Forbidden("account is banned")
	}

	token, err := s.tokens.IssueUser(user.Username)
	if err != nil {
		return "", nil, apperrors.Internal("failed to issue token", err)
	}
	logger.LogUserAction(user.Username, "login", nil)
	return token, user, nil
}
