package models

import "time"

// Transaction kinds recorded in a user's history
const (
	HistoryDeposit    = "Recarga"
	HistoryWithdrawal = "Retiro"
)

// History entry outcomes
const (
	HistorySucceeded = "Exitosa"
	HistoryRejected  = "Rechazada"
)

type User struct {
	Username      string         `json:"username"`
	PasswordHash  string         `json:"passwordHash,omitempty"`
	Balance       float64        `json:"balance"`
	History       []HistoryEntry `json:"history"`
	ChatBlocked   bool           `json:"chatBlocked,omitempty"`
	Banned        bool           `json:"banned,omitempty"`
	DailyWithdraw *DailyUsage    `json:"dailyWithdraw,omitempty"`
	Email         string         `json:"email,omitempty"`
	Phone         string         `json:"phone,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

// HistoryEntry is appended by the approval path only
type HistoryEntry struct {
	ID        int64     `json:"id"`
	RequestID int64     `json:"requestId"`
	Type      string    `json:"type"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CanClaim  bool      `json:"canClaim"`
}

// DailyUsage counts withdrawal submissions for one calendar day (YYYY-MM-DD)
type DailyUsage struct {
	Date  string  `json:"date"`
	Total float64 `json:"total"`
}

// PublicUser is the user shape returned over HTTP
type PublicUser struct {
	Username    string         `json:"username"`
	Balance     float64        `json:"balance"`
	History     []HistoryEntry `json:"history"`
	ChatBlocked bool           `json:"chatBlocked"`
	Banned      bool           `json:"banned"`
	Email       string         `json:"email,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// Public strips the password hash
func (u User) Public() PublicUser {
	history := u.History
	if history == nil {
		history = []HistoryEntry{}
	}
	return PublicUser{
		Username:    u.Username,
		Balance:     u.Balance,
		History:     history,
		ChatBlocked: u.ChatBlocked,
		Banned:      u.Banned,
		Email:       u.Email,
		Phone:       u.Phone,
		CreatedAt:   u.CreatedAt,
	}
}
