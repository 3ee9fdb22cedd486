package models

import "time"

// RequestKind names the collection a request lives in
type RequestKind string

const (
	DepositRequest    RequestKind = "deposits"
	WithdrawalRequest RequestKind = "withdrawals"
)

// Valid reports whether k is a known request collection
func (k RequestKind) Valid() bool {
	return k == DepositRequest || k == WithdrawalRequest
}

// Noun names a single request of this kind
func (k RequestKind) Noun() string {
	if k == WithdrawalRequest {
		return "withdrawal"
	}
	return "deposit"
}

// HistoryType maps a request kind to its history entry type
func (k RequestKind) HistoryType() string {
	if k == WithdrawalRequest {
		return HistoryWithdrawal
	}
	return HistoryDeposit
}

// Request statuses; Pendiente moves to one of the other two and stays there
const (
	StatusPending  = "Pendiente"
	StatusApproved = "Aprobada"
	StatusRejected = "Rechazada"
)

// Request is a deposit or withdrawal awaiting manual review
type Request struct {
	ID           int64      `json:"id"`
	User         string     `json:"user"`
	Amount       float64    `json:"amount"`
	Status       string     `json:"status"`
	AdminMessage string     `json:"adminMessage"`
	Date         time.Time  `json:"date"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`

	// deposits
	Holder  string `json:"holder,omitempty"`
	CBU     string `json:"cbu,omitempty"`
	Receipt string `json:"receipt,omitempty"`

	// withdrawals
	Alias string `json:"alias,omitempty"`
}
