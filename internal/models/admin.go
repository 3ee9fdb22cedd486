package models

import "time"

type Admin struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Admin roles
const (
	RoleOwner    = "owner"
	RoleOperator = "operator"
)

// PublicAdmin is the admin shape returned over HTTP
type PublicAdmin struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a Admin) Public() PublicAdmin {
	return PublicAdmin{ID: a.ID, Username: a.Username, Name: a.Name, Role: a.Role, CreatedAt: a.CreatedAt}
}

type Banner struct {
	ID        string    `json:"id"`
	Image     string    `json:"image"`
	Link      string    `json:"link,omitempty"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
