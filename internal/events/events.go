// Package events defines the realtime event set exchanged over /ws.
//
// Every event is a concrete type implementing Event; the wire form is an
// envelope {"type": "...", "data": ..., "timestamp": "..."}.
package events

import (
	"time"

	"betportal/internal/models"
)

// Type is the event name on the wire
type Type string

const (
	TypeHistory         Type = "chat:history"
	TypeMainHistory     Type = "chat:main-history"
	TypeSupportMessage  Type = "chat:message"
	TypeMainMessage     Type = "chat:main-message"
	TypeTyping          Type = "chat:typing"
	TypeToggleGlobal    Type = "chat:toggle-global"
	TypeStateChanged    Type = "chat:state-changed"
	TypeClearGlobal     Type = "chat:clear-global"
	TypeCleared         Type = "chat:cleared"
	TypeMessagesSeen    Type = "chat:messages-seen"
	TypeMessagesHandled Type = "chat:messages-handled"
	TypeThreadDeleted   Type = "chat:thread-deleted"
	TypeUserUpdate      Type = "user:update"
	TypeNotification    Type = "notification:new"
	TypeError           Type = "error"
)

// Event is one member of the realtime tagged union
type Event interface {
	Type() Type
}

// History replays the whole support collection
type History []models.Message

// MainHistory replays the whole main chat collection
type MainHistory []models.Message

// SupportMessage is a new support chat message
type SupportMessage models.Message

// MainMessage is a new main chat message
type MainMessage models.Message

// Typing is ephemeral and never persisted
type Typing struct {
	From   string `json:"from"`
	Thread string `json:"thread,omitempty"`
	Main   bool   `json:"main,omitempty"`
	Typing bool   `json:"typing"`
}

// ToggleGlobal asks the server to enable or disable the main chat
type ToggleGlobal struct {
	Enabled bool `json:"enabled"`
}

// StateChanged announces the main chat state
type StateChanged struct {
	Enabled bool `json:"enabled"`
}

// ClearGlobal asks the server to wipe the main chat
type ClearGlobal struct{}

// Cleared tells clients to drop their main chat cache
type Cleared struct{}

// MessagesSeen records that Username saw the admin messages of Thread
type MessagesSeen struct {
	Thread   string `json:"thread"`
	Username string `json:"username"`
}

// MessagesHandled records that staff handled Thread
type MessagesHandled struct {
	Thread string `json:"thread"`
}

// ThreadDeleted announces that every record of Thread was removed
type ThreadDeleted struct {
	Thread string `json:"thread"`
}

// UserUpdate carries a user's balance and history after a ledger change.
// It is fanned out to everyone; clients keep only their own.
type UserUpdate struct {
	Username string                `json:"username"`
	Balance  float64               `json:"balance"`
	History  []models.HistoryEntry `json:"history"`
}

// Notification is addressed to Username ("admin" for the staff inbox)
type Notification struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Kind     string    `json:"kind"`
	Time     time.Time `json:"time"`
}

// Error is sent to a single connection when one of its events is refused
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Ref is the id of the refused chat message, when there is one
	Ref int64 `json:"ref,omitempty"`
}

func (History) Type() Type         { return TypeHistory }
func (MainHistory) Type() Type     { return TypeMainHistory }
func (SupportMessage) Type() Type  { return TypeSupportMessage }
func (MainMessage) Type() Type     { return TypeMainMessage }
func (Typing) Type() Type          { return TypeTyping }
func (ToggleGlobal) Type() Type    { return TypeToggleGlobal }
func (StateChanged) Type() Type    { return TypeStateChanged }
func (ClearGlobal) Type() Type     { return TypeClearGlobal }
func (Cleared) Type() Type         { return TypeCleared }
func (MessagesSeen) Type() Type    { return TypeMessagesSeen }
func (MessagesHandled) Type() Type { return TypeMessagesHandled }
func (ThreadDeleted) Type() Type   { return TypeThreadDeleted }
func (UserUpdate) Type() Type      { return TypeUserUpdate }
func (Notification) Type() Type    { return TypeNotification }
func (Error) Type() Type           { return TypeError }
