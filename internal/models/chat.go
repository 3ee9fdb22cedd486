package models

// Message is one chat utterance in the support or main collection.
//
// To is only read from legacy records that predate the thread field.
type Message struct {
	ID        int64    `json:"id"`
	Text      string   `json:"text"`
	From      string   `json:"from"`
	Thread    string   `json:"thread,omitempty"`
	To        string   `json:"to,omitempty"`
	Time      string   `json:"time"`
	Handled   bool     `json:"handled,omitempty"`
	SeenBy    []string `json:"seenBy,omitempty"`
	AdminName string   `json:"adminName,omitempty"`
}

// Sender identities with special meaning
const (
	AdminSender  = "admin"
	SystemSender = "system"
)

// Thread is a derived per-user support conversation. It is never persisted.
type Thread struct {
	ID           string    `json:"id"`
	Messages     []Message `json:"messages"`
	Unread       int       `json:"unread"`
	LastUserText string    `json:"lastUserText"`
	LastUserTime string    `json:"lastUserTime"`
}
