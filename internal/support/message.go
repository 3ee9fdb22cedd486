// Package support groups flat chat records into per-user support threads
// and applies the handled and seen transitions to them.
package support

import (
	"strings"

	"betportal/internal/models"
	apperrors "betportal/pkg/errors"
)

// Kind tells who authored a message
type Kind int

const (
	UserKind Kind = iota
	AdminKind
	SystemKind
)

func (k Kind) String() string {
	switch k {
	case AdminKind:
		return "admin"
	case SystemKind:
		return "system"
	default:
		return "user"
	}
}

// KindOf classifies a record by its sender
func KindOf(m models.Message) Kind {
	switch strings.ToLower(m.From) {
	case models.AdminSender:
		return AdminKind
	case models.SystemSender:
		return SystemKind
	default:
		return UserKind
	}
}

// IsAdmin reports whether the message was written by staff
func IsAdmin(m models.Message) bool {
	return KindOf(m) == AdminKind
}

// ThreadKey resolves the conversation a record belongs to, falling back to
// the legacy to/from fields when thread is empty.
func ThreadKey(m models.Message) string {
	if m.Thread != "" {
		return m.Thread
	}
	if IsAdmin(m) {
		return m.To
	}
	return m.From
}

// SameThread compares thread keys the way usernames are compared
func SameThread(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Canonicalize resolves a record into canonical form: thread is always set,
// legacy to is dropped, seenBy only survives on admin messages and handled
// only on non-admin ones.
func Canonicalize(m models.Message) (models.Message, error) {
	if strings.TrimSpace(m.From) == "" {
		return m, apperrors.Validation("message sender is required")
	}

	m.Thread = ThreadKey(m)
	m.To = ""

	if IsAdmin(m) {
		m.From = models.AdminSender
		if m.Thread == "" {
			return m, apperrors.Validation("admin messages must name the thread they reply to")
		}
		m.Handled = false
		m.SeenBy = dedupe(m.SeenBy)
	} else {
		m.SeenBy = nil
		m.AdminName = ""
	}
	return m, nil
}

// CanonicalizeAll canonicalizes a stored collection, keeping legacy records
// that cannot be resolved as they are.
func CanonicalizeAll(messages []models.Message) []models.Message {
	out := make([]models.Message, len(messages))
	for i, m := range messages {
		c, err := Canonicalize(m)
		if err != nil {
			out[i] = m
			continue
		}
		out[i] = c
	}
	return out
}

func dedupe(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
