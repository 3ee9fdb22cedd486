package services

import (
	"strings"
	"sync"
	"time"

	"betportal/internal/events"
	"betportal/internal/models"

	"github.com/google/uuid"
)

// idSource hands out creation-time-derived ids that never repeat within the
// process, even when two records are created in the same millisecond.
type idSource struct {
	mu   sync.Mutex
	last int64
}

func (s *idSource) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := time.Now().UnixMilli()
	if id <= s.last {
		id = s.last + 1
	}
	s.last = id
	return id
}

var ids = &idSource{}

// timestamp formats t the way browsers do with toISOString so string
// comparison sorts chronologically.
func timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func findUser(users []models.User, username string) int {
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return i
		}
	}
	return -1
}

func newNotification(username, title, message, kind string) events.Notification {
	return events.Notification{
		ID:       uuid.NewString(),
		Username: username,
		Title:    title,
		Message:  message,
		Kind:     kind,
		Time:     time.Now().UTC(),
	}
}
