package services

import (
	"context"
	"strings"
	"time"

	"betportal/internal/events"
	"betportal/internal/metrics"
	"betportal/internal/models"
	"betportal/internal/support"
	"betportal/pkg/database"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"
)

// ChatService persists the support and main chat collections and announces
// every change through the publisher.
type ChatService struct {
	store     *database.Store
	settings  *SettingsService
	publisher events.Publisher
}

func NewChatService(store *database.Store, settings *SettingsService, publisher events.Publisher) *ChatService {
	return &ChatService{store: store, settings: settings, publisher: publisher}
}

// SupportHistory returns the support collection in canonical form
func (s *ChatService) SupportHistory(ctx context.Context) ([]models.Message, error) {
	messages, err := database.ReadList[models.Message](ctx, s.store, database.ChatSupport)
	if err != nil {
		return nil, err
	}
	return support.CanonicalizeAll(messages), nil
}

func (s *ChatService) MainHistory(ctx context.Context) ([]models.Message, error) {
	return database.ReadList[models.Message](ctx, s.store, database.ChatMain)
}

// Threads groups the support collection into conversations
func (s *ChatService) Threads(ctx context.Context) ([]models.Thread, error) {
	messages, err := s.SupportHistory(ctx)
	if err != nil {
		return nil, err
	}
	return support.ComputeThreads(messages), nil
}

// checkSender refuses messages from blocked or banned accounts. Senders that
// have no account (guests) are allowed.
func (s *ChatService) checkSender(ctx context.Context, from string) error {
	if support.KindOf(models.Message{From: from}) != support.UserKind {
		return nil
	}
	users, err := database.ReadList[models.User](ctx, s.store, database.Users)
	if err != nil {
		return err
	}
	i := findUser(users, from)
	if i < 0 {
		return nil
	}
	if users[i].Banned {
		return apperrors.Forbidden("account is banned")
	}
	if users[i].ChatBlocked {
		return apperrors.Forbidden("chat is blocked for this account")
	}
	return nil
}

// stamp fills in id and time. A client-supplied id is kept unless it is
// already taken by a different message, so optimistic copies can be matched
// against the persisted one.
func stamp(existing []models.Message, m models.Message) (models.Message, bool) {
	if m.ID > 0 {
		for _, e := range existing {
			if e.ID != m.ID {
				continue
			}
			if strings.EqualFold(e.From, m.From) && e.Text == m.Text {
				return e, true
			}
			m.ID = 0
			break
		}
	}
	if m.ID <= 0 {
		m.ID = ids.Next()
		for taken(existing, m.ID) {
			m.ID = ids.Next()
		}
	}
	if m.Time == "" {
		m.Time = timestamp(time.Now())
	}
	return m, false
}

func taken(messages []models.Message, id int64) bool {
	for _, m := range messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

// PostSupport appends a support message. A reply from staff marks the user's
// messages in that thread handled.
func (s *ChatService) PostSupport(ctx context.Context, msg models.Message) (*models.Message, error) {
	msg.Text = strings.TrimSpace(msg.Text)
	if msg.Text == "" {
		return nil, apperrors.Validation("message text is required")
	}
	msg, err := support.Canonicalize(msg)
	if err != nil {
		return nil, err
	}
	if err := s.checkSender(ctx, msg.From); err != nil {
		return nil, err
	}

	admin := support.IsAdmin(msg)
	var duplicate bool
	_, err = database.UpdateList(ctx, s.store, database.ChatSupport, func(messages []models.Message) ([]models.Message, error) {
		msg, duplicate = stamp(messages, msg)
		if duplicate {
			return messages, nil
		}
		messages = append(messages, msg)
		if admin {
			messages = support.MarkMessagesAsHandled(messages, msg.Thread)
		}
		return messages, nil
	})
	if err != nil {
		return nil, err
	}

	if !duplicate {
		metrics.MessagesPosted.WithLabelValues("support").Inc()
		logger.LogChatEvent(string(events.TypeSupportMessage), msg.Thread, msg.From, nil)
	}
	s.publisher.Publish(events.SupportMessage(msg))
	if admin {
		s.publisher.Publish(events.MessagesHandled{Thread: msg.Thread})
	}
	return &msg, nil
}

// PostMain appends a main chat message. While the chat is disabled only staff
// may post.
func (s *ChatService) PostMain(ctx context.Context, msg models.Message) (*models.Message, error) {
	msg.Text = strings.TrimSpace(msg.Text)
	msg.From = strings.TrimSpace(msg.From)
	if msg.Text == "" || msg.From == "" {
		return nil, apperrors.Validation("message text and sender are required")
	}

	admin := support.IsAdmin(msg)
	if admin {
		msg.From = models.AdminSender
	} else {
		msg.AdminName = ""
		if !s.settings.ChatEnabled(ctx) {
			return nil, apperrors.Forbidden("chat is disabled")
		}
	}
	if err := s.checkSender(ctx, msg.From); err != nil {
		return nil, err
	}

	msg.Thread, msg.To, msg.Handled, msg.SeenBy = "", "", false, nil

	var duplicate bool
	_, err := database.UpdateList(ctx, s.store, database.ChatMain, func(messages []models.Message) ([]models.Message, error) {
		msg, duplicate = stamp(messages, msg)
		if duplicate {
			return messages, nil
		}
		return append(messages, msg), nil
	})
	if err != nil {
		return nil, err
	}

	if !duplicate {
		metrics.MessagesPosted.WithLabelValues("main").Inc()
	}
	s.publisher.Publish(events.MainMessage(msg))
	return &msg, nil
}

// MarkSeen adds username to seenBy of the staff messages in thread
func (s *ChatService) MarkSeen(ctx context.Context, thread, username string) error {
	if thread == "" || username == "" {
		return apperrors.Validation("thread and username are required")
	}
	_, err := database.UpdateList(ctx, s.store, database.ChatSupport, func(messages []models.Message) ([]models.Message, error) {
		return support.MarkSeen(support.CanonicalizeAll(messages), thread, username), nil
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(events.MessagesSeen{Thread: thread, Username: username})
	return nil
}

// MarkHandled flags every user message of thread as handled
func (s *ChatService) MarkHandled(ctx context.Context, thread string) error {
	if thread == "" {
		return apperrors.Validation("thread is required")
	}
	_, err := database.UpdateList(ctx, s.store, database.ChatSupport, func(messages []models.Message) ([]models.Message, error) {
		return support.MarkMessagesAsHandled(support.CanonicalizeAll(messages), thread), nil
	})
	if err != nil {
		return err
	}
	s.publisher.Publish(events.MessagesHandled{Thread: thread})
	return nil
}

// DeleteThread removes every record of thread and returns how many went away
func (s *ChatService) DeleteThread(ctx context.Context, thread string) (int, error) {
	if thread == "" {
		return 0, apperrors.Validation("thread is required")
	}
	removed := 0
	_, err := database.UpdateList(ctx, s.store, database.ChatSupport, func(messages []models.Message) ([]models.Message, error) {
		remaining := support.DeleteThread(messages, thread)
		removed = len(messages) - len(remaining)
		return remaining, nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.publisher.Publish(events.ThreadDeleted{Thread: thread})
	}
	return removed, nil
}

// ClearMain wipes the main chat and tells clients to drop their caches
func (s *ChatService) ClearMain(ctx context.Context) error {
	if err := database.WriteList(ctx, s.store, database.ChatMain, []models.Message{}); err != nil {
		return err
	}
	s.publisher.Publish(events.Cleared{})
	return nil
}

// SetChatEnabled turns the main chat on or off for users
func (s *ChatService) SetChatEnabled(ctx context.Context, enabled bool) error {
	return s.settings.SetChatEnabled(ctx, enabled)
}
