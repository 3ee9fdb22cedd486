package websocket

import (
	"context"
	"errors"

	"betportal/internal/events"
	"betportal/internal/models"
	"betportal/internal/services"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"
)

// ChatHandler routes inbound socket events to the chat service
type ChatHandler struct {
	chat     *services.ChatService
	settings *services.SettingsService
	hub      *Hub
}

func NewChatHandler(chat *services.ChatService, settings *services.SettingsService, hub *Hub) *ChatHandler {
	return &ChatHandler{chat: chat, settings: settings, hub: hub}
}

var errAnonymous = apperrors.Unauthorized("connect with a username or token to send messages", nil)

// HandleEvent applies one inbound event. The sender identity always comes
// from the connection, never from the payload.
func (h *ChatHandler) HandleEvent(ctx context.Context, c *Client, e events.Event) error {
	switch ev := e.(type) {
	case events.SupportMessage:
		if c.Identity() == "" {
			return errAnonymous
		}
		msg := h.stampSender(c, models.Message(ev))
		_, err := h.chat.PostSupport(ctx, msg)
		return err

	case events.MainMessage:
		if c.Identity() == "" {
			return errAnonymous
		}
		msg := h.stampSender(c, models.Message(ev))
		_, err := h.chat.PostMain(ctx, msg)
		return err

	case events.Typing:
		if c.Identity() == "" {
			return nil
		}
		ev.From = c.Identity()
		h.hub.PublishExcept(ev, c.ID)
		return nil

	case events.ToggleGlobal:
		if !c.IsAdmin {
			return apperrors.Forbidden("only staff can toggle the chat")
		}
		logger.LogAdminAction(c.Username, "toggle_chat", "chat-main", map[string]interface{}{"enabled": ev.Enabled})
		return h.chat.SetChatEnabled(ctx, ev.Enabled)

	case events.ClearGlobal:
		if !c.IsAdmin {
			return apperrors.Forbidden("only staff can clear the chat")
		}
		logger.LogAdminAction(c.Username, "clear_chat", "chat-main", nil)
		return h.chat.ClearMain(ctx)

	case events.MessagesSeen:
		username := ev.Username
		if !c.IsAdmin || username == "" {
			username = c.Username
		}
		if username == "" {
			return errAnonymous
		}
		return h.chat.MarkSeen(ctx, ev.Thread, username)

	case events.MessagesHandled:
		if !c.IsAdmin {
			return apperrors.Forbidden("only staff can mark threads handled")
		}
		return h.chat.MarkHandled(ctx, ev.Thread)

	default:
		return apperrors.Validation("event " + string(e.Type()) + " cannot be sent by clients")
	}
}

func (h *ChatHandler) stampSender(c *Client, msg models.Message) models.Message {
	msg.From = c.Identity()
	if c.IsAdmin {
		if msg.AdminName == "" {
			msg.AdminName = c.AdminName
		}
	} else {
		// users always write into their own thread
		msg.Thread = c.Username
		msg.Handled = false
	}
	return msg
}

// Replay sends the support history, the main history and the chat state
func (h *ChatHandler) Replay(ctx context.Context) ([]events.Event, error) {
	support, err := h.chat.SupportHistory(ctx)
	if err != nil {
		return nil, err
	}
	main, err := h.chat.MainHistory(ctx)
	if err != nil {
		return nil, err
	}
	return []events.Event{
		events.History(support),
		events.MainHistory(main),
		events.StateChanged{Enabled: h.settings.ChatEnabled(ctx)},
	}, nil
}

func messageRef(e events.Event) int64 {
	switch ev := e.(type) {
	case events.SupportMessage:
		return ev.ID
	case events.MainMessage:
		return ev.ID
	}
	return 0
}

func (c *Client) sendError(err error, ref int64) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.Emit(events.Error{Code: appErr.Code, Message: appErr.Message, Ref: ref})
		return
	}
	logger.WithError(err).Error("Failed to handle websocket event")
	c.Emit(events.Error{Code: apperrors.CodeInternal, Message: "internal error", Ref: ref})
}
