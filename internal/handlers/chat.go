package handlers

import (
	"strconv"
	"strings"

	"betportal/internal/middleware"
	"betportal/internal/models"
	"betportal/internal/services"
	"betportal/internal/support"
	"betportal/internal/utils"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// ChatHandler is the REST side of the support and main chats. Socket clients
// fall back to it when the live connection is down.
type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) SupportHistory(c *gin.Context) {
	messages, err := h.chatService.SupportHistory(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, messages)
}

func (h *ChatHandler) MainHistory(c *gin.Context) {
	messages, err := h.chatService.MainHistory(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, messages)
}

func (h *ChatHandler) Threads(c *gin.Context) {
	threads, err := h.chatService.Threads(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	c.Header("X-Unread-Total", strconv.Itoa(support.UnreadTotal(threads)))
	utils.SuccessResponse(c, threads)
}

// sender applies the caller's token to msg. A staff sender needs a staff
// token; a user token pins the sender and the thread to that user.
func sender(c *gin.Context, msg *models.Message) error {
	claims, authenticated := middleware.GetClaims(c)
	switch {
	case authenticated && claims.IsAdmin():
		if msg.AdminName == "" {
			msg.AdminName = claims.Username
		}
		msg.From = models.AdminSender
	case authenticated:
		msg.From = claims.Username
		msg.Thread = claims.Username
	case support.IsAdmin(*msg):
		return apperrors.Forbidden("staff messages require a staff token")
	}
	return nil
}

func (h *ChatHandler) PostSupport(c *gin.Context) {
	var msg models.Message
	if !bind(c, &msg) {
		return
	}
	if err := sender(c, &msg); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	saved, err := h.chatService.PostSupport(c.Request.Context(), msg)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, saved)
}

func (h *ChatHandler) PostMain(c *gin.Context) {
	var msg models.Message
	if !bind(c, &msg) {
		return
	}
	if err := sender(c, &msg); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	saved, err := h.chatService.PostMain(c.Request.Context(), msg)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.CreatedResponse(c, saved)
}

type threadBody struct {
	Thread   string `json:"thread" validate:"required"`
	Username string `json:"username"`
}

// MarkSeen records that username read the staff replies in thread
func (h *ChatHandler) MarkSeen(c *gin.Context) {
	var body threadBody
	if !bind(c, &body) {
		return
	}
	if claims, ok := middleware.GetClaims(c); ok && !claims.IsAdmin() {
		body.Username = claims.Username
	}
	if strings.TrimSpace(body.Username) == "" {
		utils.AppErrorResponse(c, apperrors.Validation("username is required"))
		return
	}

	if err := h.chatService.MarkSeen(c.Request.Context(), body.Thread, body.Username); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"thread": body.Thread, "username": body.Username})
}

func (h *ChatHandler) MarkHandled(c *gin.Context) {
	var body threadBody
	if !bind(c, &body) {
		return
	}

	if err := h.chatService.MarkHandled(c.Request.Context(), body.Thread); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "thread_handled", body.Thread, nil)
	utils.SuccessResponse(c, gin.H{"thread": body.Thread})
}

func (h *ChatHandler) DeleteThread(c *gin.Context) {
	thread := c.Param("thread")
	removed, err := h.chatService.DeleteThread(c.Request.Context(), thread)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	if removed == 0 {
		utils.AppErrorResponse(c, apperrors.NotFound("thread", nil))
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "thread_deleted", thread, map[string]interface{}{
		"removed": removed,
	})
	utils.SuccessResponse(c, gin.H{"thread": thread, "removed": removed})
}

func (h *ChatHandler) ClearMain(c *gin.Context) {
	if err := h.chatService.ClearMain(c.Request.Context()); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "main_chat_cleared", "chat-main", nil)
	utils.SuccessResponseWithMessage(c, "Main chat cleared", nil)
}
