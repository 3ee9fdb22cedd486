package routes

import (
	"betportal/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupChatRoutes registers the REST side of both chats
func SetupChatRoutes(router *gin.Engine, chatHandler *handlers.ChatHandler, admin gin.HandlerFunc) {
	messages := router.Group("/messages")
	{
		messages.GET("", chatHandler.SupportHistory)
		messages.POST("", chatHandler.PostSupport)
		messages.GET("/main", chatHandler.MainHistory)
		messages.POST("/main", chatHandler.PostMain)
		messages.POST("/seen", chatHandler.MarkSeen)

		messages.GET("/threads", admin, chatHandler.Threads)
		messages.POST("/mark-handled", admin, chatHandler.MarkHandled)
		messages.DELETE("/thread/:thread", admin, chatHandler.DeleteThread)
		messages.POST("/clear-main", admin, chatHandler.ClearMain)
	}
}
