package routes

import (
	"betportal/internal/handlers"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes registers logins and staff account management
func SetupAuthRoutes(router *gin.Engine, userHandler *handlers.UserHandler, authHandler *handlers.AuthHandler, admin gin.HandlerFunc) {
	router.POST("/login", userHandler.Login)
	router.POST("/admins/login", authHandler.AdminLogin)

	admins := router.Group("/admins", admin)
	{
		admins.GET("", authHandler.ListAdmins)
		admins.POST("", authHandler.CreateAdmin)
		admins.PUT("/:id", authHandler.UpdateAdmin)
		admins.DELETE("/:id", authHandler.DeleteAdmin)
	}
}
