package handlers

import (
	"betportal/internal/middleware"
	"betportal/internal/services"
	"betportal/internal/utils"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves staff login and staff account management
type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var credentials struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !bind(c, &credentials) {
		return
	}

	token, admin, err := h.authService.AdminLogin(c.Request.Context(), credentials.Username, credentials.Password)
	if err != nil {
		logger.LogSecurityEvent("admin_login_failed", credentials.Username, c.ClientIP(), nil)
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(admin.Username, "login", "admins", map[string]interface{}{"ip": c.ClientIP()})
	utils.SuccessResponse(c, gin.H{
		"token": token,
		"admin": admin.Public(),
	})
}

func (h *AuthHandler) ListAdmins(c *gin.Context) {
	admins, err := h.authService.ListAdmins(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, admins)
}

func (h *AuthHandler) CreateAdmin(c *gin.Context) {
	var input services.AdminInput
	if !bind(c, &input) {
		return
	}

	admin, err := h.authService.CreateAdmin(c.Request.Context(), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "admin_created", admin.Username, nil)
	utils.CreatedResponse(c, admin.Public())
}

func (h *AuthHandler) UpdateAdmin(c *gin.Context) {
	var input services.AdminUpdateInput
	if !bind(c, &input) {
		return
	}

	admin, err := h.authService.UpdateAdmin(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "admin_updated", admin.Username, nil)
	utils.SuccessResponse(c, admin.Public())
}

func (h *AuthHandler) DeleteAdmin(c *gin.Context) {
	id := c.Param("id")
	if err := h.authService.DeleteAdmin(c.Request.Context(), id); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "admin_deleted", id, nil)
	utils.SuccessResponseWithMessage(c, "Admin deleted", gin.H{"id": id})
}
