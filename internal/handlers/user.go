package handlers

import (
	"net/http"

	"betportal/internal/middleware"
	"betportal/internal/services"
	"betportal/internal/utils"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("username"))
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, user.Public())
}

// Create registers a new portal account
func (h *UserHandler) Create(c *gin.Context) {
	var input services.CreateUserInput
	if !bind(c, &input) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogUserAction(user.Username, "user_registered", map[string]interface{}{
		"ip": c.ClientIP(),
	})
	utils.CreatedResponse(c, user.Public())
}

func (h *UserHandler) Update(c *gin.Context) {
	var input services.UpdateUserInput
	if !bind(c, &input) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), c.Param("username"), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "user_updated", user.Username, nil)
	utils.SuccessResponse(c, user.Public())
}

func (h *UserHandler) Delete(c *gin.Context) {
	username := c.Param("username")
	if err := h.userService.Delete(c.Request.Context(), username); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "user_deleted", username, nil)
	utils.SuccessResponseWithMessage(c, "User deleted", gin.H{"username": username})
}

// Sync imports accounts pushed by an external source; existing usernames are skipped
func (h *UserHandler) Sync(c *gin.Context) {
	var body struct {
		Users []services.SyncUser `json:"users"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.userService.Sync(c.Request.Context(), body.Users)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, result)
}

func (h *UserHandler) Login(c *gin.Context) {
	var credentials struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !bind(c, &credentials) {
		return
	}

	token, user, err := h.userService.Login(c.Request.Context(), credentials.Username, credentials.Password)
	if err != nil {
		logger.LogSecurityEvent("login_failed", credentials.Username, c.ClientIP(), nil)
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogUserAction(user.Username, "login", map[string]interface{}{"ip": c.ClientIP()})
	utils.SuccessResponse(c, gin.H{
		"token": token,
		"user":  user.Public(),
	})
}
