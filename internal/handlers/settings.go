package handlers

import (
	"net/http"

	"betportal/internal/middleware"
	"betportal/internal/services"
	"betportal/internal/utils"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// SettingsHandler serves the free-form site config bag and the banners
type SettingsHandler struct {
	settingsService *services.SettingsService
	bannerService   *services.BannerService
}

func NewSettingsHandler(settingsService *services.SettingsService, bannerService *services.BannerService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		bannerService:   bannerService,
	}
}

func (h *SettingsHandler) GetConfig(c *gin.Context) {
	settings, err := h.settingsService.Get(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, settings)
}

// UpdateConfig merges the posted keys into the config bag
func (h *SettingsHandler) UpdateConfig(c *gin.Context) {
	var patch map[string]interface{}
	if err := c.ShouldBindJSON(&patch); err != nil || len(patch) == 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Body must be a non-empty JSON object")
		return
	}

	settings, err := h.settingsService.Update(c.Request.Context(), patch)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "config_updated", "config", map[string]interface{}{
		"keys": keys,
	})
	utils.SuccessResponse(c, settings)
}

func (h *SettingsHandler) ListBanners(c *gin.Context) {
	banners, err := h.bannerService.List(c.Request.Context())
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}
	utils.SuccessResponse(c, banners)
}

func (h *SettingsHandler) CreateBanner(c *gin.Context) {
	var input services.BannerInput
	if !bind(c, &input) {
		return
	}

	banner, err := h.bannerService.Create(c.Request.Context(), input)
	if err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "banner_created", banner.ID, nil)
	utils.CreatedResponse(c, banner)
}

func (h *SettingsHandler) DeleteBanner(c *gin.Context) {
	id := c.Param("id")
	if err := h.bannerService.Delete(c.Request.Context(), id); err != nil {
		utils.AppErrorResponse(c, err)
		return
	}

	logger.LogAdminAction(c.GetString(middleware.UsernameKey), "banner_deleted", id, nil)
	utils.SuccessResponseWithMessage(c, "Banner deleted", gin.H{"id": id})
}
