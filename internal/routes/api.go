package routes

import (
	"context"
	"time"

	"betportal/internal/config"
	"betportal/internal/handlers"
	"betportal/internal/middleware"
	"betportal/internal/services"
	"betportal/internal/utils"
	"betportal/internal/websocket"
	"betportal/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles everything the route table needs
type Services struct {
	Store    *database.Store
	Hub      *websocket.Hub
	Inbound  websocket.InboundHandler
	Tokens   *utils.TokenIssuer
	Users    *services.UserService
	Auth     *services.AuthService
	Ledger   *services.LedgerService
	Requests *services.RequestService
	Chat     *services.ChatService
	Settings *services.SettingsService
	Banners  *services.BannerService
}

// NewServices wires the services around store. The returned hub must be
// started with Run before connections are accepted.
func NewServices(store *database.Store, cfg *config.Config, images services.ImageStore) *Services {
	tokens := utils.NewTokenIssuer(cfg.Security.JWT.Secret,
		time.Duration(cfg.Security.JWT.ExpiryHour)*time.Hour,
		time.Duration(cfg.Security.JWT.AdminExpiryHour)*time.Hour)

	hub := websocket.NewHub(nil)
	settings := services.NewSettingsService(store, hub)
	media := services.NewMediaService(images, cfg.Media.MaxBytes)
	chat := services.NewChatService(store, settings, hub)
	inbound := websocket.NewChatHandler(chat, settings, hub)
	hub.SetReplayer(inbound)

	return &Services{
		Store:    store,
		Hub:      hub,
		Inbound:  inbound,
		Tokens:   tokens,
		Users:    services.NewUserService(store, tokens, cfg.Security.BcryptCost),
		Auth:     services.NewAuthService(store, tokens, cfg.Security.BcryptCost),
		Ledger:   services.NewLedgerService(store, hub),
		Requests: services.NewRequestService(store, settings, media, hub, cfg.Ledger.DailyWithdrawLimit, cfg.Ledger.MinAmount),
		Chat:     chat,
		Settings: settings,
		Banners:  services.NewBannerService(store, media),
	}
}

// SetupRoutes registers the middleware chain and every endpoint. ctx bounds
// the websocket connections.
func SetupRoutes(ctx context.Context, router *gin.Engine, cfg *config.Config, svc *Services) {
	userHandler := handlers.NewUserHandler(svc.Users)
	authHandler := handlers.NewAuthHandler(svc.Auth)
	requestHandler := handlers.NewRequestHandler(svc.Requests, svc.Ledger)
	chatHandler := handlers.NewChatHandler(svc.Chat)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Banners)
	healthHandler := handlers.NewHealthHandler(svc.Store, svc.Hub)
	wsHandler := handlers.NewWebSocketHandler(ctx, svc.Hub, svc.Inbound, svc.Tokens, svc.Users,
		cfg.Server.WebSocket, cfg.Server.CORS.AllowedOrigins)

	// Global middleware
	router.Use(middleware.Recovery())
	if cfg.App.IsProduction() {
		router.Use(middleware.CanonicalRedirect(cfg.App.CanonicalHost))
	}
	router.Use(middleware.CORS(cfg.Server.CORS))
	router.Use(middleware.OptionalAuth(svc.Tokens))
	router.Use(middleware.RateLimit(cfg.Security.RateLimit))
	router.Use(middleware.RequestLogger())

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	admin := middleware.AdminAuth(svc.Tokens)

	SetupAuthRoutes(router, userHandler, authHandler, admin)

	// Users
	router.GET("/users", admin, userHandler.List)
	router.GET("/users/:username", userHandler.Get)
	router.POST("/users", userHandler.Create)
	router.POST("/users/sync", userHandler.Sync)
	router.PUT("/users/:username", admin, userHandler.Update)
	router.DELETE("/users/:username", admin, userHandler.Delete)

	SetupLedgerRoutes(router, requestHandler, admin)
	SetupChatRoutes(router, chatHandler, admin)

	// Site config and banners
	router.GET("/config", settingsHandler.GetConfig)
	router.POST("/config", admin, settingsHandler.UpdateConfig)
	router.GET("/banners", settingsHandler.ListBanners)
	router.POST("/banners", admin, settingsHandler.CreateBanner)
	router.DELETE("/banners/:id", admin, settingsHandler.DeleteBanner)

	router.GET("/ws", wsHandler.HandleWebSocket)

	if cfg.App.IsProduction() && cfg.App.StaticDir != "" {
		SetupStaticRoutes(router, cfg.App.StaticDir)
	}
}
