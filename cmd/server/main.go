package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"betportal/internal/config"
	"betportal/internal/metrics"
	"betportal/internal/routes"
	"betportal/internal/services"
	"betportal/pkg/database"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize logger
	logger.Init()
	defer logger.Close()

	// Load configuration
	cfg := config.Load()
	cfg.ApplyEnvironmentOverrides()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	backend, err := openBackend(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open store: " + err.Error())
	}
	store := database.NewStore(backend, database.WithCorruptionHook(func(collection string, err error) {
		metrics.StorageCorruptions.WithLabelValues(collection).Inc()
	}))
	defer store.Close()

	images, err := openImageStore(ctx, cfg.Media)
	if err != nil {
		logger.Fatal("Failed to connect to image host: " + err.Error())
	}

	svc := routes.NewServices(store, cfg, images)
	if err := svc.Auth.EnsureBootstrapAdmin(ctx, cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Name); err != nil {
		logger.WithError(err).Error("Failed to create bootstrap admin")
	}

	// Initialize WebSocket hub
	go svc.Hub.Run(ctx)

	// Initialize Gin router
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupRoutes(ctx, router, cfg, svc)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      http.MaxBytesHandler(router, cfg.Server.HTTP.MaxBodyBytes),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		logger.Info("Server starting on port: " + cfg.App.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server: " + err.Error())
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

func openBackend(cfg config.StorageConfig) (database.Backend, error) {
	switch cfg.Driver {
	case "redis":
		logger.Info("Using redis store")
		return database.NewRedisBackend(cfg.Redis.URL, cfg.Redis.Prefix)
	case "mongo":
		logger.Info("Using mongodb store")
		return database.NewMongoBackend(database.MongoConfig{
			URI:            cfg.MongoDB.URI,
			Database:       cfg.MongoDB.Database,
			ConnectTimeout: cfg.MongoDB.ConnectTimeout,
		})
	default:
		logger.Info("Using file store in " + cfg.DataDir)
		return database.NewFileBackend(cfg.DataDir)
	}
}

func openImageStore(ctx context.Context, cfg config.MediaConfig) (services.ImageStore, error) {
	if !cfg.Enabled() {
		logger.Warn("No image host configured, keeping images inline")
		return services.InlineImageStore{}, nil
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return services.NewMinioImageStore(connectCtx, cfg)
}
