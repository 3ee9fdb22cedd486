package handlers

import (
	"context"
	"net/http"
	"time"

	"betportal/internal/websocket"
	"betportal/pkg/database"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	store     *database.Store
	hub       *websocket.Hub
	startedAt time.Time
}

func NewHealthHandler(store *database.Store, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{store: store, hub: hub, startedAt: time.Now()}
}

// Health reports storage reachability and the number of live sockets
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	storage := "ok"
	if err := h.store.Health(ctx); err != nil {
		status, code = "degraded", http.StatusServiceUnavailable
		storage = err.Error()
	}

	c.JSON(code, gin.H{
		"status":      status,
		"storage":     storage,
		"connections": h.hub.ClientCount(),
		"uptime":      time.Since(h.startedAt).Round(time.Second).String(),
	})
}
