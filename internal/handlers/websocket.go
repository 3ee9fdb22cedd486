package handlers

import (
	"context"
	"net/http"
	"strings"

	"betportal/internal/config"
	"betportal/internal/services"
	"betportal/internal/utils"
	"betportal/internal/websocket"
	apperrors "betportal/pkg/errors"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub         *websocket.Hub
	dispatcher  websocket.InboundHandler
	tokens      *utils.TokenIssuer
	userService *services.UserService
	cfg         config.WebSocketConfig
	upgrader    gorillaws.Upgrader
	ctx         context.Context
}

// NewWebSocketHandler builds the /ws endpoint. ctx bounds the lifetime of
// every connection it accepts.
func NewWebSocketHandler(ctx context.Context, hub *websocket.Hub, dispatcher websocket.InboundHandler, tokens *utils.TokenIssuer, userService *services.UserService, cfg config.WebSocketConfig, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		dispatcher:  dispatcher,
		tokens:      tokens,
		userService: userService,
		cfg:         cfg,
		ctx:         ctx,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				if !cfg.CheckOrigin {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowedOrigins {
					allowed = strings.TrimSpace(allowed)
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

type identity struct {
	username  string
	adminName string
	admin     bool
}

// resolve reads ?token= (user or staff JWT) or ?username=. A connection
// with neither is a read-only viewer.
func (h *WebSocketHandler) resolve(c *gin.Context) (identity, error) {
	if token := c.Query("token"); token != "" {
		claims, err := h.tokens.Parse(token)
		if err != nil {
			return identity{}, apperrors.Unauthorized("invalid or expired token", err)
		}
		if claims.IsAdmin() {
			return identity{username: claims.Username, adminName: claims.Username, admin: true}, nil
		}
		return h.resolveUser(c, claims.Username)
	}
	if username := strings.TrimSpace(c.Query("username")); username != "" {
		if strings.EqualFold(username, "admin") {
			return identity{}, apperrors.Unauthorized("staff connections need a token", nil)
		}
		return h.resolveUser(c, username)
	}
	return identity{}, nil
}

func (h *WebSocketHandler) resolveUser(c *gin.Context, username string) (identity, error) {
	user, err := h.userService.Get(c.Request.Context(), username)
	switch {
	case err == nil:
		if user.Banned {
			return identity{}, apperrors.Forbidden("account is banned")
		}
		return identity{username: user.Username}, nil
	case apperrors.Is(err, apperrors.CodeNotFound):
		return identity{username: username}, nil
	default:
		return identity{}, err
	}
}

// HandleWebSocket upgrades the request and runs the client pumps. The replay
// of histories happens when the hub registers the client.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	who, err := h.resolve(c)
	if err != nil {
		logger.LogSecurityEvent("websocket_rejected", c.Query("username"), c.ClientIP(), map[string]interface{}{
			"error": err.Error(),
		})
		utils.AppErrorResponse(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return
	}

	client := websocket.NewClient(conn, h.hub, h.dispatcher, h.cfg)
	client.Username = who.username
	client.AdminName = who.adminName
	client.IsAdmin = who.admin

	if !h.hub.Join(client) {
		conn.WriteMessage(gorillaws.CloseMessage, gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	if who.username != "" {
		logger.LogUserAction(who.username, "websocket_connected", map[string]interface{}{
			"conn_id": client.ID,
			"admin":   who.admin,
		})
	}

	go client.WritePump()
	go client.ReadPump(h.ctx)
}
