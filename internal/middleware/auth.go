package middleware

import (
	"strings"

	"betportal/internal/utils"
	"betportal/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	ClaimsKey   = "claims"
	UsernameKey = "username"
	RoleKey     = "role"
)

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		// websocket clients cannot set headers
		return c.Query("token")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader {
		return ""
	}
	return tokenString
}

func authenticate(c *gin.Context, tokens *utils.TokenIssuer) (*utils.Claims, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		utils.UnauthorizedResponse(c, "Missing or malformed authorization header")
		c.Abort()
		return nil, false
	}

	claims, err := tokens.Parse(tokenString)
	if err != nil {
		logger.LogSecurityEvent("invalid_token", "", c.ClientIP(), map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		utils.UnauthorizedResponse(c, "Invalid or expired token")
		c.Abort()
		return nil, false
	}

	setClaims(c, claims)
	return claims, true
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ClaimsKey, claims)
	c.Set(UsernameKey, claims.Username)
	c.Set(RoleKey, claims.Role)
}

// UserAuth requires a valid user or staff token
func UserAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := authenticate(c, tokens); !ok {
			return
		}
		c.Next()
	}
}

// AdminAuth requires a valid staff token
func AdminAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := authenticate(c, tokens)
		if !ok {
			return
		}
		if !claims.IsAdmin() {
			logger.LogSecurityEvent("admin_access_denied", claims.Username, c.ClientIP(), map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			utils.ForbiddenResponse(c, "Staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the claims when a valid token is present
func OptionalAuth(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := bearerToken(c); tokenString != "" {
			if claims, err := tokens.Parse(tokenString); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// GetClaims returns the claims attached by one of the auth middlewares
func GetClaims(c *gin.Context) (*utils.Claims, bool) {
	value, ok := c.Get(ClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*utils.Claims)
	return claims, ok
}

// IsAdmin reports whether the request carries a staff token
func IsAdmin(c *gin.Context) bool {
	return c.GetString(RoleKey) == utils.RoleAdmin
}
