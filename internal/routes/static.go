package routes

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// SetupStaticRoutes serves the built frontend from dir. Unknown GET paths
// fall back to index.html so client-side routes resolve.
func SetupStaticRoutes(router *gin.Engine, dir string) {
	index := filepath.Join(dir, "index.html")

	router.NoRoute(func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "Route not found"}})
			return
		}

		clean := filepath.Clean("/" + c.Request.URL.Path)
		candidate := filepath.Join(dir, clean)
		if strings.HasPrefix(candidate, filepath.Clean(dir)) {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				c.File(candidate)
				return
			}
		}
		c.File(index)
	})
}
