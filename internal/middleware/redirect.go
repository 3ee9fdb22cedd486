package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CanonicalRedirect sends plain HTTP and bare-domain requests to
// https://<canonicalHost>. The scheme is read from X-Forwarded-Proto since
// production runs behind a TLS terminating proxy.
func CanonicalRedirect(canonicalHost string) gin.HandlerFunc {
	return func(c *gin.Context) {
		host := c.Request.Host
		proto := c.GetHeader("X-Forwarded-Proto")
		if proto == "" {
			proto = "http"
			if c.Request.TLS != nil {
				proto = "https"
			}
		}

		target := host
		if canonicalHost != "" && !strings.EqualFold(host, canonicalHost) {
			target = canonicalHost
		}
		if proto == "https" && target == host {
			c.Next()
			return
		}

		c.Redirect(http.StatusMovedPermanently, "https://"+target+c.Request.URL.RequestURI())
		c.Abort()
	}
}
