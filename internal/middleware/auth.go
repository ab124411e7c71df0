package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AdminAuthMiddleware guards the /internal/* routes used by back-office
// tooling. The shared key comes from ADMIN_API_KEY and callers present it
// in the X-Admin-API-Key header.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expectedKey := os.Getenv("ADMIN_API_KEY")
		if expectedKey == "" {
			log.Error().Msg("ADMIN_API_KEY not configured, rejecting admin request")
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "admin API not configured",
			})
			c.Abort()
			return
		}

		providedKey := c.GetHeader("X-Admin-API-Key")
		if subtle.ConstantTimeCompare([]byte(providedKey), []byte(expectedKey)) != 1 {
			log.Warn().
				Str("path", c.Request.URL.Path).
				Str("client_ip", c.ClientIP()).
				Msg("admin request with invalid API key")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
