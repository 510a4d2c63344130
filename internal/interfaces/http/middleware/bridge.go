package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BridgeSecretHeaderKey is the header the external bridge presents on pull
// endpoints.
const BridgeSecretHeaderKey = "X-Bridge-Secret"

// BridgeAuthMiddleware authenticates the external bridge connector with a
// shared secret. Comparison is constant-time. An empty configured secret
// disables the bridge routes entirely.
func BridgeAuthMiddleware(sharedSecret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sharedSecret == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "Bridge access is not enabled",
				},
			})
			return
		}

		presented := c.GetHeader(BridgeSecretHeaderKey)
		if presented == "" {
			// Also accept the secret as a bearer token
			authHeader := c.GetHeader(AuthHeaderKey)
			if strings.HasPrefix(authHeader, BearerPrefix) {
				presented = strings.TrimPrefix(authHeader, BearerPrefix)
			}
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(sharedSecret)) != 1 {
			if log != nil {
				log.Warn("bridge authentication failed",
					zap.String("path", c.Request.URL.Path),
					zap.String("remote_addr", c.ClientIP()),
				)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_UNAUTHORIZED",
					"message": "Invalid bridge credentials",
				},
			})
			return
		}

		c.Next()
	}
}
