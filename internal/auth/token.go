package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	TokenHeader = "X-Webhook-Token"
	TokenQuery  = "token"
)

// WebhookTokenMiddleware rejects deliveries that do not carry the shared
// secret in X-Webhook-Token or the token query parameter. An empty secret
// disables the check.
func WebhookTokenMiddleware(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token := strings.TrimSpace(c.GetHeader(TokenHeader))
		if token == "" {
			token = strings.TrimSpace(c.Query(TokenQuery))
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
