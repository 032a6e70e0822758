package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared secret of protected routes.
const APIKeyHeader = "X-API-Key"

// RequireSharedSecret rejects requests whose X-API-Key does not match secret
// with 401 and the standard error envelope. An empty secret disables the check.
func RequireSharedSecret(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) { c.Next() }
	}
	want := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(APIKeyHeader))
		if subtle.ConstantTimeCompare(want, got) != 1 {
			rid := RequestIDFrom(c)
			LoggerFrom(c).Warn().Str("event", "shared_secret_rejected").Msg("shared_secret_rejected")
			c.Header(requestIDHeader, rid)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"request_id": rid,
				"code":       "unauthorized",
				"message":    "missing or invalid API key",
			})
			return
		}
		c.Next()
	}
}
