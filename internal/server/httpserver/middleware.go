package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/avelins/classmedia/internal/logging"
	"github.com/avelins/classmedia/internal/server/auth"
)

// identityKey is the gin context key under which the verified identity
// is stored by requireIdentity.
const identityKey = "identity"

// requireIdentity verifies the bearer token and stores the identity for
// handlers. Requests without a valid token never reach a handler.
func requireIdentity(secretKey []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		identity, err := auth.IdentityFromToken(token, secretKey)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// identity returns the verified identity set by requireIdentity.
func identity(c *gin.Context) string {
	return c.GetString(identityKey)
}

// requestLogger logs one line per request after it completes.
func requestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
