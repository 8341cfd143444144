package middlewares

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservation/utils"
)

const (
	APIKeyHeader     = "x-api-key"
	APIKeyQueryParam = "api_key"

	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeInvalidAPIKey   = "INVALID_API_KEY"
)

var (
	ErrAPIKeyMissing = errors.New("Missing required " + APIKeyHeader + " header")
	ErrAPIKeyInvalid = errors.New("Invalid API key provided")
)

// APIKeyMiddleware authenticates the calling system against the single
// shared key. It runs before any domain logic.
func APIKeyMiddleware(expected string) gin.HandlerFunc {
	return apiKeyMiddleware(expected, false)
}

// WebSocketAPIKeyMiddleware also accepts the key as a query parameter,
// since browsers cannot set headers on websocket upgrades.
func WebSocketAPIKeyMiddleware(expected string) gin.HandlerFunc {
	return apiKeyMiddleware(expected, true)
}

func apiKeyMiddleware(expected string, allowQuery bool) gin.HandlerFunc {
	want := []byte(expected)
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" && allowQuery {
			key = c.Query(APIKeyQueryParam)
		}

		if key == "" {
			utils.AbortWithErrorCode(c, http.StatusUnauthorized, CodeUnauthenticated, ErrAPIKeyMissing)
			return
		}
		if subtle.ConstantTimeCompare([]byte(key), want) != 1 {
			utils.InfoLogger.Warnf("Rejected invalid API key from %s", c.ClientIP())
			utils.AbortWithErrorCode(c, http.StatusUnauthorized, CodeInvalidAPIKey, ErrAPIKeyInvalid)
			return
		}

		c.Next()
	}
}
