package httpapi

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/athena/internal/core/domain"
)

// APIKeyHeader carries the shared secret.
const APIKeyHeader = "x-api-key"

// requireAPIKey rejects requests whose x-api-key does not match. An empty
// key rejects everything.
func requireAPIKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(APIKeyHeader)
		if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			renderError(c, &domain.AppError{
				Kind:      domain.KindAuth,
				Message:   "invalid API key",
				Status:    http.StatusUnauthorized,
				Expected:  true,
				Component: "auth.apikey",
				Err:       domain.ErrUnauthorized,
			})
			return
		}
		c.Next()
	}
}
