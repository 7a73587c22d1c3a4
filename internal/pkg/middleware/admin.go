package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"server-invest-app/internal/pkg/generr"
)

// AdminToken accepts requests carrying "Authorization: Bearer <token>". An empty
// token rejects everything.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.JSON(http.StatusUnauthorized, generr.Unauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
