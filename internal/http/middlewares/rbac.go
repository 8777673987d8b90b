package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireStaff must run after RequireAuth.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := UserFromContext(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if !u.IsStaff {
			abortWithError(c, http.StatusForbidden, "forbidden", "You do not have permission to perform this action.")
			return
		}
		c.Next()
	}
}
