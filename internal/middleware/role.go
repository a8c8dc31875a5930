package middleware

import (
	"net/http"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// RequireRole checks that the authenticated user acts on the given marketplace side
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := GetIdentity(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "authentication required", nil)
			c.Abort()
			return
		}
		if id.Role != role {
			common.ErrorResponse(c, http.StatusForbidden, "only "+string(role)+" accounts can do this", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
