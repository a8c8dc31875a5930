package middleware

import (
	"errors"
	"strings"

	"github.com/campusbridge/marketplace-backend/internal/common"
	"github.com/campusbridge/marketplace-backend/internal/domain"
	"github.com/campusbridge/marketplace-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Trusted identity headers set by an upstream gateway
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserName = "X-User-Name"
	HeaderUserRole = "X-User-Role"
)

// Identity resolves the caller from a Bearer token, or from the trusted
// X-User-* headers when trustHeaders is on. Requests without an identity
// are rejected with 401.
func Identity(jwtManager *jwt.Manager, trustHeaders bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Bearer token; browsers cannot set headers on a websocket handshake
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" && c.Query("access_token") != "" {
			authHeader = "Bearer " + c.Query("access_token")
		}
		if authHeader != "" && jwtManager != nil {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				common.ErrorResponse(c, 401, "Invalid authorization header format", nil)
				c.Abort()
				return
			}

			claims, err := jwtManager.Verify(parts[1])
			if err != nil {
				if errors.Is(err, jwt.ErrExpiredToken) {
					common.ErrorResponse(c, 401, "Token expired", err)
				} else {
					common.ErrorResponse(c, 401, "Invalid token", err)
				}
				c.Abort()
				return
			}

			setIdentity(c, domain.Identity{ID: claims.UserID, Name: claims.Name, Role: domain.Role(claims.Role)})
			return
		}

		// 2. Gateway headers
		if trustHeaders {
			if id := strings.TrimSpace(c.GetHeader(HeaderUserID)); id != "" {
				setIdentity(c, domain.Identity{
					ID:   id,
					Name: strings.TrimSpace(c.GetHeader(HeaderUserName)),
					Role: domain.Role(strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderUserRole)))),
				})
				return
			}
		}

		common.ErrorResponse(c, 401, "Missing authorization header", nil)
		c.Abort()
	}
}

func setIdentity(c *gin.Context, id domain.Identity) {
	if !id.Role.Valid() {
		common.ErrorResponse(c, 401, "Unknown role", nil)
		c.Abort()
		return
	}
	if id.Name == "" {
		id.Name = id.ID
	}
	c.Set(identityKey, id)
	c.Next()
}

// GetIdentity extracts the caller from context
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	id, _ := GetIdentity(c)
	return id.ID
}
