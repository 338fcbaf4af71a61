package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"crece-pos/internal/utils"
)

// Context keys set by JWTAuth for downstream handlers.
const (
	CtxUserID         = "user_id"
	CtxOrganizationID = "organization_id"
	CtxEmail          = "email"
)

func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Missing or invalid authorization header",
			})
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "Invalid or expired token",
			})
			return
		}

		c.Set(CtxUserID, claims.UserId)
		c.Set(CtxOrganizationID, claims.OrganizationId)
		c.Set(CtxEmail, claims.Email)
		c.Next()
	}
}

// OrganizationID reads the tenant id set by JWTAuth.
func OrganizationID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(CtxOrganizationID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
