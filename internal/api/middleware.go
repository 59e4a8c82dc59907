package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rentaspace/backend/internal/auth"
	"github.com/rentaspace/backend/internal/user"
)

// RequireAdmin ensures the authenticated user holds the admin role. The
// role is re-checked against the database rather than trusted from the
// token, so demoting a user takes effect before their token expires.
// It MUST be used after auth.AuthRequired middleware.
func RequireAdmin(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		u, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		if u.Role != user.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin access required"})
			return
		}

		c.Next()
	}
}
