package auth

import "github.com/gin-gonic/gin"

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return getString(c, "userID")
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return getString(c, "userEmail")
}

// GetUserRole returns the authenticated user's role claim or empty string.
// Authorization decisions should still re-check the role against the database
// (see api.RequireAdmin); the claim is only a hint for request shaping.
func GetUserRole(c *gin.Context) string {
	return getString(c, "userRole")
}

func getString(c *gin.Context, key string) string {
	if v, ok := c.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
