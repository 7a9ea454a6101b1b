package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys set by Middleware.
const (
	ContextUserID = "userId"
	ContextOrgID  = "orgId"
)

// Middleware rejects requests without a valid bearer token and stores the
// caller's user and organization in the gin context.
func (i *Issuer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is missing"})
			return
		}

		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token format"})
			return
		}

		claims, err := i.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "token is expired or invalid"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextOrgID, claims.OrgID)
		c.Next()
	}
}

// OrgID returns the organization stored by Middleware.
func OrgID(c *gin.Context) string {
	return c.GetString(ContextOrgID)
}

// UserID returns the user stored by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
