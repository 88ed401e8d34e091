package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"example.com/backstage/services/herdadmin/internal/platform"
	"example.com/backstage/services/herdadmin/internal/validation"
)

const adminKey = "admin_mobile"

// RequireAdmin rejects requests without a valid admin mobile header
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		mobile := strings.TrimSpace(c.GetHeader(platform.AdminHeader))
		if !validation.IsValidMobile(mobile) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": platform.AdminHeader + " header must be a 10 digit mobile number",
				"code":    "UNAUTHORIZED",
			})
			return
		}
		c.Set(adminKey, mobile)
		c.Next()
	}
}

// Admin returns the admin mobile set by RequireAdmin
func Admin(c *gin.Context) string {
	return c.GetString(adminKey)
}
