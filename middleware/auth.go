package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/models"
	"github.com/ignation/worldcourse-backend/utils"
)

func abortWith(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"status": "error", "message": msg})
}

// bearerToken reads "Bearer <token>" from Authorization, falling back to X-Auth-Token.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		header = c.GetHeader("X-Auth-Token")
	}
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// AuthMiddleware requires a valid token of an active user and stores
// user_id and role in the context. DBMiddleware must run first.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			abortWith(c, http.StatusUnauthorized, "missing or malformed Authorization header")
			return
		}
		claims, err := utils.VerifyToken(token)
		if err != nil {
			abortWith(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		db := c.MustGet("db").(*gorm.DB)
		var user models.User
		if err := db.WithContext(c.Request.Context()).Select("id", "role", "status").
			First(&user, "id = ?", claims.UserID).Error; err != nil {
			abortWith(c, http.StatusUnauthorized, "user not found")
			return
		}
		if !user.IsActive() {
			abortWith(c, http.StatusForbidden, "account is disabled")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", string(user.Role))
		c.Next()
	}
}

// OptionalAuthMiddleware sets the caller when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := utils.VerifyToken(token)
		if err != nil {
			c.Next()
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRoles lets through only callers whose role is listed. AuthMiddleware must run first.
func RequireRoles(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			abortWith(c, http.StatusUnauthorized, "unknown user role")
			return
		}
		for _, allowed := range allowedRoles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}
		abortWith(c, http.StatusForbidden, "you do not have access to this resource")
	}
}
