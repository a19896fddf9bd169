package middleware

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/services"
	"github.com/ignation/worldcourse-backend/utils"
)

func DBMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	}
}

// ServicesMiddleware exposes the mailer and file store to handlers.
// store may be nil when object storage is not configured.
func ServicesMiddleware(mailer services.Mailer, store utils.FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("mailer", mailer)
		if store != nil {
			c.Set("store", store)
		}
		c.Next()
	}
}
