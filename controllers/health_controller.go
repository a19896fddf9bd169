package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ignation/worldcourse-backend/ws"
)

const dbPingTimeout = 2 * time.Second

var startedAt = time.Now()

type componentCheck struct {
	Status  string `json:"status"` // up | down
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

func Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

// HealthCheck reports each dependency; any component down turns the answer into a 503.
func HealthCheck(c *gin.Context) {
	checks := map[string]componentCheck{
		"database": checkDatabase(c.Request.Context(), getDB(c)),
	}

	status, code := "ok", http.StatusOK
	for _, check := range checks {
		if check.Status != "up" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":         status,
		"checks":         checks,
		"realtime":       ws.H.GetStats(),
		"uptime_seconds": int64(time.Since(startedAt).Seconds()),
		"checked_at":     time.Now().UTC(),
	})
}

func checkDatabase(ctx context.Context, db *gorm.DB) componentCheck {
	ctx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()

	start := time.Now()
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		log.Warn().Err(err).Msg("health: database unreachable")
		return componentCheck{Status: "down", Error: "database unreachable"}
	}
	return componentCheck{Status: "up", Latency: time.Since(start).String()}
}
