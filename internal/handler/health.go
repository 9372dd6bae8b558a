package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"GymPulse/storage/database"
	"GymPulse/storage/redis"
)

// HealthCheck 存活与依赖探活
// GET /health
func HealthCheck(ctx context.Context, c *app.RequestContext) {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": "ok",
		"redis":    "ok",
	}
	healthy := true

	if db := database.DB(); db != nil {
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(checkCtx) != nil {
			checks["database"] = "unavailable"
			healthy = false
		}
	} else {
		checks["database"] = "uninitialized"
		healthy = false
	}

	if redis.Available() {
		if err := redis.Client().Ping(checkCtx).Err(); err != nil {
			checks["redis"] = "unavailable"
		}
	} else {
		checks["redis"] = "uninitialized"
	}

	status := consts.StatusOK
	if !healthy {
		status = consts.StatusServiceUnavailable
	}

	c.JSON(status, map[string]interface{}{
		"status": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}
