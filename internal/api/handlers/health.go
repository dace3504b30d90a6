package handlers

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sirupsen/logrus"

	"github.com/coinsight/coinsight-go/internal/database"
)

// HealthHandler reports service and dependency health.
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *database.RedisClient
	logger  *logrus.Logger
	started time.Time
}

func NewHealthHandler(db *database.PostgresDB, redis *database.RedisClient, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		redis:   redis,
		logger:  logger,
		started: time.Now(),
	}
}

// Health handles GET /health. Degraded dependencies turn the overall status
// to unhealthy and the response code to 503.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	status := "healthy"
	httpStatus := http.StatusOK

	services := gin.H{}
	if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.WithError(err).Error("Database health check failed")
		services["database"] = "unhealthy"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		services["database"] = "healthy"
	}
	if err := h.redis.HealthCheck(ctx); err != nil {
		h.logger.WithError(err).Error("Redis health check failed")
		services["redis"] = "unhealthy"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		services["redis"] = "healthy"
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.started).String(),
		"services":  services,
		"system":    systemStats(),
	})
}

func systemStats() gin.H {
	stats := gin.H{"goroutines": runtime.NumGoroutine()}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats["memory_used_percent"] = vm.UsedPercent
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats["cpu_percent"] = percents[0]
	}
	return stats
}
