package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/websocket"
)

// HealthHandler проверяет доступность зависимостей
type HealthHandler struct {
	db    *gorm.DB
	redis redis.UniversalClient
	hub   *websocket.Hub
}

// NewHealthHandler создает обработчик /healthz
func NewHealthHandler(db *gorm.DB, redisClient redis.UniversalClient, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{db: db, redis: redisClient, hub: hub}
}

// Healthz возвращает 200, если PostgreSQL и Redis отвечают, иначе 503
// GET /healthz
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["postgres"] = "down"
		healthy = false
	} else {
		checks["postgres"] = "up"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
			healthy = false
		} else {
			checks["redis"] = "up"
		}
	}

	resp := gin.H{"status": "ok", "checks": checks}
	if h.hub != nil {
		resp["websocket"] = h.hub.Metrics().Snapshot()
	}
	if !healthy {
		resp["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}
