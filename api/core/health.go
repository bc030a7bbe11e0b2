package core

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/config"
	"github.com/wagamachi/meiten/database"
	"github.com/wagamachi/meiten/storage"
)

var startTime = time.Now()

// HealthHandler 健康检查
type HealthHandler struct {
	db      database.Provider
	storage storage.Provider
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db database.Provider, s storage.Provider) *HealthHandler {
	return &HealthHandler{db: db, storage: s}
}

// Handle GET /health
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := gin.H{
		"database": checkDatabaseHealth(ctx, h.db),
		"storage":  checkStorageHealth(ctx, h.storage),
	}

	httpStatus := http.StatusOK
	status := "ok"
	for _, result := range checks {
		if result != "ok" {
			httpStatus = http.StatusServiceUnavailable
			status = "degraded"
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status":  status,
		"uptime":  time.Since(startTime).Round(time.Second).String(),
		"version": config.Version,
		"checks":  checks,
	})
}

func checkDatabaseHealth(ctx context.Context, provider database.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, provider storage.Provider) string {
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
