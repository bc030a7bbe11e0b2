package middleware

import (
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	requestCount    atomic.Int64
	errorCount      atomic.Int64
	requestDuration atomic.Int64 // in milliseconds
)

// Metrics 基础监控指标中间件
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		requestDuration.Add(time.Since(startTime).Milliseconds())
		requestCount.Add(1)
		if c.Writer.Status() >= 500 {
			errorCount.Add(1)
		}
	}
}

// GetMetrics 获取当前指标
func GetMetrics() map[string]interface{} {
	count := requestCount.Load()
	duration := requestDuration.Load()
	avg := 0.0
	if count > 0 {
		avg = float64(duration) / float64(count)
	}
	return map[string]interface{}{
		"request_count":       count,
		"error_count":         errorCount.Load(),
		"request_duration_ms": duration,
		"avg_duration_ms":     avg,
	}
}

// ResetMetrics 重置指标（可选，用于测试或定期重置）
func ResetMetrics() {
	requestCount.Store(0)
	errorCount.Store(0)
	requestDuration.Store(0)
}
