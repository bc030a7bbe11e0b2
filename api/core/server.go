package core

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/api/middleware"
	"github.com/wagamachi/meiten/config"
	"github.com/wagamachi/meiten/database"
	"github.com/wagamachi/meiten/internal/auth"
	"github.com/wagamachi/meiten/internal/story"
	"github.com/wagamachi/meiten/storage"
)

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	Config  *config.Config
	DB      database.Provider
	Storage storage.Provider
	Stories *story.Service
	JWT     *auth.JWTService
	Login   *auth.LoginService
}

// multipart 表单中除图片外的字段余量
const formOverhead = 1 << 20

// setupRouter 创建 gin 引擎，返回的 cleanup 用于停止限流器
func setupRouter(deps *ServerDependencies) (*gin.Engine, func()) {
	cfg := deps.Config
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 全局中间件
	router.Use(requestid.New())
	router.Use(middleware.AccessLog())
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = cfg.UploadMaxBytes()

	// 并发限制（100并发，避免内存过载）
	concurrencyLimiter := middleware.NewConcurrencyLimiter(100)
	router.Use(concurrencyLimiter.Middleware())

	// 请求体大小限制
	router.Use(middleware.MaxBytesReader(cfg.UploadMaxBytes() + formOverhead))

	// 基础监控指标
	router.Use(middleware.Metrics())

	limiters := &RateLimiters{
		Auth:     middleware.NewIPRateLimiter(cfg.RateLimitAuthRPS, cfg.RateLimitAuthBurst, cfg.RateLimitExpireTime),
		API:      middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime),
		Reaction: middleware.NewIPRateLimiter(cfg.RateLimitReactionRPS, cfg.RateLimitReactionBurst, cfg.RateLimitExpireTime),
	}

	RegisterRoutes(router, deps, limiters)

	return router, limiters.Stop
}

// StartServer 创建 http.Server
func StartServer(deps *ServerDependencies) (*http.Server, func()) {
	cfg := deps.Config
	router, clean := setupRouter(deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
