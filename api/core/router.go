package core

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wagamachi/meiten/api"
	"github.com/wagamachi/meiten/api/common"
	"github.com/wagamachi/meiten/api/handler/objects"
	handlerShops "github.com/wagamachi/meiten/api/handler/shops"
	handlerStories "github.com/wagamachi/meiten/api/handler/stories"
	"github.com/wagamachi/meiten/api/middleware"
	"github.com/wagamachi/meiten/config"
	"github.com/wagamachi/meiten/storage"
)

// RateLimiters 各路由组的限流器
type RateLimiters struct {
	Auth     *middleware.IPRateLimiter
	API      *middleware.IPRateLimiter
	Reaction *middleware.IPRateLimiter
}

// Stop 停止全部限流器的后台清理
func (r *RateLimiters) Stop() {
	r.Auth.StopCleanup()
	r.API.StopCleanup()
	r.Reaction.StopCleanup()
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *ServerDependencies, limiters *RateLimiters) {
	// 基础路由
	registerBasicRoutes(router, deps)

	// 本地存储对象访问
	registerObjectRoutes(router, deps)

	// API 路由
	registerAPIRoutes(router, deps, limiters)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *ServerDependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.Storage)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(context *gin.Context) {
		context.JSON(http.StatusOK, middleware.GetMetrics())
	})
}

// registerObjectRoutes 仅本地存储需要由服务自身提供对象
func registerObjectRoutes(router *gin.Engine, deps *ServerDependencies) {
	local, ok := deps.Storage.(*storage.LocalStorage)
	if !ok {
		return
	}

	objectHandler := objects.NewHandler(local)
	objectGroup := router.Group("/storage/v1/object")
	{
		objectGroup.GET("/public/:bucket/*path", objectHandler.PublicHandler)
		objectGroup.GET("/sign/:bucket/*path", objectHandler.SignedHandler)
	}
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *ServerDependencies, limiters *RateLimiters) {
	storyHandler := handlerStories.NewHandler(deps.Stories, deps.Config.UploadMaxBytes())
	shopHandler := handlerShops.NewHandler(deps.Stories)
	loginHandler := api.NewLoginHandlerWithService(deps.Login)

	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})
	{
		// 认证路由
		authGroup := apiGroup.Group("/auth")
		authGroup.Use(limiters.Auth.Middleware())
		{
			authGroup.POST("/register", loginHandler.RegisterHandlerFunc)
			authGroup.POST("/login", loginHandler.LoginHandlerFunc)
		}

		v1 := apiGroup.Group("/v1")
		v1.Use(limiters.API.Middleware())
		{
			// 公开浏览
			v1.GET("/stories", storyHandler.ListPublishedHandler)
			v1.GET("/stories/:id", middleware.OptionalAuth(deps.JWT), storyHandler.DetailHandler)
			v1.POST("/stories/:id/reactions/:kind", limiters.Reaction.Middleware(), storyHandler.ReactionHandler)
			v1.GET("/areas", storyHandler.AreasHandler)
			v1.GET("/shops", shopHandler.ListHandler)
			v1.GET("/shops/suggestions", shopHandler.SuggestionsHandler)

			// 我的故事
			meGroup := v1.Group("/me")
			meGroup.Use(middleware.RequireAuth(deps.JWT))
			{
				meGroup.GET("/stories", storyHandler.ListMineHandler)
				meGroup.POST("/stories", storyHandler.CreateHandler)
				meGroup.GET("/stories/:id", storyHandler.EditHandler)
				meGroup.PUT("/stories/:id", storyHandler.UpdateHandler)
				meGroup.PATCH("/stories/:id/published", storyHandler.SetPublishedHandler)
				meGroup.DELETE("/stories/:id", storyHandler.DeleteHandler)
			}
		}
	}
}
