// Package api 组装 gin 路由与中间件。
package api

import (
	"net/http"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/eventhub/config"
	_ "github.com/d60-Lab/eventhub/docs"
	"github.com/d60-Lab/eventhub/internal/api/handler"
	"github.com/d60-Lab/eventhub/internal/api/middleware"
)

// NewRouter 按配置挂载中间件与 /api/v1 下的全部路由
func NewRouter(cfg *config.Config, h *handler.Handler, authn middleware.Authenticator, users middleware.UserLookup) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	handler.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.CORS(cfg.CORS.AllowOrigins))
	r.Use(middleware.RequestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authRequired := middleware.AuthRequired(authn)
	resetLimiter := middleware.NewIPRateLimiter(cfg.Reset.RatePerMinute, cfg.Reset.Burst)

	v1 := r.Group("/api/v1")
	{
		events := v1.Group("/events")
		events.GET("", h.ListEvents)
		events.GET("/:event_id", authRequired, h.GetEvent)
		events.POST("/:event_id/link", authRequired, h.TrackLink)
		events.POST("/track/:event_id", authRequired, h.TrackLink)

		user := v1.Group("", authRequired)
		user.GET("/favorites", h.ListFavorites)
		user.POST("/favorites/add", h.AddFavorite)
		user.DELETE("/favorites/remove", h.RemoveFavorite)
		user.GET("/unviewed", h.ListUnviewed)
		user.GET("/unviewed_count", h.UnviewedCount)
		user.GET("/user-actions", h.UserActions)
		user.POST("/devices/token", h.UpdateDeviceToken)

		authGroup := v1.Group("/auth")
		authGroup.POST("/registration", h.Register)
		authGroup.GET("/registration/account-confirm-email/:key", h.VerifyEmail)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/token/refresh", h.Refresh)
		authGroup.POST("/logout", authRequired, h.Logout)
		authGroup.GET("/user", authRequired, h.Me)

		reset := authGroup.Group("/password", resetLimiter.Middleware())
		reset.POST("/reset", h.RequestReset)
		reset.POST("/reset/confirm", h.ConfirmReset)

		admin := v1.Group("/admin", authRequired, middleware.StaffRequired(users))
		admin.POST("/events", h.CreateEvent)
		admin.DELETE("/events/:event_id", h.DeleteEvent)
		admin.GET("/events/:event_id/stats", h.EventStats)
		admin.GET("/users", h.ListUsers)
	}
	return r
}
