package http

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yokyay/classhub/internal/adapters/signal"
	"github.com/yokyay/classhub/internal/app"
	"github.com/yokyay/classhub/internal/config"
)

// MetricsMiddleware counts finished requests by method/route/status.
func MetricsMiddleware(m *app.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status())
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, h *Handlers, ws *signal.Controller, metrics *app.Metrics) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(MetricsMiddleware(metrics))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("ClasshubSession", store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.POST("/login", h.Login)

	api.GET("/rooms", h.ListRooms)
	api.POST("/rooms", h.CreateRoom)
	api.GET("/rooms/:roomId", h.GetRoom)
	api.DELETE("/rooms/:roomId", h.DeleteRoom)

	api.GET("/rooms/:roomId/files", h.ListFiles)
	api.POST("/rooms/:roomId/files", h.UploadFile)
	api.GET("/rooms/:roomId/files/:fileId", h.DownloadFile)
	api.DELETE("/rooms/:roomId/files/:fileId", h.DeleteFile)

	api.POST("/media/token", h.MediaToken)

	api.GET("/ws", func(c *gin.Context) {
		ws.Handle(ctx, c)
	})

	return r
}
