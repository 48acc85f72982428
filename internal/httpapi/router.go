// Package httpapi is the REST and websocket surface: thin gin handlers over
// the auth, publisher, and hub services.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vigilhq/vigil/internal/domain/pushtoken"
	"github.com/vigilhq/vigil/internal/hub"
	"github.com/vigilhq/vigil/internal/obs"
	authsvc "github.com/vigilhq/vigil/internal/services/auth"
	"github.com/vigilhq/vigil/internal/services/publisher"
)

type CookieOpts struct {
	AccessName  string
	RefreshName string
	Domain      string
	Secure      bool
}

type Router struct {
	auth    *authsvc.Usecase
	pub     *publisher.Usecase
	hub     *hub.Hub
	tokens  pushtoken.Registry
	cookies CookieOpts
	log     *zap.Logger
	health  func(context.Context) error
}

func NewRouter(
	auth *authsvc.Usecase,
	pub *publisher.Usecase,
	h *hub.Hub,
	tokens pushtoken.Registry,
	cookies CookieOpts,
	health func(context.Context) error,
	log *zap.Logger,
) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		auth:    auth,
		pub:     pub,
		hub:     h,
		tokens:  tokens,
		cookies: cookies,
		health:  health,
		log:     log.With(zap.String("component", "httpapi")),
	}
}

func (rt *Router) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), rt.requestLogger())

	r.GET("/healthz", rt.handleHealthz)
	r.GET("/metrics", gin.WrapH(obs.MetricsHandler()))

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", rt.handleRegister)
			auth.POST("/login", rt.handleLogin)
			auth.POST("/refresh", rt.handleRefresh)
			auth.POST("/logout", rt.handleLogout)

			protected := auth.Group("", rt.RequireAuth())
			protected.GET("/me", rt.handleMe)
			protected.POST("/change-password", rt.handleChangePassword)
			protected.DELETE("/account", rt.handleDeleteAccount)
		}

		alerts := api.Group("/alerts", rt.RequireAuth())
		{
			alerts.GET("", rt.handleListAlerts)
			alerts.POST("", rt.RequireAdmin(), rt.handlePublishAlert)
		}

		api.POST("/push/token", rt.RequireAuth(), rt.handleSaveToken)
	}

	r.GET("/ws", rt.RequireAuth(), rt.handleWS)

	return r
}

func (rt *Router) handleHealthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
	defer cancel()
	if err := rt.health(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "unhealthy")
		return
	}
	c.String(http.StatusOK, "ok")
}

func (rt *Router) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rt.log.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
