package main

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	config "github.com/vigilhq/vigil/internal/config/alertd"
	"github.com/vigilhq/vigil/internal/httpapi"
	pg "github.com/vigilhq/vigil/internal/repository/postgres"
)

func buildHTTPServer(cfg *config.Config, d *deps, db *pg.DB, log *zap.Logger) *http.Server {
	router := httpapi.NewRouter(
		d.Auth,
		d.Publisher,
		d.Hub,
		d.Tokens,
		httpapi.CookieOpts{
			AccessName:  cfg.Auth.AccessCookie,
			RefreshName: cfg.Auth.RefreshCookie,
			Domain:      cfg.Auth.CookieDomain,
			Secure:      cfg.Auth.CookieSecure,
		},
		db.Pool.Ping,
		log,
	)

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router.Handler(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		// WriteTimeout would sever long-lived websocket sessions; the hub
		// enforces its own per-write deadlines instead.
		IdleTimeout: cfg.Server.IdleTimeout,
	}
}
