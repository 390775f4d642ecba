// Package api provides the HTTP surface of the status dashboard.
package api

import (
	"net/http"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/cloudstatus/cloudstatus/internal/api/handler"
	"github.com/cloudstatus/cloudstatus/internal/api/middleware"
	"github.com/cloudstatus/cloudstatus/internal/api/response"
)

// DefaultServiceName names the service in traces when none is configured.
const DefaultServiceName = "cloudstatus-dashboard"

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// Store holds the published dashboard state.
	Store handler.StateLoader

	// Refresher runs manual cycles and reports counters. Optional.
	Refresher interface {
		handler.CycleRunner
		handler.StatsProvider
	}

	History    handler.HistoryLister
	Feeds      handler.FeedHealthReporter
	SourceName string

	// TokenValidator guards the admin routes. When nil they answer 401.
	TokenValidator middleware.TokenValidator

	RequireTLS bool
}

// NewRouter creates a chi router with the page, API and ops routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = DefaultServiceName
	}

	// Global middleware, outermost first.
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(gziphandler.GzipHandler)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})

	var runner handler.CycleRunner
	var stats handler.StatsProvider
	if cfg.Refresher != nil {
		runner = cfg.Refresher
		stats = cfg.Refresher
	}

	dashboardHandler := handler.NewDashboardHandler(cfg.Store)
	historyHandler := handler.NewHistoryHandler(cfg.History)
	adminHandler := handler.NewAdminHandler(runner, cfg.Logger)
	opsHandler := handler.NewOpsHandler(handler.OpsConfig{
		Version:    cfg.Version,
		BuildTime:  cfg.BuildTime,
		SourceName: cfg.SourceName,
		Store:      cfg.Store,
		Stats:      stats,
		Feeds:      cfg.Feeds,
	})

	adminAuth := middleware.AdminAuth(cfg.TokenValidator)
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)

	r.Get("/", dashboardHandler.Page)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)

		// Probes are not rate limited.
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.With(adminAuth).Get("/status", opsHandler.SystemStatus)
		})

		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/status", dashboardHandler.Status)
			r.Get("/status/{provider}", dashboardHandler.Provider)
			r.Get("/links", dashboardHandler.Link)
			r.Get("/history", historyHandler.List)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuth)
			r.Use(middleware.RateLimitByOperator(middleware.AdminRateLimit))
			r.Post("/refresh", adminHandler.Refresh)
		})
	})

	return r
}
