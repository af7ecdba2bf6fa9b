package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-marketplace/internal/infra/http/middleware"
)

type RouterConfig struct {
	Leads          *LeadHandler
	Marketplace    *MarketplaceHandler
	Notifications  *NotificationHandler
	Health         *HealthHandler
	AllowedOrigins []string

	// TrustProxyHeaders takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them.
	TrustProxyHeaders bool
	Logger            *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if cfg.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.UserIDHeader},
		MaxAge:         300,
	}))

	if cfg.Health != nil {
		r.Get("/health", cfg.Health.Handle)
	}
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/leads", cfg.Leads.Capture)
	r.Get("/marketplace/leads", cfg.Marketplace.List)
	r.With(middleware.OptionalUser).Get("/leads/{id}", cfg.Marketplace.Get)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/leads/{id}/purchase", cfg.Marketplace.Buy)
		r.Get("/purchases", cfg.Marketplace.Purchases)

		r.Get("/notifications", cfg.Notifications.List)
		r.Post("/notifications/read-all", cfg.Notifications.MarkAllRead)
		r.Post("/notifications/{id}/read", cfg.Notifications.MarkRead)
		r.Delete("/notifications/{id}", cfg.Notifications.Delete)
	})
	return r
}
