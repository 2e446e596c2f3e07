package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupQueryRouter builds the consumer-facing query API: filtered views,
// freshness status, manual refresh and prometheus metrics. API-key auth
// applies when keys are configured.
func SetupQueryRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(h.auth.APIKeyMiddleware)
		r.Get("/view", h.HandleView)
		r.Get("/status", h.HandleStatus)
		r.Post("/refresh", h.HandleRefresh)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// SetupDashboardRouter builds the seam the (external) presentation layer
// connects to: session login and the websocket push stream.
func SetupDashboardRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", h.HandleLogin)
	r.With(h.auth.JWTMiddleware).Get("/ws", h.HandleWebSocket)

	return r
}
