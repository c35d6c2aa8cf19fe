/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the mobile/web client

ROUTE GROUPS:
  /api/savers/*          Saver registration and progress summary
  /api/phones/*          Catalog browsing
  /api/subscriptions/*   Savings subscription lifecycle
  /metrics               Prometheus scrape endpoint

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Saver routes
		r.Route("/savers", func(r chi.Router) {
			r.Get("/", h.ListSavers)
			r.Post("/", h.CreateSaver)
			r.Get("/{id}", h.GetSaver)
			r.Get("/{id}/subscriptions", h.ListSaverSubscriptions)
			r.Get("/{id}/summary", h.GetSaverSummary)
		})

		// Phone catalog routes
		r.Route("/phones", func(r chi.Router) {
			r.Get("/", h.ListPhones)
			r.Post("/seed", h.SeedPhones)
			r.Get("/search/{query}", h.SearchPhones)
			r.Get("/category/{category}", h.ListPhonesByCategory)
			r.Get("/{id}", h.GetPhone)
		})

		// Subscription routes
		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", h.OpenSubscription)
			r.Get("/{id}", h.GetSubscription)
			r.Put("/{id}", h.UpdateSubscriptionPlan)
			r.Delete("/{id}", h.CancelSubscription)
			r.Get("/{id}/progress", h.GetSubscriptionProgress)
			r.Get("/{id}/payments", h.ListSubscriptionPayments)
			r.Post("/{id}/payments", h.RecordPayment)
			r.Post("/{id}/pause", h.PauseSubscription)
			r.Post("/{id}/resume", h.ResumeSubscription)
		})
	})

	// Prometheus metrics
	r.Handle("/metrics", promhttp.Handler())

	return r
}
