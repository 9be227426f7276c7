/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Builds the chi router for the KPI API: middleware, CORS for the dashboard
  frontend, and the mapping from URLs to Handler methods.

MIDDLEWARE STACK:
  1. Logger:     One line per request
  2. Recoverer:  Panics become 500 responses
  3. RequestID:  X-Request-Id for correlating logs
  4. CORS:       Allowed origins come from server.cors_origins

ROUTE GROUPS:
  /api/kpis/*           KPI catalog, performance, history, entries
  /api/progress         Progress submission and results
  /api/periods/status   Current accounting windows
  /api/dashboard        Organisation summary
  /api/staff            Staff directory
  /api/holidays/*       Holiday calendar
  /api/admin/*          Admin operations
  /api/scenarios/*      Demo scenarios
  /metrics              Prometheus scrape endpoint (optional)

SECURITY NOTE:
  Authentication happens upstream. Handlers trust X-User-ID and
  X-User-Role, so never expose this router directly.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterOptions configures the parts of the router that vary per deployment.
type RouterOptions struct {
	CORSOrigins []string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderUserID, HeaderUserRole},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/kpis", func(r chi.Router) {
			r.Get("/", h.ListKPIs)
			r.Post("/", h.CreateKPI)
			r.Get("/{id}", h.GetKPI)
			r.Put("/{id}", h.UpdateKPI)
			r.Delete("/{id}", h.DeleteKPI)
			r.Get("/{id}/performance", h.GetPerformance)
			r.Get("/{id}/history", h.GetHistory)
			r.Get("/{id}/entries", h.GetEntries)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", h.ListProgress)
			r.Post("/", h.SubmitProgress)
			r.Delete("/", h.DeleteProgress)
		})

		r.Get("/periods/status", h.GetPeriodStatus)
		r.Get("/dashboard", h.GetDashboard)

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Post("/", h.CreateStaff)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/reconcile", h.ReconcileRollups)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
