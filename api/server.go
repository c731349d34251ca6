/*
server.go - HTTP router and middleware configuration

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/families/*    Family management (soft delete)
  /api/festivals/*   Festival management
  /api/payments/*    Payments (PAID triggers ledger income)
  /api/expenses/*    Expenses (always trigger ledger expense)
  /api/reports/*     Festival reconciliation reports
  /api/dashboard     Organization snapshot
  /api/account       Ledger account
  /api/transactions  Recent ledger transactions
  /api/seed          Demo dataset (dev only)
  /metrics           Prometheus metrics

SECURITY NOTE:
  No authentication middleware; session handling is an external concern.

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

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/families", func(r chi.Router) {
			r.Get("/", h.ListFamilies)
			r.Post("/", h.CreateFamily)
			r.Get("/{id}", h.GetFamily)
			r.Put("/{id}", h.UpdateFamily)
			r.Delete("/{id}", h.DeleteFamily)
		})

		r.Route("/festivals", func(r chi.Router) {
			r.Get("/", h.ListFestivals)
			r.Post("/", h.CreateFestival)
			r.Get("/{id}", h.GetFestival)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Put("/{id}/status", h.UpdatePaymentStatus)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
		})

		r.Get("/reports/festivals/{id}", h.GetFestivalReport)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/account", h.GetAccount)
		r.Get("/transactions", h.GetTransactions)

		r.Post("/seed", h.SeedDemoData)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
