/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend
  6. Metrics:    Prometheus counters and histograms

AUTHENTICATED PIPELINE:
  Routes under the authenticated group resolve the acting member from the
  X-Actor header and run the snapshot-ensure step before the handler: the
  first request processed after midnight UTC freezes yesterday's balances.

ROUTE GROUPS:
  /api/*      JSON API (see handlers.go for the full listing)
  /metrics    Prometheus scrape endpoint
  /healthz    Liveness probe

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clubtab/clubtab/ledger"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor"},
		AllowCredentials: true,
	}))
	r.Use(metricsMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Public routes: registration and credential flows
		r.Post("/register", h.Register)
		r.Post("/password", h.SetPassword)
		r.Post("/password/reset", h.ResetPassword)
		r.Post("/login", h.Login)

		// Everything else requires an actor and runs the snapshot step
		r.Group(func(r chi.Router) {
			r.Use(h.requireActor)
			r.Use(h.ensureSnapshot)

			r.Post("/purchase", h.Purchase)
			r.Post("/payment", h.Payment)
			r.Post("/transfer", h.Transfer)

			r.Route("/events", func(r chi.Router) {
				r.Get("/{id}", h.GetEvent)
				r.Delete("/{id}", h.DeleteEvent)
			})

			r.Get("/ledger", h.LedgerRange)
			r.Get("/ledger.csv", h.LedgerCSV)
			r.Get("/payments", h.Payments)

			r.Route("/members", func(r chi.Router) {
				r.Get("/", h.ListMembers)
				r.Get("/pending", h.PendingMembers)
				r.Get("/{email}", h.GetMember)
				r.Put("/{email}", h.UpdateMember)
				r.Post("/{email}/enable", h.EnableMember)
				r.Post("/{email}/disable", h.DisableMember)
				r.Delete("/{email}", h.DeleteMember)
			})
			r.Get("/members.csv", h.MembersCSV)

			r.Get("/balance", h.MyBalance)
			r.Get("/balance/{account}", h.AccountBalance)
			r.Get("/balances", h.AllBalances)
			r.Get("/activity", h.Activity)
			r.Get("/snapshots", h.SnapshotRange)
			r.Get("/snapshots.csv", h.SnapshotCSV)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.Healthz)

	return r
}

// requireActor resolves the acting member from the X-Actor header. Pending
// accounts have no access; disabled accounts are rejected outright.
func (h *Handler) requireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email := r.Header.Get("X-Actor")
		if email == "" {
			writeError(w, http.StatusUnauthorized, "missing X-Actor header", nil)
			return
		}
		m, err := h.Members.Lookup(r.Context(), email)
		if err != nil {
			if ledger.IsNotFound(err) {
				writeError(w, http.StatusUnauthorized, "unknown member", nil)
				return
			}
			h.writeDomainError(w, err)
			return
		}
		if m.Status != ledger.StatusEnabled {
			writeError(w, http.StatusForbidden, "member account is not enabled", nil)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey, m)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensureSnapshot runs the lazy daily snapshot step. A failure here must not
// take down the member's request; it is logged and counted instead.
func (h *Handler) ensureSnapshot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.Snapshots.EnsureDaily(r.Context(), time.Now().UTC()); err != nil {
			snapshotEnsureFailures.Inc()
			slog.Error("snapshot ensure failed", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}
