// Package server exposes the sync engine over HTTP: sync triggers, job
// and store inspection, webhook management and the webhook intake.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/branddash/storesync/internal/db"
)

// Syncer runs catalog extractions
type Syncer interface {
	ExtractStoreData(ctx context.Context, storeID string) error
}

// WebhookManager registers webhook subscriptions
type WebhookManager interface {
	SetupWebhooks(ctx context.Context, storeID string) error
}

// Server handles the HTTP API
type Server struct {
	db        *db.DB
	extractor Syncer
	registrar WebhookManager
	logger    *slog.Logger

	// base context for fire-and-forget syncs, so they outlive the
	// triggering request but stop on shutdown
	baseCtx context.Context
}

// New creates a server. baseCtx is the process lifetime: cancelling it
// stops fire-and-forget syncs started by the sync endpoint.
func New(baseCtx context.Context, database *db.DB, extractor Syncer, registrar WebhookManager, logger *slog.Logger) *Server {
	return &Server{
		db:        database,
		extractor: extractor,
		registrar: registrar,
		logger:    logger,
		baseCtx:   baseCtx,
	}
}

// Router builds the HTTP routes
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.Get("/", s.handleGetStore)
			r.Post("/sync", s.handleTriggerSync)
			r.Get("/jobs", s.handleListJobs)
			r.Post("/webhooks", s.handleSetupWebhooks)
			r.Get("/webhooks", s.handleListWebhooks)
		})

		r.Get("/jobs/{jobID}", s.handleGetJob)

		// Topics contain a slash (products/update), so the intake
		// matches the remaining path as a wildcard.
		r.Post("/shopify/webhooks/*", s.handleWebhookIntake)
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
