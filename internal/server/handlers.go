package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/branddash/storesync/internal/db"
	"github.com/branddash/storesync/internal/extract"
)

// maxWebhookPayload bounds intake bodies; catalog webhooks are far
// smaller than this.
const maxWebhookPayload = 1 << 20

type storeResponse struct {
	ID              string       `json:"id"`
	StoreName       string       `json:"store_name"`
	Platform        string       `json:"platform"`
	ShopDomain      string       `json:"shop_domain"`
	SyncStatus      string       `json:"sync_status"`
	AutoSyncEnabled bool         `json:"auto_sync_enabled"`
	SyncFrequency   string       `json:"sync_frequency"`
	LastSync        *time.Time   `json:"last_sync"`
	Counts          countsInfo   `json:"counts"`
	LatestJob       *jobResponse `json:"latest_job"`
}

type countsInfo struct {
	Products    int `json:"products"`
	Collections int `json:"collections"`
	Pages       int `json:"pages"`
	Discounts   int `json:"discounts"`
}

type jobResponse struct {
	ID             string     `json:"id"`
	StoreID        string     `json:"store_id"`
	JobKind        string     `json:"job_kind"`
	Status         string     `json:"status"`
	Progress       int        `json:"progress"`
	TotalItems     int        `json:"total_items"`
	ItemsProcessed int        `json:"items_processed"`
	ErrorMessage   *string    `json:"error_message"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

type subscriptionResponse struct {
	Topic             string `json:"topic"`
	ExternalWebhookID string `json:"external_webhook_id"`
	Address           string `json:"address"`
	Status            string `json:"status"`
}

func jobToResponse(job *db.ExtractionJob) jobResponse {
	return jobResponse{
		ID:             job.ID,
		StoreID:        job.StoreID,
		JobKind:        job.JobKind,
		Status:         job.Status,
		Progress:       job.Progress,
		TotalItems:     job.TotalItems,
		ItemsProcessed: job.ItemsProcessed,
		ErrorMessage:   job.ErrorMessage,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
		CreatedAt:      job.CreatedAt,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetStore(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	store, err := s.db.GetStore(r.Context(), storeID)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, "store not found")
			return
		}
		s.logger.Error("failed to load store", "store_id", storeID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	counts, err := s.db.StoreResourceCounts(r.Context(), storeID)
	if err != nil {
		s.logger.Error("failed to count resources", "store_id", storeID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	var latest *jobResponse
	job, err := s.db.LatestExtractionJob(r.Context(), storeID)
	switch {
	case err == nil:
		resp := jobToResponse(job)
		latest = &resp
	case db.IsNotFound(err):
		// store has never been synced
	default:
		s.logger.Error("failed to load latest job", "store_id", storeID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, storeResponse{
		ID:              store.ID,
		StoreName:       store.StoreName,
		Platform:        store.Platform,
		ShopDomain:      store.ShopDomain,
		SyncStatus:      store.SyncStatus,
		AutoSyncEnabled: store.AutoSyncEnabled,
		SyncFrequency:   store.SyncFrequency,
		LastSync:        store.LastSync,
		Counts: countsInfo{
			Products:    counts.Products,
			Collections: counts.Collections,
			Pages:       counts.Pages,
			Discounts:   counts.Discounts,
		},
		LatestJob: latest,
	})
}

// handleTriggerSync starts a full extraction in the background. The
// store and its credentials are checked before accepting so the caller
// gets an immediate error instead of a silently failed job.
func (s *Server) handleTriggerSync(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	store, err := s.db.GetStore(r.Context(), storeID)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, "store not found")
			return
		}
		s.logger.Error("failed to load store", "store_id", storeID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if store.Platform != db.PlatformShopify || store.ShopDomain == "" || store.AccessToken == "" {
		s.writeError(w, http.StatusUnprocessableEntity, "store is not connected to shopify")
		return
	}

	go func() {
		if err := s.extractor.ExtractStoreData(s.baseCtx, storeID); err != nil {
			// The job row already records the failure.
			s.logger.Error("background sync failed", "store_id", storeID, "error", err)
		}
	}()

	s.writeJSON(w, http.StatusAccepted, map[string]string{
		"store_id": storeID,
		"status":   "accepted",
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := s.db.GetExtractionJob(r.Context(), jobID)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("failed to load job", "job_id", jobID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.writeJSON(w, http.StatusOK, jobToResponse(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	jobs, err := s.db.ListExtractionJobs(r.Context(), storeID, limit)
	if err != nil {
		s.logger.Error("failed to list jobs", "store_id", storeID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]jobResponse, len(jobs))
	for i := range jobs {
		out[i] = jobToResponse(&jobs[i])
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": out})
}

func (s *Server) handleSetupWebhooks(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")

	err := s.registrar.SetupWebhooks(r.Context(), storeID)
	switch {
	case err == nil:
	case db.IsNotFound(err):
		s.writeError(w, http.StatusNotFound, "store not found")
		return
	case errors.Is(err, extract.ErrNotConnected):
		s.writeError(w, http.StatusUnprocessableEntity, "store is not connected to shopify")
		return
	default:
		s.logger.Error("webhook setup failed", "store_id", storeID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.listWebhooks(w, r, storeID)
}

func (s *Server) handleListWebhooks(w http.ResponseWriter, r *http.Request) {
	s.listWebhooks(w, r, chi.URLParam(r, "storeID"))
}

func (s *Server) listWebhooks(w http.ResponseWriter, r *http.Request, storeID string) {
	subs, err := s.db.ListWebhookSubscriptions(r.Context(), storeID)
	if err != nil {
		s.logger.Error("failed to list subscriptions", "store_id", storeID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]subscriptionResponse, len(subs))
	for i, sub := range subs {
		out[i] = subscriptionResponse{
			Topic:             sub.Topic,
			ExternalWebhookID: sub.ExternalWebhookID,
			Address:           sub.Address,
			Status:            sub.Status,
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"webhooks": out})
}

// handleWebhookIntake stores an incoming change notification for later
// processing. The sender is identified by the shop domain header it
// carries.
func (s *Server) handleWebhookIntake(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "*")
	if topic == "" {
		topic = r.Header.Get("X-Shopify-Topic")
	}

	shopDomain := r.Header.Get("X-Shopify-Shop-Domain")
	if shopDomain == "" {
		s.writeError(w, http.StatusBadRequest, "missing shop domain header")
		return
	}

	store, err := s.db.GetStoreByDomain(r.Context(), shopDomain)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeError(w, http.StatusNotFound, "unknown shop domain")
			return
		}
		s.logger.Error("failed to resolve shop domain", "shop_domain", shopDomain, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookPayload))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "unreadable payload")
		return
	}

	event := &db.WebhookEvent{
		StoreID:    store.ID,
		Topic:      topic,
		ShopDomain: shopDomain,
		Payload:    payload,
	}
	if err := s.db.InsertWebhookEvent(r.Context(), event); err != nil {
		s.logger.Error("failed to store webhook event", "topic", topic, "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info("webhook received", "store_id", store.ID, "topic", topic)
	s.writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
