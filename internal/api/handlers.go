package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crawlkit/shopscraper/internal/crawler"
	"github.com/crawlkit/shopscraper/internal/models"
	"github.com/crawlkit/shopscraper/internal/queue"
)

type Handlers struct {
	fetcher   crawler.Fetcher
	extractor crawler.Extractor
	tasks     queue.Queue
	jobs      *JobStore
	logger    *slog.Logger
}

func NewHandlers(fetcher crawler.Fetcher, extractor crawler.Extractor, tasks queue.Queue, jobs *JobStore, logger *slog.Logger) *Handlers {
	return &Handlers{
		fetcher:   fetcher,
		extractor: extractor,
		tasks:     tasks,
		jobs:      jobs,
		logger:    logger,
	}
}

type ExtractRequest struct {
	URL string `json:"url"`
}

// Extract handles synchronous single-page extraction.
func (h *Handlers) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		h.respondError(w, http.StatusBadRequest, "url is required")
		return
	}

	page, release, err := h.fetcher.Fetch(r.Context(), req.URL)
	if err != nil {
		h.logger.Error("failed to fetch page", "url", req.URL, "error", err)
		h.respondJSON(w, http.StatusBadGateway, models.ScrapeResult{
			Success: false,
			Error:   err.Error(),
		})
		return
	}
	defer release()

	product, err := h.extractor.Extract(r.Context(), page)
	if err != nil {
		h.logger.Error("failed to extract", "url", req.URL, "error", err)
		h.respondJSON(w, http.StatusBadGateway, models.ScrapeResult{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	h.respondJSON(w, http.StatusOK, models.ScrapeResult{
		Product: product,
		Success: true,
	})
}

type CreateJobRequest struct {
	URLs []string `json:"urls"`
}

type CreateJobResponse struct {
	JobID  string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Total  int       `json:"total"`
}

// CreateJob enqueues a batch of URLs for asynchronous extraction.
func (h *Handlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.URLs) == 0 {
		h.respondError(w, http.StatusBadRequest, "urls is required")
		return
	}

	job := h.jobs.Create(len(req.URLs))

	for _, rawURL := range req.URLs {
		task := &queue.Task{
			ID:        uuid.NewString(),
			URL:       rawURL,
			JobID:     job.ID,
			CreatedAt: time.Now(),
		}
		if err := h.tasks.Push(r.Context(), task); err != nil {
			h.logger.Error("failed to enqueue task", "url", rawURL, "error", err)
			h.respondError(w, http.StatusInternalServerError, "failed to enqueue tasks")
			return
		}
	}

	h.respondJSON(w, http.StatusCreated, CreateJobResponse{
		JobID:  job.ID,
		Status: job.Status,
		Total:  job.Total,
	})
}

// GetJob returns one job with its accumulated products.
func (h *Handlers) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		h.respondError(w, http.StatusBadRequest, "job ID is required")
		return
	}

	job, ok := h.jobs.Get(jobID)
	if !ok {
		h.respondError(w, http.StatusNotFound, "job not found")
		return
	}

	h.respondJSON(w, http.StatusOK, job)
}

// ListJobs returns every known job.
func (h *Handlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.jobs.List())
}

// Health reports liveness and the current queue depth.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	size, err := h.tasks.Size(r.Context())
	health := map[string]any{
		"status":     "ok",
		"queue_size": size,
	}
	if err != nil {
		health["status"] = "degraded"
		health["error"] = err.Error()
	}
	h.respondJSON(w, http.StatusOK, health)
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
