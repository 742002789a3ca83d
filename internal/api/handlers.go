package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/pdplab/amazon-pdp-scraper/internal/models"
	"github.com/pdplab/amazon-pdp-scraper/internal/scraper"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestID tags every request with a uuid for log correlation.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

type Handlers struct {
	scraper scraper.Scraper
	logger  *slog.Logger
}

func NewHandlers(s scraper.Scraper, logger *slog.Logger) *Handlers {
	return &Handlers{
		scraper: s,
		logger:  logger,
	}
}

type ScrapeRequest struct {
	ASIN string `json:"asin"`
}

type ScrapeResponse struct {
	Record *models.ProductRecord `json:"record,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// Scrape runs the full pipeline for one ASIN and returns the terminal record.
// A page-level failure is a 200 with an error-status record; only a broken
// scraper backend is a 5xx.
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ASIN == "" {
		h.respondError(w, http.StatusBadRequest, "asin is required")
		return
	}

	rec, err := h.scraper.Scrape(r.Context(), req.ASIN)
	if err != nil {
		h.logger.Error("scrape failed", "asin", req.ASIN,
			"request_id", r.Context().Value(requestIDKey), "error", err)
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, ScrapeResponse{Record: rec})
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, ScrapeResponse{Error: msg})
}
