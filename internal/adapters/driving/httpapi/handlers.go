package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
)

// syncRequest is the body for POST /api/v1/sync and POST /api/v1/retry.
// The refresh token is used for the duration of the request only.
type syncRequest struct {
	UserID       string `json:"user_id"`
	RefreshToken string `json:"refresh_token"`

	// Retry-only scoping fields.
	Vendor     string   `json:"vendor_name,omitempty"`
	FileIDs    []string `json:"file_ids,omitempty"`
	MaxRetries int      `json:"max_retries,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSyncRequest(w, r)
	if !ok {
		return
	}

	report, err := s.services.Syncer.Sync(r.Context(), req.UserID, domain.Credential{RefreshToken: req.RefreshToken})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSyncRequest(w, r)
	if !ok {
		return
	}

	report, err := s.services.Retryer.Retry(r.Context(), req.UserID,
		domain.Credential{RefreshToken: req.RefreshToken},
		driving.RetryOptions{
			Vendor:     req.Vendor,
			FileIDs:    req.FileIDs,
			MaxRetries: req.MaxRetries,
		})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStatusSummary(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	vendor := r.URL.Query().Get("vendor_name")

	summary, err := s.services.Status.Summary(r.Context(), userID, vendor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleStatusClear(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	n, err := s.services.Status.Clear(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "cleared": n})
}

func (s *Server) handleIndexPurge(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	n, err := s.services.Status.PurgeIndex(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "purged": n})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	period := r.URL.Query().Get("period")

	report, err := s.services.Analytics.Report(r.Context(), userID, period)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := q.Get("user_id")
	vendor := q.Get("vendor_name")
	query := q.Get("q")
	k, _ := strconv.Atoi(q.Get("k"))

	sources, err := s.services.Searcher.Search(r.Context(), userID, vendor, query, k)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

func decodeSyncRequest(w http.ResponseWriter, r *http.Request) (*syncRequest, bool) {
	var req syncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return nil, false
	}
	if req.UserID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "user_id is required"})
		return nil, false
	}
	return &req, true
}

// writeError maps domain sentinels to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrCredentialMissing):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, domain.ErrEmbeddingUnavailable), errors.Is(err, domain.ErrExtractorUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
