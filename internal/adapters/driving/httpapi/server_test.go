package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
)

type stubSyncer struct {
	report *driving.SyncReport
	err    error
	gotTok string
}

func (s *stubSyncer) Sync(_ context.Context, userID string, cred domain.Credential) (*driving.SyncReport, error) {
	s.gotTok = cred.RefreshToken
	if s.err != nil {
		return nil, s.err
	}
	report := *s.report
	report.UserID = userID
	return &report, nil
}

type stubRetryer struct {
	report  *driving.RetryReport
	gotOpts driving.RetryOptions
}

func (s *stubRetryer) Retry(_ context.Context, userID string, _ domain.Credential, opts driving.RetryOptions) (*driving.RetryReport, error) {
	s.gotOpts = opts
	report := *s.report
	report.UserID = userID
	return &report, nil
}

type stubStatus struct {
	summary *driving.StatusSummary
	cleared int
	purged  int
	err     error
}

func (s *stubStatus) Summary(_ context.Context, userID, _ string) (*driving.StatusSummary, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.summary, s.err
}

func (s *stubStatus) Clear(_ context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	return s.cleared, s.err
}

func (s *stubStatus) PurgeIndex(_ context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	return s.purged, s.err
}

type stubAnalytics struct{ report *driving.AnalyticsReport }

func (s *stubAnalytics) Report(_ context.Context, userID, _ string) (*driving.AnalyticsReport, error) {
	if userID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.report, nil
}

type stubSearcher struct {
	sources []driving.SearchSource
	err     error
}

func (s *stubSearcher) Search(_ context.Context, userID, _, query string, _ int) ([]driving.SearchSource, error) {
	if userID == "" || query == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.sources, s.err
}

func newTestServer(syncer *stubSyncer) *Server {
	return NewServer(":0", Services{
		Syncer:  syncer,
		Retryer: &stubRetryer{report: &driving.RetryReport{Retried: 2, Exhausted: 1}},
		Status: &stubStatus{
			summary: &driving.StatusSummary{Total: 3, ByStatus: map[string]int{"COMPLETED": 3}},
			cleared: 3,
			purged:  5,
		},
		Analytics: &stubAnalytics{report: &driving.AnalyticsReport{TotalSpend: 225}},
		Searcher:  &stubSearcher{sources: []driving.SearchSource{{Rank: 1, VendorName: "Acme"}}},
	})
}

func doRequest(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSyncEndpoint(t *testing.T) {
	syncer := &stubSyncer{report: &driving.SyncReport{RunID: "run-1", DocumentsIndexed: 4}}
	server := newTestServer(syncer)

	rec := doRequest(t, server, http.MethodPost, "/api/v1/sync",
		`{"user_id": "user-1", "refresh_token": "tok"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var report driving.SyncReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "run-1", report.RunID)
	assert.Equal(t, "user-1", report.UserID)
	assert.Equal(t, 4, report.DocumentsIndexed)
	assert.Equal(t, "tok", syncer.gotTok)
}

func TestSyncEndpoint_Validation(t *testing.T) {
	server := newTestServer(&stubSyncer{report: &driving.SyncReport{}})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/sync", `{"refresh_token": "tok"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, server, http.MethodPost, "/api/v1/sync", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"credential missing", domain.ErrCredentialMissing, http.StatusUnauthorized},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
		{"extractor unavailable", domain.ErrExtractorUnavailable, http.StatusServiceUnavailable},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"internal", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(&stubSyncer{err: tt.err})
			rec := doRequest(t, server, http.MethodPost, "/api/v1/sync",
				`{"user_id": "user-1", "refresh_token": "tok"}`)
			assert.Equal(t, tt.code, rec.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestRetryEndpoint_PassesOptions(t *testing.T) {
	retryer := &stubRetryer{report: &driving.RetryReport{Retried: 1}}
	server := NewServer(":0", Services{
		Syncer:    &stubSyncer{report: &driving.SyncReport{}},
		Retryer:   retryer,
		Status:    &stubStatus{},
		Analytics: &stubAnalytics{},
		Searcher:  &stubSearcher{},
	})

	rec := doRequest(t, server, http.MethodPost, "/api/v1/retry",
		`{"user_id": "user-1", "refresh_token": "tok", "vendor_name": "Acme", "file_ids": ["f1"], "max_retries": 5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", retryer.gotOpts.Vendor)
	assert.Equal(t, []string{"f1"}, retryer.gotOpts.FileIDs)
	assert.Equal(t, 5, retryer.gotOpts.MaxRetries)
}

func TestStatusSummaryEndpoint(t *testing.T) {
	server := newTestServer(&stubSyncer{report: &driving.SyncReport{}})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/status/summary?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var summary driving.StatusSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 3, summary.Total)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/status/summary", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing user_id")
}

func TestStatusClearEndpoint(t *testing.T) {
	server := newTestServer(&stubSyncer{report: &driving.SyncReport{}})

	rec := doRequest(t, server, http.MethodDelete, "/api/v1/status?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp["cleared"])
}

func TestIndexPurgeEndpoint(t *testing.T) {
	server := newTestServer(&stubSyncer{report: &driving.SyncReport{}})

	rec := doRequest(t, server, http.MethodDelete, "/api/v1/index?user_id=user-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(5), resp["purged"])

	rec = doRequest(t, server, http.MethodDelete, "/api/v1/index", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing user_id")
}

func TestAnalyticsEndpoint(t *testing.T) {
	server := newTestServer(&stubSyncer{report: &driving.SyncReport{}})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/analytics?user_id=user-1&period=month", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report driving.AnalyticsReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 225.0, report.TotalSpend)
}

func TestSearchEndpoint(t *testing.T) {
	server := newTestServer(&stubSyncer{report: &driving.SyncReport{}})

	rec := doRequest(t, server, http.MethodGet, "/api/v1/search?user_id=user-1&q=acme", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sources []driving.SearchSource `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "Acme", resp.Sources[0].VendorName)

	rec = doRequest(t, server, http.MethodGet, "/api/v1/search?user_id=user-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "missing query")
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(&stubSyncer{report: &driving.SyncReport{}})
	rec := doRequest(t, server, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
