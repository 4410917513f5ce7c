package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.HandlerFunc, cfg Config) *EmbeddingService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL
	svc, err := NewEmbeddingService(cfg)
	require.NoError(t, err)
	return svc
}

func TestEmbedBatch_OrdersByIndex(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Zero(t, req.Dimensions, "no override requested")

		// Results arrive out of order; the client must place them by index.
		w.Write([]byte(`{"data":[
			{"index":1,"embedding":[0.5,0.5]},
			{"index":0,"embedding":[1,0]}
		]}`))
	}, Config{})

	vectors, err := svc.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, []float32{0.5, 0.5}, vectors[1])
}

func TestEmbedBatch_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[],"error":{"message":"model overloaded"}}`))
	}, Config{})

	_, err := svc.EmbedBatch(context.Background(), []string{"alpha"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestEmbedBatch_CountMismatch(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":[{"index":0,"embedding":[1]}]}`))
	}, Config{})

	_, err := svc.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	assert.Error(t, err)
}

func TestDimensionsOverride(t *testing.T) {
	var gotDims int
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotDims = req.Dimensions
		w.Write([]byte(`{"data":[{"index":0,"embedding":[1,0,0]}]}`))
	}, Config{Model: "text-embedding-3-large", Dimensions: 256})

	_, err := svc.Embed(context.Background(), "alpha")
	require.NoError(t, err)
	assert.Equal(t, 256, gotDims)
	assert.Equal(t, 256, svc.Dimensions())
}

func TestDimensionsOverride_IgnoredForLegacyModel(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "k", Model: "text-embedding-ada-002", Dimensions: 256})
	require.NoError(t, err)
	assert.Zero(t, svc.requestDims, "ada does not accept a dimensions parameter")
}

func TestNewEmbeddingService_RequiresAPIKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.Error(t, err)
}
