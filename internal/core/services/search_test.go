package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoriq/vendoriq/internal/adapters/driven/storage/memory"
	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// directionEmbedder maps known texts to fixed unit vectors so similarity
// ordering in tests is explicit.
type directionEmbedder struct {
	vectors map[string][]float32
}

func (d *directionEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := d.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (d *directionEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		v, _ := d.Embed(ctx, text)
		out = append(out, v)
	}
	return out, nil
}

func (d *directionEmbedder) Dimensions() int   { return 3 }
func (d *directionEmbedder) ModelName() string { return "direction-embed" }
func (d *directionEmbedder) Close() error      { return nil }

func searchChunk(userID, vendor, invoiceNumber string, embedding []float32) domain.KnowledgeChunk {
	chunk := domain.BuildInvoiceChunk(userID, domain.InvoiceRecord{
		VendorName:    vendor,
		InvoiceNumber: invoiceNumber,
		InvoiceDate:   "2026-01-10",
		TotalAmount:   "100",
	})
	chunk.Embedding = embedding
	return chunk
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()
	require.NoError(t, vectors.Upsert(ctx, []domain.KnowledgeChunk{
		searchChunk("user-1", "Acme", "INV-001", []float32{1, 0, 0}),
		searchChunk("user-1", "Globex", "INV-101", []float32{0, 1, 0}),
	}))

	embedder := &directionEmbedder{vectors: map[string][]float32{
		"acme invoices": {1, 0, 0},
	}}
	svc := NewSearchService(vectors, embedder)

	sources, err := svc.Search(ctx, "user-1", "", "acme invoices", 5)
	require.NoError(t, err)
	require.Len(t, sources, 2)

	assert.Equal(t, 1, sources[0].Rank)
	assert.Equal(t, "Acme", sources[0].VendorName)
	assert.InDelta(t, 1.0, sources[0].Similarity, 1e-9, "exact direction match")
	assert.Equal(t, "INV-001", sources[0].InvoiceNumber)
	assert.Equal(t, 100.0, sources[0].TotalAmount)

	assert.Equal(t, 2, sources[1].Rank)
	assert.Less(t, sources[1].Similarity, sources[0].Similarity)
}

func TestSearch_VendorScope(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()
	require.NoError(t, vectors.Upsert(ctx, []domain.KnowledgeChunk{
		searchChunk("user-1", "Acme", "INV-001", []float32{1, 0, 0}),
		searchChunk("user-1", "Globex", "INV-101", []float32{1, 0, 0}),
	}))

	svc := NewSearchService(vectors, &directionEmbedder{})

	sources, err := svc.Search(ctx, "user-1", "Globex", "invoices", 5)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Globex", sources[0].VendorName)
}

func TestSearch_UserIsolation(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()
	require.NoError(t, vectors.Upsert(ctx, []domain.KnowledgeChunk{
		searchChunk("user-2", "Acme", "INV-001", []float32{1, 0, 0}),
	}))

	svc := NewSearchService(vectors, &directionEmbedder{})

	sources, err := svc.Search(ctx, "user-1", "", "invoices", 5)
	require.NoError(t, err)
	assert.Empty(t, sources, "another user's chunks are invisible")
}

func TestSearch_ExcerptTruncation(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()

	chunk := searchChunk("user-1", "Acme", "INV-001", []float32{1, 0, 0})
	chunk.Content = strings.Repeat("x", 500)
	require.NoError(t, vectors.Upsert(ctx, []domain.KnowledgeChunk{chunk}))

	sources, err := NewSearchService(vectors, &directionEmbedder{}).Search(ctx, "user-1", "", "invoices", 5)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Len(t, sources[0].Excerpt, excerptLimit+3)
	assert.True(t, strings.HasSuffix(sources[0].Excerpt, "..."))
}

func TestSearch_Validation(t *testing.T) {
	svc := NewSearchService(memory.NewVectorStore(), &directionEmbedder{})

	_, err := svc.Search(context.Background(), "", "", "query", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Search(context.Background(), "user-1", "", "", 5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	svc = NewSearchService(memory.NewVectorStore(), nil)
	_, err = svc.Search(context.Background(), "user-1", "", "query", 5)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}
