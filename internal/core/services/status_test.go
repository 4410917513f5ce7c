package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoriq/vendoriq/internal/adapters/driven/storage/memory"
	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

func TestSummary_CountsAndRetryable(t *testing.T) {
	ctx := context.Background()
	statuses := memory.NewStatusStore()

	done := domain.NewDocumentStatus("user-1", "Acme", "f1", "inv-001.pdf")
	done.MarkCompleted()
	require.NoError(t, statuses.Save(ctx, done))

	retryable := domain.NewDocumentStatus("user-1", "Acme", "f2", "inv-002.pdf")
	retryable.MarkOCRProcessing()
	retryable.MarkOCRFailed("timeout", "OCR_ERROR", true)
	require.NoError(t, statuses.Save(ctx, retryable))

	exhausted := domain.NewDocumentStatus("user-1", "Globex", "g1", "inv-101.pdf")
	for i := 0; i < 3; i++ {
		exhausted.MarkOCRProcessing()
		exhausted.MarkOCRFailed("timeout", "OCR_ERROR", true)
	}
	require.NoError(t, statuses.Save(ctx, exhausted))

	svc := NewStatusService(statuses, memory.NewVectorStore(), 3)
	summary, err := svc.Summary(ctx, "user-1", "")
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[string(domain.StatusCompleted)])
	assert.Equal(t, 2, summary.ByStatus[string(domain.StatusOCRFailed)])
	assert.Equal(t, 1, summary.Retryable, "the exhausted document is not counted")
}

func TestSummary_VendorScope(t *testing.T) {
	ctx := context.Background()
	statuses := memory.NewStatusStore()
	require.NoError(t, statuses.Save(ctx, domain.NewDocumentStatus("user-1", "Acme", "f1", "a.pdf")))
	require.NoError(t, statuses.Save(ctx, domain.NewDocumentStatus("user-1", "Globex", "g1", "b.pdf")))

	summary, err := NewStatusService(statuses, memory.NewVectorStore(), 0).Summary(ctx, "user-1", "Acme")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, "Acme", summary.Vendor)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	statuses := memory.NewStatusStore()
	require.NoError(t, statuses.Save(ctx, domain.NewDocumentStatus("user-1", "Acme", "f1", "a.pdf")))
	require.NoError(t, statuses.Save(ctx, domain.NewDocumentStatus("user-1", "Acme", "f2", "b.pdf")))
	require.NoError(t, statuses.Save(ctx, domain.NewDocumentStatus("user-2", "Acme", "f1", "a.pdf")))

	svc := NewStatusService(statuses, memory.NewVectorStore(), 0)
	n, err := svc.Clear(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The other user's records survive.
	summary, err := svc.Summary(ctx, "user-2", "")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
}

func TestPurgeIndex(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()
	require.NoError(t, vectors.Upsert(ctx, []domain.KnowledgeChunk{
		{ID: "c1", UserID: "user-1", Content: "a"},
		{ID: "c2", UserID: "user-1", Content: "b"},
		{ID: "c3", UserID: "user-2", Content: "c"},
	}))

	svc := NewStatusService(memory.NewStatusStore(), vectors, 0)
	n, err := svc.PurgeIndex(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The other user's chunks survive.
	left, err := vectors.Get(ctx, driven.ChunkFilter{UserID: "user-2"})
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestStatusService_Validation(t *testing.T) {
	svc := NewStatusService(memory.NewStatusStore(), memory.NewVectorStore(), 0)

	_, err := svc.Summary(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Clear(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.PurgeIndex(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
