package driven

import (
	"context"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// ChunkFilter scopes vector store reads. UserID is mandatory on every read
// path: cross-user leakage is a correctness bug, and adapters reject an
// empty user ID with domain.ErrInvalidInput.
type ChunkFilter struct {
	UserID string
	Vendor string
	Type   string
}

// StoredChunk is a chunk as read back from the vector store.
type StoredChunk struct {
	ID       string
	Content  string
	Metadata map[string]any
}

// QueryHit is one similarity search result.
type QueryHit struct {
	Chunk StoredChunk

	// Distance is the cosine distance to the query vector (0 = identical).
	Distance float64
}

// VectorStore stores knowledge chunks with their embeddings and serves
// similarity search and metadata scans. Upsert is add-if-absent,
// replace-if-present by chunk ID.
type VectorStore interface {
	// Upsert writes chunks, replacing any existing chunk with the same ID.
	Upsert(ctx context.Context, chunks []domain.KnowledgeChunk) error

	// Query finds the k nearest chunks to the query embedding within the
	// filter scope.
	Query(ctx context.Context, embedding []float32, f ChunkFilter, k int) ([]QueryHit, error)

	// Get returns all chunks within the filter scope, without similarity
	// ranking.
	Get(ctx context.Context, f ChunkFilter) ([]StoredChunk, error)

	// Delete removes chunks by ID.
	Delete(ctx context.Context, ids []string) error

	// DeleteUser removes every chunk belonging to a user and returns how
	// many were deleted.
	DeleteUser(ctx context.Context, userID string) (int, error)

	// Close releases resources.
	Close() error
}
