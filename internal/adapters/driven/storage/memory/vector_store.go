package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// VectorStore is an in-memory driven.VectorStore with brute-force cosine
// search. It is safe for concurrent use and intended for tests and ephemeral
// runs.
type VectorStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.KnowledgeChunk
}

var _ driven.VectorStore = (*VectorStore)(nil)

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{chunks: make(map[string]domain.KnowledgeChunk)}
}

// Upsert writes chunks, replacing any existing chunk with the same ID.
func (s *VectorStore) Upsert(_ context.Context, chunks []domain.KnowledgeChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chunk := range chunks {
		if chunk.ID == "" || chunk.UserID == "" {
			return domain.ErrInvalidInput
		}
		s.chunks[chunk.ID] = chunk
	}
	return nil
}

// Query finds the k nearest chunks within the filter scope.
func (s *VectorStore) Query(_ context.Context, embedding []float32, f driven.ChunkFilter, k int) ([]driven.QueryHit, error) {
	if f.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var hits []driven.QueryHit
	for _, chunk := range s.chunks {
		if !matches(chunk, f) {
			continue
		}
		hits = append(hits, driven.QueryHit{
			Chunk:    toStored(chunk),
			Distance: cosineDistance(embedding, chunk.Embedding),
		})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns all chunks within the filter scope.
func (s *VectorStore) Get(_ context.Context, f driven.ChunkFilter) ([]driven.StoredChunk, error) {
	if f.UserID == "" {
		return nil, domain.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []driven.StoredChunk
	for _, chunk := range s.chunks {
		if matches(chunk, f) {
			out = append(out, toStored(chunk))
		}
	}
	return out, nil
}

// Delete removes chunks by ID.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.chunks, id)
	}
	return nil
}

// DeleteUser removes every chunk belonging to a user.
func (s *VectorStore) DeleteUser(_ context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, chunk := range s.chunks {
		if chunk.UserID == userID {
			delete(s.chunks, id)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *VectorStore) Close() error { return nil }

func matches(chunk domain.KnowledgeChunk, f driven.ChunkFilter) bool {
	if chunk.UserID != f.UserID {
		return false
	}
	if f.Vendor != "" && chunk.VendorName != f.Vendor {
		return false
	}
	if f.Type != "" {
		t, _ := chunk.Metadata["type"].(string)
		if t != f.Type {
			return false
		}
	}
	return true
}

func toStored(chunk domain.KnowledgeChunk) driven.StoredChunk {
	meta := make(map[string]any, len(chunk.Metadata))
	for k, v := range chunk.Metadata {
		meta[k] = v
	}
	return driven.StoredChunk{ID: chunk.ID, Content: chunk.Content, Metadata: meta}
}

func cosineDistance(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
