package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// vectorStore implements driven.VectorStore. Similarity search is a
// brute-force cosine scan over the user's chunks; for per-user invoice
// corpora the row counts stay small enough that an index structure is not
// worth the dependency.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert writes chunks, replacing any existing chunk with the same ID.
func (s *vectorStore) Upsert(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO knowledge_chunks (id, user_id, vendor_name, chunk_type, content, content_hash, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			vendor_name = excluded.vendor_name,
			chunk_type = excluded.chunk_type,
			content = excluded.content,
			content_hash = excluded.content_hash,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if chunk.ID == "" || chunk.UserID == "" {
			return domain.ErrInvalidInput
		}

		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		chunkType, _ := chunk.Metadata["type"].(string)
		contentHash, _ := chunk.Metadata["sha256"].(string)
		embeddingBlob := float32SliceToBytes(chunk.Embedding)

		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.UserID, chunk.VendorName,
			chunkType, chunk.Content, nullString(contentHash), embeddingBlob,
			string(metadataJSON)); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query finds the k nearest chunks to the query embedding within the filter
// scope.
func (s *vectorStore) Query(ctx context.Context, embedding []float32, f driven.ChunkFilter, k int) ([]driven.QueryHit, error) {
	if f.UserID == "" {
		return nil, domain.ErrInvalidInput
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.queryChunks(ctx, f, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []driven.QueryHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, chunkEmbedding, err := scanStoredChunk(rows, true)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.QueryHit{
			Chunk:    *chunk,
			Distance: cosineDistance(embedding, chunkEmbedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns all chunks within the filter scope, without similarity
// ranking.
func (s *vectorStore) Get(ctx context.Context, f driven.ChunkFilter) ([]driven.StoredChunk, error) {
	if f.UserID == "" {
		return nil, domain.ErrInvalidInput
	}

	rows, err := s.queryChunks(ctx, f, false)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []driven.StoredChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, _, err := scanStoredChunk(rows, false)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// Delete removes chunks by ID.
func (s *vectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM knowledge_chunks WHERE id IN ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteUser removes every chunk belonging to a user.
func (s *vectorStore) DeleteUser(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM knowledge_chunks WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("deleting user chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted chunks: %w", err)
	}
	return int(n), nil
}

// Close is a no-op; the parent Store owns the connection.
func (s *vectorStore) Close() error { return nil }

func (s *vectorStore) queryChunks(ctx context.Context, f driven.ChunkFilter, withEmbedding bool) (*sql.Rows, error) {
	cols := "id, content, metadata"
	if withEmbedding {
		cols += ", embedding"
	}

	query := "SELECT " + cols + " FROM knowledge_chunks WHERE user_id = ?"
	args := []any{f.UserID}
	if f.Vendor != "" {
		query += " AND vendor_name = ?"
		args = append(args, f.Vendor)
	}
	if f.Type != "" {
		query += " AND chunk_type = ?"
		args = append(args, f.Type)
	}

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return rows, nil
}

func scanStoredChunk(rows *sql.Rows, withEmbedding bool) (*driven.StoredChunk, []float32, error) {
	var chunk driven.StoredChunk
	var metadataJSON sql.NullString
	var embeddingBlob []byte

	dest := []any{&chunk.ID, &chunk.Content, &metadataJSON}
	if withEmbedding {
		dest = append(dest, &embeddingBlob)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, nil, fmt.Errorf("scanning chunk: %w", err)
	}

	if metadataJSON.Valid && metadataJSON.String != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &chunk.Metadata); err != nil {
			return nil, nil, fmt.Errorf("unmarshalling chunk metadata: %w", err)
		}
	}

	return &chunk, bytesToFloat32Slice(embeddingBlob), nil
}

// cosineDistance computes 1 - cosine similarity. Dimension mismatches and
// zero vectors yield the maximum distance instead of an error.
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
