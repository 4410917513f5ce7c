package services

import (
	"context"
	"fmt"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/logger"
)

// IndexSummary reports what one indexing pass actually wrote.
type IndexSummary struct {
	RecordsIndexed  int
	RecordsSkipped  int
	ChunksUpserted  int
	VendorSummaries int
}

// IncrementalIndexer maintains the per-user knowledge index. It is
// hash-driven: a record whose content hash is already present in the index
// is skipped, so re-indexing an unchanged corpus writes nothing.
type IncrementalIndexer struct {
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
}

// NewIncrementalIndexer creates the indexer service.
func NewIncrementalIndexer(vectors driven.VectorStore, embedder driven.EmbeddingService) *IncrementalIndexer {
	return &IncrementalIndexer{vectors: vectors, embedder: embedder}
}

var _ recordIndexer = (*IncrementalIndexer)(nil)

// IndexVendorRecords indexes the given vendors' record lists for one user.
// For each vendor, records whose content hash is not yet indexed get a fresh
// invoice chunk; if at least one record is new the vendor's summary chunk is
// rebuilt from the FULL record list, so aggregates never go stale.
func (ix *IncrementalIndexer) IndexVendorRecords(
	ctx context.Context,
	userID string,
	vendors []domain.VendorRecords,
) (*IndexSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("index: %w: empty user id", domain.ErrInvalidInput)
	}
	if ix.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	indexed, err := ix.indexedHashes(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("index: scan existing hashes: %w", err)
	}

	summary := &IndexSummary{}
	for _, vendor := range vendors {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		var chunks []domain.KnowledgeChunk
		newCount := 0
		for i := range vendor.Records {
			rec := vendor.Records[i]
			if rec.SHA256 != "" && indexed[rec.SHA256] {
				summary.RecordsSkipped++
				continue
			}
			chunks = append(chunks, domain.BuildInvoiceChunk(userID, rec))
			if rec.SHA256 != "" {
				indexed[rec.SHA256] = true
			}
			newCount++
		}

		if newCount == 0 {
			logger.Debug("Vendor %s: nothing new to index", vendor.VendorName)
			continue
		}

		chunks = append(chunks, domain.BuildVendorSummaryChunk(userID, vendor))
		if err := ix.embedAndUpsert(ctx, chunks); err != nil {
			return summary, fmt.Errorf("index vendor %s: %w", vendor.VendorName, err)
		}

		summary.RecordsIndexed += newCount
		summary.ChunksUpserted += len(chunks)
		summary.VendorSummaries++
		logger.Info("Indexed %d new records for vendor %s (%d chunks)",
			newCount, vendor.VendorName, len(chunks))
	}

	return summary, nil
}

// indexedHashes scans the user's invoice chunks and collects the content
// hashes already present in the index.
func (ix *IncrementalIndexer) indexedHashes(ctx context.Context, userID string) (map[string]bool, error) {
	stored, err := ix.vectors.Get(ctx, driven.ChunkFilter{
		UserID: userID,
		Type:   domain.ChunkTypeInvoice,
	})
	if err != nil {
		return nil, err
	}

	hashes := make(map[string]bool, len(stored))
	for _, chunk := range stored {
		if h, ok := chunk.Metadata["sha256"].(string); ok && h != "" {
			hashes[h] = true
		}
	}
	return hashes, nil
}

// embedAndUpsert fills in the chunks' embeddings and writes them. Chunk IDs
// are deterministic, so a re-run replaces rather than duplicates.
func (ix *IncrementalIndexer) embedAndUpsert(ctx context.Context, chunks []domain.KnowledgeChunk) error {
	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Content
	}

	embeddings, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("embed: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	return ix.vectors.Upsert(ctx, chunks)
}
