package services

import (
	"context"
	"fmt"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
)

// DefaultSearchK is the result count used when the caller passes k <= 0.
const DefaultSearchK = 5

const excerptLimit = 220

// SearchService answers semantic queries over a user's indexed chunks.
type SearchService struct {
	vectors  driven.VectorStore
	embedder driven.EmbeddingService
}

var _ driving.Searcher = (*SearchService)(nil)

// NewSearchService creates the search service.
func NewSearchService(vectors driven.VectorStore, embedder driven.EmbeddingService) *SearchService {
	return &SearchService{vectors: vectors, embedder: embedder}
}

// Search embeds the query and returns the k most similar chunks for the
// user, optionally scoped to one vendor.
func (s *SearchService) Search(ctx context.Context, userID, vendor, query string, k int) ([]driving.SearchSource, error) {
	if userID == "" {
		return nil, fmt.Errorf("search: %w: empty user id", domain.ErrInvalidInput)
	}
	if query == "" {
		return nil, fmt.Errorf("search: %w: empty query", domain.ErrInvalidInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if k <= 0 {
		k = DefaultSearchK
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search: embed query: %w", err)
	}

	hits, err := s.vectors.Query(ctx, embedding, driven.ChunkFilter{
		UserID: userID,
		Vendor: vendor,
	}, k)
	if err != nil {
		return nil, fmt.Errorf("search: query index: %w", err)
	}

	sources := make([]driving.SearchSource, 0, len(hits))
	for i, hit := range hits {
		meta := hit.Chunk.Metadata
		sources = append(sources, driving.SearchSource{
			Rank:          i + 1,
			ChunkID:       hit.Chunk.ID,
			VendorName:    metaString(meta, "vendor_name"),
			Type:          metaString(meta, "type"),
			Similarity:    1 - hit.Distance,
			Excerpt:       excerpt(hit.Chunk.Content),
			InvoiceNumber: metaString(meta, "invoice_number"),
			InvoiceDate:   metaString(meta, "invoice_date"),
			TotalAmount:   metaFloat(meta, "total_amount"),
			FileID:        metaString(meta, "drive_file_id"),
			FileName:      metaString(meta, "file_name"),
			WebViewLink:   metaString(meta, "web_view_link"),
		})
	}
	return sources, nil
}

func excerpt(content string) string {
	if len(content) <= excerptLimit {
		return content
	}
	return content[:excerptLimit] + "..."
}
