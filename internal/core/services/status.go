package services

import (
	"context"
	"fmt"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
	"github.com/vendoriq/vendoriq/internal/logger"
)

// StatusService serves lifecycle status summaries, the bulk clear, and the
// per-user index purge.
type StatusService struct {
	statuses   driven.StatusStore
	vectors    driven.VectorStore
	maxRetries int
}

var _ driving.StatusReporter = (*StatusService)(nil)

// NewStatusService creates the status reader. maxRetries <= 0 selects the
// default ceiling used to classify documents as retryable.
func NewStatusService(statuses driven.StatusStore, vectors driven.VectorStore, maxRetries int) *StatusService {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &StatusService{statuses: statuses, vectors: vectors, maxRetries: maxRetries}
}

// Summary returns counts by lifecycle status for one user, optionally scoped
// to a vendor, plus how many failures are still eligible for retry.
func (s *StatusService) Summary(ctx context.Context, userID, vendor string) (*driving.StatusSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("status: %w: empty user id", domain.ErrInvalidInput)
	}

	records, err := s.statuses.List(ctx, driven.StatusQuery{UserID: userID, Vendor: vendor})
	if err != nil {
		return nil, fmt.Errorf("status: list: %w", err)
	}

	summary := &driving.StatusSummary{
		UserID:   userID,
		Vendor:   vendor,
		Total:    len(records),
		ByStatus: make(map[string]int),
	}
	for i := range records {
		rec := &records[i]
		summary.ByStatus[string(rec.Status)]++
		if rec.ShouldRetryOCR(s.maxRetries) || rec.ShouldRetryChat(s.maxRetries) {
			summary.Retryable++
		}
	}
	return summary, nil
}

// Clear removes every status record for a user. Indexed knowledge and remote
// record files are untouched; cleared documents simply look new to the next
// sync.
func (s *StatusService) Clear(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("status: %w: empty user id", domain.ErrInvalidInput)
	}

	n, err := s.statuses.Clear(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("status: clear: %w", err)
	}
	logger.Info("Cleared %d status records for user %s", n, userID)
	return n, nil
}

// PurgeIndex removes every indexed knowledge chunk for a user. Status
// records and remote record files are untouched; clearing statuses as well
// makes the next sync rebuild the index from the remote records.
func (s *StatusService) PurgeIndex(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("status: %w: empty user id", domain.ErrInvalidInput)
	}

	n, err := s.vectors.DeleteUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("status: purge index: %w", err)
	}
	logger.Info("Purged %d indexed chunks for user %s", n, userID)
	return n, nil
}
