package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
	"github.com/vendoriq/vendoriq/internal/logger"
)

// DefaultMaxRetries is the per-phase attempt ceiling applied when a retry
// run does not specify one.
const DefaultMaxRetries = 3

// RetryService re-drives failed documents through the extraction pipeline.
// Candidates come exclusively from stored status records; the remote tree is
// not re-walked.
type RetryService struct {
	statuses   driven.StatusStore
	factory    driven.RemoteStoreFactory
	pipeline   *ExtractionPipeline
	maxRetries int
}

var _ driving.Retryer = (*RetryService)(nil)

// NewRetryService creates the retry orchestrator. maxRetries <= 0 selects
// the default ceiling.
func NewRetryService(
	statuses driven.StatusStore,
	factory driven.RemoteStoreFactory,
	pipeline *ExtractionPipeline,
	maxRetries int,
) *RetryService {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryService{
		statuses:   statuses,
		factory:    factory,
		pipeline:   pipeline,
		maxRetries: maxRetries,
	}
}

// Retry scans the user's failed documents, filters them by eligibility
// (failure state, attempt ceiling, last error retryable) and re-drives the
// eligible ones vendor by vendor. Ineligible documents past their ceiling
// are counted as exhausted, not errors.
func (r *RetryService) Retry(
	ctx context.Context,
	userID string,
	cred domain.Credential,
	opts driving.RetryOptions,
) (*driving.RetryReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("retry: %w: empty user id", domain.ErrInvalidInput)
	}
	if !cred.Valid() {
		return nil, domain.ErrCredentialMissing
	}

	ceiling := opts.MaxRetries
	if ceiling <= 0 {
		ceiling = r.maxRetries
	}

	failed, err := r.statuses.List(ctx, driven.StatusQuery{
		UserID:   userID,
		Vendor:   opts.Vendor,
		Statuses: []domain.Status{domain.StatusOCRFailed, domain.StatusChatFailed},
		FileIDs:  opts.FileIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("retry: list failures: %w", err)
	}

	report := &driving.RetryReport{UserID: userID}

	byVendor := make(map[string][]domain.DocumentStatus)
	for _, status := range failed {
		eligible := status.ShouldRetryOCR(ceiling) || status.ShouldRetryChat(ceiling)
		if !eligible {
			report.Exhausted++
			continue
		}
		byVendor[status.VendorName] = append(byVendor[status.VendorName], status)
	}
	if len(byVendor) == 0 {
		logger.Info("Retry for user %s: nothing eligible (%d exhausted)", userID, report.Exhausted)
		return report, nil
	}

	store, err := r.factory.Create(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("retry: connect remote store: %w", err)
	}
	defer store.Close()

	vendors := make([]string, 0, len(byVendor))
	for vendor := range byVendor {
		vendors = append(vendors, vendor)
	}
	sort.Strings(vendors)

	for _, vendor := range vendors {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		statuses := byVendor[vendor]
		batch := rebuildBatch(userID, vendor, statuses)

		outcome, err := r.pipeline.ProcessVendorBatch(ctx, store, batch)
		if err != nil {
			if outcome == nil {
				outcome = &driving.VendorOutcome{VendorName: vendor}
			}
			outcome.Err = err.Error()
		}
		report.Vendors = append(report.Vendors, *outcome)
		report.Retried += len(statuses)
	}

	logger.Info("Retry for user %s: %d retried, %d exhausted", userID, report.Retried, report.Exhausted)
	return report, nil
}

// rebuildBatch reconstructs pipeline candidates from stored status metadata.
// The MIME type is restored to the accepted type: only accepted documents
// ever get status records.
func rebuildBatch(userID, vendor string, statuses []domain.DocumentStatus) domain.VendorBatch {
	batch := domain.VendorBatch{
		UserID:     userID,
		VendorName: vendor,
	}
	for _, status := range statuses {
		if batch.VendorFolderID == "" {
			batch.VendorFolderID = status.VendorFolderID
		}
		if batch.InvoiceFolderID == "" {
			batch.InvoiceFolderID = status.InvoiceFolderID
		}
		batch.Files = append(batch.Files, domain.CandidateFile{
			ID:          status.FileID,
			Name:        status.FileName,
			MIMEType:    AcceptedMIMEType,
			WebViewLink: status.WebViewLink,
		})
	}
	return batch
}
