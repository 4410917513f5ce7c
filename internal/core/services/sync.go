package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
	"github.com/vendoriq/vendoriq/internal/logger"
)

// DefaultVendorConcurrency bounds how many vendor folders are processed in
// parallel during a sync run.
const DefaultVendorConcurrency = 4

// SyncService walks a user's remote invoice tree and drives every vendor
// folder through the extraction pipeline.
type SyncService struct {
	factory     driven.RemoteStoreFactory
	pipeline    *ExtractionPipeline
	concurrency int
}

var _ driving.Syncer = (*SyncService)(nil)

// NewSyncService creates the sync orchestrator. concurrency <= 0 selects the
// default.
func NewSyncService(factory driven.RemoteStoreFactory, pipeline *ExtractionPipeline, concurrency int) *SyncService {
	if concurrency <= 0 {
		concurrency = DefaultVendorConcurrency
	}
	return &SyncService{factory: factory, pipeline: pipeline, concurrency: concurrency}
}

// Sync enumerates the user's vendor folders and processes each one's
// candidate files. Vendor folders are independent: one vendor's failure is
// recorded in its outcome and the rest continue.
func (s *SyncService) Sync(ctx context.Context, userID string, cred domain.Credential) (*driving.SyncReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("sync: %w: empty user id", domain.ErrInvalidInput)
	}
	if !cred.Valid() {
		return nil, domain.ErrCredentialMissing
	}

	store, err := s.factory.Create(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("sync: connect remote store: %w", err)
	}
	defer store.Close()

	vendors, err := store.ListVendors(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: list vendors: %w", err)
	}

	report := &driving.SyncReport{
		RunID:  uuid.NewString(),
		UserID: userID,
	}
	logger.Info("Sync %s: %d vendor folders for user %s", report.RunID, len(vendors), userID)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, vendor := range vendors {
		vendor := vendor
		g.Go(func() error {
			outcome := s.syncVendor(gctx, store, userID, vendor)
			mu.Lock()
			report.Vendors = append(report.Vendors, *outcome)
			report.DocumentsIndexed += len(outcome.Processed)
			report.DocumentsSkipped += len(outcome.Skipped)
			mu.Unlock()
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}

	sort.Slice(report.Vendors, func(i, j int) bool {
		return report.Vendors[i].VendorName < report.Vendors[j].VendorName
	})
	return report, nil
}

func (s *SyncService) syncVendor(
	ctx context.Context,
	store driven.RemoteStore,
	userID string,
	vendor domain.VendorFolder,
) *driving.VendorOutcome {
	files, err := store.ListInvoices(ctx, vendor.ID)
	if err != nil {
		logger.Warn("Listing vendor %s failed: %v", vendor.Name, err)
		return &driving.VendorOutcome{VendorName: vendor.Name, Err: err.Error()}
	}

	outcome, err := s.pipeline.ProcessVendorBatch(ctx, store, domain.VendorBatch{
		UserID:         userID,
		VendorName:     vendor.Name,
		VendorFolderID: vendor.ID,
		Files:          files,
	})
	if err != nil {
		if outcome == nil {
			outcome = &driving.VendorOutcome{VendorName: vendor.Name}
		}
		outcome.Err = err.Error()
	}
	return outcome
}
