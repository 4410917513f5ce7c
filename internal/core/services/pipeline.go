package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
	"github.com/vendoriq/vendoriq/internal/logger"
)

// AcceptedMIMEType is the only document type the pipeline processes.
// Candidates with a different, non-empty MIME type are skipped.
const AcceptedMIMEType = "application/pdf"

// Skip reasons reported in batch outcomes.
const (
	SkipMissingIdentifiers = "missing identifiers"
	SkipUnsupportedMIME    = "unsupported mime"
	SkipAlreadyCompleted   = "already completed"
	SkipAlreadyProcessing  = "already processing"
	SkipDownloadFailed     = "download failed"
	SkipOCRFailed          = "ocr failed"
)

// recordIndexer is the slice of the incremental indexer the pipeline needs.
type recordIndexer interface {
	IndexVendorRecords(ctx context.Context, userID string, vendors []domain.VendorRecords) (*IndexSummary, error)
}

// ExtractionPipeline drives one vendor batch through download, extraction,
// record merge and indexing, updating document status at each phase
// boundary. One document's failure never aborts its siblings.
type ExtractionPipeline struct {
	statuses  driven.StatusStore
	extractor driven.Extractor
	indexer   recordIndexer
}

// NewExtractionPipeline creates the pipeline service.
func NewExtractionPipeline(
	statuses driven.StatusStore,
	extractor driven.Extractor,
	indexer recordIndexer,
) *ExtractionPipeline {
	return &ExtractionPipeline{
		statuses:  statuses,
		extractor: extractor,
		indexer:   indexer,
	}
}

// ProcessVendorBatch runs the extraction pipeline over one vendor's
// candidate files. The remote store is scoped to the batch owner's
// credential by the caller.
//
//nolint:gocyclo // sequential per-document phases with required status bookkeeping
func (p *ExtractionPipeline) ProcessVendorBatch(
	ctx context.Context,
	store driven.RemoteStore,
	batch domain.VendorBatch,
) (*driving.VendorOutcome, error) {
	if p.extractor == nil {
		return nil, domain.ErrExtractorUnavailable
	}

	outcome := &driving.VendorOutcome{VendorName: batch.VendorName}

	// Per-document results gathered before the single record-file write.
	var newRecords []domain.InvoiceRecord
	var succeeded []*domain.DocumentStatus

	for _, file := range batch.Files {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}

		if file.ID == "" || file.Name == "" {
			outcome.Skipped = append(outcome.Skipped, driving.SkippedFile{
				FileID: file.ID, FileName: file.Name, Reason: SkipMissingIdentifiers,
			})
			continue
		}
		if file.MIMEType != "" && file.MIMEType != AcceptedMIMEType {
			outcome.Skipped = append(outcome.Skipped, driving.SkippedFile{
				FileID: file.ID, FileName: file.Name, Reason: SkipUnsupportedMIME,
			})
			continue
		}

		status, err := p.lookupStatus(ctx, batch, file)
		if err != nil {
			return outcome, fmt.Errorf("status lookup for %s: %w", file.ID, err)
		}

		if status.Status == domain.StatusCompleted {
			outcome.Skipped = append(outcome.Skipped, driving.SkippedFile{
				FileID: file.ID, FileName: file.Name, Reason: SkipAlreadyCompleted,
			})
			continue
		}
		// Advisory guard only: two concurrent syncs can both pass this
		// check. The downstream merge is idempotent by file ID.
		if status.InFlight() {
			outcome.Skipped = append(outcome.Skipped, driving.SkippedFile{
				FileID: file.ID, FileName: file.Name, Reason: SkipAlreadyProcessing,
			})
			continue
		}

		// Indexing retry: a CHAT_FAILED document with a cached extraction
		// re-enters at CHAT_INDEXING, skipping download and OCR.
		if status.Status == domain.StatusChatFailed && status.OCRResult != nil {
			newRecords = append(newRecords, *status.OCRResult)
			succeeded = append(succeeded, status)
			continue
		}

		record, ok := p.extractOne(ctx, store, batch, file, status, outcome)
		if !ok {
			continue
		}

		newRecords = append(newRecords, *record)
		succeeded = append(succeeded, status)
		outcome.Processed = append(outcome.Processed, file.ID)
	}

	if len(newRecords) == 0 {
		logger.Debug("No new documents for vendor %s (%d skipped)", batch.VendorName, len(outcome.Skipped))
		return outcome, nil
	}

	merged, err := p.persistRecords(ctx, store, batch, newRecords)
	if err != nil {
		// The record file write failed for everyone in the batch: the
		// extractions are preserved on the status records, so an indexing
		// retry can re-drive without repeating OCR.
		p.failBatch(ctx, succeeded, fmt.Sprintf("record upload: %v", err))
		outcome.Err = err.Error()
		return outcome, nil
	}

	p.indexBatch(ctx, batch, merged, succeeded, outcome)
	return outcome, nil
}

// lookupStatus fetches the document's status record, creating a PENDING one
// on first sight.
func (p *ExtractionPipeline) lookupStatus(
	ctx context.Context,
	batch domain.VendorBatch,
	file domain.CandidateFile,
) (*domain.DocumentStatus, error) {
	status, err := p.statuses.Get(ctx, batch.UserID, file.ID)
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	status = domain.NewDocumentStatus(batch.UserID, batch.VendorName, file.ID, file.Name)
	status.VendorFolderID = batch.VendorFolderID
	status.InvoiceFolderID = batch.InvoiceFolderID
	status.WebViewLink = file.WebViewLink
	if err := p.statuses.Save(ctx, status); err != nil {
		return nil, err
	}
	return status, nil
}

// extractOne drives a single file through download and extraction, recording
// every transition. Returns the enriched record and true on success.
func (p *ExtractionPipeline) extractOne(
	ctx context.Context,
	store driven.RemoteStore,
	batch domain.VendorBatch,
	file domain.CandidateFile,
	status *domain.DocumentStatus,
	outcome *driving.VendorOutcome,
) (*domain.InvoiceRecord, bool) {
	status.MarkDownloading()
	p.saveStatus(ctx, status)

	content, err := store.Download(ctx, file.ID)
	if err != nil {
		logger.Warn("Download failed for %s: %v", file.ID, err)
		status.MarkDownloadFailed(err.Error(), "DOWNLOAD_ERROR", true)
		p.saveStatus(ctx, status)
		outcome.Skipped = append(outcome.Skipped, driving.SkippedFile{
			FileID: file.ID, FileName: file.Name, Reason: SkipDownloadFailed,
		})
		return nil, false
	}

	status.MarkOCRProcessing()
	p.saveStatus(ctx, status)

	raw, err := p.extractor.Extract(ctx, file.Name, content)
	if err != nil {
		logger.Warn("Extraction failed for %s: %v", file.ID, err)
		status.MarkOCRFailed(err.Error(), "OCR_ERROR", domain.IsRetryable(err))
		p.saveStatus(ctx, status)
		outcome.Skipped = append(outcome.Skipped, driving.SkippedFile{
			FileID: file.ID, FileName: file.Name, Reason: SkipOCRFailed,
		})
		return nil, false
	}

	record := *raw
	record.FileID = file.ID
	record.FileName = file.Name
	record.ProcessedAt = time.Now().UTC().Format(time.RFC3339)
	record.SHA256 = domain.HashBytes(content)
	if record.VendorName == "" {
		record.VendorName = batch.VendorName
	}
	if file.WebViewLink != "" {
		record.WebViewLink = file.WebViewLink
	}
	if file.WebContentLink != "" {
		record.WebContentLink = file.WebContentLink
	}

	status.MarkOCRSuccess(&record)
	p.saveStatus(ctx, status)
	return &record, true
}

// persistRecords merges the batch's new records into the vendor's current
// remote list and writes it back. The remote list is re-read immediately
// before the write; a stale cached copy is never used.
func (p *ExtractionPipeline) persistRecords(
	ctx context.Context,
	store driven.RemoteStore,
	batch domain.VendorBatch,
	newRecords []domain.InvoiceRecord,
) ([]domain.InvoiceRecord, error) {
	folderID := batch.RecordFolderID()

	existing, err := store.LoadRecords(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}

	merged := domain.MergeRecords(existing, newRecords)
	if err := store.SaveRecords(ctx, folderID, merged); err != nil {
		return nil, fmt.Errorf("save records: %w", err)
	}

	logger.Info("Persisted %d records for vendor %s (%d new)",
		len(merged), batch.VendorName, len(newRecords))
	return merged, nil
}

// indexBatch hands the vendor's full merged record list to the incremental
// indexer, which decides what is genuinely new via content hash, then
// settles every participating document into COMPLETED or CHAT_FAILED.
func (p *ExtractionPipeline) indexBatch(
	ctx context.Context,
	batch domain.VendorBatch,
	merged []domain.InvoiceRecord,
	succeeded []*domain.DocumentStatus,
	outcome *driving.VendorOutcome,
) {
	for _, status := range succeeded {
		status.MarkChatIndexing()
		p.saveStatus(ctx, status)
	}

	if p.indexer == nil {
		p.failBatch(ctx, succeeded, "indexer unavailable")
		outcome.Err = domain.ErrEmbeddingUnavailable.Error()
		return
	}

	summary, err := p.indexer.IndexVendorRecords(ctx, batch.UserID, []domain.VendorRecords{{
		VendorName: batch.VendorName,
		FolderID:   batch.RecordFolderID(),
		Records:    merged,
	}})
	if err != nil {
		logger.Warn("Indexing failed for vendor %s: %v", batch.VendorName, err)
		p.failBatch(ctx, succeeded, err.Error())
		outcome.Err = err.Error()
		return
	}

	for _, status := range succeeded {
		status.MarkCompleted()
		p.saveStatus(ctx, status)
	}
	outcome.Indexed = summary.RecordsIndexed
}

// failBatch marks every pending document of the batch CHAT_FAILED with a
// retryable error.
func (p *ExtractionPipeline) failBatch(ctx context.Context, statuses []*domain.DocumentStatus, message string) {
	for _, status := range statuses {
		if status.Status != domain.StatusChatIndexing {
			status.MarkChatIndexing()
		}
		status.MarkChatFailed(message, "INDEX_ERROR", true)
		p.saveStatus(ctx, status)
	}
}

// saveStatus persists a status transition. Store write failures are logged
// and absorbed: losing a status update must not abort the document, the
// retry orchestrator reclaims stale states later.
func (p *ExtractionPipeline) saveStatus(ctx context.Context, status *domain.DocumentStatus) {
	if err := p.statuses.Save(ctx, status); err != nil {
		logger.Error("Failed to save status for %s/%s: %v", status.UserID, status.FileID, err)
	}
}
