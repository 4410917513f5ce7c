package domain

import "time"

// Status is the lifecycle state of one document in the pipeline.
//
// Flow:
//
//	PENDING -> DOWNLOADING -> OCR_PROCESSING -> OCR_SUCCESS -> CHAT_INDEXING -> COMPLETED
//	                       \-> OCR_FAILED                   \-> CHAT_FAILED
//
// OCR_FAILED and CHAT_FAILED are retry entry points, bounded by attempt
// ceilings. COMPLETED is terminal.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusDownloading   Status = "DOWNLOADING"
	StatusOCRProcessing Status = "OCR_PROCESSING"
	StatusOCRSuccess    Status = "OCR_SUCCESS"
	StatusOCRFailed     Status = "OCR_FAILED"
	StatusChatIndexing  Status = "CHAT_INDEXING"
	StatusChatFailed    Status = "CHAT_FAILED"
	StatusCompleted     Status = "COMPLETED"
)

// Phase identifies the pipeline stage that produced an error.
type Phase string

const (
	PhaseDownload Phase = "download"
	PhaseOCR      Phase = "ocr"
	PhaseChat     Phase = "chat"
)

// ProcessingError is one entry in a document's error log.
// Entries are appended, never mutated in place.
type ProcessingError struct {
	Phase     Phase     `json:"phase"`
	Message   string    `json:"message"`
	Code      string    `json:"code,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

// DocumentStatus tracks one (user, source file) pair through the pipeline.
// At most one status record exists per pair; the status store enforces
// uniqueness.
type DocumentStatus struct {
	UserID     string `json:"user_id"`
	VendorName string `json:"vendor_name"`
	FileID     string `json:"file_id"`
	FileName   string `json:"file_name"`

	Status Status `json:"status"`

	OCRAttemptCount  int `json:"ocr_attempt_count"`
	ChatAttemptCount int `json:"chat_attempt_count"`

	Errors []ProcessingError `json:"errors,omitempty"`

	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DownloadStartedAt *time.Time `json:"download_started_at,omitempty"`
	OCRStartedAt      *time.Time `json:"ocr_started_at,omitempty"`
	OCRCompletedAt    *time.Time `json:"ocr_completed_at,omitempty"`
	ChatStartedAt     *time.Time `json:"chat_started_at,omitempty"`
	ChatCompletedAt   *time.Time `json:"chat_completed_at,omitempty"`

	// Passthrough metadata from the remote file store.
	VendorFolderID  string `json:"vendor_folder_id,omitempty"`
	InvoiceFolderID string `json:"invoice_folder_id,omitempty"`
	WebViewLink     string `json:"web_view_link,omitempty"`

	// OCRResult caches the enriched extraction payload after OCR_SUCCESS,
	// so an indexing retry does not need to re-download and re-extract.
	OCRResult *InvoiceRecord `json:"ocr_result,omitempty"`
}

// NewDocumentStatus creates a PENDING status record for a file seen for the
// first time.
func NewDocumentStatus(userID, vendorName, fileID, fileName string) *DocumentStatus {
	now := time.Now().UTC()
	return &DocumentStatus{
		UserID:     userID,
		VendorName: vendorName,
		FileID:     fileID,
		FileName:   fileName,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// InFlight reports whether another run is currently driving this document.
// This is an advisory check, not a lock: two concurrent syncs can both
// observe a non-in-flight status and both proceed. Downstream merges are
// idempotent by file ID, so the race is benign.
func (d *DocumentStatus) InFlight() bool {
	switch d.Status {
	case StatusDownloading, StatusOCRProcessing, StatusChatIndexing:
		return true
	}
	return false
}

// AddError appends an error entry tagged with the originating phase.
func (d *DocumentStatus) AddError(phase Phase, message, code string, retryable bool) {
	now := time.Now().UTC()
	d.Errors = append(d.Errors, ProcessingError{
		Phase:     phase,
		Message:   message,
		Code:      code,
		Retryable: retryable,
		Timestamp: now,
	})
	d.UpdatedAt = now
}

// LastErrorRetryable reports whether the most recent error allows a retry.
// A document without any logged errors is considered retryable. Eligibility
// is coupled to the last failure only, not the whole history.
func (d *DocumentStatus) LastErrorRetryable() bool {
	if len(d.Errors) == 0 {
		return true
	}
	return d.Errors[len(d.Errors)-1].Retryable
}

// ShouldRetryOCR reports whether the document is eligible for another OCR
// attempt under the given ceiling.
func (d *DocumentStatus) ShouldRetryOCR(maxAttempts int) bool {
	return d.Status == StatusOCRFailed &&
		d.OCRAttemptCount < maxAttempts &&
		d.LastErrorRetryable()
}

// ShouldRetryChat reports whether the document is eligible for another
// indexing attempt under the given ceiling.
func (d *DocumentStatus) ShouldRetryChat(maxAttempts int) bool {
	return d.Status == StatusChatFailed &&
		d.ChatAttemptCount < maxAttempts &&
		d.LastErrorRetryable()
}

// MarkDownloading transitions to DOWNLOADING.
func (d *DocumentStatus) MarkDownloading() {
	now := time.Now().UTC()
	d.Status = StatusDownloading
	d.DownloadStartedAt = &now
	d.UpdatedAt = now
}

// MarkOCRProcessing transitions to OCR_PROCESSING and increments the OCR
// attempt counter. This is the only place the counter is incremented.
func (d *DocumentStatus) MarkOCRProcessing() {
	now := time.Now().UTC()
	d.Status = StatusOCRProcessing
	d.OCRStartedAt = &now
	d.OCRAttemptCount++
	d.UpdatedAt = now
}

// MarkOCRSuccess transitions to OCR_SUCCESS, caching the enriched extraction
// result on the status record.
func (d *DocumentStatus) MarkOCRSuccess(result *InvoiceRecord) {
	now := time.Now().UTC()
	d.Status = StatusOCRSuccess
	d.OCRCompletedAt = &now
	if result != nil {
		d.OCRResult = result
	}
	d.UpdatedAt = now
}

// MarkOCRFailed transitions to OCR_FAILED and logs the error.
func (d *DocumentStatus) MarkOCRFailed(message, code string, retryable bool) {
	d.Status = StatusOCRFailed
	d.AddError(PhaseOCR, message, code, retryable)
}

// MarkDownloadFailed transitions to OCR_FAILED with a download-phase error.
// Download failures share the OCR retry entry point.
func (d *DocumentStatus) MarkDownloadFailed(message, code string, retryable bool) {
	d.Status = StatusOCRFailed
	d.AddError(PhaseDownload, message, code, retryable)
}

// MarkChatIndexing transitions to CHAT_INDEXING and increments the indexing
// attempt counter. This is the only place the counter is incremented.
func (d *DocumentStatus) MarkChatIndexing() {
	now := time.Now().UTC()
	d.Status = StatusChatIndexing
	d.ChatStartedAt = &now
	d.ChatAttemptCount++
	d.UpdatedAt = now
}

// MarkChatFailed transitions to CHAT_FAILED and logs the error.
func (d *DocumentStatus) MarkChatFailed(message, code string, retryable bool) {
	d.Status = StatusChatFailed
	d.AddError(PhaseChat, message, code, retryable)
}

// MarkCompleted transitions to the terminal COMPLETED state.
func (d *DocumentStatus) MarkCompleted() {
	now := time.Now().UTC()
	d.Status = StatusCompleted
	d.ChatCompletedAt = &now
	d.UpdatedAt = now
}
