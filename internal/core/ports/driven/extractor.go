package driven

import (
	"context"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// Extractor turns raw document bytes into a structured invoice record via
// OCR/LLM extraction. Implementations parse the collaborator's loosely-typed
// output at this boundary and never let raw maps escape into core.
//
// Failures are reported as *domain.ExtractionError carrying the
// collaborator's retryable classification: timeouts, 5xx and rate limits are
// retryable; "no text found" and invalid JSON shapes are not.
type Extractor interface {
	// Extract runs OCR/LLM extraction over one document.
	Extract(ctx context.Context, fileName string, content []byte) (*domain.InvoiceRecord, error)
}
