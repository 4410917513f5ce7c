package driving

import (
	"context"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// RetryOptions scopes a retry run.
type RetryOptions struct {
	// Vendor, when set, limits the retry to one vendor.
	Vendor string

	// FileIDs, when set, limits the retry to specific documents.
	FileIDs []string

	// MaxRetries is the attempt ceiling per phase. Zero means the
	// configured default.
	MaxRetries int
}

// RetryReport is the result of one retry run.
//
// Exhausted counts every failed document the run would not re-drive: those
// whose attempt ceiling is reached and those whose last error is marked
// non-retryable. Both are terminal until the ceiling is raised or the
// document's status is cleared, so the report does not distinguish them.
type RetryReport struct {
	UserID    string          `json:"user_id"`
	Retried   int             `json:"retried"`
	Exhausted int             `json:"exhausted"`
	Vendors   []VendorOutcome `json:"vendors"`
}

// Retryer re-drives known failures through the extraction pipeline. It never
// invents new files: candidates are reconstructed from stored status
// metadata.
type Retryer interface {
	Retry(ctx context.Context, userID string, cred domain.Credential, opts RetryOptions) (*RetryReport, error)
}
