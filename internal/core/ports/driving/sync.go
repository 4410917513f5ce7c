package driving

import (
	"context"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// SkippedFile records why one candidate file was not processed.
type SkippedFile struct {
	FileID   string `json:"file_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	Reason   string `json:"reason"`
}

// VendorOutcome summarises one vendor batch within a sync or retry run.
type VendorOutcome struct {
	VendorName string        `json:"vendor_name"`
	Processed  []string      `json:"processed"`
	Skipped    []SkippedFile `json:"skipped"`
	Indexed    int           `json:"indexed"`
	Err        string        `json:"error,omitempty"`
}

// SyncReport is the result of one full sync run for a user.
type SyncReport struct {
	RunID             string          `json:"run_id"`
	UserID            string          `json:"user_id"`
	DocumentsIndexed  int             `json:"documents_indexed"`
	DocumentsSkipped  int             `json:"documents_skipped"`
	Vendors           []VendorOutcome `json:"vendors"`
}

// Syncer drives a full extraction-and-indexing pass over a user's vendors.
type Syncer interface {
	// Sync enumerates the user's vendor folders and drives every candidate
	// document through download, extraction, record merge and indexing.
	// Per-document failures are absorbed into status records; only fatal
	// setup errors (missing credential, unreachable store) are returned.
	Sync(ctx context.Context, userID string, cred domain.Credential) (*SyncReport, error)
}
