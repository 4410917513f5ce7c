package driven

import (
	"context"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// RecordFileName is the well-known name of the per-vendor record file in the
// remote file store.
const RecordFileName = "master.json"

// RemoteStore is one user's view of the remote hierarchical file store: the
// durable source of truth for source documents and extracted record lists.
//
// SaveRecords has delete-then-create semantics (the store has no atomic
// replace); a crash between the two operations leaves the folder without a
// record file, so callers must treat SaveRecords as non-atomic and safe to
// retry. Re-uploading identical content is a no-op in effect.
type RemoteStore interface {
	// ListVendors enumerates the vendor folders under the user's invoice
	// root.
	ListVendors(ctx context.Context) ([]domain.VendorFolder, error)

	// ListInvoices enumerates candidate document files inside a vendor
	// folder.
	ListInvoices(ctx context.Context, folderID string) ([]domain.CandidateFile, error)

	// Download fetches the raw bytes of one file.
	Download(ctx context.Context, fileID string) ([]byte, error)

	// LoadRecords reads the vendor's record file. A missing file is not an
	// error: it yields an empty list (the first-sync case).
	LoadRecords(ctx context.Context, folderID string) ([]domain.InvoiceRecord, error)

	// SaveRecords replaces the vendor's record file with the given list.
	SaveRecords(ctx context.Context, folderID string, records []domain.InvoiceRecord) error

	// Close releases resources.
	Close() error
}

// RemoteStoreFactory builds a RemoteStore scoped to one user's credential.
type RemoteStoreFactory interface {
	Create(ctx context.Context, cred domain.Credential) (RemoteStore, error)
}
