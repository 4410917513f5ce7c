package driven

import (
	"context"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// StatusQuery filters a status scan. UserID is required; the rest narrow the
// result set.
type StatusQuery struct {
	UserID   string
	Vendor   string
	Statuses []domain.Status
	FileIDs  []string
}

// StatusStore persists document lifecycle status, keyed by
// (user ID, source file ID). The store enforces uniqueness of the pair:
// Save upserts.
type StatusStore interface {
	// Save stores or replaces the status record for (status.UserID,
	// status.FileID).
	Save(ctx context.Context, status *domain.DocumentStatus) error

	// Get retrieves one status record. Returns domain.ErrNotFound if the
	// pair has never been seen.
	Get(ctx context.Context, userID, fileID string) (*domain.DocumentStatus, error)

	// List returns status records matching the query.
	List(ctx context.Context, q StatusQuery) ([]domain.DocumentStatus, error)

	// Clear removes every status record for a user and returns how many
	// were deleted.
	Clear(ctx context.Context, userID string) (int, error)
}
