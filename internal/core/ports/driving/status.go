package driving

import "context"

// StatusSummary reports per-user document counts by lifecycle status.
type StatusSummary struct {
	UserID    string         `json:"user_id"`
	Vendor    string         `json:"vendor_name,omitempty"`
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"by_status"`
	Retryable int            `json:"retryable"`
}

// StatusReporter serves status queries and the per-user cleanup
// operations.
type StatusReporter interface {
	// Summary returns counts by status for a user, optionally scoped to a
	// vendor.
	Summary(ctx context.Context, userID, vendor string) (*StatusSummary, error)

	// Clear removes all status records for a user and returns how many
	// were deleted.
	Clear(ctx context.Context, userID string) (int, error)

	// PurgeIndex removes every indexed knowledge chunk for a user and
	// returns how many were deleted. Remote record files are untouched.
	PurgeIndex(ctx context.Context, userID string) (int, error)
}
