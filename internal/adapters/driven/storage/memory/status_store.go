package memory

import (
	"context"
	"sync"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// StatusStore is an in-memory driven.StatusStore. It is safe for concurrent
// use and intended for tests and ephemeral runs.
type StatusStore struct {
	mu      sync.RWMutex
	records map[statusKey]domain.DocumentStatus
}

type statusKey struct {
	userID string
	fileID string
}

var _ driven.StatusStore = (*StatusStore)(nil)

// NewStatusStore creates an empty in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{records: make(map[statusKey]domain.DocumentStatus)}
}

// Save stores or replaces the record for (status.UserID, status.FileID).
func (s *StatusStore) Save(_ context.Context, status *domain.DocumentStatus) error {
	if status == nil || status.UserID == "" || status.FileID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[statusKey{status.UserID, status.FileID}] = *status
	return nil
}

// Get retrieves one record or domain.ErrNotFound.
func (s *StatusStore) Get(_ context.Context, userID, fileID string) (*domain.DocumentStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[statusKey{userID, fileID}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &rec, nil
}

// List returns records matching the query.
func (s *StatusStore) List(_ context.Context, q driven.StatusQuery) ([]domain.DocumentStatus, error) {
	if q.UserID == "" {
		return nil, domain.ErrInvalidInput
	}

	var wantStatus map[domain.Status]struct{}
	if len(q.Statuses) > 0 {
		wantStatus = make(map[domain.Status]struct{}, len(q.Statuses))
		for _, st := range q.Statuses {
			wantStatus[st] = struct{}{}
		}
	}
	var wantFile map[string]struct{}
	if len(q.FileIDs) > 0 {
		wantFile = make(map[string]struct{}, len(q.FileIDs))
		for _, id := range q.FileIDs {
			wantFile[id] = struct{}{}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.DocumentStatus
	for key, rec := range s.records {
		if key.userID != q.UserID {
			continue
		}
		if q.Vendor != "" && rec.VendorName != q.Vendor {
			continue
		}
		if wantStatus != nil {
			if _, ok := wantStatus[rec.Status]; !ok {
				continue
			}
		}
		if wantFile != nil {
			if _, ok := wantFile[rec.FileID]; !ok {
				continue
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// Clear removes every record for a user.
func (s *StatusStore) Clear(_ context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.records {
		if key.userID == userID {
			delete(s.records, key)
			n++
		}
	}
	return n, nil
}
