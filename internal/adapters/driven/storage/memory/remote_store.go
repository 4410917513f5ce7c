package memory

import (
	"context"
	"sync"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// RemoteStore is an in-memory driven.RemoteStore holding a synthetic vendor
// tree. It is intended for tests and offline runs.
type RemoteStore struct {
	mu      sync.RWMutex
	vendors []domain.VendorFolder
	files   map[string][]domain.CandidateFile // folder ID -> files
	content map[string][]byte                 // file ID -> bytes
	records map[string][]domain.InvoiceRecord // folder ID -> record list
}

var _ driven.RemoteStore = (*RemoteStore)(nil)

// NewRemoteStore creates an empty in-memory remote store.
func NewRemoteStore() *RemoteStore {
	return &RemoteStore{
		files:   make(map[string][]domain.CandidateFile),
		content: make(map[string][]byte),
		records: make(map[string][]domain.InvoiceRecord),
	}
}

// AddVendor registers a vendor folder with its candidate files.
func (s *RemoteStore) AddVendor(folder domain.VendorFolder, files ...domain.CandidateFile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vendors = append(s.vendors, folder)
	s.files[folder.ID] = append(s.files[folder.ID], files...)
}

// PutContent sets the raw bytes served for a file ID.
func (s *RemoteStore) PutContent(fileID string, content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content[fileID] = content
}

// Records returns the current record list for a folder.
func (s *RemoteStore) Records(folderID string) []domain.InvoiceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.InvoiceRecord(nil), s.records[folderID]...)
}

// ListVendors enumerates the registered vendor folders.
func (s *RemoteStore) ListVendors(_ context.Context) ([]domain.VendorFolder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.VendorFolder(nil), s.vendors...), nil
}

// ListInvoices enumerates a folder's candidate files.
func (s *RemoteStore) ListInvoices(_ context.Context, folderID string) ([]domain.CandidateFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.CandidateFile(nil), s.files[folderID]...), nil
}

// Download fetches one file's bytes or domain.ErrNotFound.
func (s *RemoteStore) Download(_ context.Context, fileID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.content[fileID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

// LoadRecords reads a folder's record list. Missing means empty.
func (s *RemoteStore) LoadRecords(_ context.Context, folderID string) ([]domain.InvoiceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.InvoiceRecord(nil), s.records[folderID]...), nil
}

// SaveRecords replaces a folder's record list.
func (s *RemoteStore) SaveRecords(_ context.Context, folderID string, records []domain.InvoiceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[folderID] = append([]domain.InvoiceRecord(nil), records...)
	return nil
}

// Close is a no-op.
func (s *RemoteStore) Close() error { return nil }
