package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoriq/vendoriq/internal/adapters/driven/storage/memory"
	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// stubFactory hands out a pre-built store regardless of credential.
type stubFactory struct {
	store driven.RemoteStore
	err   error
}

func (f *stubFactory) Create(_ context.Context, _ domain.Credential) (driven.RemoteStore, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.store, nil
}

func testCredential() domain.Credential {
	return domain.Credential{RefreshToken: "refresh-token"}
}

func TestSync_TwoVendors(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewRemoteStore()
	remote.AddVendor(domain.VendorFolder{ID: "folder-acme", Name: "Acme"},
		pdfFile("f1", "inv-001.pdf"))
	remote.AddVendor(domain.VendorFolder{ID: "folder-globex", Name: "Globex"},
		pdfFile("g1", "inv-101.pdf"),
		domain.CandidateFile{ID: "g2", Name: "photo.png", MIMEType: "image/png"})
	remote.PutContent("f1", []byte("acme pdf"))
	remote.PutContent("g1", []byte("globex pdf"))

	statuses := memory.NewStatusStore()
	extractor := &mockExtractor{results: map[string]*domain.InvoiceRecord{
		"inv-001.pdf": {VendorName: "Acme", InvoiceNumber: "INV-001", TotalAmount: "100"},
		"inv-101.pdf": {VendorName: "Globex", InvoiceNumber: "INV-101", TotalAmount: "500"},
	}}
	pipeline := NewExtractionPipeline(statuses, extractor, &mockIndexer{})
	syncer := NewSyncService(&stubFactory{store: remote}, pipeline, 0)

	report, err := syncer.Sync(ctx, "user-1", testCredential())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "user-1", report.UserID)
	assert.Equal(t, 2, report.DocumentsIndexed)
	assert.Equal(t, 1, report.DocumentsSkipped)

	require.Len(t, report.Vendors, 2)
	assert.Equal(t, "Acme", report.Vendors[0].VendorName, "vendor outcomes are sorted by name")
	assert.Equal(t, "Globex", report.Vendors[1].VendorName)
	assert.Equal(t, []string{"g1"}, report.Vendors[1].Processed)

	assert.Len(t, remote.Records("folder-acme"), 1)
	assert.Len(t, remote.Records("folder-globex"), 1)
}

func TestSync_VendorFailureDoesNotAbortOthers(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewRemoteStore()
	remote.AddVendor(domain.VendorFolder{ID: "folder-acme", Name: "Acme"},
		pdfFile("f1", "inv-001.pdf"))
	remote.AddVendor(domain.VendorFolder{ID: "folder-globex", Name: "Globex"},
		pdfFile("g1", "inv-101.pdf"))
	remote.PutContent("f1", []byte("acme pdf"))
	// g1 has no content: Globex's document fails at download.

	statuses := memory.NewStatusStore()
	extractor := &mockExtractor{results: map[string]*domain.InvoiceRecord{
		"inv-001.pdf": {VendorName: "Acme", InvoiceNumber: "INV-001", TotalAmount: "100"},
	}}
	pipeline := NewExtractionPipeline(statuses, extractor, &mockIndexer{})
	syncer := NewSyncService(&stubFactory{store: remote}, pipeline, 1)

	report, err := syncer.Sync(ctx, "user-1", testCredential())
	require.NoError(t, err)
	assert.Equal(t, 1, report.DocumentsIndexed)
	assert.Equal(t, 1, report.DocumentsSkipped)

	status, err := statuses.Get(ctx, "user-1", "g1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOCRFailed, status.Status)
}

func TestSync_SecondRunSkipsCompleted(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewRemoteStore()
	remote.AddVendor(domain.VendorFolder{ID: "folder-acme", Name: "Acme"},
		pdfFile("f1", "inv-001.pdf"))
	remote.PutContent("f1", []byte("acme pdf"))

	statuses := memory.NewStatusStore()
	extractor := &mockExtractor{results: map[string]*domain.InvoiceRecord{
		"inv-001.pdf": {VendorName: "Acme", InvoiceNumber: "INV-001", TotalAmount: "100"},
	}}
	pipeline := NewExtractionPipeline(statuses, extractor, &mockIndexer{})
	syncer := NewSyncService(&stubFactory{store: remote}, pipeline, 0)

	_, err := syncer.Sync(ctx, "user-1", testCredential())
	require.NoError(t, err)
	callsAfterFirst := extractor.calls

	report, err := syncer.Sync(ctx, "user-1", testCredential())
	require.NoError(t, err)
	assert.Zero(t, report.DocumentsIndexed)
	assert.Equal(t, 1, report.DocumentsSkipped)
	assert.Equal(t, callsAfterFirst, extractor.calls, "completed documents are not re-extracted")
}

func TestSync_Validation(t *testing.T) {
	pipeline := NewExtractionPipeline(memory.NewStatusStore(), &mockExtractor{}, &mockIndexer{})
	syncer := NewSyncService(&stubFactory{store: memory.NewRemoteStore()}, pipeline, 0)

	_, err := syncer.Sync(context.Background(), "", testCredential())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = syncer.Sync(context.Background(), "user-1", domain.Credential{})
	assert.ErrorIs(t, err, domain.ErrCredentialMissing)
}
