package drive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"google.golang.org/api/drive/v3"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/logger"
)

const (
	folderMIMEType = "application/vnd.google-apps.folder"
	recordMIMEType = "application/json"

	listPageSize = 100
	fileFields   = "files(id, name, mimeType, webViewLink, webContentLink)"
)

// Store implements driven.RemoteStore on one user's Google Drive.
type Store struct {
	service  *drive.Service
	limiter  *RateLimiter
	rootName string

	rootID string // resolved lazily
}

var _ driven.RemoteStore = (*Store)(nil)

// ListVendors enumerates the vendor folders under the invoices root.
func (s *Store) ListVendors(ctx context.Context) ([]domain.VendorFolder, error) {
	rootID, err := s.resolveRoot(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		rootID, folderMIMEType)

	var vendors []domain.VendorFolder
	err = s.listAll(ctx, query, func(f *drive.File) {
		vendors = append(vendors, domain.VendorFolder{ID: f.Id, Name: f.Name})
	})
	if err != nil {
		return nil, fmt.Errorf("listing vendor folders: %w", err)
	}
	return vendors, nil
}

// ListInvoices enumerates candidate document files inside a vendor folder.
// The record file and the per-record JSON copies this store writes are
// excluded; other non-document files are surfaced as-is and the pipeline
// filters by MIME type.
func (s *Store) ListInvoices(ctx context.Context, folderID string) ([]domain.CandidateFile, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false",
		escapeQuery(folderID), folderMIMEType)

	var files []domain.CandidateFile
	err := s.listAll(ctx, query, func(f *drive.File) {
		if f.Name == driven.RecordFileName || f.MimeType == recordMIMEType {
			return
		}
		files = append(files, domain.CandidateFile{
			ID:             f.Id,
			Name:           f.Name,
			MIMEType:       f.MimeType,
			WebViewLink:    f.WebViewLink,
			WebContentLink: f.WebContentLink,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	return files, nil
}

// Download fetches the raw bytes of one file.
func (s *Store) Download(ctx context.Context, fileID string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := s.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		s.noteRateLimit(err)
		return nil, fmt.Errorf("downloading %s: %w", fileID, wrapError(err))
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fileID, err)
	}
	return content, nil
}

// LoadRecords reads the vendor's record file. A missing file yields an empty
// list.
func (s *Store) LoadRecords(ctx context.Context, folderID string) ([]domain.InvoiceRecord, error) {
	ids, err := s.findRecordFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	content, err := s.Download(ctx, ids[0])
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var records []domain.InvoiceRecord
	if err := json.Unmarshal(content, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", driven.RecordFileName, err)
	}
	return records, nil
}

// SaveRecords replaces the vendor's record file with the given list. Drive
// has no atomic replace, so this deletes the old file(s) and creates a new
// one; duplicates left behind by earlier crashes are cleaned up here too.
func (s *Store) SaveRecords(ctx context.Context, folderID string, records []domain.InvoiceRecord) error {
	content, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling records: %w", err)
	}

	ids, err := s.findRecordFiles(ctx, folderID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := s.service.Files.Delete(id).Context(ctx).Do(); err != nil {
			s.noteRateLimit(err)
			if !errors.Is(wrapError(err), domain.ErrNotFound) {
				return fmt.Errorf("deleting old %s: %w", driven.RecordFileName, wrapError(err))
			}
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	meta := &drive.File{
		Name:     driven.RecordFileName,
		MimeType: recordMIMEType,
		Parents:  []string{folderID},
	}
	_, err = s.service.Files.Create(meta).
		Media(bytes.NewReader(content)).
		Context(ctx).
		Do()
	if err != nil {
		s.noteRateLimit(err)
		return fmt.Errorf("creating %s: %w", driven.RecordFileName, wrapError(err))
	}

	logger.Debug("Wrote %s with %d records to folder %s", driven.RecordFileName, len(records), folderID)

	s.saveRecordCopies(ctx, folderID, records)
	return nil
}

// saveRecordCopies writes one <fileID>.json per record next to the record
// file. The copies are never read back, so failures only warn.
func (s *Store) saveRecordCopies(ctx context.Context, folderID string, records []domain.InvoiceRecord) {
	for _, rec := range records {
		if rec.FileID == "" {
			continue
		}
		name := rec.FileID + ".json"
		content, err := json.MarshalIndent(rec, "", "  ")
		if err != nil {
			logger.Warn("Skipping record copy %s: %v", name, err)
			continue
		}

		query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false",
			escapeQuery(folderID), name)
		var old []string
		if err := s.listAll(ctx, query, func(f *drive.File) { old = append(old, f.Id) }); err != nil {
			logger.Warn("Skipping record copy %s: %v", name, err)
			continue
		}
		for _, id := range old {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
			if err := s.service.Files.Delete(id).Context(ctx).Do(); err != nil {
				s.noteRateLimit(err)
			}
		}

		if err := s.limiter.Wait(ctx); err != nil {
			return
		}
		meta := &drive.File{
			Name:     name,
			MimeType: recordMIMEType,
			Parents:  []string{folderID},
		}
		if _, err := s.service.Files.Create(meta).Media(bytes.NewReader(content)).Context(ctx).Do(); err != nil {
			s.noteRateLimit(err)
			logger.Warn("Writing record copy %s: %v", name, err)
		}
	}
}

// Close is a no-op; the underlying HTTP client needs no teardown.
func (s *Store) Close() error { return nil }

// resolveRoot finds the invoices root folder by name, caching the ID.
func (s *Store) resolveRoot(ctx context.Context) (string, error) {
	if s.rootID != "" {
		return s.rootID, nil
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(s.rootName), folderMIMEType)

	var found string
	err := s.listAll(ctx, query, func(f *drive.File) {
		if found == "" {
			found = f.Id
		}
	})
	if err != nil {
		return "", fmt.Errorf("resolving root folder %q: %w", s.rootName, err)
	}
	if found == "" {
		return "", fmt.Errorf("root folder %q: %w", s.rootName, domain.ErrNotFound)
	}

	s.rootID = found
	return found, nil
}

// findRecordFiles returns the IDs of all record files in a folder. More than
// one can exist after a crashed delete-then-create.
func (s *Store) findRecordFiles(ctx context.Context, folderID string) ([]string, error) {
	query := fmt.Sprintf("'%s' in parents and name = '%s' and trashed = false",
		escapeQuery(folderID), driven.RecordFileName)

	var ids []string
	err := s.listAll(ctx, query, func(f *drive.File) {
		ids = append(ids, f.Id)
	})
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", driven.RecordFileName, err)
	}
	return ids, nil
}

// listAll pages through a files.list query, invoking fn for every file.
func (s *Store) listAll(ctx context.Context, query string, fn func(*drive.File)) error {
	pageToken := ""
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}

		call := s.service.Files.List().
			Q(query).
			Fields("nextPageToken", fileFields).
			PageSize(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		page, err := call.Do()
		if err != nil {
			s.noteRateLimit(err)
			return wrapError(err)
		}

		for _, f := range page.Files {
			fn(f)
		}

		if page.NextPageToken == "" {
			return nil
		}
		pageToken = page.NextPageToken
	}
}

// noteRateLimit feeds 429 responses back into the limiter's backoff.
func (s *Store) noteRateLimit(err error) {
	if isRateLimited(err) {
		s.limiter.RecordRateLimitError(0)
	}
}

// escapeQuery escapes single quotes for embedding in a Drive query string.
func escapeQuery(v string) string {
	return strings.ReplaceAll(v, "'", "\\'")
}
