package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
)

// statusStore implements driven.StatusStore.
type statusStore struct {
	store *Store
}

var _ driven.StatusStore = (*statusStore)(nil)

// Save stores or replaces the status record for (UserID, FileID).
func (s *statusStore) Save(ctx context.Context, status *domain.DocumentStatus) error {
	if status == nil || status.UserID == "" || status.FileID == "" {
		return domain.ErrInvalidInput
	}

	errorsJSON, err := json.Marshal(status.Errors)
	if err != nil {
		return fmt.Errorf("marshalling errors: %w", err)
	}

	var resultJSON sql.NullString
	if status.OCRResult != nil {
		raw, err := json.Marshal(status.OCRResult)
		if err != nil {
			return fmt.Errorf("marshalling ocr result: %w", err)
		}
		resultJSON = sql.NullString{String: string(raw), Valid: true}
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO document_status
			(user_id, file_id, vendor_name, file_name, status,
			 ocr_attempt_count, chat_attempt_count, errors,
			 created_at, updated_at,
			 download_started_at, ocr_started_at, ocr_completed_at,
			 chat_started_at, chat_completed_at,
			 vendor_folder_id, invoice_folder_id, web_view_link, ocr_result)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, file_id) DO UPDATE SET
			vendor_name = excluded.vendor_name,
			file_name = excluded.file_name,
			status = excluded.status,
			ocr_attempt_count = excluded.ocr_attempt_count,
			chat_attempt_count = excluded.chat_attempt_count,
			errors = excluded.errors,
			updated_at = excluded.updated_at,
			download_started_at = excluded.download_started_at,
			ocr_started_at = excluded.ocr_started_at,
			ocr_completed_at = excluded.ocr_completed_at,
			chat_started_at = excluded.chat_started_at,
			chat_completed_at = excluded.chat_completed_at,
			vendor_folder_id = excluded.vendor_folder_id,
			invoice_folder_id = excluded.invoice_folder_id,
			web_view_link = excluded.web_view_link,
			ocr_result = excluded.ocr_result
	`, status.UserID, status.FileID, status.VendorName, status.FileName, string(status.Status),
		status.OCRAttemptCount, status.ChatAttemptCount, string(errorsJSON),
		status.CreatedAt, status.UpdatedAt,
		nullTime(status.DownloadStartedAt), nullTime(status.OCRStartedAt), nullTime(status.OCRCompletedAt),
		nullTime(status.ChatStartedAt), nullTime(status.ChatCompletedAt),
		nullString(status.VendorFolderID), nullString(status.InvoiceFolderID),
		nullString(status.WebViewLink), resultJSON)

	if err != nil {
		return fmt.Errorf("saving status: %w", err)
	}
	return nil
}

// Get retrieves one status record.
func (s *statusStore) Get(ctx context.Context, userID, fileID string) (*domain.DocumentStatus, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT `+statusColumns+`
		FROM document_status WHERE user_id = ? AND file_id = ?
	`, userID, fileID)

	status, err := scanStatus(row.Scan)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	return status, err
}

// List returns status records matching the query.
func (s *statusStore) List(ctx context.Context, q driven.StatusQuery) ([]domain.DocumentStatus, error) {
	if q.UserID == "" {
		return nil, domain.ErrInvalidInput
	}

	query := "SELECT " + statusColumns + " FROM document_status WHERE user_id = ?"
	args := []any{q.UserID}

	if q.Vendor != "" {
		query += " AND vendor_name = ?"
		args = append(args, q.Vendor)
	}
	if len(q.Statuses) > 0 {
		query += " AND status IN (" + placeholders(len(q.Statuses)) + ")"
		for _, st := range q.Statuses {
			args = append(args, string(st))
		}
	}
	if len(q.FileIDs) > 0 {
		query += " AND file_id IN (" + placeholders(len(q.FileIDs)) + ")"
		for _, id := range q.FileIDs {
			args = append(args, id)
		}
	}
	query += " ORDER BY vendor_name, file_id"

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying statuses: %w", err)
	}
	defer rows.Close()

	var statuses []domain.DocumentStatus //nolint:prealloc // size unknown from query
	for rows.Next() {
		status, err := scanStatus(rows.Scan)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, *status)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating statuses: %w", err)
	}

	return statuses, nil
}

// Clear removes every status record for a user.
func (s *statusStore) Clear(ctx context.Context, userID string) (int, error) {
	if userID == "" {
		return 0, domain.ErrInvalidInput
	}

	res, err := s.store.db.ExecContext(ctx, "DELETE FROM document_status WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("clearing statuses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared statuses: %w", err)
	}
	return int(n), nil
}

const statusColumns = `user_id, file_id, vendor_name, file_name, status,
	ocr_attempt_count, chat_attempt_count, errors,
	created_at, updated_at,
	download_started_at, ocr_started_at, ocr_completed_at,
	chat_started_at, chat_completed_at,
	vendor_folder_id, invoice_folder_id, web_view_link, ocr_result`

// scanStatus scans one status row via the given Scan function.
func scanStatus(scan func(dest ...any) error) (*domain.DocumentStatus, error) {
	var status domain.DocumentStatus
	var statusText, errorsJSON string
	var downloadStarted, ocrStarted, ocrCompleted, chatStarted, chatCompleted sql.NullTime
	var vendorFolder, invoiceFolder, webViewLink, resultJSON sql.NullString

	if err := scan(&status.UserID, &status.FileID, &status.VendorName, &status.FileName, &statusText,
		&status.OCRAttemptCount, &status.ChatAttemptCount, &errorsJSON,
		&status.CreatedAt, &status.UpdatedAt,
		&downloadStarted, &ocrStarted, &ocrCompleted, &chatStarted, &chatCompleted,
		&vendorFolder, &invoiceFolder, &webViewLink, &resultJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning status: %w", err)
	}

	status.Status = domain.Status(statusText)

	if errorsJSON != "" {
		if err := json.Unmarshal([]byte(errorsJSON), &status.Errors); err != nil {
			return nil, fmt.Errorf("unmarshalling errors: %w", err)
		}
	}
	if resultJSON.Valid {
		var record domain.InvoiceRecord
		if err := json.Unmarshal([]byte(resultJSON.String), &record); err != nil {
			return nil, fmt.Errorf("unmarshalling ocr result: %w", err)
		}
		status.OCRResult = &record
	}

	status.DownloadStartedAt = timePtr(downloadStarted)
	status.OCRStartedAt = timePtr(ocrStarted)
	status.OCRCompletedAt = timePtr(ocrCompleted)
	status.ChatStartedAt = timePtr(chatStarted)
	status.ChatCompletedAt = timePtr(chatCompleted)
	status.VendorFolderID = vendorFolder.String
	status.InvoiceFolderID = invoiceFolder.String
	status.WebViewLink = webViewLink.String

	return &status, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
