package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

// LineItem is one billed line on an invoice. All fields are kept as strings
// exactly as the extractor produced them; parsing into numbers happens only
// at analytics time.
type LineItem struct {
	ItemDescription string `json:"item_description"`
	Quantity        string `json:"quantity"`
	UnitPrice       string `json:"unit_price"`
	Amount          string `json:"amount"`
}

// InvoiceRecord is one successfully extracted invoice. A vendor's records
// are persisted as a single JSON array (the well-known record file) in the
// remote file store; within that array FileID is unique.
type InvoiceRecord struct {
	VendorName    string     `json:"vendor_name"`
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   string     `json:"invoice_date"`
	TotalAmount   string     `json:"total_amount"`
	LineItems     []LineItem `json:"line_items"`

	FileID         string `json:"drive_file_id"`
	FileName       string `json:"file_name"`
	ProcessedAt    string `json:"processed_at"`
	WebViewLink    string `json:"web_view_link,omitempty"`
	WebContentLink string `json:"web_content_link,omitempty"`

	// SHA256 is the content hash of the source document bytes, used to
	// detect already-indexed records without comparing full payloads.
	SHA256 string `json:"sha256,omitempty"`
}

// VendorRecords groups a vendor's current record list for indexing.
type VendorRecords struct {
	VendorName string
	FolderID   string
	Records    []InvoiceRecord
}

// HashBytes returns the sha-256 hex digest of content.
func HashBytes(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// MergeRecords merges newly processed records into an existing vendor record
// list, keyed by source file ID: an update replaces the prior entry in place,
// anything else is appended. Duplicate IDs already present in the base list
// are collapsed (last writer wins), so re-running the pipeline over the same
// file set is idempotent at the record level.
func MergeRecords(existing, updates []InvoiceRecord) []InvoiceRecord {
	merged := make([]InvoiceRecord, 0, len(existing)+len(updates))
	index := make(map[string]int, len(existing))

	for _, rec := range existing {
		if rec.FileID == "" {
			merged = append(merged, rec)
			continue
		}
		if i, ok := index[rec.FileID]; ok {
			merged[i] = rec
			continue
		}
		index[rec.FileID] = len(merged)
		merged = append(merged, rec)
	}

	for _, rec := range updates {
		if i, ok := index[rec.FileID]; ok && rec.FileID != "" {
			merged[i] = rec
			continue
		}
		if rec.FileID != "" {
			index[rec.FileID] = len(merged)
		}
		merged = append(merged, rec)
	}

	return merged
}

var (
	currencyRe   = regexp.MustCompile(`[₹$,]`)
	nonNumericRe = regexp.MustCompile(`[^0-9.]`)
)

// ParseAmount extracts a numeric value from a locale-prefixed amount string
// such as "₹1,234.50" or "$ 99". Unparseable input yields 0.
func ParseAmount(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	s = currencyRe.ReplaceAllString(s, "")
	s = nonNumericRe.ReplaceAllString(s, "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// EffectiveAmount returns the invoice's numeric total, falling back to the
// sum of line-item amounts when the header total is zero or unparseable.
func (r *InvoiceRecord) EffectiveAmount() float64 {
	if v := ParseAmount(r.TotalAmount); v != 0 {
		return v
	}
	var total float64
	for _, li := range r.LineItems {
		total += ParseAmount(li.Amount)
	}
	return total
}
