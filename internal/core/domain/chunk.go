package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Chunk types stored in vector metadata under the "type" key.
const (
	ChunkTypeInvoice       = "invoice"
	ChunkTypeVendorSummary = "vendor_summary"
)

// KnowledgeChunk is one unit of retrievable text in the vector store,
// derived deterministically from invoice records. Regenerating a chunk from
// identical inputs yields the same ID, enabling safe upsert.
type KnowledgeChunk struct {
	ID         string
	UserID     string
	VendorName string
	Content    string
	Metadata   map[string]any
	Embedding  []float32
}

// InvoiceChunkID derives the deterministic chunk ID for one invoice. The
// user ID participates in the derivation so identical invoices indexed by
// different users never share a chunk.
func InvoiceChunkID(userID, vendorName, invoiceNumber string) string {
	return chunkID(userID + "_" + vendorName + "_" + invoiceNumber)
}

// VendorSummaryChunkID derives the deterministic chunk ID for a vendor's
// summary chunk.
func VendorSummaryChunkID(userID, vendorName string) string {
	return chunkID(userID + "_" + vendorName + "_summary")
}

func chunkID(seed string) string {
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:])
}

// BuildVendorSummaryChunk renders an aggregate chunk for one vendor,
// recomputed from the vendor's full record list.
func BuildVendorSummaryChunk(userID string, vendor VendorRecords) KnowledgeChunk {
	var total float64
	for i := range vendor.Records {
		total += vendor.Records[i].EffectiveAmount()
	}
	count := len(vendor.Records)

	var b strings.Builder
	fmt.Fprintf(&b, "Vendor: %s\n", vendor.VendorName)
	fmt.Fprintf(&b, "Total Invoices: %d\n", count)
	fmt.Fprintf(&b, "Total Amount: %.2f\n\n", total)
	fmt.Fprintf(&b, "This vendor has %d invoices with a combined value of %.2f.", count, total)

	return KnowledgeChunk{
		ID:         VendorSummaryChunkID(userID, vendor.VendorName),
		UserID:     userID,
		VendorName: vendor.VendorName,
		Content:    b.String(),
		Metadata: map[string]any{
			"user_id":       userID,
			"type":          ChunkTypeVendorSummary,
			"vendor_name":   vendor.VendorName,
			"invoice_count": count,
			"total_amount":  total,
		},
	}
}

// BuildInvoiceChunk renders the retrievable chunk for one invoice record,
// carrying every field needed for citation in its metadata.
func BuildInvoiceChunk(userID string, rec InvoiceRecord) KnowledgeChunk {
	amount := rec.EffectiveAmount()

	var b strings.Builder
	b.WriteString("Invoice Details:\n")
	fmt.Fprintf(&b, "Vendor: %s\n", rec.VendorName)
	fmt.Fprintf(&b, "Invoice Number: %s\n", rec.InvoiceNumber)
	fmt.Fprintf(&b, "Amount: %.2f\n", amount)
	fmt.Fprintf(&b, "Date: %s\n", rec.InvoiceDate)
	fmt.Fprintf(&b, "File Name: %s\n", rec.FileName)
	if len(rec.LineItems) > 0 {
		b.WriteString("Line Items:\n")
		for _, li := range rec.LineItems {
			fmt.Fprintf(&b, "- %s: %s x %.2f = %.2f\n",
				li.ItemDescription, li.Quantity, ParseAmount(li.UnitPrice), ParseAmount(li.Amount))
		}
	}
	fmt.Fprintf(&b, "\nThis is an invoice from %s for %.2f dated %s.",
		rec.VendorName, amount, rec.InvoiceDate)

	return KnowledgeChunk{
		ID:         InvoiceChunkID(userID, rec.VendorName, rec.InvoiceNumber),
		UserID:     userID,
		VendorName: rec.VendorName,
		Content:    b.String(),
		Metadata: map[string]any{
			"user_id":          userID,
			"type":             ChunkTypeInvoice,
			"vendor_name":      rec.VendorName,
			"invoice_number":   rec.InvoiceNumber,
			"invoice_date":     rec.InvoiceDate,
			"total_amount":     amount,
			"drive_file_id":    rec.FileID,
			"file_name":        rec.FileName,
			"processed_at":     rec.ProcessedAt,
			"web_view_link":    rec.WebViewLink,
			"web_content_link": rec.WebContentLink,
			"sha256":           rec.SHA256,
		},
	}
}
