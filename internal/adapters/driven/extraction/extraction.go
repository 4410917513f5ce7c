// Package extraction holds what the concrete extractor backends share: the
// structured-output prompt and the tolerant JSON payload parser.
package extraction

import (
	"encoding/json"
	"strings"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

// Prompt instructs a multimodal model to return structured invoice data as
// bare JSON. Backends send it alongside the document bytes.
const Prompt = `Extract the invoice details from this document and respond with ONLY a JSON object, no markdown fences and no commentary. Use this exact shape:

{
  "vendor_name": "",
  "invoice_number": "",
  "invoice_date": "YYYY-MM-DD",
  "total_amount": "",
  "line_items": [
    {"item_description": "", "quantity": "", "unit_price": "", "amount": ""}
  ]
}

Rules:
- invoice_date must be in YYYY-MM-DD format.
- total_amount is the grand total including taxes, as printed.
- Include every line item. If a field is not present, use an empty string.`

// ParsePayload decodes a model response into an invoice record. Models
// routinely wrap JSON in fences or prose, so the parser falls back to the
// outermost brace slice before giving up. A response with no usable JSON is
// a malformed-document error, not a transient one.
func ParsePayload(raw string) (*domain.InvoiceRecord, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var record domain.InvoiceRecord
	if err := json.Unmarshal([]byte(text), &record); err == nil {
		return &record, nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), &record); err == nil {
			return &record, nil
		}
	}

	return nil, domain.NewMalformedError("no parseable invoice JSON in model response")
}
