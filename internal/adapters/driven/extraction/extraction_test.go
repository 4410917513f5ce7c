package extraction

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoriq/vendoriq/internal/core/domain"
)

func TestParsePayload_BareJSON(t *testing.T) {
	record, err := ParsePayload(`{"vendor_name": "Acme", "invoice_number": "INV-001", "total_amount": "100"}`)
	require.NoError(t, err)
	assert.Equal(t, "Acme", record.VendorName)
	assert.Equal(t, "INV-001", record.InvoiceNumber)
}

func TestParsePayload_FencedJSON(t *testing.T) {
	raw := "```json\n{\"vendor_name\": \"Acme\", \"invoice_number\": \"INV-001\"}\n```"
	record, err := ParsePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "INV-001", record.InvoiceNumber)
}

func TestParsePayload_JSONBuriedInProse(t *testing.T) {
	raw := `Here is the extracted invoice data:
{"vendor_name": "Acme", "invoice_number": "INV-001", "line_items": [{"item_description": "widget", "amount": "100"}]}
Let me know if you need anything else.`
	record, err := ParsePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, "Acme", record.VendorName)
	require.Len(t, record.LineItems, 1)
	assert.Equal(t, "widget", record.LineItems[0].ItemDescription)
}

func TestParsePayload_NoJSON(t *testing.T) {
	_, err := ParsePayload("I could not find any invoice in this document.")
	require.Error(t, err)
	assert.False(t, domain.IsRetryable(err), "an unparseable response is a document problem, not a transient one")

	var extErr *domain.ExtractionError
	assert.True(t, errors.As(err, &extErr))
}
