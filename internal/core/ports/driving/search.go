package driving

import "context"

// SearchSource is one cited chunk in a semantic search response.
type SearchSource struct {
	Rank          int     `json:"rank"`
	ChunkID       string  `json:"chunk_id"`
	VendorName    string  `json:"vendor_name"`
	Type          string  `json:"type"`
	Similarity    float64 `json:"similarity"`
	Excerpt       string  `json:"content_excerpt"`
	InvoiceNumber string  `json:"invoice_number,omitempty"`
	InvoiceDate   string  `json:"invoice_date,omitempty"`
	TotalAmount   float64 `json:"total_amount,omitempty"`
	FileID        string  `json:"drive_file_id,omitempty"`
	FileName      string  `json:"file_name,omitempty"`
	WebViewLink   string  `json:"web_view_link,omitempty"`
}

// Searcher serves semantic search over a user's indexed chunks.
type Searcher interface {
	// Search embeds the query and returns the k most similar chunks for
	// the user, optionally scoped to one vendor.
	Search(ctx context.Context, userID, vendor, query string, k int) ([]SearchSource, error)
}
