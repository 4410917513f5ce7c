package driving

import "context"

// TrendPoint is one time bucket in a spend trend series.
type TrendPoint struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// VendorSpend is one vendor's aggregate in the spend ranking.
type VendorSpend struct {
	VendorName   string  `json:"vendor_name"`
	TotalSpend   float64 `json:"total_spend"`
	InvoiceCount int     `json:"invoice_count"`
}

// AnalyticsReport is the spend analytics view over a user's indexed
// invoices. It is a pure function of currently-indexed data.
type AnalyticsReport struct {
	UserID          string        `json:"user_id"`
	Period          string        `json:"period"`
	TotalSpend      float64       `json:"total_spend"`
	TotalInvoices   int           `json:"total_invoices"`
	AverageInvoice  float64       `json:"average_invoice"`
	TopVendor       VendorSpend   `json:"top_vendor"`
	Vendors         []VendorSpend `json:"vendors"`
	MonthlyTrend    []TrendPoint  `json:"monthly_trend"`
	QuarterlyTrend  []TrendPoint  `json:"quarterly_trend"`
	SpendByCategory []TrendPoint  `json:"spend_by_category"`
}

// Analytics derives vendor and time-bucketed spend aggregates from indexed
// metadata.
type Analytics interface {
	// Report computes spend analytics for a user. Period windows the
	// monthly trend: "month" keeps the last bucket, "quarter" the last 3,
	// "year" the last 12; anything else keeps all buckets.
	Report(ctx context.Context, userID, period string) (*AnalyticsReport, error)
}
