package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driven"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
)

// Recognized analytics periods. Anything else means the full history.
const (
	PeriodMonth   = "month"
	PeriodQuarter = "quarter"
	PeriodYear    = "year"
)

const (
	maxQuarterPoints  = 8
	maxCategoryPoints = 8
)

// AnalyticsService derives spend aggregates from indexed invoice metadata.
// It reads the vector store only; it never touches the remote file store or
// re-parses documents.
type AnalyticsService struct {
	vectors driven.VectorStore
}

var _ driving.Analytics = (*AnalyticsService)(nil)

// NewAnalyticsService creates the analytics reader.
func NewAnalyticsService(vectors driven.VectorStore) *AnalyticsService {
	return &AnalyticsService{vectors: vectors}
}

type invoiceFacts struct {
	vendor string
	month  string // "YYYY-MM", empty when the date is unusable
	amount float64
}

// Report computes vendor and time-bucketed spend aggregates for one user.
// Totals, the vendor ranking, and the quarterly trend always cover the full
// indexed history; the period windows only the monthly trend to its trailing
// buckets: "month" keeps the last, "quarter" the last 3, "year" the last 12,
// anything else keeps everything.
func (a *AnalyticsService) Report(ctx context.Context, userID, period string) (*driving.AnalyticsReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("analytics: %w: empty user id", domain.ErrInvalidInput)
	}

	invoiceChunks, err := a.vectors.Get(ctx, driven.ChunkFilter{
		UserID: userID,
		Type:   domain.ChunkTypeInvoice,
	})
	if err != nil {
		return nil, fmt.Errorf("analytics: load invoices: %w", err)
	}

	facts := make([]invoiceFacts, 0, len(invoiceChunks))
	for _, chunk := range invoiceChunks {
		facts = append(facts, invoiceFacts{
			vendor: metaString(chunk.Metadata, "vendor_name"),
			month:  monthBucket(metaString(chunk.Metadata, "invoice_date")),
			amount: metaFloat(chunk.Metadata, "total_amount"),
		})
	}

	report := &driving.AnalyticsReport{
		UserID:          userID,
		Period:          period,
		Vendors:         []driving.VendorSpend{},
		MonthlyTrend:    []driving.TrendPoint{},
		QuarterlyTrend:  []driving.TrendPoint{},
		SpendByCategory: []driving.TrendPoint{},
	}

	byVendor := make(map[string]*driving.VendorSpend)
	byMonth := make(map[string]float64)
	byQuarter := make(map[string]float64)
	for _, f := range facts {
		report.TotalSpend += f.amount
		report.TotalInvoices++

		vs := byVendor[f.vendor]
		if vs == nil {
			vs = &driving.VendorSpend{VendorName: f.vendor}
			byVendor[f.vendor] = vs
		}
		vs.TotalSpend += f.amount
		vs.InvoiceCount++

		if f.month != "" {
			byMonth[f.month] += f.amount
			byQuarter[quarterBucket(f.month)] += f.amount
		}
	}
	if report.TotalInvoices > 0 {
		report.AverageInvoice = report.TotalSpend / float64(report.TotalInvoices)
	}

	a.appendZeroSpendVendors(ctx, userID, byVendor)

	for _, vs := range byVendor {
		report.Vendors = append(report.Vendors, *vs)
	}
	sort.Slice(report.Vendors, func(i, j int) bool {
		if report.Vendors[i].TotalSpend != report.Vendors[j].TotalSpend {
			return report.Vendors[i].TotalSpend > report.Vendors[j].TotalSpend
		}
		return report.Vendors[i].VendorName < report.Vendors[j].VendorName
	})
	if len(report.Vendors) > 0 {
		report.TopVendor = report.Vendors[0]
	}

	report.MonthlyTrend = sortedTrend(byMonth, monthWindow(period))
	report.QuarterlyTrend = sortedTrend(byQuarter, maxQuarterPoints)

	for i, vs := range report.Vendors {
		if i == maxCategoryPoints {
			break
		}
		report.SpendByCategory = append(report.SpendByCategory, driving.TrendPoint{
			Name:  vs.VendorName,
			Value: vs.TotalSpend,
		})
	}

	return report, nil
}

// appendZeroSpendVendors folds in vendors that have a summary chunk but no
// indexed invoice, so the ranking still shows every known vendor.
func (a *AnalyticsService) appendZeroSpendVendors(
	ctx context.Context,
	userID string,
	byVendor map[string]*driving.VendorSpend,
) {
	summaries, err := a.vectors.Get(ctx, driven.ChunkFilter{
		UserID: userID,
		Type:   domain.ChunkTypeVendorSummary,
	})
	if err != nil {
		// Ranking completeness is best effort; the invoice-derived numbers
		// stand on their own.
		return
	}
	for _, chunk := range summaries {
		name := metaString(chunk.Metadata, "vendor_name")
		if name == "" {
			continue
		}
		if _, ok := byVendor[name]; !ok {
			byVendor[name] = &driving.VendorSpend{VendorName: name}
		}
	}
}

// monthWindow returns how many trailing monthly buckets the period keeps.
// Zero keeps the full history.
func monthWindow(period string) int {
	switch period {
	case PeriodMonth:
		return 1
	case PeriodQuarter:
		return 3
	case PeriodYear:
		return 12
	}
	return 0
}

// monthBucket reduces an ISO-ish invoice date to its "YYYY-MM" bucket.
// Unparseable dates yield the empty bucket and stay out of the trends.
func monthBucket(date string) string {
	if len(date) < 7 {
		return ""
	}
	if _, err := time.Parse("2006-01", date[:7]); err != nil {
		return ""
	}
	return date[:7]
}

// quarterBucket maps a "YYYY-MM" bucket to its "YYYY-Qn" bucket.
func quarterBucket(month string) string {
	m, err := strconv.Atoi(month[5:7])
	if err != nil || m < 1 || m > 12 {
		return month
	}
	return fmt.Sprintf("%s-Q%d", month[:4], (m-1)/3+1)
}

// sortedTrend flattens a bucket map to chronologically sorted points,
// optionally trimmed to the trailing max entries.
func sortedTrend(buckets map[string]float64, max int) []driving.TrendPoint {
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	if max > 0 && len(names) > max {
		names = names[len(names)-max:]
	}

	points := make([]driving.TrendPoint, 0, len(names))
	for _, name := range names {
		points = append(points, driving.TrendPoint{Name: name, Value: buckets[name]})
	}
	return points
}

// metaString reads a string metadata value, tolerating absence.
func metaString(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

// metaFloat reads a numeric metadata value. JSON round-trips turn numbers
// into float64, but in-process stores may hold native ints.
func metaFloat(meta map[string]any, key string) float64 {
	switch v := meta[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		return domain.ParseAmount(v)
	}
	return 0
}
