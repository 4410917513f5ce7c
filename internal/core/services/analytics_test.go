package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendoriq/vendoriq/internal/adapters/driven/storage/memory"
	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
)

// seedAnalytics indexes a small two-month corpus: January 150 across two
// vendors, February 75 from one.
func seedAnalytics(t *testing.T, vectors *memory.VectorStore) {
	t.Helper()
	chunks := []domain.KnowledgeChunk{
		domain.BuildInvoiceChunk("user-1", domain.InvoiceRecord{
			VendorName: "Acme", InvoiceNumber: "INV-001", InvoiceDate: "2026-01-10", TotalAmount: "100",
		}),
		domain.BuildInvoiceChunk("user-1", domain.InvoiceRecord{
			VendorName: "Globex", InvoiceNumber: "INV-101", InvoiceDate: "2026-01-20", TotalAmount: "50",
		}),
		domain.BuildInvoiceChunk("user-1", domain.InvoiceRecord{
			VendorName: "Acme", InvoiceNumber: "INV-002", InvoiceDate: "2026-02-15", TotalAmount: "75",
		}),
	}
	for i := range chunks {
		chunks[i].Embedding = []float32{1, 0, 0}
	}
	require.NoError(t, vectors.Upsert(context.Background(), chunks))
}

func TestReport_FullHistory(t *testing.T) {
	vectors := memory.NewVectorStore()
	seedAnalytics(t, vectors)
	svc := NewAnalyticsService(vectors)

	report, err := svc.Report(context.Background(), "user-1", "")
	require.NoError(t, err)

	assert.Equal(t, 225.0, report.TotalSpend)
	assert.Equal(t, 3, report.TotalInvoices)
	assert.Equal(t, 75.0, report.AverageInvoice)
	assert.Equal(t, "Acme", report.TopVendor.VendorName)
	assert.Equal(t, 175.0, report.TopVendor.TotalSpend)

	require.Len(t, report.MonthlyTrend, 2)
	assert.Equal(t, driving.TrendPoint{Name: "2026-01", Value: 150}, report.MonthlyTrend[0])
	assert.Equal(t, driving.TrendPoint{Name: "2026-02", Value: 75}, report.MonthlyTrend[1])

	require.Len(t, report.QuarterlyTrend, 1)
	assert.Equal(t, driving.TrendPoint{Name: "2026-Q1", Value: 225}, report.QuarterlyTrend[0])
}

func TestReport_MonthWindow(t *testing.T) {
	vectors := memory.NewVectorStore()
	seedAnalytics(t, vectors)
	svc := NewAnalyticsService(vectors)

	report, err := svc.Report(context.Background(), "user-1", PeriodMonth)
	require.NoError(t, err)

	// Totals, ranking, and the quarterly trend cover the full history.
	assert.Equal(t, 225.0, report.TotalSpend)
	assert.Equal(t, 3, report.TotalInvoices)
	assert.Equal(t, "Acme", report.TopVendor.VendorName)
	assert.Equal(t, 175.0, report.TopVendor.TotalSpend)
	require.Len(t, report.QuarterlyTrend, 1)
	assert.Equal(t, 225.0, report.QuarterlyTrend[0].Value)

	// Only the monthly trend is windowed to the latest bucket.
	require.Len(t, report.MonthlyTrend, 1)
	assert.Equal(t, driving.TrendPoint{Name: "2026-02", Value: 75}, report.MonthlyTrend[0])
}

func TestReport_QuarterWindow(t *testing.T) {
	vectors := memory.NewVectorStore()
	seedAnalytics(t, vectors)
	svc := NewAnalyticsService(vectors)

	report, err := svc.Report(context.Background(), "user-1", PeriodQuarter)
	require.NoError(t, err)

	assert.Equal(t, 225.0, report.TotalSpend)
	assert.Equal(t, 3, report.TotalInvoices)
	// Two distinct buckets exist, the quarter window keeps up to three.
	require.Len(t, report.MonthlyTrend, 2)
}

func TestReport_ZeroSpendVendorAppears(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()
	seedAnalytics(t, vectors)

	// Initech has a summary chunk but no invoice in the index.
	summary := domain.BuildVendorSummaryChunk("user-1", domain.VendorRecords{VendorName: "Initech"})
	summary.Embedding = []float32{1, 0, 0}
	require.NoError(t, vectors.Upsert(ctx, []domain.KnowledgeChunk{summary}))

	report, err := NewAnalyticsService(vectors).Report(ctx, "user-1", "")
	require.NoError(t, err)

	require.Len(t, report.Vendors, 3)
	last := report.Vendors[len(report.Vendors)-1]
	assert.Equal(t, "Initech", last.VendorName)
	assert.Zero(t, last.TotalSpend)
	assert.Zero(t, last.InvoiceCount)
}

func TestReport_EmptyIndex(t *testing.T) {
	report, err := NewAnalyticsService(memory.NewVectorStore()).Report(context.Background(), "user-1", "")
	require.NoError(t, err)

	assert.Zero(t, report.TotalSpend)
	assert.Zero(t, report.TotalInvoices)
	assert.Zero(t, report.AverageInvoice)
	assert.Empty(t, report.Vendors)
	assert.NotNil(t, report.MonthlyTrend, "empty series serialize as [], not null")
}

func TestReport_IgnoresOtherUsers(t *testing.T) {
	ctx := context.Background()
	vectors := memory.NewVectorStore()
	seedAnalytics(t, vectors)

	other := domain.BuildInvoiceChunk("user-2", domain.InvoiceRecord{
		VendorName: "Acme", InvoiceNumber: "INV-900", InvoiceDate: "2026-01-05", TotalAmount: "9999",
	})
	other.Embedding = []float32{1, 0, 0}
	require.NoError(t, vectors.Upsert(ctx, []domain.KnowledgeChunk{other}))

	report, err := NewAnalyticsService(vectors).Report(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Equal(t, 225.0, report.TotalSpend)
}

func TestReport_Validation(t *testing.T) {
	_, err := NewAnalyticsService(memory.NewVectorStore()).Report(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMonthBucket(t *testing.T) {
	assert.Equal(t, "2026-02", monthBucket("2026-02-15"))
	assert.Equal(t, "2026-02", monthBucket("2026-02"))
	assert.Empty(t, monthBucket("15/02/2026"))
	assert.Empty(t, monthBucket("2024-1-05"), "single-digit months do not bucket")
	assert.Empty(t, monthBucket("2026-13-01"))
	assert.Empty(t, monthBucket("n/a"))
	assert.Empty(t, monthBucket(""))
}

func TestQuarterBucket(t *testing.T) {
	assert.Equal(t, "2026-Q1", quarterBucket("2026-03"))
	assert.Equal(t, "2026-Q2", quarterBucket("2026-04"))
	assert.Equal(t, "2026-Q4", quarterBucket("2026-12"))
}
