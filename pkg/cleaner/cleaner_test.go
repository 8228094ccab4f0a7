// pkg/cleaner/cleaner_test.go
package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

func newTestCleaner(t *testing.T) *Cleaner {
	t.Helper()
	c, err := NewCleaner(zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewCleaner(t *testing.T) {
	t.Run("rejects nil logger", func(t *testing.T) {
		_, err := NewCleaner(nil)
		require.Error(t, err)
	})
}

func TestParseDates(t *testing.T) {
	c := newTestCleaner(t)

	t.Run("parses supported formats", func(t *testing.T) {
		records := []model.Record{
			{RawLastPaymentDate: "2024-03-15 14:30:00"},
			{RawLastPaymentDate: "2024-03-15"},
			{RawLastPaymentDate: "2024-03-15T14:30:00"},
		}
		report := NewReport(len(records))

		c.ParseDates(records, report)

		for i, r := range records {
			require.NotNil(t, r.LastPaymentDate, "record %d", i)
			assert.Equal(t, 2024, r.LastPaymentDate.Year())
			assert.Equal(t, time.March, r.LastPaymentDate.Month())
		}
		assert.Equal(t, 3, report.ValidDates["last_payment_date"])
		assert.Equal(t, 0, report.MalformedDates["last_payment_date"])
	})

	t.Run("malformed dates become nil and are counted", func(t *testing.T) {
		records := []model.Record{
			{RawLastPaymentDate: "not-a-date"},
			{RawLastPaymentDate: "2024-13-45"},
		}
		report := NewReport(len(records))

		c.ParseDates(records, report)

		assert.Nil(t, records[0].LastPaymentDate)
		assert.Nil(t, records[1].LastPaymentDate)
		assert.Equal(t, 2, report.MalformedDates["last_payment_date"])
	})

	t.Run("empty values are missing, not malformed", func(t *testing.T) {
		records := []model.Record{{RawCancellationDate: ""}}
		report := NewReport(len(records))

		c.ParseDates(records, report)

		assert.Nil(t, records[0].CancellationDate)
		assert.Equal(t, 0, report.MalformedDates["cancellation_date"])
	})
}

func TestDeriveFields(t *testing.T) {
	c := newTestCleaner(t)

	t.Run("calendar decomposition of last payment date", func(t *testing.T) {
		records := []model.Record{{
			RawLastPaymentDate:       "2024-08-14 09:15:00", // a Wednesday
			RawSubscriptionStartDate: "2024-08-04",
			RawPlanPrice:             "9.99",
			RawTotalPayments:         "3",
		}}
		report := NewReport(len(records))

		c.ParseDates(records, report)
		c.DeriveFields(records, report)

		r := records[0]
		require.NotNil(t, r.Date)
		assert.Equal(t, 0, r.Date.Hour())
		assert.Equal(t, "2024-08", r.Month)
		assert.Equal(t, "2024Q3", r.Quarter)
		require.NotNil(t, r.Year)
		assert.Equal(t, 2024, *r.Year)
		assert.Equal(t, "Wednesday", r.DayOfWeek)
		require.NotNil(t, r.Hour)
		assert.Equal(t, 9, *r.Hour)
		require.NotNil(t, r.SubscriptionAgeDays)
		assert.Equal(t, 10, *r.SubscriptionAgeDays)
		assert.True(t, r.IsRecurring)
	})

	t.Run("is_success follows payment_status", func(t *testing.T) {
		records := []model.Record{
			{PaymentStatus: "success", RawPlanPrice: "1"},
			{PaymentStatus: "failed", RawPlanPrice: "1"},
			{PaymentStatus: "pending", RawPlanPrice: "1"},
		}
		report := NewReport(len(records))

		c.DeriveFields(records, report)

		assert.True(t, records[0].IsSuccess)
		assert.False(t, records[1].IsSuccess)
		assert.False(t, records[2].IsSuccess)
	})

	t.Run("non-numeric values become nil and are counted", func(t *testing.T) {
		records := []model.Record{{
			RawPlanPrice:           "abc",
			RawTotalPayments:       "many",
			RawFailedPaymentsCount: "2",
		}}
		report := NewReport(len(records))

		c.DeriveFields(records, report)

		r := records[0]
		assert.Nil(t, r.PlanPrice)
		assert.Nil(t, r.TotalPayments)
		require.NotNil(t, r.FailedPaymentsCount)
		assert.Equal(t, int64(2), *r.FailedPaymentsCount)
		assert.Equal(t, 1, report.MalformedNumerics["plan_price"])
		assert.Equal(t, 1, report.MalformedNumerics["total_payments"])
	})

	t.Run("counts exported as floats are accepted", func(t *testing.T) {
		records := []model.Record{{RawTotalPayments: "3.0", RawPlanPrice: "1"}}
		report := NewReport(len(records))

		c.DeriveFields(records, report)

		require.NotNil(t, records[0].TotalPayments)
		assert.Equal(t, int64(3), *records[0].TotalPayments)
	})

	t.Run("missing dates leave calendar fields null", func(t *testing.T) {
		records := []model.Record{{RawPlanPrice: "5"}}
		report := NewReport(len(records))

		c.ParseDates(records, report)
		c.DeriveFields(records, report)

		r := records[0]
		assert.Nil(t, r.Date)
		assert.Empty(t, r.Month)
		assert.Nil(t, r.Year)
		assert.Nil(t, r.SubscriptionAgeDays)
	})

	t.Run("empty batch does not panic", func(t *testing.T) {
		report := NewReport(0)
		assert.NotPanics(t, func() {
			c.DeriveFields([]model.Record{}, report)
		})
	})
}

func TestValueBuckets(t *testing.T) {
	c := newTestCleaner(t)

	t.Run("quartile buckets and high-value flag over the batch", func(t *testing.T) {
		prices := []string{"10", "20", "30", "40", "50", "60", "70", "80", "90", "100"}
		records := make([]model.Record, len(prices))
		for i, p := range prices {
			records[i].RawPlanPrice = p
		}
		report := NewReport(len(records))

		c.DeriveFields(records, report)

		assert.Equal(t, "Small", records[0].TxnValueBucket)
		assert.Equal(t, "Enterprise", records[9].TxnValueBucket)

		// is_high_value implies price >= empirical P90.
		p90, ok := quantileOf([]float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, 0.90)
		require.True(t, ok)
		for _, r := range records {
			if r.IsHighValue {
				assert.GreaterOrEqual(t, *r.PlanPrice, p90)
			} else {
				assert.Less(t, *r.PlanPrice, p90)
			}
		}
	})

	t.Run("records without a price stay unbucketed", func(t *testing.T) {
		records := []model.Record{
			{RawPlanPrice: "10"},
			{RawPlanPrice: "bad"},
			{RawPlanPrice: "30"},
		}
		report := NewReport(len(records))

		c.DeriveFields(records, report)

		assert.Empty(t, records[1].TxnValueBucket)
		assert.False(t, records[1].IsHighValue)
		assert.NotEmpty(t, records[0].TxnValueBucket)
	})

	t.Run("all prices identical collapses to one bucket", func(t *testing.T) {
		records := []model.Record{
			{RawPlanPrice: "25"},
			{RawPlanPrice: "25"},
			{RawPlanPrice: "25"},
		}
		report := NewReport(len(records))

		c.DeriveFields(records, report)

		for _, r := range records {
			assert.Equal(t, "Small", r.TxnValueBucket)
			assert.True(t, r.IsHighValue) // everything sits at P90
		}
	})
}

func TestQualityReport(t *testing.T) {
	c := newTestCleaner(t)

	t.Run("duplicate subscription ids are counted", func(t *testing.T) {
		records := []model.Record{
			{SubscriptionID: "a"},
			{SubscriptionID: "b"},
			{SubscriptionID: "a"},
			{SubscriptionID: "a"},
		}
		report := NewReport(len(records))

		c.QualityReport(records, report)

		assert.Equal(t, 2, report.DuplicateSubscriptionIDs)
	})

	t.Run("numeric ranges and distributions", func(t *testing.T) {
		records := []model.Record{
			{SubscriptionID: "a", PaymentStatus: "success", BillingCycle: "monthly", RawPlanPrice: "9.99"},
			{SubscriptionID: "b", PaymentStatus: "failed", BillingCycle: "yearly", RawPlanPrice: "120"},
			{SubscriptionID: "c", PaymentStatus: "success", BillingCycle: "monthly"},
		}
		report := NewReport(len(records))

		c.DeriveFields(records, report)
		c.QualityReport(records, report)

		assert.Equal(t, 2, report.PaymentStatusCounts["success"])
		assert.Equal(t, 1, report.PaymentStatusCounts["failed"])
		assert.Equal(t, 2, report.BillingCycleCounts["monthly"])

		priceRange := report.NumericRanges["plan_price"]
		assert.Equal(t, 9.99, priceRange.Min)
		assert.Equal(t, 120.0, priceRange.Max)

		assert.Equal(t, 1, report.MissingByColumn["plan_price"])
		assert.Equal(t, 3, report.MissingByColumn["customer_email"])
	})

	t.Run("never mutates records", func(t *testing.T) {
		records := []model.Record{{SubscriptionID: "a", PaymentStatus: "success"}}
		before := records[0]
		report := NewReport(len(records))

		c.QualityReport(records, report)

		assert.Equal(t, before, records[0])
	})
}

func TestCleanFullStage(t *testing.T) {
	c := newTestCleaner(t)

	t.Run("does not modify the input batch", func(t *testing.T) {
		input := []model.Record{{
			SubscriptionID:     "sub-1",
			RawLastPaymentDate: "2024-01-15",
			RawPlanPrice:       "9.99",
		}}

		cleaned, report := c.Clean(input)

		require.Len(t, cleaned, 1)
		assert.NotNil(t, cleaned[0].LastPaymentDate)
		assert.Nil(t, input[0].LastPaymentDate, "input batch must stay untouched")
		assert.Equal(t, 1, report.TotalRecords)
	})

	t.Run("empty batch yields empty report", func(t *testing.T) {
		cleaned, report := c.Clean(nil)
		assert.Empty(t, cleaned)
		assert.Equal(t, 0, report.TotalRecords)
	})
}
