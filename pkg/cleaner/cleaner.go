// pkg/cleaner/cleaner.go
package cleaner

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

// Cleaner is the cleaning stage: it parses raw date strings, coerces
// numeric fields, and derives the calendar / boolean / quantile columns.
// Bad values become nil fields and report counters, never errors; a
// record is never dropped here.
type Cleaner struct {
	logger *zap.Logger
}

// NewCleaner creates a new Cleaner instance
func NewCleaner(logger *zap.Logger) (*Cleaner, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Cleaner{logger: logger}, nil
}

// Clean runs the full cleaning stage over a batch and returns the
// cleaned batch together with its quality report. The input slice is
// not modified.
func (c *Cleaner) Clean(records []model.Record) ([]model.Record, *Report) {
	cleaned := make([]model.Record, len(records))
	copy(cleaned, records)

	report := NewReport(len(cleaned))

	c.ParseDates(cleaned, report)
	c.DeriveFields(cleaned, report)
	c.QualityReport(cleaned, report)

	c.logger.Info("Cleaning stage completed",
		zap.Int("records", len(cleaned)),
		zap.Int("malformedDates", report.TotalMalformedDates()),
		zap.Int("malformedNumerics", report.TotalMalformedNumerics()),
		zap.Int("duplicateSubscriptionIDs", report.DuplicateSubscriptionIDs))

	return cleaned, report
}

// ParseDates parses the five raw date columns into timestamps.
// Unparseable values stay nil and are counted per column.
func (c *Cleaner) ParseDates(records []model.Record, report *Report) {
	for i := range records {
		r := &records[i]
		r.SubscriptionStartDate = c.parseDateColumn(r.RawSubscriptionStartDate, "subscription_start_date", report)
		r.NextRenewalDate = c.parseDateColumn(r.RawNextRenewalDate, "next_renewal_date", report)
		r.LastPaymentDate = c.parseDateColumn(r.RawLastPaymentDate, "last_payment_date", report)
		r.CancellationDate = c.parseDateColumn(r.RawCancellationDate, "cancellation_date", report)
		r.LastRetentionActionDate = c.parseDateColumn(r.RawLastRetentionActionDate, "last_retention_action_date", report)
	}

	for _, col := range dateColumns {
		c.logger.Debug("Parsed date column",
			zap.String("column", col),
			zap.Int("valid", report.ValidDates[col]),
			zap.Int("malformed", report.MalformedDates[col]))
	}
}

func (c *Cleaner) parseDateColumn(raw, column string, report *Report) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := parseTime(raw)
	if err != nil {
		report.MalformedDates[column]++
		return nil
	}
	report.ValidDates[column]++
	return &t
}

// DeriveFields computes the derived columns: calendar decomposition of
// the last payment timestamp, success flag, coerced numerics, batch
// quantile buckets, high-value flag, subscription age and recurring flag.
func (c *Cleaner) DeriveFields(records []model.Record, report *Report) {
	for i := range records {
		r := &records[i]

		// Numeric coercion; non-numeric values are counted and left nil.
		r.PlanPrice = coerceFloatColumn(r.RawPlanPrice, "plan_price", report)
		r.TotalPayments = coerceIntColumn(r.RawTotalPayments, "total_payments", report)
		r.FailedPaymentsCount = coerceIntColumn(r.RawFailedPaymentsCount, "failed_payments_count", report)

		r.IsSuccess = r.PaymentStatus == "success"
		r.IsRecurring = r.TotalPayments != nil && *r.TotalPayments > 1

		if r.LastPaymentDate != nil {
			t := *r.LastPaymentDate
			date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			year := t.Year()
			hour := t.Hour()

			r.Date = &date
			r.Month = t.Format("2006-01")
			r.Quarter = quarterLabel(t)
			r.Year = &year
			r.DayOfWeek = t.Weekday().String()
			r.Hour = &hour

			if r.SubscriptionStartDate != nil {
				age := int(t.Sub(*r.SubscriptionStartDate).Hours() / 24)
				r.SubscriptionAgeDays = &age
			}
		}
	}

	c.applyValueBuckets(records)
}

// applyValueBuckets assigns txn_value_bucket and is_high_value from the
// batch's own empirical quantiles. Bucket boundaries are a property of
// the batch; they are recomputed identically on every full run.
func (c *Cleaner) applyValueBuckets(records []model.Record) {
	prices := make([]float64, 0, len(records))
	for i := range records {
		if records[i].PlanPrice != nil {
			prices = append(prices, *records[i].PlanPrice)
		}
	}

	cuts, labels := quartileBins(prices)
	highValue, hasHighValue := quantileOf(prices, 0.90)

	if len(prices) == 0 {
		c.logger.Warn("No numeric plan prices in batch, skipping value buckets")
		return
	}

	for i := range records {
		r := &records[i]
		if r.PlanPrice == nil {
			continue
		}
		r.TxnValueBucket = bucketFor(*r.PlanPrice, cuts, labels)
		if hasHighValue {
			r.IsHighValue = *r.PlanPrice >= highValue
		}
	}

	c.logger.Debug("Applied value buckets",
		zap.Float64s("cuts", cuts),
		zap.Strings("labels", labels),
		zap.Float64("highValueThreshold", highValue))
}

func coerceFloatColumn(raw, column string, report *Report) *float64 {
	if raw == "" {
		return nil
	}
	v, err := toFloat(raw)
	if err != nil {
		report.MalformedNumerics[column]++
		return nil
	}
	return &v
}

func coerceIntColumn(raw, column string, report *Report) *int64 {
	if raw == "" {
		return nil
	}
	v, err := toInt(raw)
	if err != nil {
		report.MalformedNumerics[column]++
		return nil
	}
	return &v
}

// quarterLabel formats a timestamp as a period label like "2024Q3".
func quarterLabel(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%dQ%d", t.Year(), q)
}
