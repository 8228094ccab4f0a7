// pkg/cleaner/report.go
package cleaner

import (
	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

var dateColumns = []string{
	"subscription_start_date",
	"next_renewal_date",
	"last_payment_date",
	"cancellation_date",
	"last_retention_action_date",
}

// Range holds the observed min/max of a numeric column.
type Range struct {
	Min float64
	Max float64
}

// Report is the cleaning stage's data-quality report. It is purely
// diagnostic: findings are logged and surfaced in the run summary but
// never block downstream stages.
type Report struct {
	TotalRecords             int
	MissingByColumn          map[string]int
	MalformedDates           map[string]int
	ValidDates               map[string]int
	MalformedNumerics        map[string]int
	DuplicateSubscriptionIDs int
	NumericRanges            map[string]Range
	PaymentStatusCounts      map[string]int
	BillingCycleCounts       map[string]int
}

// NewReport creates an empty report for a batch of the given size.
func NewReport(total int) *Report {
	return &Report{
		TotalRecords:        total,
		MissingByColumn:     make(map[string]int),
		MalformedDates:      make(map[string]int),
		ValidDates:          make(map[string]int),
		MalformedNumerics:   make(map[string]int),
		NumericRanges:       make(map[string]Range),
		PaymentStatusCounts: make(map[string]int),
		BillingCycleCounts:  make(map[string]int),
	}
}

// TotalMalformedDates sums malformed-date counts across columns.
func (r *Report) TotalMalformedDates() int {
	total := 0
	for _, n := range r.MalformedDates {
		total += n
	}
	return total
}

// TotalMalformedNumerics sums malformed-numeric counts across columns.
func (r *Report) TotalMalformedNumerics() int {
	total := 0
	for _, n := range r.MalformedNumerics {
		total += n
	}
	return total
}

// QualityReport fills in the diagnostic sections of the report: missing
// values per column, duplicate keys, numeric ranges and the categorical
// distributions. It never mutates records.
func (c *Cleaner) QualityReport(records []model.Record, report *Report) {
	seen := make(map[string]bool, len(records))

	var (
		priceStats  rangeAccumulator
		totalStats  rangeAccumulator
		failedStats rangeAccumulator
	)

	for i := range records {
		r := &records[i]

		countMissingString(report, "subscription_id", r.SubscriptionID)
		countMissingString(report, "customer_id", r.CustomerID)
		countMissingString(report, "customer_email", r.CustomerEmail)
		countMissingString(report, "plan_id", r.PlanID)
		countMissingString(report, "plan_name", r.PlanName)
		countMissingString(report, "billing_cycle", r.BillingCycle)
		countMissingString(report, "payment_status", r.PaymentStatus)
		countMissingString(report, "payment_method", r.PaymentMethod)
		countMissingString(report, "payment_failure_reason", r.PaymentFailureReason)
		countMissingString(report, "retention_status", r.RetentionStatus)

		if r.SubscriptionStartDate == nil {
			report.MissingByColumn["subscription_start_date"]++
		}
		if r.NextRenewalDate == nil {
			report.MissingByColumn["next_renewal_date"]++
		}
		if r.LastPaymentDate == nil {
			report.MissingByColumn["last_payment_date"]++
		}
		if r.CancellationDate == nil {
			report.MissingByColumn["cancellation_date"]++
		}
		if r.LastRetentionActionDate == nil {
			report.MissingByColumn["last_retention_action_date"]++
		}

		if r.PlanPrice == nil {
			report.MissingByColumn["plan_price"]++
		} else {
			priceStats.add(*r.PlanPrice)
		}
		if r.TotalPayments == nil {
			report.MissingByColumn["total_payments"]++
		} else {
			totalStats.add(float64(*r.TotalPayments))
		}
		if r.FailedPaymentsCount == nil {
			report.MissingByColumn["failed_payments_count"]++
		} else {
			failedStats.add(float64(*r.FailedPaymentsCount))
		}

		if seen[r.SubscriptionID] {
			report.DuplicateSubscriptionIDs++
		}
		seen[r.SubscriptionID] = true

		report.PaymentStatusCounts[r.PaymentStatus]++
		report.BillingCycleCounts[r.BillingCycle]++
	}

	priceStats.store(report, "plan_price")
	totalStats.store(report, "total_payments")
	failedStats.store(report, "failed_payments_count")

	c.logger.Info("Data quality report",
		zap.Int("records", report.TotalRecords),
		zap.Int("duplicateSubscriptionIDs", report.DuplicateSubscriptionIDs),
		zap.Any("paymentStatus", report.PaymentStatusCounts),
		zap.Any("billingCycle", report.BillingCycleCounts))
}

func countMissingString(report *Report, column, value string) {
	if value == "" {
		report.MissingByColumn[column]++
	}
}

type rangeAccumulator struct {
	seen bool
	min  float64
	max  float64
}

func (a *rangeAccumulator) add(v float64) {
	if !a.seen {
		a.min, a.max = v, v
		a.seen = true
		return
	}
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
}

func (a *rangeAccumulator) store(report *Report, column string) {
	if a.seen {
		report.NumericRanges[column] = Range{Min: a.min, Max: a.max}
	}
}
