// pkg/model/columns.go
package model

import "time"

// Column describes one column of the published payments table.
type Column struct {
	Name    string
	SQLType string
}

// Columns is the stable output schema consumed by the load stage: the
// raw input columns, the cleaning-stage derivations, then the enriched
// dimensions. The loader creates the sink table in exactly this order
// and SQLValues emits record values to match.
var Columns = []Column{
	{"subscription_id", "TEXT"},
	{"customer_id", "TEXT"},
	{"customer_email", "TEXT"},
	{"plan_id", "TEXT"},
	{"plan_name", "TEXT"},
	{"billing_cycle", "TEXT"},
	{"payment_status", "TEXT"},
	{"payment_method", "TEXT"},
	{"payment_failure_reason", "TEXT"},
	{"plan_price", "NUMERIC(12,2)"},
	{"total_payments", "BIGINT"},
	{"failed_payments_count", "BIGINT"},
	{"is_active", "BOOLEAN"},
	{"subscription_start_date", "TIMESTAMP"},
	{"next_renewal_date", "TIMESTAMP"},
	{"last_payment_date", "TIMESTAMP"},
	{"cancellation_date", "TIMESTAMP"},
	{"last_retention_action_date", "TIMESTAMP"},
	{"retention_status", "TEXT"},

	{"date", "TIMESTAMP"},
	{"month", "TEXT"},
	{"quarter", "TEXT"},
	{"year", "INTEGER"},
	{"day_of_week", "TEXT"},
	{"hour", "INTEGER"},
	{"is_success", "BOOLEAN"},
	{"txn_value_bucket", "TEXT"},
	{"is_high_value", "BOOLEAN"},
	{"subscription_age_days", "INTEGER"},
	{"is_recurring", "BOOLEAN"},

	{"payment_provider", "TEXT"},
	{"geo_region", "TEXT"},
	{"product_tier", "TEXT"},
	{"processing_time_s", "NUMERIC(12,2)"},
	{"processing_time_bucket", "TEXT"},
	{"mrr_at_risk", "NUMERIC(12,2)"},
	{"failure_reason_std", "TEXT"},
	{"failure_severity", "TEXT"},
	{"subscription_type", "TEXT"},
	{"retry_attempts", "INTEGER"},
}

// IndexedColumns are the columns used for analytical filtering; the
// loader builds a secondary index on each.
var IndexedColumns = []string{
	"payment_status",
	"payment_provider",
	"geo_region",
	"product_tier",
	"date",
	"month",
	"is_success",
	"is_high_value",
	"failure_reason_std",
	"customer_id",
	"subscription_id",
}

// ColumnNames returns the schema's column names in publish order.
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// SQLValues returns the record's values aligned with Columns. Nullable
// fields map to nil so the driver writes SQL NULL; category fields are
// already sentinel-filled and never null.
func (r *Record) SQLValues() []interface{} {
	return []interface{}{
		r.SubscriptionID,
		r.CustomerID,
		r.CustomerEmail,
		r.PlanID,
		r.PlanName,
		r.BillingCycle,
		r.PaymentStatus,
		r.PaymentMethod,
		r.PaymentFailureReason,
		nullableFloat(r.PlanPrice),
		nullableInt(r.TotalPayments),
		nullableInt(r.FailedPaymentsCount),
		r.IsActive,
		nullableTimePtr(r.SubscriptionStartDate),
		nullableTimePtr(r.NextRenewalDate),
		nullableTimePtr(r.LastPaymentDate),
		nullableTimePtr(r.CancellationDate),
		nullableTimePtr(r.LastRetentionActionDate),
		r.RetentionStatus,

		nullableTimePtr(r.Date),
		r.Month,
		r.Quarter,
		nullableIntPtr(r.Year),
		r.DayOfWeek,
		nullableIntPtr(r.Hour),
		r.IsSuccess,
		r.TxnValueBucket,
		r.IsHighValue,
		nullableIntPtr(r.SubscriptionAgeDays),
		r.IsRecurring,

		r.PaymentProvider,
		r.GeoRegion,
		r.ProductTier,
		r.ProcessingTimeS,
		r.ProcessingTimeBucket,
		r.MRRAtRisk,
		r.FailureReasonStd,
		r.FailureSeverity,
		r.SubscriptionType,
		r.RetryAttempts,
	}
}

func nullableFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableIntPtr(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func nullableTimePtr(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
