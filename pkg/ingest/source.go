// pkg/ingest/source.go
package ingest

import (
	"context"
	"strings"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

// Source produces the raw record batch the pipeline runs on. Sources
// are thin I/O wrappers: they map columns into raw record fields and do
// no cleaning beyond lenient boolean parsing of is_active. Type
// coercion and validation belong to the cleaning stage.
type Source interface {
	Fetch(ctx context.Context) ([]model.Record, error)
}

// inputColumns is the expected raw input schema, in canonical order.
var inputColumns = []string{
	"subscription_id",
	"customer_id",
	"customer_email",
	"plan_id",
	"plan_name",
	"billing_cycle",
	"payment_status",
	"payment_method",
	"payment_failure_reason",
	"plan_price",
	"total_payments",
	"failed_payments_count",
	"is_active",
	"subscription_start_date",
	"next_renewal_date",
	"last_payment_date",
	"cancellation_date",
	"last_retention_action_date",
	"retention_status",
}

// setRawField assigns a raw column value to its record field. Unknown
// columns are ignored so extra export columns do not break ingestion.
func setRawField(r *model.Record, column, value string) {
	switch column {
	case "subscription_id":
		r.SubscriptionID = value
	case "customer_id":
		r.CustomerID = value
	case "customer_email":
		r.CustomerEmail = value
	case "plan_id":
		r.PlanID = value
	case "plan_name":
		r.PlanName = value
	case "billing_cycle":
		r.BillingCycle = value
	case "payment_status":
		r.PaymentStatus = value
	case "payment_method":
		r.PaymentMethod = value
	case "payment_failure_reason":
		r.PaymentFailureReason = value
	case "plan_price":
		r.RawPlanPrice = value
	case "total_payments":
		r.RawTotalPayments = value
	case "failed_payments_count":
		r.RawFailedPaymentsCount = value
	case "is_active":
		r.IsActive = parseLenientBool(value)
	case "subscription_start_date":
		r.RawSubscriptionStartDate = value
	case "next_renewal_date":
		r.RawNextRenewalDate = value
	case "last_payment_date":
		r.RawLastPaymentDate = value
	case "cancellation_date":
		r.RawCancellationDate = value
	case "last_retention_action_date":
		r.RawLastRetentionActionDate = value
	case "retention_status":
		r.RetentionStatus = value
	}
}

// parseLenientBool accepts the boolean spellings seen in raw exports.
// Anything unrecognized is false.
func parseLenientBool(value string) bool {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "true", "t", "yes", "y", "1":
		return true
	default:
		return false
	}
}
