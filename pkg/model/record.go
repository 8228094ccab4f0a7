// pkg/model/record.go
package model

import "time"

// Record is the unit of data flowing through the pipeline: one
// subscription-billing event. The same struct carries the record through
// all three stages; ingest fills the raw fields, the cleaner fills the
// parsed and derived fields, the enricher fills the enriched fields.
// Stages return new slices and never mutate a batch they handed off.
type Record struct {
	// Raw identifiers and categoricals, as read from the source.
	SubscriptionID       string
	CustomerID           string
	CustomerEmail        string
	PlanID               string
	PlanName             string
	BillingCycle         string
	PaymentStatus        string
	PaymentMethod        string
	PaymentFailureReason string
	RetentionStatus      string
	IsActive             bool

	// Raw values that need coercion. Kept verbatim so malformed inputs
	// can be counted and reported by the cleaner.
	RawSubscriptionStartDate   string
	RawNextRenewalDate         string
	RawLastPaymentDate         string
	RawCancellationDate        string
	RawLastRetentionActionDate string
	RawPlanPrice               string
	RawTotalPayments           string
	RawFailedPaymentsCount     string

	// Parsed timestamps. Nil means the raw value was missing or
	// unparseable; the record is kept either way.
	SubscriptionStartDate   *time.Time
	NextRenewalDate         *time.Time
	LastPaymentDate         *time.Time
	CancellationDate        *time.Time
	LastRetentionActionDate *time.Time

	// Coerced numerics. Nil means missing or non-numeric.
	PlanPrice           *float64
	TotalPayments       *int64
	FailedPaymentsCount *int64

	// Derived by the cleaning stage from LastPaymentDate and the
	// coerced numerics.
	Date                *time.Time // midnight-truncated LastPaymentDate
	Month               string     // "2006-01"
	Quarter             string     // "2006Q1"
	Year                *int
	DayOfWeek           string // English day name
	Hour                *int
	IsSuccess           bool
	TxnValueBucket      string // Small/Medium/Large/Enterprise, "" if unbucketed
	IsHighValue         bool
	SubscriptionAgeDays *int
	IsRecurring         bool

	// Enriched dimensions. Category fields are always set, falling back
	// to their documented sentinels rather than staying empty.
	PaymentProvider      string
	GeoRegion            string
	ProductTier          string
	ProcessingTimeS      float64
	ProcessingTimeBucket string
	MRRAtRisk            float64
	FailureReasonStd     string
	FailureSeverity      string
	SubscriptionType     string
	RetryAttempts        int
}

// PriceOrZero returns the coerced plan price, or zero when missing.
func (r *Record) PriceOrZero() float64 {
	if r.PlanPrice == nil {
		return 0
	}
	return *r.PlanPrice
}

// TotalPaymentsOrZero returns the coerced payment count, or zero when missing.
func (r *Record) TotalPaymentsOrZero() int64 {
	if r.TotalPayments == nil {
		return 0
	}
	return *r.TotalPayments
}
