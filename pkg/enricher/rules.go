// pkg/enricher/rules.go
package enricher

import (
	"math"
	"math/rand"
	"strings"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

// assignProvider draws a payment provider from the distribution keyed
// by payment_method. A missing or unrecognized method maps to Unknown
// deterministically, without consuming a draw.
func (e *Enricher) assignProvider(r *model.Record, rng *rand.Rand) {
	options, ok := e.tables.Providers[r.PaymentMethod]
	if !ok {
		r.PaymentProvider = ProviderUnknown
		return
	}

	// One uniform draw walks the cumulative weights. Single-option
	// distributions still consume the draw so the per-record draw
	// order stays fixed.
	u := rng.Float64()
	cumulative := 0.0
	for _, opt := range options {
		cumulative += opt.Weight
		if u < cumulative {
			r.PaymentProvider = opt.Name
			return
		}
	}
	// Guard against cumulative rounding below 1.0.
	r.PaymentProvider = options[len(options)-1].Name
}

// inferRegion matches the lowercased email against the ordered region
// rules; first match wins. No match or missing email maps to Other.
func (e *Enricher) inferRegion(r *model.Record) {
	if r.CustomerEmail == "" {
		r.GeoRegion = RegionOther
		return
	}

	email := strings.ToLower(r.CustomerEmail)
	for _, rule := range e.tables.Regions {
		if strings.Contains(email, rule.Pattern) {
			r.GeoRegion = rule.Region
			return
		}
	}
	r.GeoRegion = RegionOther
}

// mapProductTier is an exact-string lookup of plan_name.
func (e *Enricher) mapProductTier(r *model.Record) {
	if tier, ok := e.tables.Tiers[r.PlanName]; ok {
		r.ProductTier = tier
		return
	}
	r.ProductTier = TierOther
}

// synthesizeProcessingTime draws a log-normal latency with parameters
// keyed by payment_method, inflates failed payments by a uniform factor
// in [1.5, 3.0) to model retries and timeouts, rounds to 2 decimals and
// buckets the result.
func (e *Enricher) synthesizeProcessingTime(r *model.Record, rng *rand.Rand) {
	params, ok := e.tables.Latency[r.PaymentMethod]
	if !ok {
		params = e.tables.DefaultLatency
	}

	seconds := math.Exp(params.Mu + params.Sigma*rng.NormFloat64())
	if !r.IsSuccess {
		seconds *= 1.5 + rng.Float64()*1.5
	}

	r.ProcessingTimeS = math.Round(seconds*100) / 100
	r.ProcessingTimeBucket = processingBucket(r.ProcessingTimeS)
}

// processingBucket places a latency into the fixed intervals
// [0,1) [1,3) [3,10) [10,inf).
func processingBucket(seconds float64) string {
	switch {
	case seconds < 1:
		return "<1s"
	case seconds < 3:
		return "1-3s"
	case seconds < 10:
		return "3-10s"
	default:
		return ">10s"
	}
}

// computeMRRAtRisk converts plan_price to its monthly equivalent for
// unsuccessful payments on active subscriptions; everything else is 0.
func (e *Enricher) computeMRRAtRisk(r *model.Record) {
	if r.IsSuccess || !r.IsActive || r.PlanPrice == nil {
		r.MRRAtRisk = 0
		return
	}
	r.MRRAtRisk = monthlyEquivalent(*r.PlanPrice, r.BillingCycle)
}

// standardizeFailureReason maps the free-text failure reason to its
// canonical code; unmapped or missing input maps to none.
func (e *Enricher) standardizeFailureReason(r *model.Record) {
	if code, ok := e.tables.FailureReasons[r.PaymentFailureReason]; ok {
		r.FailureReasonStd = code
		return
	}
	r.FailureReasonStd = FailureNone
}

// assignFailureSeverity is a total lookup of the canonical code. It
// must run after standardizeFailureReason; the severity is never set
// from anything but the standardized code.
func (e *Enricher) assignFailureSeverity(r *model.Record) {
	if severity, ok := e.tables.FailureSeverities[r.FailureReasonStd]; ok {
		r.FailureSeverity = severity
		return
	}
	r.FailureSeverity = SeverityNone
}

// inferSubscriptionType classifies the subscription lifecycle state.
// A first payment is "new" regardless of active status.
func (e *Enricher) inferSubscriptionType(r *model.Record) {
	switch {
	case r.TotalPaymentsOrZero() <= 1:
		r.SubscriptionType = "new"
	case r.IsActive:
		r.SubscriptionType = "renewal"
	default:
		r.SubscriptionType = "churned"
	}
}

// synthesizeRetryAttempts draws 1..3 retries for failed payments with
// weights 0.5/0.3/0.2; success and pending payments have none.
func (e *Enricher) synthesizeRetryAttempts(r *model.Record, rng *rand.Rand) {
	if r.PaymentStatus != "failed" {
		r.RetryAttempts = 0
		return
	}

	switch u := rng.Float64(); {
	case u < 0.5:
		r.RetryAttempts = 1
	case u < 0.8:
		r.RetryAttempts = 2
	default:
		r.RetryAttempts = 3
	}
}
