// pkg/enricher/enricher_test.go
package enricher

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

func newTestEnricher(t *testing.T, seed int64, workers int) *Enricher {
	t.Helper()
	e, err := NewEnricher(DefaultTables(), seed, workers, zap.NewNop())
	require.NoError(t, err)
	return e
}

// testBatch builds a mixed batch exercising every rule path.
func testBatch(n int) []model.Record {
	methods := []string{"credit_card", "debit_card", "paypal", "bank_transfer", "other"}
	statuses := []string{"success", "failed", "pending"}
	cycles := []string{"monthly", "quarterly", "yearly", "weekly"}

	records := make([]model.Record, n)
	for i := range records {
		price := float64(5 + i%40)
		total := int64(i % 5)
		records[i] = model.Record{
			SubscriptionID: fmt.Sprintf("sub-%04d", i),
			CustomerEmail:  fmt.Sprintf("user%d@example.com", i),
			PlanName:       "Monthly Basic",
			BillingCycle:   cycles[i%len(cycles)],
			PaymentStatus:  statuses[i%len(statuses)],
			PaymentMethod:  methods[i%len(methods)],
			IsActive:       i%2 == 0,
			PlanPrice:      &price,
			TotalPayments:  &total,
			IsSuccess:      statuses[i%len(statuses)] == "success",
		}
	}
	return records
}

func TestNewEnricher(t *testing.T) {
	t.Run("rejects nil logger", func(t *testing.T) {
		_, err := NewEnricher(DefaultTables(), 42, 1, nil)
		require.Error(t, err)
	})

	t.Run("rejects invalid tables", func(t *testing.T) {
		tables := DefaultTables()
		tables.Providers["credit_card"] = []ProviderOption{{Name: "Stripe", Weight: 0.5}}
		_, err := NewEnricher(tables, 42, 1, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid enrichment tables")
	})
}

func TestEnrichReproducibility(t *testing.T) {
	t.Run("same seed gives byte-identical synthetic columns", func(t *testing.T) {
		batch := testBatch(200)

		first := newTestEnricher(t, 42, 1).Enrich(batch)
		second := newTestEnricher(t, 42, 1).Enrich(batch)

		require.Equal(t, len(first), len(second))
		for i := range first {
			assert.Equal(t, first[i].PaymentProvider, second[i].PaymentProvider, "record %d", i)
			assert.Equal(t, first[i].ProcessingTimeS, second[i].ProcessingTimeS, "record %d", i)
			assert.Equal(t, first[i].RetryAttempts, second[i].RetryAttempts, "record %d", i)
		}
	})

	t.Run("different seeds give different synthetic columns", func(t *testing.T) {
		batch := testBatch(200)

		first := newTestEnricher(t, 42, 1).Enrich(batch)
		second := newTestEnricher(t, 1042, 1).Enrich(batch)

		diff := 0
		for i := range first {
			if first[i].ProcessingTimeS != second[i].ProcessingTimeS {
				diff++
			}
		}
		assert.Greater(t, diff, len(first)/2, "seeds should decorrelate latency draws")
	})

	t.Run("worker count does not change the output", func(t *testing.T) {
		batch := testBatch(500)

		sequential := newTestEnricher(t, 42, 1).Enrich(batch)
		parallel := newTestEnricher(t, 42, 8).Enrich(batch)

		assert.Equal(t, sequential, parallel)
	})

	t.Run("batch order does not change a record's values", func(t *testing.T) {
		batch := testBatch(50)
		reversed := make([]model.Record, len(batch))
		for i := range batch {
			reversed[len(batch)-1-i] = batch[i]
		}

		e := newTestEnricher(t, 42, 1)
		forward := e.Enrich(batch)
		backward := e.Enrich(reversed)

		byID := make(map[string]model.Record, len(backward))
		for _, r := range backward {
			byID[r.SubscriptionID] = r
		}
		for _, r := range forward {
			assert.Equal(t, byID[r.SubscriptionID], r)
		}
	})
}

func TestEnrichClosedSets(t *testing.T) {
	e := newTestEnricher(t, 42, 4)
	enriched := e.Enrich(testBatch(300))

	providers := map[string]bool{
		"Stripe": true, "CardDirect": true, "Adyen": true, "PayPal": true,
		"SEPA": true, "Wire": true, "ACH": true, "Crypto": true,
		"Other": true, ProviderUnknown: true,
	}
	buckets := map[string]bool{"<1s": true, "1-3s": true, "3-10s": true, ">10s": true}
	severities := map[string]bool{"none": true, "low": true, "medium": true, "high": true, "critical": true}
	subTypes := map[string]bool{"new": true, "renewal": true, "churned": true}

	for _, r := range enriched {
		assert.True(t, providers[r.PaymentProvider], "provider %q", r.PaymentProvider)
		assert.True(t, buckets[r.ProcessingTimeBucket], "bucket %q", r.ProcessingTimeBucket)
		assert.True(t, severities[r.FailureSeverity], "severity %q", r.FailureSeverity)
		assert.True(t, subTypes[r.SubscriptionType], "subscription type %q", r.SubscriptionType)
		assert.Greater(t, r.ProcessingTimeS, 0.0)
		assert.GreaterOrEqual(t, r.RetryAttempts, 0)
		assert.LessOrEqual(t, r.RetryAttempts, 3)
		assert.GreaterOrEqual(t, r.MRRAtRisk, 0.0)
		assert.NotEmpty(t, r.GeoRegion)
		assert.NotEmpty(t, r.ProductTier)
	}
}

func TestEnrichDoesNotModifyInput(t *testing.T) {
	batch := testBatch(10)
	before := make([]model.Record, len(batch))
	copy(before, batch)

	newTestEnricher(t, 42, 2).Enrich(batch)

	assert.Equal(t, before, batch)
}

func TestEnrichEmptyBatch(t *testing.T) {
	e := newTestEnricher(t, 42, 4)
	assert.Empty(t, e.Enrich(nil))
	assert.Empty(t, e.Enrich([]model.Record{}))
}
