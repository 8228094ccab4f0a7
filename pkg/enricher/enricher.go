// pkg/enricher/enricher.go
package enricher

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

// Enricher applies the ten derivation rules that turn cleaned records
// into analytics-ready records. Lookup tables are injected immutable
// data; all stochastic rules draw from a per-record source derived from
// the run seed and the record's subscription_id, so output is
// byte-identical across runs and across worker counts.
type Enricher struct {
	tables  Tables
	seed    int64
	workers int
	logger  *zap.Logger
}

// NewEnricher creates an Enricher. A non-positive worker count means
// one worker per CPU.
func NewEnricher(tables Tables, seed int64, workers int, logger *zap.Logger) (*Enricher, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid enrichment tables: %w", err)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &Enricher{
		tables:  tables,
		seed:    seed,
		workers: workers,
		logger:  logger,
	}, nil
}

// Enrich applies every rule to every record and returns the enriched
// batch. The input slice is not modified. Rules never fail for a
// well-typed record; lookup misses resolve to sentinels.
func (e *Enricher) Enrich(records []model.Record) []model.Record {
	enriched := make([]model.Record, len(records))
	copy(enriched, records)

	workers := e.workers
	if workers > len(enriched) {
		workers = len(enriched)
	}
	if workers <= 1 {
		e.enrichChunk(enriched)
	} else {
		e.enrichParallel(enriched, workers)
	}

	e.logger.Info("Enrichment stage completed",
		zap.Int("records", len(enriched)),
		zap.Int("workers", workers),
		zap.Int64("seed", e.seed))

	return enriched
}

// enrichParallel splits the batch into contiguous chunks, one per
// worker. Safe because each record's draws come from its own derived
// source; chunk boundaries cannot change any value.
func (e *Enricher) enrichParallel(records []model.Record, workers int) {
	chunkSize := (len(records) + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < len(records); start += chunkSize {
		end := start + chunkSize
		if end > len(records) {
			end = len(records)
		}

		wg.Add(1)
		go func(chunk []model.Record) {
			defer wg.Done()
			e.enrichChunk(chunk)
		}(records[start:end])
	}
	wg.Wait()
}

func (e *Enricher) enrichChunk(records []model.Record) {
	for i := range records {
		e.enrichRecord(&records[i])
	}
}

// enrichRecord applies the rules in a fixed order. The stochastic rules
// (provider, latency, retries) consume draws in that same order, which
// is part of the reproducibility contract.
func (e *Enricher) enrichRecord(r *model.Record) {
	rng := e.recordRand(r.SubscriptionID)

	e.assignProvider(r, rng)
	e.inferRegion(r)
	e.mapProductTier(r)
	e.synthesizeProcessingTime(r, rng)
	e.computeMRRAtRisk(r)
	e.standardizeFailureReason(r)
	e.assignFailureSeverity(r)
	e.inferSubscriptionType(r)
	e.synthesizeRetryAttempts(r, rng)
}

// recordRand derives the record's random source from the run seed and a
// stable hash of subscription_id. Records therefore do not share a draw
// stream and batch ordering does not influence synthetic columns.
func (e *Enricher) recordRand(subscriptionID string) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(subscriptionID))
	return rand.New(rand.NewSource(int64(h.Sum64()) ^ e.seed))
}

// Tables returns the engine's lookup tables.
func (e *Enricher) Tables() Tables {
	return e.tables
}
