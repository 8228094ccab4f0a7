// pkg/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/cleaner"
	"github.com/analytics-eng/payments-etl/pkg/enricher"
	"github.com/analytics-eng/payments-etl/pkg/ingest"
	"github.com/analytics-eng/payments-etl/pkg/loader"
	"github.com/analytics-eng/payments-etl/pkg/model"
)

// Sink consumes the final enriched batch. The production sink is
// loader.Loader; tests substitute an in-memory capture.
type Sink interface {
	Load(ctx context.Context, records []model.Record) (int64, error)
	Validate(ctx context.Context, records []model.Record) (*loader.ValidationReport, error)
}

// Pipeline wires the three stages together: source → cleaner →
// enricher → sink. Each run is a full refresh; the whole batch moves
// through one stage before the next starts.
type Pipeline struct {
	source   ingest.Source
	cleaner  *cleaner.Cleaner
	enricher *enricher.Enricher
	sink     Sink
	logger   *zap.Logger
}

// New creates a Pipeline from its stage components.
func New(source ingest.Source, cl *cleaner.Cleaner, en *enricher.Enricher, sink Sink, logger *zap.Logger) (*Pipeline, error) {
	if source == nil {
		return nil, errors.New("source cannot be nil")
	}
	if cl == nil {
		return nil, errors.New("cleaner cannot be nil")
	}
	if en == nil {
		return nil, errors.New("enricher cannot be nil")
	}
	if sink == nil {
		return nil, errors.New("sink cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &Pipeline{
		source:   source,
		cleaner:  cl,
		enricher: en,
		sink:     sink,
		logger:   logger.Named("pipeline"),
	}, nil
}

// Run executes one full refresh and returns the run summary. Quality
// findings are reported but never block; source and sink failures abort
// the run.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := NewRunSummary()
	logger := p.logger.With(zap.String("runID", summary.RunID))
	logger.Info("Starting pipeline run")

	raw, err := p.timedStage(summary, StageIngest, func() ([]model.Record, error) {
		return p.source.Fetch(ctx)
	})
	if err != nil {
		summary.Fail(StageIngest)
		return summary, &StageError{Stage: StageIngest, Err: err}
	}
	summary.RawRecords = len(raw)

	var report *cleaner.Report
	cleaned, _ := p.timedStage(summary, StageClean, func() ([]model.Record, error) {
		batch, r := p.cleaner.Clean(raw)
		report = r
		return batch, nil
	})
	summary.Quality = report

	enriched, _ := p.timedStage(summary, StageEnrich, func() ([]model.Record, error) {
		return p.enricher.Enrich(cleaned), nil
	})

	loadStart := time.Now()
	rows, err := p.sink.Load(ctx, enriched)
	summary.StageDurations[StageLoad] = time.Since(loadStart)
	summary.RowsLoaded = rows
	if err != nil {
		summary.Fail(StageLoad)
		return summary, &StageError{Stage: StageLoad, Err: err}
	}

	validation, err := p.sink.Validate(ctx, enriched)
	if err != nil {
		summary.Fail(StageLoad)
		return summary, &StageError{Stage: StageLoad, Err: fmt.Errorf("post-load validation failed: %w", err)}
	}
	summary.Validation = validation

	summary.Complete()
	logger.Info("Pipeline run completed",
		zap.Int("rawRecords", summary.RawRecords),
		zap.Int64("rowsLoaded", summary.RowsLoaded),
		zap.Strings("validationMismatches", validation.Mismatches()),
		zap.Duration("duration", summary.Duration))

	return summary, nil
}

func (p *Pipeline) timedStage(summary *RunSummary, stage string, fn func() ([]model.Record, error)) ([]model.Record, error) {
	start := time.Now()
	batch, err := fn()
	summary.StageDurations[stage] = time.Since(start)
	return batch, err
}

// StageError wraps a fatal error with the stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Run identifier helper, split out for testability.
func newRunID() string {
	return uuid.New().String()
}
