// pkg/pipeline/summary.go
package pipeline

import (
	"time"

	"github.com/analytics-eng/payments-etl/pkg/cleaner"
	"github.com/analytics-eng/payments-etl/pkg/loader"
)

// Stage names used in summaries and errors.
const (
	StageIngest = "ingest"
	StageClean  = "clean"
	StageEnrich = "enrich"
	StageLoad   = "load"
)

// RunSummary is the record of one pipeline run: identity, per-stage
// timings, record counts, and the diagnostic reports from the cleaning
// and load stages.
type RunSummary struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	RawRecords int
	RowsLoaded int64

	StageDurations map[string]time.Duration
	FailedStage    string // empty on success

	Quality    *cleaner.Report
	Validation *loader.ValidationReport
}

// NewRunSummary starts a summary for a new run.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		RunID:          newRunID(),
		StartedAt:      time.Now(),
		StageDurations: make(map[string]time.Duration),
	}
}

// Complete finalizes the summary on success.
func (s *RunSummary) Complete() {
	s.Duration = time.Since(s.StartedAt)
}

// Fail marks the stage that aborted the run.
func (s *RunSummary) Fail(stage string) {
	s.FailedStage = stage
	s.Duration = time.Since(s.StartedAt)
}

// Succeeded reports whether the run completed all stages.
func (s *RunSummary) Succeeded() bool {
	return s.FailedStage == ""
}
