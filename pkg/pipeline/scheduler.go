// pkg/pipeline/scheduler.go
package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Schedule runs a full refresh on a cron expression and returns the
// started scheduler. Each tick is an independent run; a failing run is
// logged and the schedule keeps going, since the previous payments
// table remains intact after a failed load.
func (p *Pipeline) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(spec, func() {
		summary, err := p.Run(context.Background())
		if err != nil {
			p.logger.Error("Scheduled run failed",
				zap.String("runID", summary.RunID),
				zap.String("stage", summary.FailedStage),
				zap.Error(err))
			return
		}
		p.logger.Info("Scheduled run completed",
			zap.String("runID", summary.RunID),
			zap.Int64("rowsLoaded", summary.RowsLoaded))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	p.logger.Info("Scheduler started", zap.String("schedule", spec))
	return c, nil
}
