// pkg/loader/validate.go
package loader

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

// ProviderCount is one row of the provider distribution check.
type ProviderCount struct {
	Provider string `db:"payment_provider"`
	Count    int64  `db:"count"`
}

// ValidationReport holds the post-load cross-checks between the sink
// and the in-memory batch that produced it.
type ValidationReport struct {
	RowCount     int64
	ExpectedRows int64

	StatusCounts map[string]int64
	TopProviders []ProviderCount

	MRRAtRiskTotal    float64
	ExpectedMRRAtRisk float64
}

// Mismatches lists the checks that failed. An empty slice means the
// load validated cleanly.
func (v *ValidationReport) Mismatches() []string {
	var problems []string
	if v.RowCount != v.ExpectedRows {
		problems = append(problems,
			fmt.Sprintf("row count %d does not match batch size %d", v.RowCount, v.ExpectedRows))
	}
	// 2-decimal money values accumulate float noise when summed, so
	// allow half a cent per summed row.
	if math.Abs(v.MRRAtRiskTotal-v.ExpectedMRRAtRisk) > 0.005*math.Max(1, float64(v.ExpectedRows)) {
		problems = append(problems,
			fmt.Sprintf("sink MRR at risk %.2f diverges from batch total %.2f", v.MRRAtRiskTotal, v.ExpectedMRRAtRisk))
	}
	return problems
}

// Validate runs the post-load checks: row count, payment status
// distribution, top providers and the MRR-at-risk aggregate
// cross-check against the in-memory batch.
func (l *Loader) Validate(ctx context.Context, records []model.Record) (*ValidationReport, error) {
	report := &ValidationReport{
		ExpectedRows: int64(len(records)),
		StatusCounts: make(map[string]int64),
	}
	for i := range records {
		report.ExpectedMRRAtRisk += records[i].MRRAtRisk
	}

	if err := l.db.GetContext(ctx, &report.RowCount,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)); err != nil {
		return nil, fmt.Errorf("failed to count loaded rows: %w", err)
	}

	rows, err := l.db.QueryxContext(ctx, fmt.Sprintf(
		"SELECT payment_status, COUNT(*) FROM %s GROUP BY payment_status ORDER BY COUNT(*) DESC", tableName))
	if err != nil {
		return nil, fmt.Errorf("failed to query status distribution: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status distribution: %w", err)
		}
		report.StatusCounts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status distribution: %w", err)
	}

	if err := l.db.SelectContext(ctx, &report.TopProviders, fmt.Sprintf(
		"SELECT payment_provider, COUNT(*) AS count FROM %s GROUP BY payment_provider ORDER BY count DESC LIMIT 5",
		tableName)); err != nil {
		return nil, fmt.Errorf("failed to query provider distribution: %w", err)
	}

	if err := l.db.GetContext(ctx, &report.MRRAtRiskTotal, fmt.Sprintf(
		"SELECT COALESCE(SUM(mrr_at_risk), 0) FROM %s", tableName)); err != nil {
		return nil, fmt.Errorf("failed to query MRR at risk total: %w", err)
	}

	l.logger.Info("Post-load validation",
		zap.Int64("rows", report.RowCount),
		zap.Int64("expectedRows", report.ExpectedRows),
		zap.Float64("mrrAtRisk", report.MRRAtRiskTotal),
		zap.Int("mismatches", len(report.Mismatches())))

	return report, nil
}
