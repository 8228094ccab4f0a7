// pkg/loader/sql_test.go
package loader

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

func TestCreateTableSQL(t *testing.T) {
	sql := createTableSQL(stagingName)

	assert.True(t, strings.HasPrefix(sql, "CREATE TABLE payments_staging ("))
	for _, col := range model.Columns {
		assert.Contains(t, sql, fmt.Sprintf("%s %s", col.Name, col.SQLType))
	}

	// One definition per column.
	assert.Equal(t, len(model.Columns)-1, strings.Count(sql, ",\n\t"))
}

func TestInsertSQL(t *testing.T) {
	t.Run("single row", func(t *testing.T) {
		sql := insertSQL(tableName, 1)

		assert.True(t, strings.HasPrefix(sql, "INSERT INTO payments ("))
		assert.Contains(t, sql, "$1")
		assert.Contains(t, sql, fmt.Sprintf("$%d", len(model.Columns)))
		assert.NotContains(t, sql, fmt.Sprintf("$%d", len(model.Columns)+1))
	})

	t.Run("placeholders continue across rows", func(t *testing.T) {
		sql := insertSQL(stagingName, 3)

		total := 3 * len(model.Columns)
		assert.Contains(t, sql, fmt.Sprintf("$%d)", total))
		assert.Equal(t, 3, strings.Count(sql, "("+"$"), "one group per row")
	})

	t.Run("column list matches schema order", func(t *testing.T) {
		sql := insertSQL(tableName, 1)
		assert.Contains(t, sql, strings.Join(model.ColumnNames(), ", "))
	})
}

func TestIndexSQL(t *testing.T) {
	statements := indexSQL(tableName)

	require.Len(t, statements, len(model.IndexedColumns))
	for i, col := range model.IndexedColumns {
		assert.Equal(t, fmt.Sprintf("CREATE INDEX idx_%s ON payments(%s)", col, col), statements[i])
	}
}

func TestDropStagingSQL(t *testing.T) {
	assert.Equal(t, "DROP TABLE IF EXISTS payments_staging CASCADE", dropStagingSQL())
}

func TestValidationReportMismatches(t *testing.T) {
	t.Run("clean report has none", func(t *testing.T) {
		report := &ValidationReport{
			RowCount:          100,
			ExpectedRows:      100,
			MRRAtRiskTotal:    1234.56,
			ExpectedMRRAtRisk: 1234.56,
		}
		assert.Empty(t, report.Mismatches())
	})

	t.Run("row count mismatch", func(t *testing.T) {
		report := &ValidationReport{RowCount: 99, ExpectedRows: 100}
		problems := report.Mismatches()
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "row count")
	})

	t.Run("mrr divergence beyond tolerance", func(t *testing.T) {
		report := &ValidationReport{
			RowCount:          100,
			ExpectedRows:      100,
			MRRAtRiskTotal:    1000.00,
			ExpectedMRRAtRisk: 1001.00,
		}
		problems := report.Mismatches()
		require.Len(t, problems, 1)
		assert.Contains(t, problems[0], "MRR at risk")
	})

	t.Run("mrr float noise within tolerance passes", func(t *testing.T) {
		report := &ValidationReport{
			RowCount:          100,
			ExpectedRows:      100,
			MRRAtRiskTotal:    1000.00,
			ExpectedMRRAtRisk: 1000.30,
		}
		assert.Empty(t, report.Mismatches())
	})
}
