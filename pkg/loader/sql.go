// pkg/loader/sql.go
package loader

import (
	"fmt"
	"strings"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

func dropStagingSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", stagingName)
}

// createTableSQL builds the CREATE TABLE statement for the published
// schema in model.Columns.
func createTableSQL(table string) string {
	defs := make([]string, len(model.Columns))
	for i, col := range model.Columns {
		defs[i] = fmt.Sprintf("%s %s", col.Name, col.SQLType)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", table, strings.Join(defs, ",\n\t"))
}

// insertSQL builds a multi-row INSERT with $n placeholders for rowCount
// rows of the full column set.
func insertSQL(table string, rowCount int) string {
	columns := model.ColumnNames()
	placeholders := make([]string, rowCount)

	for row := 0; row < rowCount; row++ {
		params := make([]string, len(columns))
		for col := range columns {
			params[col] = fmt.Sprintf("$%d", row*len(columns)+col+1)
		}
		placeholders[row] = fmt.Sprintf("(%s)", strings.Join(params, ", "))
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
}

// indexSQL builds the secondary indexes used by analytical filters.
// Index names stay stable across runs; the old indexes disappear with
// the dropped table before these run.
func indexSQL(table string) []string {
	statements := make([]string, len(model.IndexedColumns))
	for i, col := range model.IndexedColumns {
		statements[i] = fmt.Sprintf("CREATE INDEX idx_%s ON %s(%s)", col, table, col)
	}
	return statements
}
