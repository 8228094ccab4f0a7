// pkg/ingest/snowflake.go
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/config"
	"github.com/analytics-eng/payments-etl/pkg/model"
)

// SnowflakeSource reads the raw billing export straight from a
// Snowflake table, for deployments where the raw data never lands on
// disk. Every column is read as text; coercion stays with the cleaner.
type SnowflakeSource struct {
	cfg    *config.SnowflakeConfig
	logger *zap.Logger
}

// NewSnowflakeSource creates a Snowflake source from connection config.
func NewSnowflakeSource(cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeSource, error) {
	if cfg == nil {
		return nil, errors.New("snowflake config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &SnowflakeSource{cfg: cfg, logger: logger.Named("snowflake-source")}, nil
}

// Fetch queries the configured table and maps rows into raw records.
func (s *SnowflakeSource) Fetch(ctx context.Context) ([]model.Record, error) {
	s.logger.Info("Connecting to Snowflake",
		zap.String("account", s.cfg.Account),
		zap.String("database", s.cfg.Database),
		zap.String("schema", s.cfg.Schema),
		zap.String("table", s.cfg.Table))

	db, err := sql.Open("snowflake", s.cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to Snowflake account %s: %w (check SNOWFLAKE_* credentials)", s.cfg.Account, err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(inputColumns, ", "), s.cfg.Table)
	rows, err := db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query raw billing table %s: %w", s.cfg.Table, err)
	}
	defer rows.Close()

	var records []model.Record
	values := make([]sql.NullString, len(inputColumns))
	scanArgs := make([]interface{}, len(inputColumns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan raw row: %w", err)
		}

		var r model.Record
		for i, column := range inputColumns {
			if values[i].Valid {
				setRawField(&r, column, values[i].String)
			}
		}
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating raw rows: %w", err)
	}

	s.logger.Info("Loaded raw records from Snowflake",
		zap.String("table", s.cfg.Table),
		zap.Int("records", len(records)))

	return records, nil
}
