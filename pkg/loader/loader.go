// pkg/loader/loader.go
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/config"
	"github.com/analytics-eng/payments-etl/pkg/model"
)

const (
	tableName   = "payments"
	stagingName = "payments_staging"
)

// Loader is the load/publish stage: it writes the enriched batch into a
// staging table and swaps it in as the payments table, so a failed load
// never leaves a half-written sink.
type Loader struct {
	db        *sqlx.DB
	cfg       *config.PostgresConfig
	chunkSize int
	logger    *zap.Logger
}

// NewLoader connects to PostgreSQL and verifies the connection.
// Connection failures are fatal here; the error names the target so the
// operator can fix credentials or start the database.
func NewLoader(ctx context.Context, cfg *config.PostgresConfig, chunkSize int, logger *zap.Logger) (*Loader, error) {
	if cfg == nil {
		return nil, errors.New("postgres config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}

	logger = logger.Named("loader")
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sqlx.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf(
			"failed to connect to PostgreSQL at %s:%d/%s: %w (is the database running? check POSTGRES_* settings)",
			cfg.Host, cfg.Port, cfg.Database, err)
	}

	if cfg.StatementTimeout > 0 {
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds())); err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	return &Loader{db: db, cfg: cfg, chunkSize: chunkSize, logger: logger}, nil
}

// Close closes the database connection.
func (l *Loader) Close() error {
	l.logger.Info("Closing PostgreSQL connection")
	return l.db.Close()
}

// Load performs the full-replace load: recreate staging, insert the
// batch in chunks, then atomically drop the old payments table, rename
// staging into place and build the secondary indexes.
func (l *Loader) Load(ctx context.Context, records []model.Record) (int64, error) {
	start := time.Now()

	if _, err := l.db.ExecContext(ctx, dropStagingSQL()); err != nil {
		return 0, fmt.Errorf("failed to drop stale staging table: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, createTableSQL(stagingName)); err != nil {
		return 0, fmt.Errorf("failed to create staging table: %w", err)
	}

	inserted, err := l.insertChunks(ctx, records)
	if err != nil {
		return inserted, err
	}

	if err := l.publish(ctx); err != nil {
		return inserted, err
	}

	l.logger.Info("Load stage completed",
		zap.Int64("rowsLoaded", inserted),
		zap.String("table", tableName),
		zap.Duration("duration", time.Since(start)))

	return inserted, nil
}

// insertChunks batch-inserts records into staging using multi-row
// VALUES with positional placeholders.
func (l *Loader) insertChunks(ctx context.Context, records []model.Record) (int64, error) {
	var total int64

	for start := 0; start < len(records); start += l.chunkSize {
		end := start + l.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		args := make([]interface{}, 0, len(chunk)*len(model.Columns))
		for i := range chunk {
			args = append(args, chunk[i].SQLValues()...)
		}

		result, err := l.db.ExecContext(ctx, insertSQL(stagingName, len(chunk)), args...)
		if err != nil {
			return total, fmt.Errorf("batch insert into staging failed at row %d: %w", start, err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			l.logger.Warn("Couldn't get rows affected", zap.Error(err))
			rows = int64(len(chunk))
		}
		total += rows
	}

	return total, nil
}

// publish swaps staging into place inside one transaction. The previous
// payments table survives untouched if anything here fails.
func (l *Loader) publish(ctx context.Context) error {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin publish transaction: %w", err)
	}
	defer tx.Rollback()

	statements := append([]string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", tableName),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", stagingName, tableName),
	}, indexSQL(tableName)...)

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("publish failed on %q: %w", stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit publish transaction: %w", err)
	}

	l.logger.Info("Published payments table", zap.Int("indexes", len(model.IndexedColumns)))
	return nil
}
