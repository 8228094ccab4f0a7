// cmd/payments-etl/run.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/cleaner"
	"github.com/analytics-eng/payments-etl/pkg/config"
	"github.com/analytics-eng/payments-etl/pkg/enricher"
	"github.com/analytics-eng/payments-etl/pkg/ingest"
	"github.com/analytics-eng/payments-etl/pkg/loader"
	"github.com/analytics-eng/payments-etl/pkg/pipeline"
)

var scheduleSpec string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline (one-shot, or on a cron schedule)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

func init() {
	runCmd.Flags().StringVar(&scheduleSpec, "schedule", "", "cron expression for recurring full refreshes (empty runs once)")
	rootCmd.AddCommand(runCmd)
}

func runPipeline(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	p, closeSink, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()

	if scheduleSpec == "" {
		summary, err := p.Run(ctx)
		if err != nil {
			return err
		}
		if problems := summary.Validation.Mismatches(); len(problems) > 0 {
			return fmt.Errorf("load validation reported mismatches: %v", problems)
		}
		return nil
	}

	scheduler, err := p.Schedule(scheduleSpec)
	if err != nil {
		return err
	}

	// Block until interrupted; each tick is an independent full refresh.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down scheduler")
	<-scheduler.Stop().Done()
	return nil
}

// buildPipeline assembles the stages from config. The returned func
// closes the sink connection.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, func(), error) {
	var source ingest.Source
	var err error

	switch cfg.Source {
	case config.SourceSnowflake:
		source, err = ingest.NewSnowflakeSource(cfg.Snowflake, logger)
	default:
		source, err = ingest.NewCSVSource(cfg.InputPath, logger)
	}
	if err != nil {
		return nil, nil, err
	}

	cl, err := cleaner.NewCleaner(logger)
	if err != nil {
		return nil, nil, err
	}

	tables := enricher.DefaultTables()
	if cfg.TablesPath != "" {
		tables, err = enricher.TablesFromFile(cfg.TablesPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loaded lookup table overrides", zap.String("path", cfg.TablesPath))
	}

	en, err := enricher.NewEnricher(tables, cfg.Seed, cfg.WorkerCount, logger)
	if err != nil {
		return nil, nil, err
	}

	sink, err := loader.NewLoader(ctx, cfg.Postgres, cfg.ChunkSize, logger)
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.New(source, cl, en, sink, logger)
	if err != nil {
		sink.Close()
		return nil, nil, err
	}

	return p, func() { sink.Close() }, nil
}
