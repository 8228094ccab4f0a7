// pkg/ingest/csv.go
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/analytics-eng/payments-etl/pkg/model"
)

// CSVSource reads raw records from a local CSV export. The header row
// defines column positions; columns are matched by name, so column
// order in the file does not matter.
type CSVSource struct {
	path   string
	logger *zap.Logger
}

// NewCSVSource creates a CSV source for the given file path.
func NewCSVSource(path string, logger *zap.Logger) (*CSVSource, error) {
	if path == "" {
		return nil, errors.New("csv path cannot be empty")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &CSVSource{path: path, logger: logger.Named("csv-source")}, nil
}

// Fetch reads the full file into a raw record batch.
func (s *CSVSource) Fetch(ctx context.Context) ([]model.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, short rows leave fields empty

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ToLower(header[i]))
	}

	var records []model.Record
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		var r model.Record
		for i, value := range row {
			if i >= len(header) {
				break
			}
			setRawField(&r, header[i], value)
		}
		records = append(records, r)
	}

	s.logger.Info("Loaded raw records from CSV",
		zap.String("path", s.path),
		zap.Int("records", len(records)),
		zap.Int("columns", len(header)))

	return records, nil
}
