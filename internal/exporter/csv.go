// Package exporter writes the aggregated numbers behind each report as
// CSV, so the data can be reused outside the HTML pages.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"permitgen/internal/aggregate"
)

// CSVWriter exports aggregates into a target directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a writer rooted at dir.
func NewCSVWriter(dir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{dir: dir, logger: logger.With(slog.String("component", "exporter"))}
}

// WriteQuarterly writes the yearly-by-quarter pivot of a region to the
// named file: one row per year with columns Q1..Q4 and the year total.
// A UTF-8 BOM is prepended so Excel opens the file correctly.
func (w *CSVWriter) WriteQuarterly(filename string, rows []aggregate.YearRow) error {
	path := filepath.Join(w.dir, filename)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if _, err := file.WriteString("\xEF\xBB\xBF"); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(file)
	if err := cw.Write([]string{"jaar", "Q1", "Q2", "Q3", "Q4", "totaal"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := []string{strconv.Itoa(row.Year)}
		for _, q := range row.Quarters {
			record = append(record, formatCount(q))
		}
		record = append(record, formatCount(row.Total))
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %d: %w", row.Year, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	w.logger.Debug("quarterly CSV written", slog.String("path", path), slog.Int("years", len(rows)))
	return nil
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
