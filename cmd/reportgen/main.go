// Command reportgen reads building-permit workbooks from the input
// directory and writes one HTML report per region and province, plus an
// index page, to the output directory.
//
// Exit code 0 means every input file was processed; any skipped file or
// aborted report yields exit code 1.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"permitgen/internal/config"
	"permitgen/internal/infrastructure"
	"permitgen/internal/orchestrator"
	"permitgen/internal/report"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	inputDir := flag.String("in", "", "input directory with spreadsheet files (overrides config)")
	outputDir := flag.String("out", "", "output directory for generated reports (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if *inputDir != "" {
		cfg.Report.InputDir = *inputDir
	}
	if *outputDir != "" {
		cfg.Report.OutputDir = *outputDir
	}

	logger, closer, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger setup failed: %v\n", err)
		return 1
	}
	if closer != nil {
		defer closer.Close()
	}
	slog.SetDefault(logger)

	renderer, err := report.NewRenderer(cfg.Report.TemplatesDir, logger)
	if err != nil {
		logger.Error("failed to initialize templates", slog.String("error", err.Error()))
		return 1
	}

	summary, err := orchestrator.New(cfg.Report, renderer, logger).Run(context.Background())
	if err != nil {
		logger.Error("report run failed", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("run summary",
		slog.String("run_id", summary.RunID),
		slog.Int("input_files", summary.InputFiles),
		slog.Int("generated", len(summary.Generated)),
		slog.Int("failures", len(summary.Failures)))

	if !summary.Success() {
		return 1
	}
	return 0
}
