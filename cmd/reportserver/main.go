// Command reportserver serves a generated report directory over HTTP,
// along with the run summary (JSON) and Prometheus metrics.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"permitgen/internal/config"
	"permitgen/internal/infrastructure"
	"permitgen/internal/transport/web"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	reportsDir := flag.String("reports", "", "report directory to serve (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *reportsDir != "" {
		cfg.Report.OutputDir = *reportsDir
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

	paths := config.NewPaths(cfg.Report)
	if _, err := os.Stat(paths.OutputDir); err != nil {
		logger.Error("report directory not found; run reportgen first",
			slog.String("dir", paths.OutputDir))
		return 1
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      web.New(paths, logger).Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	logger.Info("serving reports",
		slog.String("addr", cfg.Server.Addr),
		slog.String("dir", paths.OutputDir))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server stopped", slog.String("error", err.Error()))
		return 1
	}
	return 0
}
