// Package web serves a generated report directory over HTTP: the static
// reports themselves, the run summary as JSON, and Prometheus metrics.
package web

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"permitgen/internal/config"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "permitgen_http_requests_total",
		Help: "HTTP requests served by the report server.",
	},
	[]string{"code", "method"},
)

// Server exposes one report output directory.
type Server struct {
	paths  *config.Paths
	logger *slog.Logger
}

// New creates a report server for the given run layout.
func New(paths *config.Paths, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		paths:  paths,
		logger: logger.With(slog.String("component", "web")),
	}
}

// Routes assembles the router: JSON API, metrics, then the static reports.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/summary", s.handleSummary)
		r.Get("/health", s.handleHealth)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	fileServer := http.FileServer(http.Dir(s.paths.OutputDir))
	r.Handle("/*", promhttp.InstrumentHandlerCounter(requestsTotal, fileServer))

	return r
}

// handleSummary returns the run summary of the last report run.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(s.paths.SummaryFile)
	if err != nil {
		if os.IsNotExist(err) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "no report run recorded yet"})
			return
		}
		s.logger.Error("failed to read run summary", slog.String("error", err.Error()))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": "failed to read run summary"})
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}
