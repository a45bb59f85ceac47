// Package orchestrator drives the report pipeline: discover input
// workbooks, load and aggregate each one, build charts, render the HTML
// reports and the index page, and account for every success and failure.
//
// Processing is strictly sequential, one file at a time. A failing file is
// logged and skipped; the batch always runs to completion.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"permitgen/internal/aggregate"
	"permitgen/internal/chart"
	"permitgen/internal/config"
	"permitgen/internal/exporter"
	"permitgen/internal/files"
	"permitgen/internal/permits"
	"permitgen/internal/report"
	"permitgen/internal/workbook"
)

// GeneratedReport records one rendered region report.
type GeneratedReport struct {
	Region     string `json:"region"`
	File       string `json:"file"`
	SourceFile string `json:"source_file"`
}

// Failure records a skipped file or an aborted report with its reason.
type Failure struct {
	File   string `json:"file"`
	Region string `json:"region,omitempty"`
	Reason string `json:"reason"`
}

// RunSummary is the user-visible outcome of one run. It is logged and
// written as JSON next to the generated reports.
type RunSummary struct {
	RunID      string            `json:"run_id"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	InputFiles int               `json:"input_files"`
	Generated  []GeneratedReport `json:"generated"`
	Failures   []Failure         `json:"failures"`
}

// Success reports whether every input file produced its reports.
func (s *RunSummary) Success() bool { return len(s.Failures) == 0 }

// Orchestrator runs the pipeline for one configuration.
type Orchestrator struct {
	cfg      config.ReportConfig
	paths    *config.Paths
	renderer *report.Renderer
	csv      *exporter.CSVWriter
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an orchestrator. The renderer must already be initialized.
func New(cfg config.ReportConfig, renderer *report.Renderer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		paths:    config.NewPaths(cfg),
		renderer: renderer,
		csv:      exporter.NewCSVWriter(filepath.Join(cfg.OutputDir, "csv"), logger),
		logger:   logger.With(slog.String("component", "orchestrator")),
		now:      time.Now,
	}
}

// WithClock replaces the time source, which pins the generated_at stamps.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run executes the whole pipeline and returns the run summary. The error
// return covers only run-level problems (unreadable input directory,
// unwritable output directory); per-file problems land in the summary.
func (o *Orchestrator) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: o.now(),
	}
	logger := o.logger.With(slog.String("run_id", summary.RunID))

	if err := o.paths.EnsureOutputDirs(); err != nil {
		return nil, err
	}

	inputs, err := files.FindSpreadsheets(o.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	summary.InputFiles = len(inputs)
	logger.InfoContext(ctx, "starting report run",
		slog.String("input_dir", o.cfg.InputDir),
		slog.String("output_dir", o.cfg.OutputDir),
		slog.Int("files", len(inputs)))

	regionSet := make(map[string]bool)
	provinceSet := make(map[string]bool)

	for _, input := range inputs {
		generated, failures := o.processFile(ctx, logger, input)
		summary.Generated = append(summary.Generated, generated...)
		summary.Failures = append(summary.Failures, failures...)
		for _, g := range generated {
			if permits.DisplayName(g.Region) != g.Region {
				provinceSet[g.Region] = true
			} else {
				regionSet[g.Region] = true
			}
		}
	}

	if err := o.writeIndex(regionSet, provinceSet); err != nil {
		return nil, err
	}

	summary.FinishedAt = o.now()
	if err := o.writeSummary(summary); err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "report run finished",
		slog.Int("generated", len(summary.Generated)),
		slog.Int("failures", len(summary.Failures)))
	for _, f := range summary.Failures {
		logger.WarnContext(ctx, "skipped",
			slog.String("file", f.File),
			slog.String("region", f.Region),
			slog.String("reason", f.Reason))
	}

	return summary, nil
}

// processFile runs the per-file pipeline. A load or parse failure skips
// the file; a chart or template failure aborts only that region's report.
func (o *Orchestrator) processFile(ctx context.Context, logger *slog.Logger, input files.FileInfo) ([]GeneratedReport, []Failure) {
	logger.InfoContext(ctx, "processing file", slog.String("file", input.Name))

	wb, err := workbook.Load(input.Path, logger)
	if err != nil {
		return nil, []Failure{{File: input.Name, Reason: err.Error()}}
	}

	ds, sheetErr := o.findPermitSheet(wb)
	if sheetErr != nil {
		return nil, []Failure{{File: input.Name, Reason: sheetErr.Error()}}
	}

	targets := append([]string{}, ds.Provinces()...)
	targets = append(targets, permits.Regions...)

	var generated []GeneratedReport
	var failures []Failure
	for _, region := range targets {
		if !ds.HasRegion(region) {
			continue
		}
		file, err := o.generateRegionReport(ds, region)
		if err != nil {
			failures = append(failures, Failure{File: input.Name, Region: region, Reason: err.Error()})
			continue
		}
		generated = append(generated, GeneratedReport{
			Region:     region,
			File:       file,
			SourceFile: input.Name,
		})
	}
	return generated, failures
}

// findPermitSheet returns the first sheet of the workbook that parses as a
// permit dataset.
func (o *Orchestrator) findPermitSheet(wb *workbook.Workbook) (*permits.Dataset, error) {
	var lastErr error
	for i := range wb.Sheets {
		ds, err := permits.FromSheet(&wb.Sheets[i])
		if err == nil {
			return ds, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("workbook has no sheets")
	}
	return nil, fmt.Errorf("no permit data sheet found: %w", lastErr)
}

// generateRegionReport aggregates one region and renders its report.
func (o *Orchestrator) generateRegionReport(ds *permits.Dataset, region string) (string, error) {
	total := ds.RegionSeries(region, permits.Total).FilterFromYear(o.cfg.StartYear)
	houses := ds.RegionSeries(region, permits.Houses).FilterFromYear(o.cfg.StartYear)
	flats := ds.RegionSeries(region, permits.Flats).FilterFromYear(o.cfg.StartYear)

	totalMonthly, err := aggregate.MonthlyTotals(total)
	if err != nil {
		return "", err
	}
	housesMonthly, err := aggregate.MonthlyTotals(houses)
	if err != nil {
		return "", err
	}
	flatsMonthly, err := aggregate.MonthlyTotals(flats)
	if err != nil {
		return "", err
	}

	totalQuarterly, err := aggregate.QuarterlyRollup(totalMonthly)
	if err != nil {
		return "", err
	}
	pivot := aggregate.YearlyQuarterPivot(totalQuarterly)

	csvName := strings.TrimSuffix(permits.ReportFileName(region), "_rapport.html") + "_kwartalen.csv"
	if err := o.csv.WriteQuarterly(csvName, pivot); err != nil {
		return "", err
	}

	quarterlyChart, err := o.quarterlyChart(region, housesMonthly, flatsMonthly, totalMonthly)
	if err != nil {
		return "", err
	}
	yearlyChart, err := o.yearlyQuartersChart(region, pivot)
	if err != nil {
		return "", err
	}
	rollingChart, err := o.rollingAverageChart(region, housesMonthly, flatsMonthly, totalMonthly)
	if err != nil {
		return "", err
	}

	cssPath, err := o.renderer.EnsureStylesheet(o.cfg.OutputDir)
	if err != nil {
		return "", err
	}

	firstYear, lastYear := total.Span()
	ctx := report.Context{
		"title":       "Bouwvergunningen Rapport - " + region,
		"region_name": region,
		"stats": report.Stats{
			TotalPermits: total.Sum(),
			TotalHouses:  houses.Sum(),
			TotalFlats:   flats.Sum(),
			DateRange:    fmt.Sprintf("%d - %d", firstYear, lastYear),
		},
		"quarterly_table":            report.QuarterlyTable(pivot),
		"chart_html":                 report.SafeHTML(quarterlyChart),
		"yearly_quarters_chart_html": report.SafeHTML(yearlyChart),
		"rolling_average_chart_html": report.SafeHTML(rollingChart),
		"css_path":                   cssPath,
		"generated_at":               o.now().Format("02/01/2006 15:04:05"),
	}

	filename := permits.ReportFileName(region)
	if err := o.renderer.RenderToFile(report.BuildingPermits, ctx, filepath.Join(o.cfg.OutputDir, filename)); err != nil {
		return "", err
	}
	return filename, nil
}

// quarterlyChart plots the three housing measures per quarter.
func (o *Orchestrator) quarterlyChart(region string, houses, flats, total []aggregate.MonthlyTotal) (string, error) {
	totalQ, err := aggregate.QuarterlyRollup(total)
	if err != nil {
		return "", err
	}

	categories := make([]string, 0, len(totalQ))
	quarters := make([]aggregate.Quarter, 0, len(totalQ))
	for _, qt := range totalQ {
		categories = append(categories, qt.Quarter.String())
		quarters = append(quarters, qt.Quarter)
	}

	spec := chart.New("quarterly-chart", "Bouwvergunningen per Kwartaal - "+region, chart.Line).
		WithAxes("Kwartaal", "Aantal Vergunningen").
		WithCategories(categories).
		AddDataset("Aantal Huizen", "", quarterValues(houses, quarters)).
		AddDataset("Aantal Flats", "", quarterValues(flats, quarters)).
		AddDataset("Alle Woningen", "", quarterValues(total, quarters))
	return spec.Render()
}

// quarterValues aligns a measure's quarterly totals on the given quarters.
func quarterValues(monthly []aggregate.MonthlyTotal, quarters []aggregate.Quarter) []float64 {
	byQuarter := make(map[aggregate.Quarter]float64)
	for _, mt := range monthly {
		byQuarter[mt.Month.Quarter()] += mt.Total
	}
	values := make([]float64, len(quarters))
	for i, q := range quarters {
		values[i] = byQuarter[q]
	}
	return values
}

// yearlyQuartersChart plots one line per quarter across years.
func (o *Orchestrator) yearlyQuartersChart(region string, pivot []aggregate.YearRow) (string, error) {
	categories := make([]string, 0, len(pivot))
	for _, row := range pivot {
		categories = append(categories, fmt.Sprintf("%d", row.Year))
	}

	spec := chart.New("yearly-quarters-chart", "Woningen per Jaar en Kwartaal - "+region, chart.Line).
		WithAxes("Jaar", "Aantal Woningen").
		WithCategories(categories)
	for q := 0; q < 4; q++ {
		values := make([]float64, len(pivot))
		for i, row := range pivot {
			values[i] = row.Quarters[q]
		}
		spec.AddDataset(fmt.Sprintf("Q%d", q+1), "", values)
	}
	return spec.Render()
}

// rollingAverageChart plots the strict 12-month moving average of each
// measure. Months where the window is incomplete carry no point at all.
func (o *Orchestrator) rollingAverageChart(region string, houses, flats, total []aggregate.MonthlyTotal) (string, error) {
	totalMA, err := aggregate.MovingAverage(total)
	if err != nil {
		return "", err
	}
	housesMA, err := aggregate.MovingAverage(houses)
	if err != nil {
		return "", err
	}
	flatsMA, err := aggregate.MovingAverage(flats)
	if err != nil {
		return "", err
	}

	categories := make([]string, 0, len(totalMA))
	months := make([]aggregate.Month, 0, len(totalMA))
	for _, p := range totalMA {
		categories = append(categories, p.Month.String())
		months = append(months, p.Month)
	}

	spec := chart.New("rolling-average-chart", "12-Maands Lopend Gemiddelde - "+region, chart.Line).
		WithAxes("Datum", "Gemiddeld Aantal Woningen (12 maanden)").
		WithCategories(categories).
		AddDataset("Huizen (12m gemiddelde)", "", averageValues(housesMA, months)).
		AddDataset("Flats (12m gemiddelde)", "", averageValues(flatsMA, months)).
		AddDataset("Alle Woningen (12m gemiddelde)", "", averageValues(totalMA, months))
	return spec.Render()
}

// averageValues aligns moving-average points on the given months.
func averageValues(points []aggregate.MovingAveragePoint, months []aggregate.Month) []float64 {
	byMonth := make(map[aggregate.Month]float64, len(points))
	for _, p := range points {
		byMonth[p.Month] = p.Average
	}
	values := make([]float64, len(months))
	for i, m := range months {
		values[i] = byMonth[m]
	}
	return values
}

// writeIndex renders the index page linking every generated report.
func (o *Orchestrator) writeIndex(regionSet, provinceSet map[string]bool) error {
	cssPath, err := o.renderer.EnsureStylesheet(o.cfg.OutputDir)
	if err != nil {
		return err
	}

	var regions []report.Link
	for _, region := range permits.Regions {
		if regionSet[region] {
			regions = append(regions, report.Link{
				Filename:    permits.ReportFileName(region),
				DisplayName: region,
			})
		}
	}

	provinces := make([]string, 0, len(provinceSet))
	for p := range provinceSet {
		provinces = append(provinces, p)
	}
	sort.Strings(provinces)
	provinceLinks := make([]report.Link, 0, len(provinces))
	for _, p := range provinces {
		provinceLinks = append(provinceLinks, report.Link{
			Filename:    permits.ReportFileName(p),
			DisplayName: permits.DisplayName(p),
		})
	}

	ctx := report.Context{
		"title":        "Bouwvergunningen Rapporten - Overzicht",
		"regions":      regions,
		"provinces":    provinceLinks,
		"css_path":     cssPath,
		"generated_at": o.now().Format("02/01/2006 15:04:05"),
	}
	return o.renderer.RenderToFile(report.Index, ctx, o.paths.IndexFile)
}

// writeSummary persists the run summary as JSON in the output directory,
// where the report server picks it up.
func (o *Orchestrator) writeSummary(summary *RunSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}
	if err := os.WriteFile(o.paths.SummaryFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	return nil
}
