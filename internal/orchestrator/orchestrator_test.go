package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"permitgen/internal/config"
	"permitgen/internal/report"
)

var dutchMonths = []string{"Januari", "Februari", "Maart", "April", "Mei", "Juni",
	"Juli", "Augustus", "September", "Oktober", "November", "December"}

// writePermitWorkbook writes a workbook with 24 monthly rows
// (Jan 2020 .. Dec 2021) for one region. The total for the n-th month
// (1-based) is 10n, houses 4n.
func writePermitWorkbook(t *testing.T, dir, name, region string) string {
	t.Helper()

	f := excelize.NewFile()
	header := []interface{}{"regio", "jaar", "maand", "aantal woningen", "aantal gebouwen met één woning"}
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &header))

	n := 0
	for _, year := range []int{2020, 2021} {
		for _, month := range dutchMonths {
			n++
			row := []interface{}{region, year, month, 10 * n, 4 * n}
			cell, err := excelize.CoordinatesToCellName(1, n+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
		}
	}

	path := filepath.Join(dir, name)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func newTestOrchestrator(t *testing.T, inputDir, outputDir string) *Orchestrator {
	t.Helper()
	renderer, err := report.NewRenderer("", nil)
	require.NoError(t, err)

	cfg := config.ReportConfig{
		InputDir:  inputDir,
		OutputDir: outputDir,
		StartYear: 2015,
	}
	fixed := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	return New(cfg, renderer, nil).WithClock(func() time.Time { return fixed })
}

func TestRunEndToEnd(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "reports")
	writePermitWorkbook(t, inputDir, "permits.xlsx", "VLAAMS GEWEST")

	summary, err := newTestOrchestrator(t, inputDir, outputDir).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Success())
	assert.Equal(t, 1, summary.InputFiles)
	require.Len(t, summary.Generated, 1)
	assert.Equal(t, "VLAAMS_GEWEST_rapport.html", summary.Generated[0].File)

	data, err := os.ReadFile(filepath.Join(outputDir, "VLAAMS_GEWEST_rapport.html"))
	require.NoError(t, err)
	html := string(data)

	// Quarterly table: Q1 2021 = Jan+Feb+Mar 2021 = 10*(13+14+15).
	assert.Contains(t, html, "<td>420</td>")
	// Moving average starts at Dec 2020, never earlier.
	assert.Contains(t, html, "2020-12")
	assert.NotContains(t, html, "2020-11")
	// All three charts are embedded.
	assert.Contains(t, html, `id="quarterly-chart"`)
	assert.Contains(t, html, `id="yearly-quarters-chart"`)
	assert.Contains(t, html, `id="rolling-average-chart"`)

	// Shared stylesheet, CSV export and index page are in place.
	assert.FileExists(t, filepath.Join(outputDir, "css", "styles.css"))
	csvData, err := os.ReadFile(filepath.Join(outputDir, "csv", "VLAAMS_GEWEST_kwartalen.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(csvData), "2021,420,510,600,690,2220")
	indexData, err := os.ReadFile(filepath.Join(outputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(indexData), `href="VLAAMS_GEWEST_rapport.html"`)
}

func TestRunSkipsCorruptedFile(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "reports")

	writePermitWorkbook(t, inputDir, "a_vlaams.xlsx", "VLAAMS GEWEST")
	writePermitWorkbook(t, inputDir, "b_waals.xlsx", "WAALS GEWEST")
	require.NoError(t, os.WriteFile(filepath.Join(inputDir, "c_broken.xlsx"), []byte("not a workbook"), 0644))

	summary, err := newTestOrchestrator(t, inputDir, outputDir).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, summary.Success())
	assert.Equal(t, 3, summary.InputFiles)
	assert.Len(t, summary.Generated, 2)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "c_broken.xlsx", summary.Failures[0].File)
	assert.NotEmpty(t, summary.Failures[0].Reason)

	// The two healthy files still produced reports and the index links both.
	assert.FileExists(t, filepath.Join(outputDir, "VLAAMS_GEWEST_rapport.html"))
	assert.FileExists(t, filepath.Join(outputDir, "WAALS_GEWEST_rapport.html"))
	indexData, err := os.ReadFile(filepath.Join(outputDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(indexData), "VLAAMS_GEWEST_rapport.html")
	assert.Contains(t, string(indexData), "WAALS_GEWEST_rapport.html")
}

func TestRunWritesSummaryFile(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "reports")
	writePermitWorkbook(t, inputDir, "permits.xlsx", "WAALS GEWEST")

	summary, err := newTestOrchestrator(t, inputDir, outputDir).Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)

	data, err := os.ReadFile(filepath.Join(outputDir, "run_summary.json"))
	require.NoError(t, err)

	var persisted RunSummary
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Equal(t, summary.RunID, persisted.RunID)
	require.Len(t, persisted.Generated, 1)
	assert.Equal(t, "WAALS GEWEST", persisted.Generated[0].Region)
}

func TestRunIsDeterministicWithFixedClock(t *testing.T) {
	inputDir := t.TempDir()
	writePermitWorkbook(t, inputDir, "permits.xlsx", "VLAAMS GEWEST")

	render := func() string {
		outputDir := filepath.Join(t.TempDir(), "reports")
		_, err := newTestOrchestrator(t, inputDir, outputDir).Run(context.Background())
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(outputDir, "VLAAMS_GEWEST_rapport.html"))
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, render(), render())
}

func TestRunEmptyInputDir(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := filepath.Join(t.TempDir(), "reports")

	summary, err := newTestOrchestrator(t, inputDir, outputDir).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, summary.Success())
	assert.Zero(t, summary.InputFiles)
	assert.Empty(t, summary.Generated)
	// The index page is still written, just without links.
	assert.FileExists(t, filepath.Join(outputDir, "index.html"))
}

func TestRunMissingInputDir(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "reports")
	o := newTestOrchestrator(t, filepath.Join(t.TempDir(), "missing"), outputDir)

	_, err := o.Run(context.Background())
	assert.Error(t, err)
}
