// Package report renders aggregated permit statistics into HTML documents.
// Templates come from a fixed enumerated set; injected text is always
// escaped, and chart or table markup enters a page only when explicitly
// marked safe with SafeHTML.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "permitgen/internal/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/styles.css
var defaultStylesheet []byte

// Name identifies a template from the fixed set.
type Name string

const (
	Base            Name = "base"
	BuildingPermits Name = "building-permits-report"
	Index           Name = "index"
	Generic         Name = "generic-report"
)

// templateFiles maps template names to their page file. Every page is
// parsed together with base.html, which provides the shared chrome.
var templateFiles = map[Name]string{
	Base:            "base.html",
	BuildingPermits: "building_permits_report.html",
	Index:           "index.html",
	Generic:         "generic_report.html",
}

// requiredKeys lists the context keys each template cannot render without.
var requiredKeys = map[Name][]string{
	Base:            {"title", "css_path", "generated_at"},
	BuildingPermits: {"title", "region_name", "stats", "quarterly_table", "chart_html", "yearly_quarters_chart_html", "rolling_average_chart_html", "css_path", "generated_at"},
	Index:           {"title", "provinces", "regions", "css_path", "generated_at"},
	Generic:         {"title", "sections", "css_path", "generated_at"},
}

// Context carries the named values bound into a template.
type Context map[string]any

// SafeHTML marks pre-escaped markup (charts, tables) as safe for direct
// injection. Everything else in a context is escaped by the template engine.
func SafeHTML(markup string) template.HTML {
	return template.HTML(markup)
}

// Stats is the summary block shown at the top of a region report.
type Stats struct {
	TotalPermits float64
	TotalHouses  float64
	TotalFlats   float64
	DateRange    string
}

// Section is one block of a generic report.
type Section struct {
	Title  string
	Text   string
	Charts []template.HTML
}

// Link is one entry on the index page.
type Link struct {
	Filename    string
	DisplayName string
}

// Renderer renders the fixed template set and manages the shared
// stylesheet in the output directory.
type Renderer struct {
	templates map[Name]*template.Template
	logger    *slog.Logger
}

// NewRenderer parses the template set. A non-empty templatesDir overrides
// the embedded templates with files from that directory (same file names).
func NewRenderer(templatesDir string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Renderer{
		templates: make(map[Name]*template.Template),
		logger:    logger.With(slog.String("component", "renderer")),
	}

	for name, file := range templateFiles {
		tmpl := template.New("base.html").Funcs(funcMap())
		var err error
		if templatesDir != "" {
			files := []string{filepath.Join(templatesDir, "base.html")}
			if file != "base.html" {
				files = append(files, filepath.Join(templatesDir, file))
			}
			tmpl, err = tmpl.ParseFiles(files...)
		} else {
			patterns := []string{"templates/base.html"}
			if file != "base.html" {
				patterns = append(patterns, "templates/"+file)
			}
			tmpl, err = tmpl.ParseFS(templateFS, patterns...)
		}
		if err != nil {
			return nil, apperrors.NewTemplateError(string(name), fmt.Errorf("failed to parse: %w", err))
		}
		r.templates[name] = tmpl
	}

	return r, nil
}

// Render binds ctx into the named template and returns the HTML document.
// The same context always produces byte-identical output; anything
// time-dependent (the generated_at stamp) must come in through ctx.
func (r *Renderer) Render(name Name, ctx Context) (string, error) {
	tmpl, ok := r.templates[name]
	if !ok {
		return "", apperrors.NewTemplateError(string(name), apperrors.ErrUnknownTemplate)
	}

	for _, key := range requiredKeys[name] {
		if _, ok := ctx[key]; !ok {
			return "", apperrors.NewTemplateError(string(name),
				fmt.Errorf("%w: %s", apperrors.ErrMissingContextKey, key))
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", map[string]any(ctx)); err != nil {
		return "", apperrors.NewTemplateError(string(name), fmt.Errorf("failed to execute: %w", err))
	}
	return buf.String(), nil
}

// RenderToFile renders the named template and writes it to outputPath,
// creating parent directories as needed.
func (r *Renderer) RenderToFile(name Name, ctx Context, outputPath string) error {
	html, err := r.Render(name, ctx)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", outputPath, err)
	}
	r.logger.Info("report written", slog.String("template", string(name)), slog.String("path", outputPath))
	return nil
}

// EnsureStylesheet places the shared stylesheet in the output directory's
// css subdirectory. An existing stylesheet is never overwritten, so the
// copy is idempotent. Returns the href relative to the output directory.
func (r *Renderer) EnsureStylesheet(outputDir string) (string, error) {
	cssDir := filepath.Join(outputDir, "css")
	cssFile := filepath.Join(cssDir, "styles.css")

	if _, err := os.Stat(cssFile); err == nil {
		return "css/styles.css", nil
	}

	if err := os.MkdirAll(cssDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create css directory: %w", err)
	}
	if err := os.WriteFile(cssFile, defaultStylesheet, 0644); err != nil {
		return "", fmt.Errorf("failed to write stylesheet: %w", err)
	}
	return "css/styles.css", nil
}

// funcMap returns the template helper functions.
func funcMap() template.FuncMap {
	return template.FuncMap{
		"numberFormat": numberFormat,
		"safeHTML":     SafeHTML,
	}
}

// numberFormat renders a numeric value with thousands separators and no
// decimals, e.g. 12345.0 -> "12,345".
func numberFormat(v any) string {
	var n int64
	switch x := v.(type) {
	case float64:
		n = int64(x + 0.5)
	case float32:
		n = int64(x + 0.5)
	case int:
		n = int64(x)
	case int64:
		n = x
	default:
		return fmt.Sprintf("%v", v)
	}

	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)

	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}
