// Package config loads application configuration from an optional YAML file
// with environment-variable overrides, and derives the filesystem layout of
// a report run.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Report  ReportConfig  `yaml:"report" envconfig:"REPORT"`
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
}

// LoggingConfig controls the slog setup.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ReportConfig controls the report generation run.
type ReportConfig struct {
	// InputDir is scanned (flat, non-recursive) for spreadsheet files.
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR" validate:"required"`
	// OutputDir receives the rendered HTML reports, the shared stylesheet
	// and the index page.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
	// TemplatesDir optionally overrides the embedded HTML templates.
	TemplatesDir string `yaml:"templates_dir" envconfig:"TEMPLATES_DIR"`
	// StartYear is the analysis cutoff: rows before it are ignored.
	StartYear int `yaml:"start_year" envconfig:"START_YEAR" validate:"gte=1900,lte=2100"`
}

// ServerConfig controls the report server (cmd/reportserver).
type ServerConfig struct {
	Addr         string        `yaml:"addr" envconfig:"ADDR"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: filepath.Join("logs", "permitgen.log"),
		},
		Report: ReportConfig{
			InputDir:  filepath.Join("data", "input"),
			OutputDir: filepath.Join("reports", "building_permits"),
			StartYear: 2015,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if it
// exists, then PERMITS_* environment variables, then validation.
// An empty path skips the file step entirely.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := envconfig.Process("PERMITS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Paths is the filesystem layout of one report run. All generated files
// live under OutputDir; links inside the HTML are relative to it.
type Paths struct {
	InputDir    string
	OutputDir   string
	CSSDir      string
	CSSFile     string
	IndexFile   string
	SummaryFile string
}

// NewPaths derives the run layout from the report configuration.
func NewPaths(rc ReportConfig) *Paths {
	cssDir := filepath.Join(rc.OutputDir, "css")
	return &Paths{
		InputDir:    rc.InputDir,
		OutputDir:   rc.OutputDir,
		CSSDir:      cssDir,
		CSSFile:     filepath.Join(cssDir, "styles.css"),
		IndexFile:   filepath.Join(rc.OutputDir, "index.html"),
		SummaryFile: filepath.Join(rc.OutputDir, "run_summary.json"),
	}
}

// EnsureOutputDirs creates the output directory tree.
func (p *Paths) EnsureOutputDirs() error {
	for _, dir := range []string{p.OutputDir, p.CSSDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
