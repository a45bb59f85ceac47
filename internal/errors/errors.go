// Package errors defines the error taxonomy of the report pipeline.
//
// Each error type marks one stage of the pipeline: loading a workbook,
// aggregating a series, building a chart, or rendering a template. The
// orchestrator catches all of them at the per-file boundary, so they carry
// enough identity (file path, series name, template name) to produce a
// useful run summary without any further context.
package errors

import (
	"errors"
	"fmt"
)

// LoadError reports a workbook that could not be opened or read:
// missing path, unsupported format, or an encrypted file.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// NewLoadError wraps err as a LoadError for the given file path.
func NewLoadError(path string, err error) *LoadError {
	return &LoadError{Path: path, Err: err}
}

// AggregationError reports malformed or empty input to an aggregation:
// an empty series or unparseable date values.
type AggregationError struct {
	Series string
	Err    error
}

func (e *AggregationError) Error() string {
	if e.Series == "" {
		return fmt.Sprintf("aggregate: %v", e.Err)
	}
	return fmt.Sprintf("aggregate %s: %v", e.Series, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// NewAggregationError wraps err as an AggregationError for the named series.
func NewAggregationError(series string, err error) *AggregationError {
	return &AggregationError{Series: series, Err: err}
}

// ChartError reports a chart request that cannot produce a meaningful
// chart, currently only the case of fewer than two data points.
type ChartError struct {
	Chart string
	Err   error
}

func (e *ChartError) Error() string {
	return fmt.Sprintf("chart %s: %v", e.Chart, e.Err)
}

func (e *ChartError) Unwrap() error { return e.Err }

// NewChartError wraps err as a ChartError for the named chart.
func NewChartError(chart string, err error) *ChartError {
	return &ChartError{Chart: chart, Err: err}
}

// TemplateError reports an unknown template name or a context that is
// missing a key the template requires.
type TemplateError struct {
	Template string
	Err      error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Template, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// NewTemplateError wraps err as a TemplateError for the named template.
func NewTemplateError(template string, err error) *TemplateError {
	return &TemplateError{Template: template, Err: err}
}

// Sentinel causes shared across the pipeline.
var (
	ErrEmptySeries        = errors.New("series is empty")
	ErrUnparseableDate    = errors.New("unparseable date value")
	ErrInsufficientPoints = errors.New("fewer than 2 data points")
	ErrUnknownTemplate    = errors.New("unknown template")
	ErrMissingContextKey  = errors.New("missing context key")
	ErrUnsupportedFormat  = errors.New("unsupported spreadsheet format")
)

// IsLoadError reports whether any error in err's chain is a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// IsAggregationError reports whether any error in err's chain is an AggregationError.
func IsAggregationError(err error) bool {
	var ae *AggregationError
	return errors.As(err, &ae)
}

// IsChartError reports whether any error in err's chain is a ChartError.
func IsChartError(err error) bool {
	var ce *ChartError
	return errors.As(err, &ce)
}

// IsTemplateError reports whether any error in err's chain is a TemplateError.
func IsTemplateError(err error) bool {
	var te *TemplateError
	return errors.As(err, &te)
}
