// Package chart projects aggregated series into embeddable chart markup.
// A Spec is a pure visual encoding: categories on the x-axis, one or more
// value datasets, axis labels and colors. Rendering emits a self-contained
// div plus a Plotly call; the surrounding page is expected to load the
// Plotly runtime once.
package chart

import (
	"encoding/json"
	"fmt"

	apperrors "permitgen/internal/errors"
)

// Kind selects the visual form of a chart.
type Kind string

const (
	Line Kind = "line"
	Bar  Kind = "bar"
)

// DefaultPalette is the house color scheme, applied to datasets that do not
// set an explicit color.
var DefaultPalette = []string{"#19b6c8", "#2f2f2f", "#15a0ab", "#666666"}

// Dataset is one labeled value series of a chart.
type Dataset struct {
	Label  string
	Color  string
	Values []float64
}

// Spec is a complete chart specification.
type Spec struct {
	ID         string
	Title      string
	Kind       Kind
	XLabel     string
	YLabel     string
	Categories []string
	Datasets   []Dataset
}

// New starts a chart specification.
func New(id, title string, kind Kind) *Spec {
	return &Spec{ID: id, Title: title, Kind: kind}
}

// WithAxes sets the axis labels.
func (s *Spec) WithAxes(x, y string) *Spec {
	s.XLabel = x
	s.YLabel = y
	return s
}

// WithCategories sets the x-axis categories.
func (s *Spec) WithCategories(categories []string) *Spec {
	s.Categories = categories
	return s
}

// AddDataset appends a value series. An empty color picks the next palette
// color.
func (s *Spec) AddDataset(label, color string, values []float64) *Spec {
	if color == "" {
		color = DefaultPalette[len(s.Datasets)%len(DefaultPalette)]
	}
	s.Datasets = append(s.Datasets, Dataset{Label: label, Color: color, Values: values})
	return s
}

// Validate checks that the spec describes a meaningful chart. A chart with
// fewer than two data points is rejected with a ChartError, as are specs
// without datasets or with datasets that do not match the category count.
func (s *Spec) Validate() error {
	if len(s.Categories) < 2 {
		return apperrors.NewChartError(s.ID, apperrors.ErrInsufficientPoints)
	}
	if len(s.Datasets) == 0 {
		return apperrors.NewChartError(s.ID, fmt.Errorf("no datasets"))
	}
	for _, d := range s.Datasets {
		if len(d.Values) != len(s.Categories) {
			return apperrors.NewChartError(s.ID,
				fmt.Errorf("dataset %s has %d values for %d categories", d.Label, len(d.Values), len(s.Categories)))
		}
	}
	return nil
}

// plotly wire structures; field order fixes the JSON output, which keeps
// rendering byte-for-byte reproducible.
type trace struct {
	X      []string   `json:"x"`
	Y      []float64  `json:"y"`
	Type   string     `json:"type"`
	Mode   string     `json:"mode,omitempty"`
	Name   string     `json:"name"`
	Line   *traceLine `json:"line,omitempty"`
	Marker *marker    `json:"marker,omitempty"`
}

type traceLine struct {
	Color string `json:"color"`
	Width int    `json:"width"`
}

type marker struct {
	Color string `json:"color"`
	Size  int    `json:"size,omitempty"`
}

type axis struct {
	Title string `json:"title"`
}

type layout struct {
	Title  string `json:"title"`
	XAxis  axis   `json:"xaxis"`
	YAxis  axis   `json:"yaxis"`
	Height int    `json:"height"`
}

// Render produces the embeddable markup for the chart. It validates the
// spec first, so callers get the same ChartError they would get from
// Validate. The output is deterministic for a given spec.
func (s *Spec) Render() (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}

	traces := make([]trace, 0, len(s.Datasets))
	for _, d := range s.Datasets {
		tr := trace{
			X:    s.Categories,
			Y:    d.Values,
			Name: d.Label,
		}
		switch s.Kind {
		case Bar:
			tr.Type = "bar"
			tr.Marker = &marker{Color: d.Color}
		default:
			tr.Type = "scatter"
			tr.Mode = "lines+markers"
			tr.Line = &traceLine{Color: d.Color, Width: 3}
			tr.Marker = &marker{Color: d.Color, Size: 8}
		}
		traces = append(traces, tr)
	}

	data, err := json.Marshal(traces)
	if err != nil {
		return "", apperrors.NewChartError(s.ID, fmt.Errorf("failed to encode traces: %w", err))
	}
	lay, err := json.Marshal(layout{
		Title:  s.Title,
		XAxis:  axis{Title: s.XLabel},
		YAxis:  axis{Title: s.YLabel},
		Height: 500,
	})
	if err != nil {
		return "", apperrors.NewChartError(s.ID, fmt.Errorf("failed to encode layout: %w", err))
	}

	markup := fmt.Sprintf(
		"<div id=%q class=\"chart\"></div>\n<script>Plotly.newPlot(%q, %s, %s, {responsive: true});</script>",
		s.ID, s.ID, data, lay)
	return markup, nil
}
