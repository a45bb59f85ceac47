// Package permits maps raw building-permit worksheets onto the series the
// reports are built from. The input format is the Statbel export: one row
// per (region, year, Dutch month) with dwelling counts per column.
package permits

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"permitgen/internal/aggregate"
	apperrors "permitgen/internal/errors"
	"permitgen/internal/workbook"
)

// Regions is the closed set of Belgian regions (gewesten) every run
// reports on, in display order.
var Regions = []string{
	"VLAAMS GEWEST",
	"WAALS GEWEST",
	"BRUSSELS HOOFDSTEDELIJK GEWEST",
}

// provincePrefix marks the rows that belong to a province rather than a
// region.
const provincePrefix = "PROVINCIE"

// Measure names the derived housing series of a region.
type Measure string

const (
	Houses Measure = "aantal_huizen"
	Flats  Measure = "aantal_flats"
	Total  Measure = "alle_woningen"
)

// row is one observation: a region at a month with its derived measures.
type row struct {
	Region string
	Month  aggregate.Month
	Houses float64
	Flats  float64
	Total  float64
}

// Dataset is a parsed permit sheet, ready to be split per region.
type Dataset struct {
	rows []row
}

// column header names in the Statbel export. The houses column is matched
// on its stable "gebouwen met" fragment since the full header spells
// "één" inconsistently across vintages.
const (
	colRegion = "regio"
	colYear   = "jaar"
	colMonth  = "maand"
	colTotal  = "aantal woningen"
)

// FromSheet parses a permit worksheet into a dataset. Derived measures
// follow the published series: houses are single-dwelling buildings, flats
// are the remaining dwellings. Unparseable year or month values fail the
// whole sheet with an AggregationError.
func FromSheet(sheet *workbook.Sheet) (*Dataset, error) {
	regionIdx := sheet.ColumnIndex(colRegion)
	yearIdx := sheet.ColumnIndex(colYear)
	monthIdx := sheet.ColumnIndex(colMonth)
	totalIdx := sheet.ColumnIndex(colTotal)
	housesIdx := housesColumn(sheet)

	for name, idx := range map[string]int{
		colRegion: regionIdx, colYear: yearIdx, colMonth: monthIdx, colTotal: totalIdx,
	} {
		if idx < 0 {
			return nil, apperrors.NewAggregationError(sheet.Name,
				fmt.Errorf("required column %q not found", name))
		}
	}
	if housesIdx < 0 {
		return nil, apperrors.NewAggregationError(sheet.Name,
			fmt.Errorf("single-dwelling buildings column not found"))
	}

	ds := &Dataset{rows: make([]row, 0, sheet.RowCount())}
	for i, cells := range sheet.Rows {
		region := strings.TrimSpace(cells[regionIdx])
		if region == "" {
			continue
		}

		year, err := strconv.Atoi(strings.TrimSpace(cells[yearIdx]))
		if err != nil {
			return nil, apperrors.NewAggregationError(sheet.Name,
				fmt.Errorf("row %d: %w: year %q", i+2, apperrors.ErrUnparseableDate, cells[yearIdx]))
		}
		month, err := aggregate.ParseDutchMonth(cells[monthIdx])
		if err != nil {
			return nil, apperrors.NewAggregationError(sheet.Name,
				fmt.Errorf("row %d: %w: %v", i+2, apperrors.ErrUnparseableDate, err))
		}

		total, err := parseCount(cells[totalIdx])
		if err != nil {
			return nil, apperrors.NewAggregationError(sheet.Name, fmt.Errorf("row %d: %w", i+2, err))
		}
		houses, err := parseCount(cells[housesIdx])
		if err != nil {
			return nil, apperrors.NewAggregationError(sheet.Name, fmt.Errorf("row %d: %w", i+2, err))
		}

		ds.rows = append(ds.rows, row{
			Region: region,
			Month:  aggregate.Month{Year: year, Month: month},
			Houses: houses,
			Flats:  total - houses,
			Total:  total,
		})
	}

	if len(ds.rows) == 0 {
		return nil, apperrors.NewAggregationError(sheet.Name, apperrors.ErrEmptySeries)
	}
	return ds, nil
}

// housesColumn finds the single-dwelling buildings column.
func housesColumn(sheet *workbook.Sheet) int {
	for i, c := range sheet.Columns {
		name := strings.ToLower(c.Name)
		if strings.Contains(name, "gebouwen met") && strings.Contains(name, "woning") {
			return i
		}
	}
	return -1
}

// parseCount reads a dwelling count cell. Empty cells count as zero, the
// way the published statistics treat missing observations.
func parseCount(cell string) (float64, error) {
	v := strings.TrimSpace(cell)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable count %q", cell)
	}
	return f, nil
}

// Provinces returns the distinct province labels present in the data,
// sorted alphabetically.
func (d *Dataset) Provinces() []string {
	seen := make(map[string]struct{})
	var provinces []string
	for _, r := range d.rows {
		if !strings.HasPrefix(r.Region, provincePrefix) {
			continue
		}
		if _, ok := seen[r.Region]; ok {
			continue
		}
		seen[r.Region] = struct{}{}
		provinces = append(provinces, r.Region)
	}
	sort.Strings(provinces)
	return provinces
}

// HasRegion reports whether any observation belongs to the given region.
func (d *Dataset) HasRegion(region string) bool {
	for _, r := range d.rows {
		if r.Region == region {
			return true
		}
	}
	return false
}

// RegionSeries extracts the named measure for one region as a series.
func (d *Dataset) RegionSeries(region string, measure Measure) *aggregate.Series {
	var points []aggregate.Point
	for _, r := range d.rows {
		if r.Region != region {
			continue
		}
		var v float64
		switch measure {
		case Houses:
			v = r.Houses
		case Flats:
			v = r.Flats
		default:
			v = r.Total
		}
		points = append(points, aggregate.Point{Time: r.Month.Time(), Value: v})
	}
	return aggregate.NewSeries(fmt.Sprintf("%s/%s", region, measure), points)
}

// ReportFileName derives the output file name for a region or province
// report: spaces and slashes become underscores.
func ReportFileName(region string) string {
	clean := strings.NewReplacer(" ", "_", "/", "_").Replace(region)
	return clean + "_rapport.html"
}

// DisplayName strips the administrative prefix from a province label for
// the index page.
func DisplayName(region string) string {
	return strings.TrimSpace(strings.TrimPrefix(region, provincePrefix+" "))
}
