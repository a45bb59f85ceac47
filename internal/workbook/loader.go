// Package workbook loads Excel workbooks read-only and describes their
// sheets: column names in original order, inferred semantic types, row
// counts and per-column missing-cell counts.
package workbook

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "permitgen/internal/errors"
	"permitgen/internal/files"
)

// ColumnType is the semantic type of a column, inferred once at load time.
type ColumnType string

const (
	ColumnDate        ColumnType = "date"
	ColumnNumeric     ColumnType = "numeric"
	ColumnCategorical ColumnType = "categorical"
	ColumnText        ColumnType = "text"
)

// categoricalMaxDistinct caps how many distinct values a text column may
// hold before it stops counting as categorical.
const categoricalMaxDistinct = 40

// Column describes one sheet column.
type Column struct {
	Name    string
	Type    ColumnType
	Missing int
}

// Sheet is one worksheet: an ordered column set plus its data rows.
// Every row is padded to the header width, so all rows share the column set.
type Sheet struct {
	Name    string
	Columns []Column
	Rows    [][]string
}

// RowCount returns the number of data rows (header excluded).
func (s *Sheet) RowCount() int { return len(s.Rows) }

// ColumnIndex returns the position of the named column, or -1.
func (s *Sheet) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

// Workbook is a loaded spreadsheet file.
type Workbook struct {
	Path   string
	Sheets []Sheet
}

// Sheet returns the named sheet, if present.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	for i := range w.Sheets {
		if w.Sheets[i].Name == name {
			return &w.Sheets[i], true
		}
	}
	return nil, false
}

// Load opens the workbook at path read-only and extracts every sheet.
// It returns a LoadError when the file does not exist, is not a supported
// spreadsheet format, or cannot be opened (e.g. encrypted or corrupted).
func Load(path string, logger *slog.Logger) (*Workbook, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewLoadError(path, err)
	}
	if !files.IsSpreadsheet(path) {
		return nil, apperrors.NewLoadError(path, apperrors.ErrUnsupportedFormat)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewLoadError(path, fmt.Errorf("failed to open workbook: %w", err))
	}
	defer f.Close()

	wb := &Workbook{Path: path}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, apperrors.NewLoadError(path, fmt.Errorf("failed to read sheet %s: %w", name, err))
		}
		sheet := buildSheet(name, rows)
		logger.Debug("loaded sheet",
			slog.String("workbook", path),
			slog.String("sheet", name),
			slog.Int("rows", sheet.RowCount()),
			slog.Int("columns", len(sheet.Columns)))
		wb.Sheets = append(wb.Sheets, sheet)
	}

	return wb, nil
}

// buildSheet turns raw cell rows into a Sheet: the first row is the header,
// the rest are data rows padded to the header width.
func buildSheet(name string, rows [][]string) Sheet {
	sheet := Sheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}

	header := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		padded := make([]string, len(header))
		copy(padded, row)
		data = append(data, padded)
	}
	sheet.Rows = data

	for i, colName := range header {
		values := make([]string, 0, len(data))
		missing := 0
		for _, row := range data {
			v := strings.TrimSpace(row[i])
			if v == "" {
				missing++
				continue
			}
			values = append(values, v)
		}
		sheet.Columns = append(sheet.Columns, Column{
			Name:    strings.TrimSpace(colName),
			Type:    inferType(values),
			Missing: missing,
		})
	}

	return sheet
}

// inferType classifies the non-empty values of a column. Order matters:
// date beats numeric beats categorical beats text.
func inferType(values []string) ColumnType {
	if len(values) == 0 {
		return ColumnText
	}

	allDates, allNumeric := true, true
	distinct := make(map[string]struct{})
	for _, v := range values {
		if allDates && !isDateValue(v) {
			allDates = false
		}
		if allNumeric {
			if _, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64); err != nil {
				allNumeric = false
			}
		}
		if len(distinct) <= categoricalMaxDistinct {
			distinct[v] = struct{}{}
		}
	}

	switch {
	case allDates:
		return ColumnDate
	case allNumeric:
		return ColumnNumeric
	case len(distinct) <= categoricalMaxDistinct:
		return ColumnCategorical
	default:
		return ColumnText
	}
}

// dateLayouts are the formats excelize produces for date-formatted cells,
// plus the ISO forms common in exported statistics files.
var dateLayouts = []string{
	"2006-01-02",
	"01-02-06",
	"1/2/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"2006-01-02 15:04:05",
}

func isDateValue(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}
