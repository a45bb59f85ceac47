package aggregate

import (
	"sort"

	apperrors "permitgen/internal/errors"
)

// MovingAverageWindow is the trailing window for the smoothed series:
// twelve full months, no partial windows.
const MovingAverageWindow = 12

// MonthlyTotal is the summed value of one monthly bucket.
type MonthlyTotal struct {
	Month Month
	Total float64
}

// QuarterlyTotal is the summed value of one quarterly bucket.
type QuarterlyTotal struct {
	Quarter Quarter
	Total   float64
}

// MovingAveragePoint is one emitted moving-average value. The point at
// bucket m averages the twelve consecutive monthly buckets ending at m.
type MovingAveragePoint struct {
	Month   Month
	Average float64
}

// YearRow is one row of the yearly-by-quarter pivot: the four quarterly
// totals of a year plus the year total. Quarters missing from the data
// stay zero.
type YearRow struct {
	Year     int
	Quarters [4]float64
	Total    float64
}

// MonthlyTotals buckets the series per (year, month) and sums the values of
// each bucket. Returns an AggregationError when the series is empty.
func MonthlyTotals(s *Series) ([]MonthlyTotal, error) {
	if s.Empty() {
		return nil, apperrors.NewAggregationError(s.Name, apperrors.ErrEmptySeries)
	}

	totals := make(map[Month]float64)
	for _, p := range s.Points {
		totals[MonthOf(p.Time)] += p.Value
	}

	result := make([]MonthlyTotal, 0, len(totals))
	for month, total := range totals {
		result = append(result, MonthlyTotal{Month: month, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Month.Before(result[j].Month)
	})
	return result, nil
}

// MovingAverage computes the trailing mean over MovingAverageWindow monthly
// buckets. A value is emitted for bucket i only when the window ending at i
// consists of consecutive calendar months with no gaps; nothing is emitted
// for partial windows, so the first possible point is at the twelfth month.
func MovingAverage(monthly []MonthlyTotal) ([]MovingAveragePoint, error) {
	if len(monthly) == 0 {
		return nil, apperrors.NewAggregationError("", apperrors.ErrEmptySeries)
	}

	var points []MovingAveragePoint
	for i := MovingAverageWindow - 1; i < len(monthly); i++ {
		window := monthly[i-MovingAverageWindow+1 : i+1]
		if !consecutive(window) {
			continue
		}
		var sum float64
		for _, mt := range window {
			sum += mt.Total
		}
		points = append(points, MovingAveragePoint{
			Month:   monthly[i].Month,
			Average: sum / MovingAverageWindow,
		})
	}
	return points, nil
}

// consecutive reports whether the monthly buckets form an unbroken run of
// calendar months.
func consecutive(window []MonthlyTotal) bool {
	for i := 1; i < len(window); i++ {
		if window[i-1].Month.Next() != window[i].Month {
			return false
		}
	}
	return true
}

// QuarterlyRollup sums monthly totals into (year, quarter) buckets. Each
// quarterly total equals the sum of its constituent monthly totals.
func QuarterlyRollup(monthly []MonthlyTotal) ([]QuarterlyTotal, error) {
	if len(monthly) == 0 {
		return nil, apperrors.NewAggregationError("", apperrors.ErrEmptySeries)
	}

	totals := make(map[Quarter]float64)
	for _, mt := range monthly {
		totals[mt.Month.Quarter()] += mt.Total
	}

	result := make([]QuarterlyTotal, 0, len(totals))
	for quarter, total := range totals {
		result = append(result, QuarterlyTotal{Quarter: quarter, Total: total})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Quarter.Before(result[j].Quarter)
	})
	return result, nil
}

// YearlyQuarterPivot arranges quarterly totals as one row per year with
// columns Q1..Q4 and a year total, sorted by year.
func YearlyQuarterPivot(quarterly []QuarterlyTotal) []YearRow {
	byYear := make(map[int]*YearRow)
	var years []int
	for _, qt := range quarterly {
		row, ok := byYear[qt.Quarter.Year]
		if !ok {
			row = &YearRow{Year: qt.Quarter.Year}
			byYear[qt.Quarter.Year] = row
			years = append(years, qt.Quarter.Year)
		}
		row.Quarters[qt.Quarter.Q-1] += qt.Total
		row.Total += qt.Total
	}

	sort.Ints(years)
	rows := make([]YearRow, 0, len(years))
	for _, y := range years {
		rows = append(rows, *byYear[y])
	}
	return rows
}
