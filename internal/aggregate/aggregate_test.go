package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "permitgen/internal/errors"
)

// monthlyPoints builds one observation on the first of each month, starting
// at (year, month), one per value.
func monthlyPoints(year int, month time.Month, values ...float64) []Point {
	points := make([]Point, 0, len(values))
	current := Month{Year: year, Month: month}
	for _, v := range values {
		points = append(points, Point{Time: current.Time(), Value: v})
		current = current.Next()
	}
	return points
}

func TestNewSeriesSortsAndMergesDuplicates(t *testing.T) {
	jan := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC)

	s := NewSeries("woningen", []Point{
		{Time: feb, Value: 5},
		{Time: jan, Value: 10},
		{Time: jan, Value: 3},
	})

	require.Len(t, s.Points, 2)
	assert.Equal(t, jan, s.Points[0].Time)
	// Duplicate timestamps are summed, not overwritten.
	assert.Equal(t, 13.0, s.Points[0].Value)
	assert.Equal(t, 5.0, s.Points[1].Value)
}

func TestMonthlyTotalsBucketsByYearMonth(t *testing.T) {
	points := []Point{
		{Time: time.Date(2021, time.January, 5, 0, 0, 0, 0, time.UTC), Value: 10},
		{Time: time.Date(2021, time.January, 20, 0, 0, 0, 0, time.UTC), Value: 7},
		{Time: time.Date(2021, time.February, 1, 0, 0, 0, 0, time.UTC), Value: 4},
		{Time: time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC), Value: 1},
	}

	monthly, err := MonthlyTotals(NewSeries("s", points))
	require.NoError(t, err)

	require.Len(t, monthly, 3)
	assert.Equal(t, Month{2020, time.December}, monthly[0].Month)
	assert.Equal(t, 1.0, monthly[0].Total)
	assert.Equal(t, Month{2021, time.January}, monthly[1].Month)
	assert.Equal(t, 17.0, monthly[1].Total)
	assert.Equal(t, 4.0, monthly[2].Total)
}

func TestMonthlyTotalsEmptySeries(t *testing.T) {
	_, err := MonthlyTotals(NewSeries("leeg", nil))
	require.Error(t, err)
	assert.True(t, apperrors.IsAggregationError(err))
	assert.ErrorIs(t, err, apperrors.ErrEmptySeries)
}

func TestMovingAverageStrictWindow(t *testing.T) {
	// 24 months Jan 2020 .. Dec 2021, values 1..24.
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(i + 1)
	}
	monthly, err := MonthlyTotals(NewSeries("s", monthlyPoints(2020, time.January, values...)))
	require.NoError(t, err)

	ma, err := MovingAverage(monthly)
	require.NoError(t, err)

	// No value before the twelfth bucket; first defined point is Dec 2020.
	require.Len(t, ma, 13)
	assert.Equal(t, Month{2020, time.December}, ma[0].Month)
	assert.Equal(t, 6.5, ma[0].Average) // mean of 1..12
	assert.Equal(t, Month{2021, time.December}, ma[12].Month)
	assert.Equal(t, 18.5, ma[12].Average) // mean of 13..24
}

func TestMovingAverageTooFewBuckets(t *testing.T) {
	monthly, err := MonthlyTotals(NewSeries("s", monthlyPoints(2021, time.January, 1, 2, 3, 4, 5)))
	require.NoError(t, err)

	ma, err := MovingAverage(monthly)
	require.NoError(t, err)
	assert.Empty(t, ma)
}

func TestMovingAverageSkipsGappedWindows(t *testing.T) {
	// Jan..Jun 2020, then Aug 2020..Jul 2021: July 2020 is missing, so no
	// window spanning the gap may produce a value.
	points := monthlyPoints(2020, time.January, 1, 1, 1, 1, 1, 1)
	points = append(points, monthlyPoints(2020, time.August, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2, 2)...)

	monthly, err := MonthlyTotals(NewSeries("s", points))
	require.NoError(t, err)

	ma, err := MovingAverage(monthly)
	require.NoError(t, err)

	require.Len(t, ma, 1)
	assert.Equal(t, Month{2021, time.July}, ma[0].Month)
	assert.Equal(t, 2.0, ma[0].Average)
}

func TestMovingAverageEmptyInput(t *testing.T) {
	_, err := MovingAverage(nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsAggregationError(err))
}

func TestQuarterlyRollupEqualsSumOfMonths(t *testing.T) {
	monthly, err := MonthlyTotals(NewSeries("s", monthlyPoints(2021, time.January,
		10, 20, 30, // Q1
		1, 2, 3, // Q2
		100))) // Q3, partial
	require.NoError(t, err)

	quarterly, err := QuarterlyRollup(monthly)
	require.NoError(t, err)

	require.Len(t, quarterly, 3)
	assert.Equal(t, Quarter{2021, 1}, quarterly[0].Quarter)
	assert.Equal(t, 60.0, quarterly[0].Total)
	assert.Equal(t, 6.0, quarterly[1].Total)
	assert.Equal(t, 100.0, quarterly[2].Total)

	// Round trip: every quarterly total equals the sum of its months.
	for _, qt := range quarterly {
		var sum float64
		for _, mt := range monthly {
			if mt.Month.Quarter() == qt.Quarter {
				sum += mt.Total
			}
		}
		assert.Equal(t, sum, qt.Total, qt.Quarter.String())
	}
}

func TestQuarterlyRollupEmptyInput(t *testing.T) {
	_, err := QuarterlyRollup(nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsAggregationError(err))
}

func TestYearlyQuarterPivot(t *testing.T) {
	quarterly := []QuarterlyTotal{
		{Quarter: Quarter{2020, 4}, Total: 40},
		{Quarter: Quarter{2021, 1}, Total: 10},
		{Quarter: Quarter{2021, 3}, Total: 30},
	}

	rows := YearlyQuarterPivot(quarterly)
	require.Len(t, rows, 2)

	assert.Equal(t, 2020, rows[0].Year)
	assert.Equal(t, [4]float64{0, 0, 0, 40}, rows[0].Quarters)
	assert.Equal(t, 40.0, rows[0].Total)

	assert.Equal(t, 2021, rows[1].Year)
	assert.Equal(t, [4]float64{10, 0, 30, 0}, rows[1].Quarters)
	assert.Equal(t, 40.0, rows[1].Total)
}

func TestSeriesFilterFromYear(t *testing.T) {
	s := NewSeries("s", monthlyPoints(2014, time.November, 1, 1, 1, 1))
	filtered := s.FilterFromYear(2015)

	require.Len(t, filtered.Points, 2)
	assert.Equal(t, 2015, filtered.Points[0].Time.Year())
}

func TestSeriesSpanAndSum(t *testing.T) {
	s := NewSeries("s", monthlyPoints(2019, time.December, 5, 7, 9))
	first, last := s.Span()
	assert.Equal(t, 2019, first)
	assert.Equal(t, 2020, last)
	assert.Equal(t, 21.0, s.Sum())
}
