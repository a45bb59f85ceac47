package aggregate

import (
	"sort"
	"time"
)

// Point is a single observation.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is an ordered (timestamp, value) sequence. Construct it with
// NewSeries, which sorts observations and merges duplicate timestamps, so
// timestamps are strictly increasing afterwards.
type Series struct {
	Name   string
	Points []Point
}

// NewSeries builds a series from raw observations. Observations are sorted
// by time; duplicate timestamps are resolved by summing their values.
func NewSeries(name string, points []Point) *Series {
	sorted := make([]Point, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	merged := make([]Point, 0, len(sorted))
	for _, p := range sorted {
		if n := len(merged); n > 0 && merged[n-1].Time.Equal(p.Time) {
			merged[n-1].Value += p.Value
			continue
		}
		merged = append(merged, p)
	}

	return &Series{Name: name, Points: merged}
}

// Empty reports whether the series has no observations.
func (s *Series) Empty() bool { return len(s.Points) == 0 }

// Span returns the first and last years covered by the series.
// Only meaningful for non-empty series.
func (s *Series) Span() (first, last int) {
	if s.Empty() {
		return 0, 0
	}
	return s.Points[0].Time.Year(), s.Points[len(s.Points)-1].Time.Year()
}

// Sum returns the total of all observation values.
func (s *Series) Sum() float64 {
	var total float64
	for _, p := range s.Points {
		total += p.Value
	}
	return total
}

// FilterFromYear returns a new series holding only observations in or after
// the given year.
func (s *Series) FilterFromYear(year int) *Series {
	filtered := make([]Point, 0, len(s.Points))
	for _, p := range s.Points {
		if p.Time.Year() >= year {
			filtered = append(filtered, p)
		}
	}
	return &Series{Name: s.Name, Points: filtered}
}
