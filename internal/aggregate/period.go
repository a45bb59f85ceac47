// Package aggregate derives monthly, quarterly and moving-average series
// from raw (timestamp, value) observations.
package aggregate

import (
	"fmt"
	"strings"
	"time"
)

// dutchMonths maps Dutch month names and their common abbreviations to
// month numbers. Statistical exports use the full names; abbreviations
// show up in hand-edited files.
var dutchMonths = map[string]time.Month{
	"januari": time.January, "jan": time.January,
	"februari": time.February, "feb": time.February,
	"maart": time.March, "mrt": time.March,
	"april": time.April, "apr": time.April,
	"mei":  time.May,
	"juni": time.June, "jun": time.June,
	"juli": time.July, "jul": time.July,
	"augustus": time.August, "aug": time.August,
	"september": time.September, "sep": time.September,
	"oktober": time.October, "okt": time.October,
	"november": time.November, "nov": time.November,
	"december": time.December, "dec": time.December,
}

// dutchMonthNames maps month numbers back to display names.
var dutchMonthNames = [...]string{
	time.January:   "Januari",
	time.February:  "Februari",
	time.March:     "Maart",
	time.April:     "April",
	time.May:       "Mei",
	time.June:      "Juni",
	time.July:      "Juli",
	time.August:    "Augustus",
	time.September: "September",
	time.October:   "Oktober",
	time.November:  "November",
	time.December:  "December",
}

// ParseDutchMonth converts a Dutch month name (e.g. "Januari", "okt") to a
// time.Month.
func ParseDutchMonth(name string) (time.Month, error) {
	clean := strings.ToLower(strings.TrimSpace(name))
	if m, ok := dutchMonths[clean]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown Dutch month name: %q", name)
}

// DutchMonthName returns the Dutch display name for a month.
func DutchMonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return dutchMonthNames[m]
}

// Month is a (year, month) bucket.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf buckets a timestamp.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// String renders the bucket as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Display renders the bucket with its Dutch month name, e.g. "Januari 2023".
func (m Month) Display() string {
	return fmt.Sprintf("%s %d", DutchMonthName(m.Month), m.Year)
}

// Time returns the first day of the bucket in UTC.
func (m Month) Time() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Next returns the following calendar month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Before reports whether m precedes other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// Quarter returns the quarter bucket containing this month.
func (m Month) Quarter() Quarter {
	return Quarter{Year: m.Year, Q: (int(m.Month)-1)/3 + 1}
}

// Quarter is a (year, quarter) bucket.
type Quarter struct {
	Year int
	Q    int
}

// String renders the bucket as YYYY-QX.
func (q Quarter) String() string {
	return fmt.Sprintf("%04d-Q%d", q.Year, q.Q)
}

// Before reports whether q precedes other.
func (q Quarter) Before(other Quarter) bool {
	if q.Year != other.Year {
		return q.Year < other.Year
	}
	return q.Q < other.Q
}
