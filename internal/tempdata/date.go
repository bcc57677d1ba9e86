package tempdata

import (
	"fmt"
	"iter"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a single calendar day. It is comparable, so it can key maps
// directly. All arithmetic treats days as UTC calendar days.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, normalizing out-of-range components the same way
// time.Date does (e.g. day 0 becomes the last day of the previous month).
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf truncates a time.Time to its calendar day.
func DateOf(t time.Time) Date {
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Today returns the current calendar day.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the midnight UTC instant of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// AddDays returns the day n days after d (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d falls strictly before o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// After reports whether d falls strictly after o.
func (d Date) After(o Date) bool {
	return o.Before(d)
}

// DaysUntil returns the number of days from d to o, negative if o is earlier.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time().Sub(d.Time()).Hours() / 24)
}

// Key returns the month the day belongs to.
func (d Date) Key() MonthKey {
	return MonthKey{Year: d.Year, Month: d.Month}
}

// MonthKey identifies one cache unit: a (year, month) pair.
type MonthKey struct {
	Year  int
	Month time.Month
}

// String renders the key in the unpadded "2021-1" form used for cache file
// names.
func (k MonthKey) String() string {
	return fmt.Sprintf("%d-%d", k.Year, int(k.Month))
}

// FirstDay returns the first calendar day of the month.
func (k MonthKey) FirstDay() Date {
	return Date{Year: k.Year, Month: k.Month, Day: 1}
}

// LastDay returns the true last calendar day of the month, accounting for
// month lengths and leap years.
func (k MonthKey) LastDay() Date {
	return NewDate(k.Year, k.Month+1, 0)
}

// Days yields every day from from (inclusive) to to (exclusive). The
// sequence is finite and restartable; an empty or inverted range yields
// nothing.
func Days(from, to Date) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := from; d.Before(to); d = d.AddDays(1) {
			if !yield(d) {
				return
			}
		}
	}
}
