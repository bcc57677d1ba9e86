package tempdata

import "fmt"

// MissingDataError reports that a requested day has no usable value even
// after the month was loaded: a gap in the source data, a future date, or a
// day whose record lacks the requested statistic.
type MissingDataError struct {
	Date Date
	Stat Stat
}

func (e *MissingDataError) Error() string {
	if e.Stat == "" || e.Stat == StatMean {
		return fmt.Sprintf("no temperature recorded for %s", e.Date)
	}
	return fmt.Sprintf("no %s temperature recorded for %s", e.Stat, e.Date)
}

// InvalidRangeError reports an empty or inverted average-temperature range.
type InvalidRangeError struct {
	From Date
	To   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range [%s, %s): to must be after from", e.From, e.To)
}

// ParseError reports a malformed month file. The whole file is rejected;
// nothing is partially consumed.
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
