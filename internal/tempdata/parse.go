package tempdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Column headers accepted in month files. The date column is named after the
// timezone the source was exporting in, so both the standard- and
// daylight-time names are accepted, checked in this order.
var dateHeaders = []string{"EST", "EDT"}

const (
	meanHeader = "Mean TemperatureF"
	minHeader  = "Min TemperatureF"
	maxHeader  = "Max TemperatureF"
)

// Stat selects which daily statistic a query operates on.
type Stat string

const (
	StatMin  Stat = "min"
	StatMean Stat = "mean"
	StatMax  Stat = "max"
)

// DailyTemperature holds one day's temperatures in Fahrenheit. Mean is
// always present; Min and Max are only set when the source file carried
// their columns.
type DailyTemperature struct {
	Mean int
	Min  *int
	Max  *int
}

// Value returns the requested statistic and whether the day carries it.
func (t DailyTemperature) Value(stat Stat) (int, bool) {
	switch stat {
	case StatMean:
		return t.Mean, true
	case StatMin:
		if t.Min != nil {
			return *t.Min, true
		}
	case StatMax:
		if t.Max != nil {
			return *t.Max, true
		}
	}
	return 0, false
}

// MonthRecord maps each recorded day of one month to its temperatures. It is
// not guaranteed complete: a month still in progress, or a truncated
// download, ends before the month's true last day.
type MonthRecord map[Date]DailyTemperature

// latestDay returns the most recent day present in the record.
func (r MonthRecord) latestDay() (Date, bool) {
	var last Date
	found := false
	for d := range r {
		if !found || last.Before(d) {
			last = d
			found = true
		}
	}
	return last, found
}

// ParseMonthFile reads one on-disk month file into a MonthRecord. Any
// malformed row makes the whole file fail with a *ParseError.
func ParseMonthFile(path string) (MonthRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	defer f.Close()
	return parseMonth(path, f)
}

func parseMonth(path string, r io.Reader) (MonthRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count validated per row below

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: path, Err: errors.New("empty file: missing header row")}
		}
		return nil, &ParseError{Path: path, Err: err}
	}

	dateCol := -1
	for _, name := range dateHeaders {
		if i := columnIndex(header, name); i >= 0 {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return nil, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("no date column: expected one of %v", dateHeaders)}
	}
	meanCol := columnIndex(header, meanHeader)
	if meanCol < 0 {
		return nil, &ParseError{Path: path, Line: 1, Err: fmt.Errorf("missing column %q", meanHeader)}
	}
	minCol := columnIndex(header, minHeader)
	maxCol := columnIndex(header, maxHeader)

	record := make(MonthRecord)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}

		day, err := parseRowDate(row, dateCol)
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}
		mean, err := parseRowInt(row, meanCol, meanHeader)
		if err != nil {
			return nil, &ParseError{Path: path, Line: line, Err: err}
		}

		temp := DailyTemperature{Mean: mean}
		if minCol >= 0 {
			v, err := parseRowInt(row, minCol, minHeader)
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: err}
			}
			temp.Min = &v
		}
		if maxCol >= 0 {
			v, err := parseRowInt(row, maxCol, maxHeader)
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Err: err}
			}
			temp.Max = &v
		}

		// Duplicate dates should not occur in the source; last row wins.
		record[day] = temp
	}

	return record, nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func parseRowDate(row []string, col int) (Date, error) {
	if col >= len(row) {
		return Date{}, fmt.Errorf("row has %d fields, date column is %d", len(row), col+1)
	}
	return ParseDate(strings.TrimSpace(row[col]))
}

func parseRowInt(row []string, col int, name string) (int, error) {
	if col >= len(row) {
		return 0, fmt.Errorf("row has %d fields, %q column is %d", len(row), name, col+1)
	}
	v, err := strconv.Atoi(strings.TrimSpace(row[col]))
	if err != nil {
		return 0, fmt.Errorf("bad %q value %q", name, row[col])
	}
	return v, nil
}
