// Package meter loads utility meter-reading files and correlates them with
// temperature history: per-day average usage between consecutive readings,
// paired with the average temperature over the same interval.
package meter

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"utilstats/internal/tempdata"
)

// Utility names the resource a reading file measures.
type Utility struct {
	Name string
	Unit string
}

var (
	Gas      = Utility{Name: "gas", Unit: "CCF"}
	Electric = Utility{Name: "electric", Unit: "kWh"}
)

// Reading is one meter reading: the amount consumed since the previous
// reading, recorded on a date.
type Reading struct {
	Date   tempdata.Date
	Amount float64
}

// Point is one sample of a plottable series.
type Point struct {
	Date  tempdata.Date
	Value float64
}

// TemperatureAverager is the slice of the temperature store the correlator
// needs.
type TemperatureAverager interface {
	Average(ctx context.Context, from, to tempdata.Date, stat tempdata.Stat) (float64, error)
}

// ReadFile loads a meter-reading CSV. Rows are `date,amount` with no header;
// any malformed row fails the whole file. Readings are returned sorted by
// date.
func ReadFile(path string, u Utility, logger zerolog.Logger) ([]Reading, error) {
	logger.Info().Str("utility", u.Name).Str("file", path).Msg("reading meter data")

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 2

	var readings []Reading
	for line := 1; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}

		date, err := tempdata.ParseDate(strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", path, line, err)
		}
		amount, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: bad amount %q", path, line, row[1])
		}

		readings = append(readings, Reading{Date: date, Amount: amount})
		logger.Debug().Stringer("date", date).Float64("amount", amount).Str("unit", u.Unit).Msg("read meter row")
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Date.Before(readings[j].Date)
	})
	return readings, nil
}

// UsageSeries converts readings into average usage per day for each interval
// between consecutive readings, attributed to the later reading's date. The
// first reading only anchors the first interval.
func UsageSeries(readings []Reading) ([]Point, error) {
	points := make([]Point, 0, max(len(readings)-1, 0))
	for i := 1; i < len(readings); i++ {
		days := readings[i-1].Date.DaysUntil(readings[i].Date)
		if days <= 0 {
			return nil, fmt.Errorf("readings not strictly increasing: %s then %s",
				readings[i-1].Date, readings[i].Date)
		}
		points = append(points, Point{
			Date:  readings[i].Date,
			Value: readings[i].Amount / float64(days),
		})
	}
	return points, nil
}

// TemperatureSeries pairs each reading interval [prev, curr) with the
// average of the selected temperature statistic over that interval.
func TemperatureSeries(ctx context.Context, store TemperatureAverager, readings []Reading, stat tempdata.Stat) ([]Point, error) {
	points := make([]Point, 0, max(len(readings)-1, 0))
	for i := 1; i < len(readings); i++ {
		avg, err := store.Average(ctx, readings[i-1].Date, readings[i].Date, stat)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Date: readings[i].Date, Value: avg})
	}
	return points, nil
}
