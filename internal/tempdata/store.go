// Package tempdata manages daily temperature history for a single weather
// station. Data is fetched a month at a time and cached twice: on disk as
// one CSV file per month, and in memory keyed by (year, month). Past months
// with incomplete files are re-fetched once; months still in progress are
// served as-is.
package tempdata

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Fetcher downloads the raw month table for one (year, month) and writes the
// cleaned result to destPath.
type Fetcher interface {
	FetchMonth(ctx context.Context, key MonthKey, destPath string) error
}

// Store owns both cache tiers. It is not safe for concurrent use: the design
// assumes a single caller, and callers must not mutate returned records.
type Store struct {
	dataDir string
	fetcher Fetcher
	today   func() Date
	cache   map[MonthKey]MonthRecord
	log     zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides how the store determines the current day. The default
// is Today; tests use this to pin staleness judgments.
func WithClock(today func() Date) Option {
	return func(s *Store) {
		s.today = today
	}
}

// NewStore creates a Store caching month files under dataDir, creating the
// directory if needed.
func NewStore(dataDir string, fetcher Fetcher, logger zerolog.Logger, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	s := &Store{
		dataDir: dataDir,
		fetcher: fetcher,
		today:   Today,
		cache:   make(map[MonthKey]MonthRecord),
		log:     logger.With().Str("component", "tempdata").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// MeanTemperature returns the mean temperature in Fahrenheit for one day,
// loading the day's month into the caches on first touch.
func (s *Store) MeanTemperature(ctx context.Context, date Date) (int, error) {
	return s.temperature(ctx, date, StatMean)
}

// Day returns the full temperature record for one day.
func (s *Store) Day(ctx context.Context, date Date) (DailyTemperature, error) {
	rec, err := s.month(ctx, date.Key())
	if err != nil {
		return DailyTemperature{}, err
	}
	temp, ok := rec[date]
	if !ok {
		return DailyTemperature{}, &MissingDataError{Date: date}
	}
	return temp, nil
}

// AverageMeanTemperature averages each day's mean temperature over
// [from, to).
func (s *Store) AverageMeanTemperature(ctx context.Context, from, to Date) (float64, error) {
	return s.Average(ctx, from, to, StatMean)
}

// AverageMinTemperature averages each day's minimum temperature over
// [from, to).
func (s *Store) AverageMinTemperature(ctx context.Context, from, to Date) (float64, error) {
	return s.Average(ctx, from, to, StatMin)
}

// AverageMaxTemperature averages each day's maximum temperature over
// [from, to).
func (s *Store) AverageMaxTemperature(ctx context.Context, from, to Date) (float64, error) {
	return s.Average(ctx, from, to, StatMax)
}

// Average computes the arithmetic mean of the selected statistic over the
// half-open range [from, to). The range is validated before any lookup, so
// an empty or inverted range can never reach the division.
func (s *Store) Average(ctx context.Context, from, to Date, stat Stat) (float64, error) {
	if !from.Before(to) {
		return 0, &InvalidRangeError{From: from, To: to}
	}

	sum := 0
	count := 0
	for d := range Days(from, to) {
		v, err := s.temperature(ctx, d, stat)
		if err != nil {
			return 0, err
		}
		sum += v
		count++
	}
	return float64(sum) / float64(count), nil
}

func (s *Store) temperature(ctx context.Context, date Date, stat Stat) (int, error) {
	rec, err := s.month(ctx, date.Key())
	if err != nil {
		return 0, err
	}
	temp, ok := rec[date]
	if !ok {
		return 0, &MissingDataError{Date: date, Stat: stat}
	}
	v, ok := temp.Value(stat)
	if !ok {
		return 0, &MissingDataError{Date: date, Stat: stat}
	}
	return v, nil
}

func (s *Store) month(ctx context.Context, key MonthKey) (MonthRecord, error) {
	if rec, ok := s.cache[key]; ok {
		return rec, nil
	}
	return s.loadMonth(ctx, key)
}

// loadMonth populates the in-memory cache for one month from the on-disk
// file, downloading it first if absent. If the file ends before the month's
// true last day and that latest day is not today, the prior download was
// incomplete: the file is re-fetched and re-parsed exactly once, whatever
// the second fetch returns.
func (s *Store) loadMonth(ctx context.Context, key MonthKey) (MonthRecord, error) {
	path := filepath.Join(s.dataDir, key.String()+".csv")

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		if err := s.fetcher.FetchMonth(ctx, key, path); err != nil {
			return nil, err
		}
	}

	rec, err := ParseMonthFile(path)
	if err != nil {
		return nil, err
	}

	if s.isStale(rec, key) {
		s.log.Info().Stringer("month", key).Msg("cached month incomplete, refetching")
		if err := s.fetcher.FetchMonth(ctx, key, path); err != nil {
			return nil, err
		}
		rec, err = ParseMonthFile(path)
		if err != nil {
			return nil, err
		}
	}

	s.cache[key] = rec
	s.log.Debug().Stringer("month", key).Int("days", len(rec)).Msg("month loaded")
	return rec, nil
}

// isStale reports whether a month record looks like a bad prior download. A
// month whose data ends on today's date is merely in progress; a past month
// ending early is stale. The comparison uses exact date equality with today,
// no grace window, so a still-in-progress month can flip judgments across
// calls made on different days.
func (s *Store) isStale(rec MonthRecord, key MonthKey) bool {
	last, ok := rec.latestDay()
	if !ok {
		// No rows at all: nothing legitimate produces an empty month.
		return true
	}
	return last.Before(key.LastDay()) && last != s.today()
}
