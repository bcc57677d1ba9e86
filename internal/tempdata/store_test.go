package tempdata_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"utilstats/internal/tempdata"
)

// fakeFetcher writes a canned payload to the destination file and counts
// invocations.
type fakeFetcher struct {
	payload string
	calls   int
	err     error
}

func (f *fakeFetcher) FetchMonth(_ context.Context, _ tempdata.MonthKey, destPath string) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(destPath, []byte(f.payload), 0o644)
}

// monthCSV builds a month file covering days 1..lastDay, with min/max offset
// from the mean by 10 degrees.
func monthCSV(key tempdata.MonthKey, lastDay int, meanFor func(day int) int) string {
	var b strings.Builder
	b.WriteString("EST,Mean TemperatureF,Min TemperatureF,Max TemperatureF\n")
	for day := 1; day <= lastDay; day++ {
		mean := meanFor(day)
		date := tempdata.NewDate(key.Year, key.Month, day)
		fmt.Fprintf(&b, "%s,%d,%d,%d\n", date, mean, mean-10, mean+10)
	}
	return b.String()
}

func writeMonth(t *testing.T, dir string, key tempdata.MonthKey, content string) {
	t.Helper()
	path := filepath.Join(dir, key.String()+".csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestStore(t *testing.T, dir string, fetcher tempdata.Fetcher, today tempdata.Date) *tempdata.Store {
	t.Helper()
	store, err := tempdata.NewStore(dir, fetcher, zerolog.Nop(),
		tempdata.WithClock(func() tempdata.Date { return today }))
	require.NoError(t, err)
	return store
}

var (
	jan2021 = tempdata.MonthKey{Year: 2021, Month: time.January}
	today   = tempdata.NewDate(2021, time.March, 15)
)

// exampleMean fixes days 1 and 2 to known values so averages are easy to
// verify by hand.
func exampleMean(day int) int {
	switch day {
	case 1:
		return 32
	case 2:
		return 28
	default:
		return 20 + day
	}
}

func TestCompleteMonthOnDiskNeverFetches(t *testing.T) {
	dir := t.TempDir()
	writeMonth(t, dir, jan2021, monthCSV(jan2021, 31, exampleMean))

	fetcher := &fakeFetcher{}
	store := newTestStore(t, dir, fetcher, today)

	got, err := store.MeanTemperature(context.Background(), tempdata.NewDate(2021, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 32, got)
	assert.Equal(t, 0, fetcher.calls, "complete cached month must not trigger a fetch")
}

func TestAverageMatchesWorkedExample(t *testing.T) {
	dir := t.TempDir()
	writeMonth(t, dir, jan2021, monthCSV(jan2021, 31, exampleMean))
	store := newTestStore(t, dir, &fakeFetcher{}, today)

	avg, err := store.AverageMeanTemperature(context.Background(),
		tempdata.NewDate(2021, time.January, 1), tempdata.NewDate(2021, time.January, 3))
	require.NoError(t, err)
	assert.Equal(t, 30.0, avg)
}

func TestAverageEqualsMeanOfPointLookups(t *testing.T) {
	dir := t.TempDir()
	writeMonth(t, dir, jan2021, monthCSV(jan2021, 31, exampleMean))
	store := newTestStore(t, dir, &fakeFetcher{}, today)

	ctx := context.Background()
	from := tempdata.NewDate(2021, time.January, 5)
	to := tempdata.NewDate(2021, time.January, 12)

	sum := 0
	count := 0
	for d := range tempdata.Days(from, to) {
		v, err := store.MeanTemperature(ctx, d)
		require.NoError(t, err)
		sum += v
		count++
	}

	avg, err := store.AverageMeanTemperature(ctx, from, to)
	require.NoError(t, err)
	assert.InDelta(t, float64(sum)/float64(count), avg, 1e-9)
}

func TestAverageRejectsEmptyAndInvertedRanges(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := newTestStore(t, t.TempDir(), fetcher, today)

	d1 := tempdata.NewDate(2021, time.January, 5)
	d2 := tempdata.NewDate(2021, time.January, 10)

	var rangeErr *tempdata.InvalidRangeError

	_, err := store.AverageMeanTemperature(context.Background(), d1, d1)
	require.ErrorAs(t, err, &rangeErr)

	_, err = store.AverageMeanTemperature(context.Background(), d2, d1)
	require.ErrorAs(t, err, &rangeErr)

	assert.Equal(t, 0, fetcher.calls, "range validation must run before any load")
}

func TestPartialPastMonthRefetchesOnce(t *testing.T) {
	dir := t.TempDir()
	writeMonth(t, dir, jan2021, monthCSV(jan2021, 10, exampleMean))

	// The refreshed download is complete and carries different values.
	fetcher := &fakeFetcher{payload: monthCSV(jan2021, 31, func(int) int { return 50 })}
	store := newTestStore(t, dir, fetcher, today)

	got, err := store.MeanTemperature(context.Background(), tempdata.NewDate(2021, time.January, 20))
	require.NoError(t, err)
	assert.Equal(t, 50, got, "query must reflect the refreshed content")
	assert.Equal(t, 1, fetcher.calls, "exactly one staleness re-fetch")
}

func TestPartialCurrentMonthIsNotStale(t *testing.T) {
	dir := t.TempDir()
	current := tempdata.MonthKey{Year: 2021, Month: time.March}
	writeMonth(t, dir, current, monthCSV(current, 15, exampleMean))

	fetcher := &fakeFetcher{}
	store := newTestStore(t, dir, fetcher, tempdata.NewDate(2021, time.March, 15))

	_, err := store.MeanTemperature(context.Background(), tempdata.NewDate(2021, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, fetcher.calls, "month in progress through today must not re-fetch")

	// Days past today are simply missing, not a reason to re-download.
	_, err = store.MeanTemperature(context.Background(), tempdata.NewDate(2021, time.March, 20))
	var missing *tempdata.MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 0, fetcher.calls)
}

func TestRefetchHappensAtMostOncePerLoad(t *testing.T) {
	dir := t.TempDir()
	// The source keeps returning the same incomplete month.
	fetcher := &fakeFetcher{payload: monthCSV(jan2021, 10, exampleMean)}
	store := newTestStore(t, dir, fetcher, today)

	// Missing file: one initial fetch, then one staleness re-fetch, then
	// the result is accepted as-is.
	_, err := store.MeanTemperature(context.Background(), tempdata.NewDate(2021, time.January, 20))
	var missing *tempdata.MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 2, fetcher.calls)
}

func TestMissingFileFetches(t *testing.T) {
	fetcher := &fakeFetcher{payload: monthCSV(jan2021, 31, exampleMean)}
	store := newTestStore(t, t.TempDir(), fetcher, today)

	got, err := store.MeanTemperature(context.Background(), tempdata.NewDate(2021, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, 28, got)
	assert.Equal(t, 1, fetcher.calls)
}

func TestMemoryCacheServesAfterDiskRemoval(t *testing.T) {
	dir := t.TempDir()
	writeMonth(t, dir, jan2021, monthCSV(jan2021, 31, exampleMean))
	fetcher := &fakeFetcher{}
	store := newTestStore(t, dir, fetcher, today)

	ctx := context.Background()
	_, err := store.MeanTemperature(ctx, tempdata.NewDate(2021, time.January, 1))
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, jan2021.String()+".csv")))

	got, err := store.MeanTemperature(ctx, tempdata.NewDate(2021, time.January, 2))
	require.NoError(t, err)
	assert.Equal(t, 28, got)
	assert.Equal(t, 0, fetcher.calls)
}

func TestMinMaxAverages(t *testing.T) {
	dir := t.TempDir()
	writeMonth(t, dir, jan2021, monthCSV(jan2021, 31, exampleMean))
	store := newTestStore(t, dir, &fakeFetcher{}, today)

	ctx := context.Background()
	from := tempdata.NewDate(2021, time.January, 1)
	to := tempdata.NewDate(2021, time.January, 3)

	minAvg, err := store.AverageMinTemperature(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 20.0, minAvg)

	maxAvg, err := store.AverageMaxTemperature(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 40.0, maxAvg)
}

func TestMissingStatIsMissingData(t *testing.T) {
	dir := t.TempDir()
	content := "EST,Mean TemperatureF\n"
	for d := range tempdata.Days(jan2021.FirstDay(), jan2021.LastDay().AddDays(1)) {
		content += fmt.Sprintf("%s,%d\n", d, 30)
	}
	writeMonth(t, dir, jan2021, content)
	store := newTestStore(t, dir, &fakeFetcher{}, today)

	_, err := store.AverageMinTemperature(context.Background(),
		tempdata.NewDate(2021, time.January, 1), tempdata.NewDate(2021, time.January, 3))
	var missing *tempdata.MissingDataError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, tempdata.StatMin, missing.Stat)
}

func TestFetchFailurePropagates(t *testing.T) {
	wantErr := errors.New("remote down")
	fetcher := &fakeFetcher{err: wantErr}
	store := newTestStore(t, t.TempDir(), fetcher, today)

	_, err := store.MeanTemperature(context.Background(), tempdata.NewDate(2021, time.January, 1))
	require.ErrorIs(t, err, wantErr)
}

func TestDayReturnsFullRecord(t *testing.T) {
	dir := t.TempDir()
	writeMonth(t, dir, jan2021, monthCSV(jan2021, 31, exampleMean))
	store := newTestStore(t, dir, &fakeFetcher{}, today)

	day, err := store.Day(context.Background(), tempdata.NewDate(2021, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 32, day.Mean)
	require.NotNil(t, day.Min)
	assert.Equal(t, 22, *day.Min)
	require.NotNil(t, day.Max)
	assert.Equal(t, 42, *day.Max)
}
