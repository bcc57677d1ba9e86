// Package wunderground downloads monthly temperature history tables from the
// wunderground airport-history endpoint and persists them in the on-disk
// cache format consumed by tempdata.
package wunderground

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"utilstats/internal/tempdata"
)

// DefaultURLTemplate is the monthly-history endpoint for the fixed station.
// {year} and {month} are substituted per fetch.
const DefaultURLTemplate = "http://www.wunderground.com/history/airport/KBED/{year}/{month}/1/MonthlyHistory.html?format=1"

// lineBreakMarker is the HTML line-break tag the endpoint embeds in its
// plain-text payload; it must be stripped before the payload matches the
// on-disk format.
const lineBreakMarker = "<br />"

// FetchError reports a transport or remote failure during a download. It is
// fatal to the load that triggered it; the destination file is left
// untouched.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client fetches month tables over HTTP. A circuit breaker guards the
// endpoint so repeated remote failures fail fast instead of hammering it;
// there is no retry loop, since the download policy is single-shot.
type Client struct {
	httpClient  *http.Client
	urlTemplate string
	circuit     *gobreaker.CircuitBreaker
	log         zerolog.Logger
}

// NewClient creates a Client using the given HTTP client and URL template.
// An empty template selects DefaultURLTemplate.
func NewClient(httpClient *http.Client, urlTemplate string, logger zerolog.Logger) *Client {
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "wunderground",
		MaxRequests: 2,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	return &Client{
		httpClient:  httpClient,
		urlTemplate: urlTemplate,
		circuit:     cb,
		log:         logger.With().Str("component", "wunderground").Logger(),
	}
}

// FetchMonth downloads the table for one month, strips the embedded
// line-break markers and the preamble line, and writes the result to
// destPath. The file is written to a temporary name and renamed, so a
// failed download never leaves a truncated cache file behind.
func (c *Client) FetchMonth(ctx context.Context, key tempdata.MonthKey, destPath string) error {
	url := c.monthURL(key)
	c.log.Info().Stringer("month", key).Msg("downloading month data")
	c.log.Debug().Str("url", url).Str("dest", destPath).Msg("fetch target")

	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.download(ctx, url)
	})
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return err
		}
		// Circuit-open and other breaker errors arrive unwrapped.
		return &FetchError{URL: url, Err: err}
	}

	cleaned := stripPayload(result.([]byte))
	return writeFileAtomic(destPath, cleaned)
}

func (c *Client) monthURL(key tempdata.MonthKey) string {
	r := strings.NewReplacer(
		"{year}", strconv.Itoa(key.Year),
		"{month}", strconv.Itoa(int(key.Month)),
	)
	return r.Replace(c.urlTemplate)
}

func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	return body, nil
}

// stripPayload removes the embedded line-break markers and drops the first
// line of the payload, a non-data preamble, leaving the header row first.
func stripPayload(raw []byte) []byte {
	text := strings.ReplaceAll(string(raw), lineBreakMarker, "")
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	}
	return []byte(text)
}

func writeFileAtomic(destPath string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(destPath), ".download-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, destPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
