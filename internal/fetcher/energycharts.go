package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jgoulah/loadwatch/pkg/models"
)

const userAgent = "Mozilla/5.0 LoadwatchScraper/1.0"

// ProgressFunc is called once per completed year fetch (observability only)
type ProgressFunc func(year, done, total int)

// YearResult records the outcome of a single year's request
type YearResult struct {
	Year  int
	Count int
	Err   error
}

// Report collects per-year outcomes of one Fetch call.
// A failed year contributes zero observations but never aborts the
// remaining years.
type Report struct {
	Years []YearResult
}

// Failed returns the years that contributed no data due to an error
func (r *Report) Failed() []YearResult {
	var out []YearResult
	for _, y := range r.Years {
		if y.Err != nil {
			out = append(out, y)
		}
	}
	return out
}

// Fetcher downloads load series from the energy-charts public API
type Fetcher struct {
	baseURL  string
	client   *http.Client
	loc      *time.Location
	progress ProgressFunc
}

// New creates a fetcher against the given API base URL. Downloaded
// timestamps are re-expressed in loc for all downstream calendar math.
func New(baseURL string, timeout time.Duration, loc *time.Location) *Fetcher {
	return &Fetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		loc:     loc,
	}
}

// OnProgress registers a per-year progress callback
func (f *Fetcher) OnProgress(fn ProgressFunc) {
	f.progress = fn
}

// Fetch downloads the load series for one country over [start, end],
// one request per calendar year. It never returns an error: years that
// fail are recorded in the report and skipped.
func (f *Fetcher) Fetch(ctx context.Context, code string, start, end time.Time) (models.Series, *Report) {
	ranges := yearRanges(start, end)
	report := &Report{}
	var series models.Series

	for i, r := range ranges {
		obs, err := f.fetchRange(ctx, code, r.start, r.end)
		report.Years = append(report.Years, YearResult{Year: r.start.Year(), Count: len(obs), Err: err})
		series = append(series, obs...)
		if f.progress != nil {
			f.progress(r.start.Year(), i+1, len(ranges))
		}
	}

	return series, report
}

type dateRange struct {
	start, end time.Time
}

// yearRanges splits [start, end] into calendar-year sub-ranges, with
// the first and last clipped to the requested boundary
func yearRanges(start, end time.Time) []dateRange {
	if end.Before(start) {
		return nil
	}
	var out []dateRange
	for y := start.Year(); y <= end.Year(); y++ {
		rs := time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC)
		re := time.Date(y, 12, 31, 0, 0, 0, 0, time.UTC)
		if rs.Before(start) {
			rs = start
		}
		if re.After(end) {
			re = end
		}
		out = append(out, dateRange{start: rs, end: re})
	}
	return out
}

// apiSeries is one named sub-series from the API response
type apiSeries struct {
	Name string     `json:"name"`
	Data []*float64 `json:"data"` // null entries are gaps
}

// apiResponse covers both response shapes the API returns: newer
// payloads key the sub-series under "production_types", older ones
// under "data"
type apiResponse struct {
	ProductionTypes []apiSeries `json:"production_types"`
	Data            []apiSeries `json:"data"`
	UnixSeconds     []int64     `json:"unix_seconds"`
}

func (f *Fetcher) fetchRange(ctx context.Context, code string, start, end time.Time) ([]models.Observation, error) {
	params := url.Values{}
	params.Set("country", code)
	params.Set("start", start.Format("2006-01-02"))
	params.Set("end", end.Format("2006-01-02"))
	params.Set("lang", "en")

	reqURL := fmt.Sprintf("%s/public_power?%s", f.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	candidates := payload.ProductionTypes
	if len(candidates) == 0 {
		candidates = payload.Data
	}
	if len(payload.UnixSeconds) == 0 {
		return nil, fmt.Errorf("response has no unix_seconds timestamps")
	}

	values, _, ok := selectLoadSeries(candidates)
	if !ok {
		return nil, fmt.Errorf("no load sub-series found among %d candidates", len(candidates))
	}

	// Defend against off-by-one length mismatches from the source
	n := len(payload.UnixSeconds)
	if len(values) < n {
		n = len(values)
	}

	obs := make([]models.Observation, 0, n)
	for i := 0; i < n; i++ {
		if values[i] == nil {
			continue
		}
		t := time.Unix(payload.UnixSeconds[i], 0).UTC().In(f.loc)
		obs = append(obs, models.Observation{Time: t, GW: *values[i]})
	}
	return obs, nil
}

// exactLoadNames is the allow-list of localized load-metric names
var exactLoadNames = []string{
	"load",
	"total load",
	"last",
	"stromlast",
	"total load (incl. self-consumption)",
	"load (incl. self-consumption)",
}

// selectLoadSeries picks the raw load sub-series out of the response.
// Names containing "residual", "pumped" or "share" are derived or
// adjacent metrics and never eligible. An exact allow-list match wins
// immediately; otherwise the first candidate containing "load" or
// "consumption" is kept and later fuzzy matches never overwrite it.
func selectLoadSeries(candidates []apiSeries) ([]*float64, string, bool) {
	var fuzzyValues []*float64
	var fuzzyName string
	found := false

	for _, c := range candidates {
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if strings.Contains(name, "residual") ||
			strings.Contains(name, "pumped") ||
			strings.Contains(name, "share") {
			continue
		}
		for _, exact := range exactLoadNames {
			if name == exact {
				return c.Data, c.Name, true
			}
		}
		if !found && (strings.Contains(name, "load") || strings.Contains(name, "consumption")) {
			fuzzyValues = c.Data
			fuzzyName = c.Name
			found = true
		}
	}

	return fuzzyValues, fuzzyName, found
}
