package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jgoulah/loadwatch/internal/fetcher"
	"github.com/jgoulah/loadwatch/internal/series"
	"github.com/jgoulah/loadwatch/internal/store"
	"github.com/jgoulah/loadwatch/pkg/models"
)

// Report describes one sync pass over a single entity
type Report struct {
	ID               string
	Entity           string
	WindowStart      time.Time
	WindowEnd        time.Time
	Skipped          bool // local data already covered the window, no network call made
	CorruptRecovered bool // local file was unreadable and treated as empty
	Years            []fetcher.YearResult
	Added            int // observations the merge added
	Total            int // observations after the merge
	SaveErr          error
}

// Failed returns the years whose fetch contributed no data
func (r *Report) Failed() []fetcher.YearResult {
	var out []fetcher.YearResult
	for _, y := range r.Years {
		if y.Err != nil {
			out = append(out, y)
		}
	}
	return out
}

// Engine brings one entity's local series up to the present.
//
// A sync pass is idempotent and safe to repeat. It is NOT safe to run
// two passes for the same entity concurrently: the series file carries
// no lock and the last writer wins. Acceptable for a single-operator
// tool; a multi-user deployment needs a per-entity mutex or a single
// writer process in front of the store.
type Engine struct {
	store   *store.Store
	fetcher *fetcher.Fetcher
	epoch   time.Time
	now     func() time.Time
}

// New creates a sync engine. epoch is the start date fetched when no
// local data exists.
func New(st *store.Store, f *fetcher.Fetcher, epoch time.Time) *Engine {
	return &Engine{store: st, fetcher: f, epoch: epoch, now: time.Now}
}

// Sync loads the entity's local series, fetches the gap between its
// last timestamp and today, merges, persists, and returns the merged
// series. Failures degrade: per-year fetch errors land in the report,
// a corrupt local file triggers a full resync from the epoch, and the
// worst outcome is an empty series with the reasons attached — never
// a crash.
func (e *Engine) Sync(ctx context.Context, code string) (models.Series, *Report) {
	report := &Report{ID: uuid.NewString(), Entity: code}

	local, err := e.store.Load(code)
	if err != nil {
		// Unreadable store: recover as empty and resync from the epoch
		report.CorruptRecovered = true
		local = nil
	}

	gapStart := e.epoch
	if last, ok := local.Latest(); ok {
		lastDay := last.UTC().Truncate(24 * time.Hour)
		gapStart = lastDay.Add(24 * time.Hour)
	}
	gapEnd := e.now().UTC().Truncate(24 * time.Hour)

	report.WindowStart = gapStart
	report.WindowEnd = gapEnd

	if gapStart.After(gapEnd) {
		report.Skipped = true
		report.Total = len(local)
		return local, report
	}

	fetched, fr := e.fetcher.Fetch(ctx, code, gapStart, gapEnd)
	report.Years = fr.Years

	merged := series.Merge(local, fetched)
	report.Added = len(merged) - len(local)
	report.Total = len(merged)

	if err := e.store.Save(code, merged); err != nil {
		report.SaveErr = fmt.Errorf("saving series for %s: %w", code, err)
	}

	return merged, report
}
