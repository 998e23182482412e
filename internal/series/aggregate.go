package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jgoulah/loadwatch/internal/store"
	"github.com/jgoulah/loadwatch/pkg/models"
)

// SumHourly resamples each entity's series to a fixed 1-hour grid
// (mean of any sub-hour samples per bucket, which levels mixed 15- and
// 60-minute source granularities) and sums the grid-aligned values
// across entities. An entity with no data at an hour contributes
// absence, not zero; hours where every entity is absent stay missing.
func SumHourly(byEntity map[string]models.Series, loc *time.Location) models.Series {
	totals := map[int64]float64{}

	for _, s := range byEntity {
		type bucket struct {
			sum   float64
			count int
		}
		hourly := map[int64]*bucket{}
		for _, obs := range s {
			h := obs.Time.Truncate(time.Hour).Unix()
			b, ok := hourly[h]
			if !ok {
				b = &bucket{}
				hourly[h] = b
			}
			b.sum += obs.GW
			b.count++
		}
		for h, b := range hourly {
			totals[h] += b.sum / float64(b.count)
		}
	}

	out := make(models.Series, 0, len(totals))
	for h, gw := range totals {
		out = append(out, models.Observation{Time: time.Unix(h, 0).In(loc), GW: gw})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time.Before(out[j].Time)
	})
	return out
}

// Aggregator builds the multi-country sum series from already-synced
// local data. It never fetches: aggregation latency is bounded by disk
// reads only.
type Aggregator struct {
	store *store.Store
	loc   *time.Location
}

// NewAggregator creates an aggregator over the given store
func NewAggregator(st *store.Store, loc *time.Location) *Aggregator {
	return &Aggregator{store: st, loc: loc}
}

// Aggregate loads and sums the series for codes minus exclude. A
// corrupt or missing file makes that entity absent rather than
// aborting the whole aggregate.
func (a *Aggregator) Aggregate(codes []string, exclude map[string]bool) (models.Series, error) {
	byEntity := map[string]models.Series{}
	for _, code := range codes {
		if exclude[code] {
			continue
		}
		s, err := a.store.Load(code)
		if err != nil {
			var corrupt *store.CorruptError
			if errors.As(err, &corrupt) {
				continue
			}
			return nil, fmt.Errorf("loading series for %s: %w", code, err)
		}
		if len(s) > 0 {
			byEntity[code] = s
		}
	}
	return SumHourly(byEntity, a.loc), nil
}
