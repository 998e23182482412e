package series

import (
	"sort"

	"github.com/jgoulah/loadwatch/pkg/models"
)

// Merge combines a local series with freshly fetched observations.
// Duplicate timestamps keep the fetched value (the source re-serves
// identical values for the same instant), and the result is sorted
// chronologically with unique timestamps.
func Merge(local, fetched models.Series) models.Series {
	if len(local) == 0 && len(fetched) == 0 {
		return nil
	}

	byInstant := make(map[int64]models.Observation, len(local)+len(fetched))
	for _, obs := range local {
		byInstant[obs.Time.Unix()] = obs
	}
	for _, obs := range fetched {
		byInstant[obs.Time.Unix()] = obs
	}

	merged := make(models.Series, 0, len(byInstant))
	for _, obs := range byInstant {
		merged = append(merged, obs)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Time.Before(merged[j].Time)
	})
	return merged
}
