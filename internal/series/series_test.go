package series

import (
	"testing"
	"time"

	"github.com/jgoulah/loadwatch/pkg/models"
)

func TestMergeDeduplicatesAndSorts(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	local := models.Series{
		{Time: base, GW: 40},
		{Time: base.Add(time.Hour), GW: 41},
	}
	fetched := models.Series{
		{Time: base.Add(2 * time.Hour), GW: 42},
		{Time: base.Add(time.Hour), GW: 99}, // duplicate instant, fetched wins
	}

	merged := Merge(local, fetched)

	if len(merged) != 3 {
		t.Fatalf("expected 3 unique observations, got %d", len(merged))
	}
	for i := 1; i < len(merged); i++ {
		if !merged[i-1].Time.Before(merged[i].Time) {
			t.Fatalf("merged series not strictly chronological at %d", i)
		}
	}
	if merged[1].GW != 99 {
		t.Fatalf("duplicate timestamp should keep the fetched value, got %v", merged[1].GW)
	}
}

func TestMergeIdempotent(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := models.Series{
		{Time: base, GW: 40},
		{Time: base.Add(time.Hour), GW: 41},
	}

	once := Merge(s, nil)
	twice := Merge(once, once)
	if len(twice) != len(once) {
		t.Fatalf("re-merging the same data must not grow the series: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		if !once[i].Time.Equal(twice[i].Time) || once[i].GW != twice[i].GW {
			t.Fatalf("row %d changed on re-merge", i)
		}
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	if got := Merge(nil, nil); got != nil {
		t.Fatalf("expected nil for empty inputs, got %v", got)
	}
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := models.Series{{Time: base, GW: 40}}
	if got := Merge(nil, s); len(got) != 1 {
		t.Fatalf("expected fetched-only merge to pass through, got %d", len(got))
	}
	if got := Merge(s, nil); len(got) != 1 {
		t.Fatalf("expected local-only merge to pass through, got %d", len(got))
	}
}
