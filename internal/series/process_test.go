package series

import (
	"math"
	"testing"
	"time"

	"github.com/jgoulah/loadwatch/pkg/models"
)

func TestDailyMeansGroupByCivilDate(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := models.Series{
		{Time: base.Add(6 * time.Hour), GW: 40},
		{Time: base.Add(18 * time.Hour), GW: 60},
		{Time: base.AddDate(0, 0, 1), GW: 55},
	}

	p := Process(s, time.UTC)
	if len(p.Daily) != 2 {
		t.Fatalf("expected 2 daily points, got %d", len(p.Daily))
	}
	if p.Daily[0].Mean != 50 {
		t.Fatalf("expected mean 50 for first day, got %v", p.Daily[0].Mean)
	}
	if p.Daily[1].Mean != 55 {
		t.Fatalf("expected mean 55 for second day, got %v", p.Daily[1].Mean)
	}
}

func TestRollingNeedsFullWindow(t *testing.T) {
	s := flatDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 10, 42)

	p := Process(s, time.UTC)
	for i := 0; i < 6; i++ {
		if p.Daily[i].Rolling != nil {
			t.Fatalf("day %d: rolling defined before the window is full", i+1)
		}
	}
	for i := 6; i < 10; i++ {
		if p.Daily[i].Rolling == nil {
			t.Fatalf("day %d: rolling missing with a full window", i+1)
		}
		if *p.Daily[i].Rolling != 42 {
			t.Fatalf("day %d: expected 42, got %v", i+1, *p.Daily[i].Rolling)
		}
	}
}

func TestRollingGapPropagation(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var s models.Series
	// Days 1-30, with day 10 missing entirely
	for day := 1; day <= 30; day++ {
		if day == 10 {
			continue
		}
		s = append(s, models.Observation{Time: base.AddDate(0, 0, day-1).Add(12 * time.Hour), GW: 50})
	}

	p := Process(s, time.UTC)
	byDay := map[string]DailyPoint{}
	for _, d := range p.Daily {
		byDay[d.Date.Format("2006-01-02")] = d
	}

	dateOf := func(day int) string {
		return base.AddDate(0, 0, day-1).Format("2006-01-02")
	}

	// Days 7-9 have complete windows
	for day := 7; day <= 9; day++ {
		if byDay[dateOf(day)].Rolling == nil {
			t.Fatalf("day %d should have a rolling mean", day)
		}
	}
	// The gap keeps the window incomplete for days 11-16; day 10 is absent
	if _, present := byDay[dateOf(10)]; present {
		t.Fatalf("day 10 should be absent from the daily series")
	}
	for day := 11; day <= 16; day++ {
		if byDay[dateOf(day)].Rolling != nil {
			t.Fatalf("day %d should be missing its rolling mean after the gap", day)
		}
	}
	// Day 17 is the first with seven consecutive days again
	for day := 17; day <= 30; day++ {
		if byDay[dateOf(day)].Rolling == nil {
			t.Fatalf("day %d should have recovered a full window", day)
		}
	}
}

func TestYoYChange(t *testing.T) {
	base := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	var s models.Series
	// One week at 45 GW, then the same week 364 days later at 50 GW
	for day := 0; day < 7; day++ {
		s = append(s, models.Observation{Time: base.AddDate(0, 0, day), GW: 45})
	}
	for day := 364; day < 371; day++ {
		s = append(s, models.Observation{Time: base.AddDate(0, 0, day), GW: 50})
	}

	p := Process(s, time.UTC)
	if len(p.YoY) != 1 {
		t.Fatalf("expected exactly 1 defined YoY point, got %d", len(p.YoY))
	}
	want := (50.0/45.0 - 1) * 100 // +11.11...%
	if math.Abs(p.YoY[0].Percent-want) > 1e-9 {
		t.Fatalf("expected %.4f%%, got %.4f%%", want, p.YoY[0].Percent)
	}
	wantDate := base.AddDate(0, 0, 370)
	if !p.YoY[0].Date.Equal(wantDate) {
		t.Fatalf("expected YoY at %s, got %s", wantDate, p.YoY[0].Date)
	}
}

func TestYoYUndefinedWithoutPriorYear(t *testing.T) {
	s := flatDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 100, 48)
	p := Process(s, time.UTC)
	if len(p.YoY) != 0 {
		t.Fatalf("expected no YoY points inside the first 364 days, got %d", len(p.YoY))
	}
}

func TestPivotLookup(t *testing.T) {
	s := flatDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 14, 47)
	p := Process(s, time.UTC)

	if len(p.Pivot.Years) != 1 || p.Pivot.Years[0] != 2024 {
		t.Fatalf("expected the single year 2024, got %v", p.Pivot.Years)
	}
	if v, ok := p.Pivot.Value(7, 2024); !ok || v != 47 {
		t.Fatalf("expected 47 at (7, 2024), got %v (ok=%v)", v, ok)
	}
	if _, ok := p.Pivot.Value(3, 2024); ok {
		t.Fatalf("day 3 has no full window yet, pivot must report missing")
	}
	if _, ok := p.Pivot.Value(7, 2023); ok {
		t.Fatalf("unknown year must report missing")
	}
}

func TestProcessEmptySeries(t *testing.T) {
	p := Process(nil, time.UTC)
	if len(p.Daily) != 0 || len(p.YoY) != 0 {
		t.Fatalf("empty series must yield empty views")
	}
	if len(p.Pivot.Years) != 0 {
		t.Fatalf("empty series must yield an empty pivot")
	}
}

// flatDays builds one observation per day at a constant value
func flatDays(start time.Time, days int, gw float64) models.Series {
	var s models.Series
	for i := 0; i < days; i++ {
		s = append(s, models.Observation{Time: start.AddDate(0, 0, i).Add(12 * time.Hour), GW: gw})
	}
	return s
}
