package series

import (
	"sort"
	"time"

	"github.com/jgoulah/loadwatch/pkg/models"
)

const (
	rollingWindow = 7   // days in the trailing mean
	yoyLagDays    = 364 // 52 whole weeks, keeps weekday alignment
)

// DailyPoint is one civil day's load summary
type DailyPoint struct {
	Date    time.Time // midnight in the reference timezone
	Mean    float64
	Rolling *float64 // trailing 7-day mean; nil until the window is complete
}

// YoYPoint is the rolling mean's percentage change against the value
// 364 days earlier. Only days where both operands exist are emitted.
type YoYPoint struct {
	Date    time.Time
	Percent float64
}

// Pivot reshapes the rolling mean into day-of-year rows and year
// columns for side-by-side seasonal comparison. Leap-day misalignment
// between leap and non-leap years is accepted, not corrected.
type Pivot struct {
	Years []int
	cells map[int]map[int]float64 // day-of-year -> year -> rolling mean
}

// Value returns the rolling mean for (day-of-year, year), if present
func (p *Pivot) Value(dayOfYear, year int) (float64, bool) {
	byYear, ok := p.cells[dayOfYear]
	if !ok {
		return 0, false
	}
	v, ok := byYear[year]
	return v, ok
}

// Processed bundles the derived views of one series. All of them are
// recomputed in full on every call, never persisted.
type Processed struct {
	Daily []DailyPoint
	Pivot *Pivot
	YoY   []YoYPoint
}

// Process derives daily means, the 7-day rolling mean, the year pivot
// and year-over-year change from a raw series. Pure and total: an
// empty series yields empty views.
func Process(s models.Series, loc *time.Location) *Processed {
	daily := dailyMeans(s, loc)
	attachRolling(daily)

	p := &Processed{
		Daily: daily,
		Pivot: buildPivot(daily),
		YoY:   yoyChange(daily),
	}
	return p
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// dailyMeans groups observations by civil date in loc and averages
// each group. Days with no observations are simply absent.
func dailyMeans(s models.Series, loc *time.Location) []DailyPoint {
	type bucket struct {
		sum   float64
		count int
		date  time.Time
	}
	buckets := map[string]*bucket{}
	for _, obs := range s {
		local := obs.Time.In(loc)
		key := dayKey(local)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{date: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)}
			buckets[key] = b
		}
		b.sum += obs.GW
		b.count++
	}

	daily := make([]DailyPoint, 0, len(buckets))
	for _, b := range buckets {
		daily = append(daily, DailyPoint{Date: b.date, Mean: b.sum / float64(b.count)})
	}
	sort.Slice(daily, func(i, j int) bool {
		return daily[i].Date.Before(daily[j].Date)
	})
	return daily
}

// attachRolling fills in the trailing 7-day mean. A day gets a value
// only when it and the 6 preceding calendar days all have daily means,
// so a single missing day keeps the window incomplete for the 6 days
// that follow it.
func attachRolling(daily []DailyPoint) {
	means := make(map[string]float64, len(daily))
	for _, d := range daily {
		means[dayKey(d.Date)] = d.Mean
	}

	for i := range daily {
		sum := 0.0
		complete := true
		for back := 0; back < rollingWindow; back++ {
			m, ok := means[dayKey(daily[i].Date.AddDate(0, 0, -back))]
			if !ok {
				complete = false
				break
			}
			sum += m
		}
		if complete {
			v := sum / rollingWindow
			daily[i].Rolling = &v
		}
	}
}

func buildPivot(daily []DailyPoint) *Pivot {
	p := &Pivot{cells: map[int]map[int]float64{}}
	seen := map[int]bool{}
	for _, d := range daily {
		if d.Rolling == nil {
			continue
		}
		doy := d.Date.YearDay()
		year := d.Date.Year()
		if p.cells[doy] == nil {
			p.cells[doy] = map[int]float64{}
		}
		p.cells[doy][year] = *d.Rolling
		if !seen[year] {
			seen[year] = true
			p.Years = append(p.Years, year)
		}
	}
	sort.Ints(p.Years)
	return p
}

func yoyChange(daily []DailyPoint) []YoYPoint {
	rolling := make(map[string]float64, len(daily))
	for _, d := range daily {
		if d.Rolling != nil {
			rolling[dayKey(d.Date)] = *d.Rolling
		}
	}

	var out []YoYPoint
	for _, d := range daily {
		if d.Rolling == nil {
			continue
		}
		prev, ok := rolling[dayKey(d.Date.AddDate(0, 0, -yoyLagDays))]
		if !ok || prev == 0 {
			continue
		}
		out = append(out, YoYPoint{
			Date:    d.Date,
			Percent: (*d.Rolling/prev - 1) * 100,
		})
	}
	return out
}
