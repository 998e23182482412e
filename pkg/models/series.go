package models

import "time"

// Observation is a single load reading for an entity
type Observation struct {
	Time time.Time `json:"time"`
	GW   float64   `json:"gw"`
}

// Series is a chronologically ordered load series with unique timestamps
type Series []Observation

// Latest returns the most recent timestamp in the series
func (s Series) Latest() (time.Time, bool) {
	if len(s) == 0 {
		return time.Time{}, false
	}
	return s[len(s)-1].Time, true
}

// Entity identifies one tracked country (or the synthetic aggregate)
type Entity struct {
	Code      string `yaml:"code" json:"code"`
	Name      string `yaml:"name" json:"name"`
	Aggregate bool   `yaml:"aggregate" json:"aggregate"` // included in the multi-country sum
}
