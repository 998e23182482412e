package server

import "github.com/prometheus/client_golang/prometheus"

const metricPrefix = "loadwatch_"

var (
	syncsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "syncs_total",
			Help: "Sync passes run, by entity",
		},
		[]string{"entity"},
	)

	syncYearFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: metricPrefix + "sync_year_failures_total",
			Help: "Per-year fetch failures during sync, by entity",
		},
		[]string{"entity"},
	)

	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    metricPrefix + "sync_duration_seconds",
			Help:    "Wall time of one sync pass",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	seriesObservations = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: metricPrefix + "series_observations",
			Help: "Observations stored per entity after the latest sync",
		},
		[]string{"entity"},
	)
)

func init() {
	prometheus.MustRegister(syncsTotal, syncYearFailures, syncDuration, seriesObservations)
}
