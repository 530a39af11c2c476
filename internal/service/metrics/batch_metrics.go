package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "marketpulse",
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Duration of batch jobs",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	BatchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketpulse",
			Subsystem: "batch",
			Name:      "asset_errors_total",
			Help:      "Per-asset failures recorded by batch jobs",
		},
		[]string{"job"},
	)

	SignalsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "marketpulse",
			Subsystem: "signals",
			Name:      "created_total",
			Help:      "Signals created, by type",
		},
		[]string{"type"},
	)

	DashboardDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "marketpulse",
			Subsystem: "dashboard",
			Name:      "duration_seconds",
			Help:      "Duration of watchlist dashboard computation",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(BatchDuration, BatchErrors, SignalsCreated, DashboardDuration)
	})
}
