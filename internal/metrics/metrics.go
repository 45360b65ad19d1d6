package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	queueFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jadwalpoli",
			Name:      "queue_fetch_total",
			Help:      "Count of queue status fetches by result (ok, error, discarded).",
		},
		[]string{"result"},
	)

	queueFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "jadwalpoli",
			Name:      "queue_fetch_duration_seconds",
			Help:      "Time to fetch a queue status from SIMRS.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
	)

	activeWatches = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jadwalpoli",
			Name:      "queue_active_watches",
			Help:      "Number of active queue watches.",
		},
	)

	dateSelections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jadwalpoli",
			Name:      "calendar_selection_total",
			Help:      "Count of calendar date picks by result.",
		},
		[]string{"result"},
	)

	doctorCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jadwalpoli",
			Name:      "doctor_cache_total",
			Help:      "Doctor lookup cache results (hit, miss, stale).",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jadwalpoli",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(queueFetches, queueFetchDuration, activeWatches, dateSelections, doctorCache, httpRequests)
	})
}

func IncQueueFetch(result string) {
	queueFetches.WithLabelValues(result).Inc()
}

func ObserveQueueFetch(seconds float64) {
	queueFetchDuration.Observe(seconds)
}

func SetActiveWatches(n int) {
	activeWatches.Set(float64(n))
}

func IncSelection(result string) {
	dateSelections.WithLabelValues(result).Inc()
}

func IncDoctorCache(result string) {
	doctorCache.WithLabelValues(result).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
