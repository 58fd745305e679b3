package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wypozyczalnia"

var (
	once sync.Once

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admissions_total",
			Help:      "Count of reservation admissions by outcome code.",
		},
		[]string{"outcome"},
	)

	admissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "admission_duration_seconds",
			Help:      "Time spent admitting a reservation, lock wait included.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	lockWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "item_lock_wait_seconds",
			Help:      "Time spent waiting for the per-item admission lock.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
	)

	reservationsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_deleted_total",
			Help:      "Count of hard-deleted reservations.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Count of API requests rejected by the rate limiter.",
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(admissions, admissionDuration, lockWait, reservationsDeleted, httpRequests, rateLimited)
	})
}

// ObserveAdmission records one admission outcome and its latency.
// Committed admissions use the outcome "COMMITTED".
func ObserveAdmission(outcome string, d time.Duration) {
	admissions.WithLabelValues(outcome).Inc()
	admissionDuration.Observe(d.Seconds())
}

func ObserveLockWait(d time.Duration) {
	lockWait.Observe(d.Seconds())
}

func IncReservationDeleted() {
	reservationsDeleted.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncRateLimited() {
	rateLimited.Inc()
}
