package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nextvolt"

var (
	once sync.Once

	reservationCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_created_total",
			Help:      "Count of reservation attempts by result.",
		},
		[]string{"result"},
	)

	reservationCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_cancelled_total",
			Help:      "Count of reservations released by reason.",
		},
		[]string{"reason"},
	)

	recommendations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_requests_total",
			Help:      "Count of recommendation requests by scoring mode.",
		},
		[]string{"mode"},
	)

	historyAppendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_append_failures_total",
			Help:      "Count of recommendation history writes that failed.",
		},
	)

	recommendationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Time spent ranking stations for one request.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			reservationCreated,
			reservationCancelled,
			recommendations,
			historyAppendFailures,
			recommendationDuration,
		)
	})
}

func IncReservationCreated(result string) {
	reservationCreated.WithLabelValues(result).Inc()
}

func IncReservationCancelled(reason string) {
	reservationCancelled.WithLabelValues(reason).Inc()
}

func IncRecommendation(critical bool) {
	mode := "normal"
	if critical {
		mode = "critical"
	}
	recommendations.WithLabelValues(mode).Inc()
}

func IncHistoryAppendFailure() {
	historyAppendFailures.Inc()
}

func ObserveRecommendation(d time.Duration) {
	recommendationDuration.Observe(d.Seconds())
}
