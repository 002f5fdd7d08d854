package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "users",
		Name:      "created_total",
		Help:      "Number of users persisted.",
	})

	exercisesRecordedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercises",
		Name:      "recorded_total",
		Help:      "Number of exercises persisted.",
	})

	exerciseDurationHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercises",
		Name:      "duration",
		Help:      "Distribution of recorded exercise durations as submitted.",
		Buckets:   []float64{5, 10, 15, 30, 45, 60, 90, 120, 180},
	})

	lastExerciseGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "exercises",
		Name:      "last_recorded_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise persisted.",
	})

	logEntriesHistogram = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "logs",
		Name:      "entries_returned",
		Help:      "Number of log entries returned per log query.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	httpRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Number of HTTP requests by route pattern and status code.",
	}, []string{"method", "route", "status"})

	httpDurationHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latency of HTTP requests by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(
		usersCreatedCounter,
		exercisesRecordedCounter,
		exerciseDurationHistogram,
		lastExerciseGauge,
		logEntriesHistogram,
		httpRequestsCounter,
		httpDurationHistogram,
	)
}

// RecordUserCreated increments the user counter.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// RecordExerciseRecorded tracks a persisted exercise and moves the watermark gauge.
func RecordExerciseRecorded(duration int) {
	exercisesRecordedCounter.Inc()
	exerciseDurationHistogram.Observe(float64(duration))
	lastExerciseGauge.Set(float64(time.Now().Unix()))
}

// RecordLogQuery observes the size of a log query result.
func RecordLogQuery(entries int) {
	logEntriesHistogram.Observe(float64(entries))
}

// ObserveHTTPRequest records a served request. An empty route is reported as "unmatched".
func ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDurationHistogram.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
