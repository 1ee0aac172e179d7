package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"ecttool/domain/core"
)

const (
	// OutcomeSuccess labels reports that were fully assembled.
	OutcomeSuccess = "success"
	// OutcomeRejected labels requests naming an unknown mode, attribute or layout.
	OutcomeRejected = "rejected"
	// OutcomeDegenerate labels cohorts too thin to plot or compare.
	OutcomeDegenerate = "degenerate"
	// OutcomeError labels everything else.
	OutcomeError = "error"
)

var (
	reportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecttool",
			Name:      "reports_total",
			Help:      "Total number of survival reports built, partitioned by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	reportDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecttool",
			Name:      "report_seconds",
			Help:      "Report assembly latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ecttool",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests, partitioned by route, method and status.",
		},
		[]string{"route", "method", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ecttool",
			Name:      "http_request_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)
)

// Register attaches the collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		reportsTotal,
		reportDurationSeconds,
		httpRequestsTotal,
		httpRequestDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Outcome classifies an error into an outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case core.IsUserError(err):
		return OutcomeRejected
	case core.IsDataError(err):
		return OutcomeDegenerate
	}
	return OutcomeError
}

// ObserveReport records a report duration and its outcome.
func ObserveReport(kind string, duration time.Duration, err error) {
	reportsTotal.WithLabelValues(kind, Outcome(err)).Inc()
	if duration < 0 {
		duration = 0
	}
	reportDurationSeconds.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveHTTP records one served request.
func ObserveHTTP(route, method string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	if duration < 0 {
		duration = 0
	}
	httpRequestDurationSeconds.WithLabelValues(route).Observe(duration.Seconds())
}
