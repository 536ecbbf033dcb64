/*
metrics.go - Prometheus instrumentation for the HTTP layer

PURPOSE:
  Request counters and latency histograms per route pattern, plus a failure
  counter for the snapshot-ensure step so a stuck snapshot pipeline shows up
  on a dashboard before members notice. Exposed on /metrics in the standard
  text format.
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubtab",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern, method and status code.",
	}, []string{"route", "method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "clubtab",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	snapshotEnsureFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "clubtab",
		Subsystem: "snapshot",
		Name:      "ensure_failures_total",
		Help:      "Failed lazy snapshot-ensure attempts.",
	})

	eventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "clubtab",
		Subsystem: "ledger",
		Name:      "events_recorded_total",
		Help:      "Events recorded through the API, by action.",
	}, []string{"action"})
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// metricsMiddleware observes every request under its chi route pattern.
func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
