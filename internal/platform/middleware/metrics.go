// Copyright (c) 2026 SIGEPSI. All rights reserved.
// Author: desarrollo@sigepsi.mil.ec

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// # Prometheus Instrumentation

// portalMetrics holds the Prometheus collectors for the HTTP layer.
type portalMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// Metrics instruments every request with a total counter and a duration
// histogram, labeled by the chi route pattern rather than the raw path to
// keep label cardinality bounded.
//
// # Parameters
//   - registry: Prometheus registerer; pass prometheus.DefaultRegisterer in main.
func Metrics(registry prometheus.Registerer) func(http.Handler) http.Handler {
	factory := promauto.With(registry)

	collectors := &portalMetrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sigepsi",
			Subsystem: "portal",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the portal",
		}, []string{"method", "route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sigepsi",
			Subsystem: "portal",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request processing duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			start := time.Now()
			wrappedWriter := &statusRecorder{ResponseWriter: writer, status: http.StatusOK}

			next.ServeHTTP(wrappedWriter, request)

			// Resolve the route pattern after the handler ran, when chi has
			// finished matching.
			route := chi.RouteContext(request.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}

			collectors.requestDuration.
				WithLabelValues(request.Method, route).
				Observe(time.Since(start).Seconds())
			collectors.requestsTotal.
				WithLabelValues(request.Method, route, strconv.Itoa(wrappedWriter.status)).
				Inc()
		})
	}
}

// ActiveSessionsGauge registers a gauge tracking live in-memory browser
// sessions, fed by the hub's count.
//
// # Parameters
//   - registry: Prometheus registerer.
//   - count: Callback returning the current session count.
func ActiveSessionsGauge(registry prometheus.Registerer, count func() int) {
	promauto.With(registry).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "sigepsi",
		Subsystem: "portal",
		Name:      "active_sessions",
		Help:      "Number of browser sessions with live in-memory wiring",
	}, func() float64 {
		return float64(count())
	})
}
