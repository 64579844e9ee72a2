// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts finished requests by route pattern and status.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userhub_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	// HTTPLatency records request latency by route pattern.
	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "userhub_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// CacheLookups counts cache reads by namespace and result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userhub_cache_lookups_total",
		Help: "Cache lookups by namespace and result",
	}, []string{"namespace", "result"})

	// SessionResolutions counts how claimed sessions were resolved.
	SessionResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userhub_session_resolutions_total",
		Help: "Session resolutions by outcome (cache, store, unresolved)",
	}, []string{"outcome"})

	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "userhub_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (writer *statusWriter) WriteHeader(code int) {
	writer.status = code
	writer.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and latency keyed by the chi route pattern,
// so ids in paths do not explode label cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		startTime := time.Now()
		recorder := &statusWriter{ResponseWriter: writer, status: http.StatusOK}

		next.ServeHTTP(recorder, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		HTTPRequests.WithLabelValues(request.Method, route, strconv.Itoa(recorder.status)).Inc()
		HTTPLatency.WithLabelValues(request.Method, route).Observe(time.Since(startTime).Seconds())
	})
}
