// Package metrics exposes Prometheus metrics for the registry API on a
// dedicated listener.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics from its own registry.
type MetricsServer struct {
	registry *prometheus.Registry
	srv      *http.Server

	HTTP     *HTTPMetrics
	Registry *RegistryMetrics
}

// New creates the metrics registry with Go and process collectors plus the
// service metrics, namespaced under namespace. The server is not started.
func New(namespace, listenAddr string) (*MetricsServer, error) {
	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return nil, err
	}
	if err := reg.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, err
	}

	httpMetrics, err := NewHTTPMetrics(reg, namespace)
	if err != nil {
		return nil, err
	}
	registryMetrics, err := NewRegistryMetrics(reg, namespace)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	return &MetricsServer{
		registry: reg,
		srv: &http.Server{
			Addr:              listenAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		HTTP:     httpMetrics,
		Registry: registryMetrics,
	}, nil
}

// Gatherer exposes the underlying registry, mostly for tests.
func (m *MetricsServer) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

// HTTPMetrics counts API requests by route pattern and status.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer, namespace string) (*HTTPMetrics, error) {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests processed.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Middleware records every request under its chi route pattern, so
// /api/v1/registry/{authority} is one series regardless of the authority.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Registry lookup outcomes.
const (
	LookupFound    = "found"
	LookupNotFound = "not_found"
	LookupError    = "error"
)

// RegistryMetrics tracks registry account lookups against the RPC node.
type RegistryMetrics struct {
	lookups *prometheus.CounterVec
	latency prometheus.Histogram
}

func NewRegistryMetrics(reg prometheus.Registerer, namespace string) (*RegistryMetrics, error) {
	m := &RegistryMetrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_lookups_total",
			Help:      "Registry account lookups by outcome.",
		}, []string{"result"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_lookup_duration_seconds",
			Help:      "Latency of registry account lookups.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	for _, c := range []prometheus.Collector{m.lookups, m.latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Observe records one lookup.
func (m *RegistryMetrics) Observe(result string, took time.Duration) {
	m.lookups.WithLabelValues(result).Inc()
	m.latency.Observe(took.Seconds())
}
