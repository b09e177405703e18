// Package metrics exposes Prometheus collectors for cache usage, upstream
// requests and ranking pipeline stages.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"srank/internal/log"
)

const namespace = "srank"

// Cache lookup results
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Metrics wraps a private registry and the collectors registered on it.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups     *prometheus.CounterVec
	cacheSwept       prometheus.Counter
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	stageFunds       *prometheus.GaugeVec
	runsTotal        *prometheus.CounterVec
	lastRunTimestamp prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Cache lookups by resource and result",
			},
			[]string{"resource", "result"},
		),
		cacheSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_swept_entries_total",
			Help:      "Expired cache entries removed by sweeps",
		}),
		upstreamRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Requests sent to the funds API by resource and outcome",
			},
			[]string{"resource", "outcome"},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Latency of requests to the funds API",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"resource"},
		),
		stageFunds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_stage_funds",
				Help:      "Funds remaining after each ranking stage in the last run",
			},
			[]string{"stage"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Fetch-rank-export runs by outcome",
			},
			[]string{"outcome"},
		),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
	}

	registry.MustRegister(
		m.cacheLookups,
		m.cacheSwept,
		m.upstreamRequests,
		m.upstreamDuration,
		m.stageFunds,
		m.runsTotal,
		m.lastRunTimestamp,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// CacheLookup records a memoized lookup.
func (m *Metrics) CacheLookup(resource string, hit bool) {
	if m == nil {
		return
	}
	result := ResultMiss
	if hit {
		result = ResultHit
	}
	m.cacheLookups.WithLabelValues(resource, result).Inc()
}

// CacheSwept records entries removed by a sweep.
func (m *Metrics) CacheSwept(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheSwept.Add(float64(n))
}

// UpstreamRequest records one outbound request.
func (m *Metrics) UpstreamRequest(resource string, d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamRequests.WithLabelValues(resource, outcome).Inc()
	m.upstreamDuration.WithLabelValues(resource).Observe(d.Seconds())
}

// Stage records how many funds survived a pipeline stage.
func (m *Metrics) Stage(stage string, remaining int) {
	if m == nil {
		return
	}
	m.stageFunds.WithLabelValues(stage).Set(float64(remaining))
}

// Run records the outcome of a fetch-rank-export run.
func (m *Metrics) Run(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.runsTotal.WithLabelValues("error").Inc()
		return
	}
	m.runsTotal.WithLabelValues("ok").Inc()
	m.lastRunTimestamp.SetToCurrentTime()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *log.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithComponent(log.ComponentMetrics).Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
