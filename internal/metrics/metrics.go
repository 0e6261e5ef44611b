// Package metrics exposes Prometheus instrumentation for scoring, leaderboard
// and HTTP traffic. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "barscore"

// Metrics owns a dedicated registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	shiftsScored       *prometheus.CounterVec
	shiftsUnscored     prometheus.Counter
	validationFailures *prometheus.CounterVec
	qualityWarnings    *prometheus.CounterVec
	shiftsRescored     *prometheus.CounterVec

	leaderboardDuration prometheus.Histogram
	leaderboardShifts   prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		shiftsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "shifts", Name: "scored_total",
			Help: "Shifts stored with a score, by formula version.",
		}, []string{"version"}),
		shiftsUnscored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "shifts", Name: "unscored_total",
			Help: "Shifts stored with scoring skipped.",
		}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "shifts", Name: "validation_failures_total",
			Help: "Rejected shift submissions, by offending field.",
		}, []string{"field"}),
		qualityWarnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "shifts", Name: "quality_warnings_total",
			Help: "Data-quality warnings raised on stored shifts, by code.",
		}, []string{"code"}),
		shiftsRescored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "shifts", Name: "rescored_total",
			Help: "Shifts whose score stamp was rewritten, by target version.",
		}, []string{"version"}),
		leaderboardDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "leaderboard", Name: "duration_seconds",
			Help:    "Time to read and aggregate a leaderboard.",
			Buckets: prometheus.DefBuckets,
		}),
		leaderboardShifts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "leaderboard", Name: "input_shifts",
			Help:    "Shifts read per leaderboard request.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route pattern and method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		m.shiftsScored,
		m.shiftsUnscored,
		m.validationFailures,
		m.qualityWarnings,
		m.shiftsRescored,
		m.leaderboardDuration,
		m.leaderboardShifts,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// PoolStater is satisfied by *store.Store.
type PoolStater interface {
	Stats() *pgxpool.Stat
}

// RegisterPool publishes connection-pool gauges read on every scrape.
func (m *Metrics) RegisterPool(p PoolStater) {
	if m == nil || p == nil {
		return
	}
	gauge := func(name, help string, read func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "db_pool", Name: name, Help: help,
		}, func() float64 {
			st := p.Stats()
			if st == nil {
				return 0
			}
			return read(st)
		})
	}
	m.registry.MustRegister(
		gauge("total_conns", "Connections currently open.", func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("acquired_conns", "Connections checked out.", func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("idle_conns", "Idle connections.", func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
	)
}

// ShiftScored counts a stored shift scored with version.
func (m *Metrics) ShiftScored(version string) {
	if m == nil {
		return
	}
	m.shiftsScored.WithLabelValues(version).Inc()
}

// ShiftUnscored counts a stored shift whose scoring was skipped.
func (m *Metrics) ShiftUnscored() {
	if m == nil {
		return
	}
	m.shiftsUnscored.Inc()
}

// ValidationFailed counts one rejected field.
func (m *Metrics) ValidationFailed(field string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(field).Inc()
}

// QualityWarning counts one data-quality warning.
func (m *Metrics) QualityWarning(code string) {
	if m == nil {
		return
	}
	m.qualityWarnings.WithLabelValues(code).Inc()
}

// Rescored adds n rewritten score stamps for version.
func (m *Metrics) Rescored(version string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.shiftsRescored.WithLabelValues(version).Add(float64(n))
}

// ObserveLeaderboard records one leaderboard computation.
func (m *Metrics) ObserveLeaderboard(d time.Duration, shifts int) {
	if m == nil {
		return
	}
	m.leaderboardDuration.Observe(d.Seconds())
	m.leaderboardShifts.Observe(float64(shifts))
}

// Middleware records request counts and latency keyed by the chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
