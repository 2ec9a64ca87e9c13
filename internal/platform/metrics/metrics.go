package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chall_zone"

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	registry        *prometheus.Registry
	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Statements      *prometheus.CounterVec
}

// New builds the collectors on a private registry so tests can create as
// many instances as they like.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		Statements: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "statements_total",
				Help:      "Catalog statements executed, by name and outcome",
			},
			[]string{"statement", "outcome"},
		),
	}
	m.registry.MustRegister(m.RequestCounter, m.RequestDuration, m.Statements)
	m.registry.MustRegister(collectors.NewGoCollector())
	return m
}

// WatchDB exports the pool statistics of db.
func (m *Metrics) WatchDB(db *sql.DB, name string) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// ObserveStatement counts one catalog statement execution.
func (m *Metrics) ObserveStatement(name string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Statements.WithLabelValues(name, outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Middleware records request count and latency labelled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
