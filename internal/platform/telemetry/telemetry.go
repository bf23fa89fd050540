// Package telemetry exposes Prometheus metrics for the generator and the
// HTTP API. A Provider owns its own registry so tests and concurrent runs
// never collide on the global default.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "synthdata"

// ---------------------------------------------------------------------------
// Provider
// ---------------------------------------------------------------------------

// Provider holds every collector. It implements the simulation observer
// callbacks so a run can report progress without knowing about Prometheus.
type Provider struct {
	reg *prometheus.Registry

	records      *prometheus.CounterVec
	days         *prometheus.CounterVec
	visitsPerDay prometheus.Histogram
	runs         *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	bundles      prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewProvider registers all collectors on a fresh registry, plus the Go
// runtime and process collectors when withRuntime is set.
func NewProvider(withRuntime bool) *Provider {
	p := &Provider{
		reg: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "records_total",
			Help: "Records written, by stream.",
		}, []string{"stream"}),
		days: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "days_total",
			Help: "Simulated calendar days, by whether the pharmacy was open.",
		}, []string{"state"}),
		visitsPerDay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "visits_per_day",
			Help:    "Distribution of daily visit counts on open days.",
			Buckets: prometheus.LinearBuckets(0, 25, 14),
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Completed generator runs, by mode and result.",
		}, []string{"mode", "result"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time of generator runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"mode"}),
		bundles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "case_bundles_total",
			Help: "Case bundles served.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests, by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency, by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	p.reg.MustRegister(p.records, p.days, p.visitsPerDay, p.runs, p.runDuration, p.bundles, p.httpRequests, p.httpDuration)
	if withRuntime {
		p.reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return p
}

// Registry exposes the underlying registry.
func (p *Provider) Registry() *prometheus.Registry { return p.reg }

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (p *Provider) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, p.reg)
}

// ---------------------------------------------------------------------------
// Generator metrics
// ---------------------------------------------------------------------------

// OnDay records one simulated day. Only open days feed the visit histogram,
// zero-visit open days included.
func (p *Provider) OnDay(_ time.Time, open bool, visits int) {
	if !open {
		p.days.WithLabelValues("closed").Inc()
		return
	}
	p.days.WithLabelValues("open").Inc()
	p.visitsPerDay.Observe(float64(visits))
}

// OnRecord counts one written record.
func (p *Provider) OnRecord(stream string) {
	p.records.WithLabelValues(stream).Inc()
}

// RecordRun counts a finished run and its duration.
func (p *Provider) RecordRun(mode string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.runs.WithLabelValues(mode, result).Inc()
	p.runDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// CaseBundleServed counts one served case bundle.
func (p *Provider) CaseBundleServed() { p.bundles.Inc() }

// ---------------------------------------------------------------------------
// HTTP
// ---------------------------------------------------------------------------

// MetricsMiddleware records request counts and latency per route pattern.
func (p *Provider) MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)

			p.httpRequests.WithLabelValues(method, route, status).Inc()
			p.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// Handler serves the Prometheus text exposition of the registry.
func (p *Provider) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{Registry: p.reg}))
}
