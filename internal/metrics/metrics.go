// Package metrics provides Prometheus metrics for echod and the smoke runner.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/leca/ci-smoke/internal/model"
)

const namespace = "smoke"

// Echo server metrics, registered with the default registry.
var (
	// HTTPRequestsTotal counts requests served by echod.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"route", "method", "code"},
	)

	// HTTPRequestDuration measures request handling time per route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "echo",
			Name:      "request_duration_seconds",
			Help:      "HTTP request handling time in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"route", "method"},
	)
)

// Middleware records request counts and latency labelled by chi route pattern,
// so /status/200 and /status/404 share one series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequestsTotal.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

// RunMetrics collects the outcome of one smoke run in its own registry so it
// can be written out as a node_exporter textfile.
type RunMetrics struct {
	reg      *prometheus.Registry
	checks   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	lastRun  *prometheus.GaugeVec
	exitCode *prometheus.GaugeVec
}

func NewRunMetrics() *RunMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &RunMetrics{
		reg: reg,
		checks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Number of checks by outcome",
		}, []string{"suite", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time spent running each check in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"suite", "check"}),
		lastRun: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}, []string{"suite"}),
		exitCode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_exit_code",
			Help:      "Exit code of the last run",
		}, []string{"suite"}),
	}
}

// Observer returns a callback suitable for suite.WithObserver.
func (m *RunMetrics) Observer(suite string) func(model.Result) {
	return func(res model.Result) {
		m.checks.WithLabelValues(suite, string(res.Status)).Inc()
		if res.Status != model.StatusSkipped {
			m.duration.WithLabelValues(suite, res.Name).Observe(res.Duration.Seconds())
		}
	}
}

// ObserveRun records run-level gauges.
func (m *RunMetrics) ObserveRun(run *model.Run) {
	m.lastRun.WithLabelValues(run.Suite).Set(float64(run.Finished.Unix()))
	m.exitCode.WithLabelValues(run.Suite).Set(float64(run.ExitCode()))
}

// Gatherer exposes the underlying registry.
func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// WriteTextfile writes the collected metrics in the text exposition format.
func (m *RunMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
