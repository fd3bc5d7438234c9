// Package metrics provides the Prometheus instrumentation of the PDV.
//
// Wire it up once in internal/kernel/http.go:
//
//	r.Use(metrics.Middleware())
//	r.Get("/metrics", "metrics", metrics.Handler())
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pdv"

// ─────────────────────────────────────────────
// HTTP
// ─────────────────────────────────────────────

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	RequestInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being served.",
	})
)

// ─────────────────────────────────────────────
// Store activity
// ─────────────────────────────────────────────

var (
	SalesCommitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_committed_total",
			Help:      "Sales committed, by payment method.",
		},
		[]string{"payment_method"}, // cash | card | pix
	)

	SalesRevenue = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sales_revenue_total",
		Help:      "Sum of committed sale totals.",
	})

	CheckoutRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_rejections_total",
			Help:      "Checkout operations rejected, by reason.",
		},
		[]string{"reason"}, // stock | payment | not_found | invalid
	)

	StorageWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_writes_total",
			Help:      "Collection blob writes, by key and outcome.",
		},
		[]string{"key", "status"}, // status: ok | failed
	)

	HandlerPanics = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handler_panics_total",
			Help:      "Requests that panicked, by method.",
		},
		[]string{"method"},
	)

	BackupRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_runs_total",
			Help:      "Scheduled backup runs, by outcome.",
		},
		[]string{"status"},
	)
)

// DefaultRegistry is the registry served on /metrics.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		RequestDuration,
		RequestInFlight,
		SalesCommitted,
		SalesRevenue,
		CheckoutRejections,
		StorageWrites,
		HandlerPanics,
		BackupRuns,
	)
}

// ─────────────────────────────────────────────
// Helpers for app code
// ─────────────────────────────────────────────

// SaleCommitted records one committed sale.
func SaleCommitted(method string, total float64) {
	SalesCommitted.WithLabelValues(method).Inc()
	SalesRevenue.Add(total)
}

// CheckoutRejected records a rejected checkout operation.
func CheckoutRejected(reason string) {
	CheckoutRejections.WithLabelValues(reason).Inc()
}

// StorageWrite records the outcome of one blob write.
func StorageWrite(key string, ok bool) {
	StorageWrites.WithLabelValues(key, outcome(ok)).Inc()
}

// HandlerPanicked records one recovered panic.
func HandlerPanicked(method string) {
	HandlerPanics.WithLabelValues(method).Inc()
}

// BackupRun records the outcome of one scheduled backup.
func BackupRun(ok bool) {
	BackupRuns.WithLabelValues(outcome(ok)).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}

// ─────────────────────────────────────────────
// HTTP middleware
// ─────────────────────────────────────────────

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: response writer cannot hijack")
	}
	return h.Hijack()
}

func (r *responseRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Middleware records duration and in-flight count per request. Routes are
// labelled with their chi pattern so ids don't explode cardinality.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			RequestInFlight.Inc()
			defer RequestInFlight.Dec()

			rr := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rr, r)

			route := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}
			RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(rr.status)).
				Observe(time.Since(start).Seconds())
		})
	}
}

// Handler exposes the registry on GET /metrics.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	return h.ServeHTTP
}
