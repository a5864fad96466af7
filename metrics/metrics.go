// metrics/metrics.go

// Package metrics exposes Prometheus collectors for the HTTP layer and the
// contact intake.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Contact outcomes.
const (
	OutcomeSent           = "sent"
	OutcomeInvalid        = "invalid"
	OutcomeMalformed      = "malformed"
	OutcomeDispatchFailed = "dispatch_failed"
)

// maxPathLabelLength caps the path label in bytes.
const maxPathLabelLength = 256

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5},
		},
		[]string{"path", "method", "status"},
	)

	contactSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contact_submissions_total",
			Help: "Contact form submissions by outcome.",
		},
		[]string{"outcome"},
	)
)

// ObserveContact counts one contact submission under outcome.
func ObserveContact(outcome string) {
	contactSubmissions.WithLabelValues(outcome).Inc()
}

// RegisterDefault registers the Go runtime and process collectors, the
// request histogram and the contact counter with the default registry.
// Repeated calls are no-ops. Any other registration failure is fatal.
func RegisterDefault(logger *zap.Logger) {
	for _, c := range []struct {
		name string
		c    prometheus.Collector
	}{
		{"go collector", collectors.NewGoCollector()},
		{"process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})},
		{"http request histogram", reqDuration},
		{"contact submission counter", contactSubmissions},
	} {
		register(logger, c.name, c.c)
	}
}

func register(logger *zap.Logger, name string, c prometheus.Collector) {
	err := prometheus.Register(c)
	var already prometheus.AlreadyRegisteredError
	if err == nil || errors.As(err, &already) {
		return
	}
	if logger == nil {
		panic("metrics: register " + name + ": " + err.Error())
	}
	logger.Fatal("metrics registration failed", zap.String("collector", name), zap.Error(err))
}

// HTTPMetrics records each request in http_request_duration_seconds,
// labeled by chi route pattern, method and status. Mount it after the
// recoverer so panics are counted as 500.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, max(r.ProtoMajor, 1))

		next.ServeHTTP(ww, r)

		reqDuration.WithLabelValues(
			pathLabel(r),
			r.Method,
			statusLabel(ww.Status()),
		).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// pathLabel prefers the matched route pattern ("/contact", "/*") so static
// paths do not each get their own series.
func pathLabel(r *http.Request) string {
	path := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			path = pattern
		}
	}
	if len(path) > maxPathLabelLength {
		path = truncateUTF8(path, maxPathLabelLength-3) + "..."
	}
	return path
}

// statusLabel treats an unwritten status as 200 and anything outside
// 100..599 as 500.
func statusLabel(code int) string {
	switch {
	case code == 0:
		code = http.StatusOK
	case code < 100 || code > 599:
		code = http.StatusInternalServerError
	}
	return strconv.Itoa(code)
}

// truncateUTF8 cuts s to at most n bytes on a rune boundary.
func truncateUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
