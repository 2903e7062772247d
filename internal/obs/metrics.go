package obs

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// defaultLatencyBuckets spans the millisecond range the shop API serves.
// Document reads finish in single digits; the CSV export and postgres
// round trips fill the tail.
var defaultLatencyBuckets = []float64{1, 5, 20, 50, 100, 250, 500, 2000}

// HTTPMetrics holds the request-level collectors exposed on /metrics.
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics builds and registers the HTTP collectors under namespace.
// A nil registerer targets the default registry. Registering the same
// namespace twice hands back the collectors registered first.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = defaultLatencyBuckets
	} else {
		sort.Float64s(buckets)
	}
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method, route, and status.",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Requests currently being served.",
		}),
	}
	m.Requests = registerOrReuse(reg, m.Requests)
	m.Latency = registerOrReuse(reg, m.Latency)
	m.InFlight = registerOrReuse(reg, m.InFlight)
	return m
}

// ParseBucketsCSV reads histogram bucket bounds in milliseconds from a
// comma-separated string. Blank and non-positive entries are skipped; an
// empty result leaves the defaults in force.
func ParseBucketsCSV(raw string) []float64 {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' })
	var out []float64
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

func millis(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}

// registerOrReuse registers c, or returns the collector already holding the
// same descriptor. Any other registration failure is a programming error.
func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(fmt.Errorf("obs: register %T: %w", c, err))
}
