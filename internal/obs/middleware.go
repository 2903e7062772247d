package obs

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type routePatternKey struct{}

// WithRoutePattern stores the matched chi pattern so later middleware can
// label by route template instead of raw path.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the stored pattern, or "" when none was
// captured.
func RoutePatternFromContext(ctx context.Context) string {
	pattern, _ := ctx.Value(routePatternKey{}).(string)
	return pattern
}

// routeLabel prefers the captured route template over the raw path so metric
// and span cardinality stays bounded.
func routeLabel(r *http.Request, fallback string) string {
	if pattern := RoutePatternFromContext(r.Context()); pattern != "" {
		return pattern
	}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return fallback
}

// responseTap captures the status and byte count a handler writes.
type responseTap struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func tapResponse(w http.ResponseWriter) *responseTap {
	return &responseTap{ResponseWriter: w, status: http.StatusOK}
}

func (t *responseTap) WriteHeader(code int) {
	t.status = code
	t.ResponseWriter.WriteHeader(code)
}

func (t *responseTap) Write(p []byte) (int, error) {
	n, err := t.ResponseWriter.Write(p)
	t.bytes += int64(n)
	return n, err
}

// RoutePatternMiddleware records the chi route pattern on the request
// context once routing has resolved it.
func RoutePatternMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if rc := chi.RouteContext(ctx); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				ctx = WithRoutePattern(ctx, pattern)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HTTPObs feeds the request counter, latency histogram, and in-flight gauge
// from every request passing through.
type HTTPObs struct {
	Metrics *HTTPMetrics
}

func (o HTTPObs) Middleware(next http.Handler) http.Handler {
	if o.Metrics == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tap := tapResponse(w)
		o.Metrics.InFlight.Inc()
		start := time.Now()
		next.ServeHTTP(tap, r)
		o.Metrics.InFlight.Dec()

		route := routeLabel(r, "unmatched")
		o.Metrics.Requests.WithLabelValues(r.Method, route, strconv.Itoa(tap.status)).Inc()
		o.Metrics.Latency.WithLabelValues(r.Method, route).Observe(millis(time.Since(start)))
	})
}

// TracingMiddleware opens a server span per request and marks 5xx responses
// as errors.
func TracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("paintify/http")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeLabel(r, r.URL.Path)
		ctx, span := tracer.Start(r.Context(), r.Method+" "+route)
		defer span.End()

		tap := tapResponse(w)
		next.ServeHTTP(tap, r.WithContext(ctx))

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", tap.status),
		)
		if tap.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(tap.status))
		}
	})
}
