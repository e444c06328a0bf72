package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// NewMetricsMiddleware records request count and latency in ms. The path label is
// the matched chi route pattern so ids do not explode label cardinality.
func NewMetricsMiddleware(requests *prometheus.CounterVec, duration *prometheus.HistogramVec) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			path := routePattern(r)

			requests.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
			duration.WithLabelValues(r.Method, path).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}

	return "unmatched"
}
