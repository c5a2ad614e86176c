package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sakif/todo-api/internal/apperror"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_api_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	todoOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_api_operations_total",
			Help: "User and todo operations by outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// unmatchedRoute labels requests that chi never routed: 404s, and requests
// the rate limiter answered before routing.
const unmatchedRoute = "unmatched"

// Prometheus records request duration. The route label is the chi pattern,
// never the raw path, so neither todo ids nor made-up URLs create new series.
func Prometheus(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.
			WithLabelValues(r.Method, metricsRoute(r), strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}

// metricsRoute is the chi pattern that matched, or unmatchedRoute. Must be
// called after next.ServeHTTP.
func metricsRoute(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}

// RecordTodoOperation counts one operation. err is the operation's result
// (nil on success) and is reduced to a small fixed set of outcomes.
func RecordTodoOperation(op string, err error) {
	todoOperations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperror.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return "conflict"
	case errors.Is(err, apperror.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}
