package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datahub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "datahub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "datahub",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	// Upload metrics
	uploadBatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datahub",
			Subsystem: "upload",
			Name:      "batches_total",
			Help:      "Total number of upload batches",
		},
		[]string{"store", "status"},
	)

	uploadBatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "datahub",
			Subsystem: "upload",
			Name:      "batch_duration_seconds",
			Help:      "Duration of an upload batch in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"store"},
	)

	uploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datahub",
			Subsystem: "upload",
			Name:      "bytes_total",
			Help:      "Bytes sent to the artifact store after transformation",
		},
		[]string{"store"},
	)

	uploadRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datahub",
			Subsystem: "upload",
			Name:      "rejected_total",
			Help:      "Upload batches rejected before any transfer",
		},
		[]string{"reason"},
	)

	// Favorites metrics
	favoriteTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datahub",
			Subsystem: "favorites",
			Name:      "toggles_total",
			Help:      "Total number of favorite toggles",
		},
		[]string{"action"},
	)

	favoritesSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "datahub",
			Subsystem: "favorites",
			Name:      "swept_total",
			Help:      "Dangling favorites removed by the sweeper",
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "datahub",
			Subsystem: "db",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation", "table"},
	)
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware returns a middleware that records Prometheus metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()

		// Get route pattern from chi
		routePattern := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			routePattern = rctx.RoutePattern()
		}
		if routePattern == "" {
			routePattern = "unknown"
		}

		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, routePattern, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, routePattern, status).Observe(duration)
	})
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordUploadBatch records the outcome of an upload batch
func RecordUploadBatch(store, status string, duration time.Duration) {
	uploadBatchesTotal.WithLabelValues(store, status).Inc()
	uploadBatchDuration.WithLabelValues(store).Observe(duration.Seconds())
}

// AddUploadBytes adds n transferred bytes for store
func AddUploadBytes(store string, n int) {
	uploadBytesTotal.WithLabelValues(store).Add(float64(n))
}

// RecordUploadRejected records a batch refused before any transfer
func RecordUploadRejected(reason string) {
	uploadRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordFavoriteToggle records a favorite being added or removed
func RecordFavoriteToggle(added bool) {
	action := "removed"
	if added {
		action = "added"
	}
	favoriteTogglesTotal.WithLabelValues(action).Inc()
}

// AddFavoritesSwept adds n favorites removed by the sweeper
func AddFavoritesSwept(n int64) {
	favoritesSweptTotal.Add(float64(n))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation, table string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}
