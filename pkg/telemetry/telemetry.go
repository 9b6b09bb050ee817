package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "venuedir_http_request_duration_seconds",
		Help:    "HTTP request latency by route, method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	requestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "venuedir_http_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	})

	slowRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "venuedir_http_slow_requests_total",
		Help: "Requests slower than the slow threshold.",
	}, []string{"route"})
)

const slowThreshold = 200 * time.Millisecond

// Middleware records per-request latency, status and in-flight counts.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestsInFlight.Inc()

		srw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(srw, r)

		requestsInFlight.Dec()
		dur := time.Since(start)
		route := routeLabel(r)
		requestDuration.WithLabelValues(route, r.Method, strconv.Itoa(srw.status)).Observe(dur.Seconds())
		if dur > slowThreshold {
			slowRequests.WithLabelValues(route).Inc()
		}
	})
}

// routeLabel returns the mux route template when available so that
// /v1/venues/42 and /v1/venues/43 share one label value.
func routeLabel(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// statusRecorder captures the response status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
