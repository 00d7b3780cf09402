package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the HTTP collectors. The engine and the service register
// their own collectors on the same default registry, so /metrics exposes all
// of them.
type Metrics struct {
	inFlight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	handler  http.Handler
}

// Collectors register once per process; every Server shares them.
var httpMetrics = &Metrics{
	inFlight: promauto.NewGauge(prometheus.GaugeOpts{
		Name: "phicalc_http_active_requests",
		Help: "HTTP requests being served.",
	}),
	requests: promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phicalc_http_requests_total",
		Help: "HTTP requests served, by route and status code.",
	}, []string{"path", "code"}),
	latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phicalc_http_request_duration_seconds",
		Help:    "HTTP request latency, by route.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 4, 10),
	}, []string{"path"}),
	handler: promhttp.Handler(),
}

// NewMetrics returns the process-wide HTTP metrics.
func NewMetrics() *Metrics { return httpMetrics }

// Observe records one finished request on route path.
func (m *Metrics) Observe(path string, code int, d time.Duration) {
	m.requests.WithLabelValues(path, strconv.Itoa(code)).Inc()
	m.latency.WithLabelValues(path).Observe(d.Seconds())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.metrics.handler.ServeHTTP(w, r)
}

// metricsMiddleware labels requests with the registered route rather than
// the raw URL, which keeps the label set bounded.
func (s *Server) metricsMiddleware(path string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.metrics.inFlight.Inc()
		defer s.metrics.inFlight.Dec()

		start := time.Now()
		rec := wrapResponseWriter(w)
		next(rec, r)
		s.metrics.Observe(path, rec.status, time.Since(start))
	}
}
