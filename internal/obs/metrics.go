package obs

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobsearch.app/internal/ids"
)

// Общие HTTP-метрики
var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// CascadeDeleted counts entities removed by cascading deletes, by entity kind.
	CascadeDeleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_cascade_deleted_total",
			Help: "Entities removed by cascading deletes.",
		},
		[]string{"entity"},
	)

	SessionsIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "jobboard_sessions_issued_total",
		Help: "Session tokens issued on sign in.",
	})

	// MailDeliveries counts outbound messages by result (sent, rejected, error).
	MailDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_mail_deliveries_total",
			Help: "Outbound email deliveries by result.",
		},
		[]string{"result"},
	)

	JanitorPurged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jobboard_janitor_purged_total",
			Help: "Expired records removed by the janitor.",
		},
		[]string{"kind"},
	)

	initOnce sync.Once
)

// Init registers metrics in the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpInFlight, httpRequestsTotal, httpRequestDuration,
			CascadeDeleted, SessionsIssued, MailDeliveries, JanitorPurged,
		)
	})
}

// Хэндлер Prometheus.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records RPS, latency and in-flight requests per canonical path.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	})
}

// CanonicalPath collapses identifiers and tokens in a request path so metric
// label cardinality stays bounded.
func CanonicalPath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == "/" {
		return "/"
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		switch {
		case ids.Valid(part):
			parts[i] = ":id"
		case strings.Count(part, ".") == 2 && len(part) > 32:
			parts[i] = ":token"
		}
	}
	return strings.Join(parts, "/")
}

// statusWriter: локальная копия, чтобы знать код ответа.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
