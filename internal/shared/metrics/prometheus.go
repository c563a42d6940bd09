package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	usersRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of registered users",
		},
	)

	medicinesCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "medicines_created_total",
			Help: "Total number of medicines added to schedules",
		},
	)

	medicineStatusMarked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medicine_status_marked_total",
			Help: "Total number of medicine adherence entries recorded",
		},
		[]string{"completed", "outcome"},
	)

	emergencyRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emergency_requests_total",
			Help: "Total number of emergency help requests received",
		},
	)

	emergencyNotifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emergency_notifications_total",
			Help: "Total number of emergency notification attempts",
		},
		[]string{"channel", "outcome"},
	)

	emergencyDispatchEmpty = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "emergency_dispatch_unreached_total",
			Help: "Emergency dispatches where no contact could be notified",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordUserRegistered records a successful registration
func RecordUserRegistered() {
	usersRegistered.Inc()
}

// RecordMedicineCreated records a medicine being added
func RecordMedicineCreated() {
	medicinesCreated.Inc()
}

// RecordMedicineStatusMarked records an adherence entry
func RecordMedicineStatusMarked(completed bool, outcome string) {
	medicineStatusMarked.WithLabelValues(strconv.FormatBool(completed), outcome).Inc()
}

// RecordEmergencyRequest records a received help request
func RecordEmergencyRequest() {
	emergencyRequests.Inc()
}

// RecordEmergencyNotification records one channel attempt for one contact
func RecordEmergencyNotification(channel string, sent bool) {
	outcome := "failed"
	if sent {
		outcome = "sent"
	}
	emergencyNotifications.WithLabelValues(channel, outcome).Inc()
}

// RecordEmergencyDispatchUnreached records a dispatch that reached nobody
func RecordEmergencyDispatchUnreached() {
	emergencyDispatchEmpty.Inc()
}
