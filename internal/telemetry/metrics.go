package telemetry

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const metricsNamespace = "bluefin"

// Metrics holds the Prometheus collectors exposed on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	PaymentsSubmitted    prometheus.Counter
	PaymentDecisions     *prometheus.CounterVec
	PaymentLockWaits     prometheus.Histogram
	TicketTransitions    *prometheus.CounterVec
	NotificationsCreated *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	httpLabels := []string{"method", "route", "status_class"}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		httpLabels,
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		httpLabels,
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)
	m.PaymentsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payments_submitted_total",
			Help:      "Payment proofs accepted for review",
		},
	)
	m.PaymentDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payment_decisions_total",
			Help:      "Payment decisions by outcome",
		},
		[]string{"outcome"},
	)
	m.PaymentLockWaits = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "payment_lock_wait_seconds",
			Help:      "Time spent acquiring the per-user payment decision lock",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 3},
		},
	)
	m.TicketTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ticket_transitions_total",
			Help:      "Support ticket status changes by target status",
		},
		[]string{"status"},
	)
	m.NotificationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_created_total",
			Help:      "Notifications created by type",
		},
		[]string{"type"},
	)

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.PaymentsSubmitted,
		m.PaymentDecisions,
		m.PaymentLockWaits,
		m.TicketTransitions,
		m.NotificationsCreated,
	)
	return m
}

func (m *Metrics) PaymentSubmitted() {
	if m == nil {
		return
	}
	m.PaymentsSubmitted.Inc()
}

// PaymentDecided counts a decision outcome: approved, rejected, conflict or busy
func (m *Metrics) PaymentDecided(outcome string) {
	if m == nil {
		return
	}
	m.PaymentDecisions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.PaymentLockWaits.Observe(d.Seconds())
}

func (m *Metrics) TicketTransitioned(status string) {
	if m == nil {
		return
	}
	m.TicketTransitions.WithLabelValues(status).Inc()
}

func (m *Metrics) NotificationCreated(notificationType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.NotificationsCreated.WithLabelValues(notificationType).Add(float64(n))
}

// HTTPMiddleware records request rate, latency and in-flight requests.
// Labels use the matched route template to keep cardinality bounded.
func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if m == nil {
			return c.Next()
		}

		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		labels := []string{c.Method(), c.Route().Path, strconv.Itoa(status/100) + "xx"}
		m.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
		m.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())

		return err
	}
}
