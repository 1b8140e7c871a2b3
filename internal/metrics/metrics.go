package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

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
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	loginAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_login_attempts_total",
			Help: "Unified login attempts by resolved principal kind and outcome.",
		},
		[]string{"kind", "result"},
	)

	ticketTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_ticket_transitions_total",
			Help: "Ticket status transitions.",
		},
		[]string{"from", "to"},
	)

	ticketMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "backoffice_ticket_messages_total",
			Help: "Messages appended to ticket threads by sender.",
		},
		[]string{"sender"},
	)
)

// Register adds all collectors to reg. Call once at startup.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		loginAttempts, ticketTransitions, ticketMessages,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// Handler exposes the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Instrument records RPS, latency and in-flight requests per matched route.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		httpInFlight.Inc()
		defer httpInFlight.Dec()
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// LoginAttempt counts a unified-login outcome. kind is empty for failed attempts.
func LoginAttempt(kind, result string) {
	if kind == "" {
		kind = "none"
	}
	loginAttempts.WithLabelValues(kind, result).Inc()
}

func TicketTransition(from, to string) {
	if from == to {
		return
	}
	ticketTransitions.WithLabelValues(from, to).Inc()
}

func TicketMessage(sender string) {
	ticketMessages.WithLabelValues(sender).Inc()
}
