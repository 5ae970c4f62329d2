package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/live"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	bookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions by target status",
		},
		[]string{"status"},
	)

	bookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Total bookings created",
		},
	)

	liveSubscriptions = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "live_subscriptions_active",
			Help: "Open live subscriptions per collection",
		},
		[]string{"collection"},
	)

	liveReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_reconnects_total",
			Help: "Live subscription reconnects per collection",
		},
		[]string{"collection"},
	)
)

// Instrument records request count and latency keyed by the matched route
// template, so path parameters do not explode label cardinality.
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func TrackBookingCreated() {
	bookingsCreated.Inc()
}

func TrackBookingTransition(status string) {
	bookingTransitions.WithLabelValues(status).Inc()
}

// LiveHooks reports subscription lifecycle for one collection.
func LiveHooks(collection string) live.Hooks {
	return live.Hooks{
		OnOpen: func() {
			liveSubscriptions.WithLabelValues(collection).Inc()
		},
		OnClose: func() {
			liveSubscriptions.WithLabelValues(collection).Dec()
		},
		OnReconnect: func(error) {
			liveReconnects.WithLabelValues(collection).Inc()
		},
	}
}
