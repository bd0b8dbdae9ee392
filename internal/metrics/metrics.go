package metrics

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartcity/weatherwidget/internal/domain"
)

var (
	lookupCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_lookups_total",
			Help: "Weather provider lookups by trigger and outcome.",
		},
		[]string{"trigger", "outcome"},
	)
	lookupDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_lookup_duration_seconds",
			Help:    "Latency of weather provider lookups.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"trigger"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "weather_widget_sessions",
			Help: "Widget sessions currently held in memory.",
		},
	)
)

func init() { prometheus.MustRegister(lookupCounter, lookupDuration, activeSessions) }

// ObserveLookup records one finished provider call
func ObserveLookup(trigger domain.Trigger, outcome domain.Outcome, took time.Duration) {
	lookupCounter.WithLabelValues(string(trigger), string(outcome)).Inc()
	lookupDuration.WithLabelValues(string(trigger)).Observe(took.Seconds())
}

// SetSessions publishes the widget session count
func SetSessions(n int) {
	activeSessions.Set(float64(n))
}

// Handler serves the default registry in the Prometheus text format
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
