package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Event bus metrics
	EventsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "boardflow_events_emitted_total",
			Help: "Total number of events accepted onto the dispatch queue",
		},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "boardflow_events_dropped_total",
			Help: "Total number of events dropped because the dispatch queue was full or closed",
		},
	)

	EventQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "boardflow_event_queue_depth",
			Help: "Current number of events waiting in the dispatch queue",
		},
	)

	// Webhook delivery metrics
	DeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardflow_webhook_deliveries_total",
			Help: "Total number of webhook delivery attempts by outcome",
		},
		[]string{"outcome"},
	)

	DeliveryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "boardflow_webhook_delivery_duration_seconds",
			Help:    "Webhook delivery round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Automation engine metrics
	RulesMatched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "boardflow_automation_rules_matched_total",
			Help: "Total number of automation rules whose conditions matched an event",
		},
	)

	ActionsExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "boardflow_automation_actions_executed_total",
			Help: "Total number of automation actions executed successfully",
		},
	)

	ActionsFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "boardflow_automation_actions_failed_total",
			Help: "Total number of automation actions that returned an error",
		},
	)

	// Rate limiter metrics
	RateLimitRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "boardflow_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter, by action",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(EventsEmitted)
	prometheus.MustRegister(EventsDropped)
	prometheus.MustRegister(EventQueueDepth)
	prometheus.MustRegister(DeliveriesTotal)
	prometheus.MustRegister(DeliveryDuration)
	prometheus.MustRegister(RulesMatched)
	prometheus.MustRegister(ActionsExecuted)
	prometheus.MustRegister(ActionsFailed)
	prometheus.MustRegister(RateLimitRejections)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
