package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	EventsAppended    *prometheus.CounterVec
	AppendRejected    prometheus.Counter
	NotificationsRead prometheus.Counter
	SubscriberPanics  prometheus.Counter
	PersistFailures   prometheus.Counter
	PersistDropped    prometheus.Counter
	PersistQueueDepth prometheus.Gauge
	RoleCacheHits     prometheus.Counter
	RoleCacheMisses   prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		EventsAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "compass_events_appended_total",
			Help: "Total number of events appended, by category",
		}, []string{"category"}),
		AppendRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compass_events_append_rejected_total",
			Help: "Total number of appends rejected by validation",
		}),
		NotificationsRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compass_notifications_read_total",
			Help: "Total number of notifications transitioned to read",
		}),
		SubscriberPanics: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compass_event_subscriber_panics_total",
			Help: "Total number of panics recovered from event subscribers",
		}),
		PersistFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compass_event_persist_failures_total",
			Help: "Total number of failed event persistence attempts",
		}),
		PersistDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compass_event_persist_dropped_total",
			Help: "Total number of events dropped because the persist inbox was full",
		}),
		PersistQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "compass_event_persist_queue_depth",
			Help: "Current number of events waiting for persistence",
		}),
		RoleCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compass_role_cache_hits_total",
			Help: "Total number of effective-role lookups served from cache",
		}),
		RoleCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "compass_role_cache_misses_total",
			Help: "Total number of effective-role lookups resolved from the grant store",
		}),
	}
}

// IncEventsAppended increments the appended counter for a category.
func (m *Metrics) IncEventsAppended(category string) {
	m.EventsAppended.WithLabelValues(category).Inc()
}
