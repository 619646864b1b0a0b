package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The dispatcher is a process-wide singleton, so package-level collectors
// are safe here and keep call sites short.
var (
	metricSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "sent_total",
		Help:      "Notifications dispatched, by selector state.",
	}, []string{"state"})

	metricDeduped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "deduped_total",
		Help:      "Notifications dropped as duplicates, by detection kind.",
	}, []string{"reason"})

	metricQueued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "queued_total",
		Help:      "Notifications deferred into the delivery queue.",
	})

	metricDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "dropped_total",
		Help:      "Notifications discarded on queue overflow.",
	})

	metricSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "suppressed_total",
		Help:      "Self-originated notifications suppressed for the sender.",
	})

	metricPushSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "push_skipped_total",
		Help:      "Hidden-receiver events downgraded to presenter-only (no push permission).",
	})

	metricChannelErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "notify",
		Name:      "channel_errors_total",
		Help:      "Best-effort channel failures, by channel.",
	}, []string{"channel"})
)
