// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "babelchat"

// Translation outcomes recorded per target language.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

var (
	Connections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "connections",
		Help:      "Currently registered realtime connections.",
	})

	Rooms = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "rooms",
		Help:      "Rooms held by the registry.",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Chat messages appended to a room and broadcast.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Events dropped because a connection buffer was full.",
	})

	RoomsReaped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rooms_reaped_total",
		Help:      "Idle empty rooms evicted from the registry.",
	})

	Translations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "translations_total",
		Help:      "Per-language translation attempts by outcome.",
	}, []string{"provider", "target", "outcome"})

	TranslateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "translate_duration_seconds",
		Help:      "Latency of a full translate call across all target languages.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
