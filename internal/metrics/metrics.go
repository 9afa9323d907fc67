package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "teamchat_messages_sent_total",
		Help: "Messages accepted by the store, by variant.",
	}, []string{"variant"})

	ReactionsToggled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamchat_reactions_toggled_total",
		Help: "Reaction toggle operations applied.",
	})

	FeedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamchat_feed_events_total",
		Help: "Change-feed events routed to sessions.",
	})

	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "teamchat_open_sessions",
		Help: "Currently connected websocket sessions.",
	})

	MessagesPurged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "teamchat_messages_purged_total",
		Help: "Messages removed by the retention sweeper.",
	})
)
