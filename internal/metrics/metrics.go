package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replog_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "replog_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Quorum metrics
	QuorumWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replog_quorum_writes_total",
			Help: "Quorum write attempts by outcome",
		},
		[]string{"outcome"}, // "committed" or "rejected"
	)

	QuorumAcks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "replog_quorum_acks",
			Help:    "Acks collected per quorum write (including self)",
			Buckets: prometheus.LinearBuckets(1, 1, 9),
		},
	)

	ReplicateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "replog_replicate_duration_seconds",
			Help:    "Duration of individual peer replicate calls",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2, 5},
		},
	)

	// Gossip metrics
	GossipWritesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "replog_gossip_writes_total",
			Help: "Writes accepted locally in gossip mode",
		},
	)

	GossipRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "replog_gossip_rounds_total",
			Help: "Anti-entropy rounds run",
		},
	)

	GossipMergedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "replog_gossip_merged_total",
			Help: "Messages merged in from peers during gossip",
		},
	)

	GossipPushedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "replog_gossip_pushed_total",
			Help: "Messages pushed back to peers during gossip",
		},
	)

	PeerFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replog_peer_failures_total",
			Help: "Failed inter-node calls by peer",
		},
		[]string{"peer", "op"},
	)

	// Store metrics
	MessagesAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "replog_messages_accepted_total",
			Help: "Messages inserted into the local log (any source)",
		},
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "replog_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
