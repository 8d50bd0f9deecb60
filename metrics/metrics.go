// Package metrics defines the prometheus metrics exported by nagleack.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for exporting to prometheus to aid in monitoring trials.
var (
	ActiveTrials = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nagleack_active_trials",
			Help: "The number of measurement sessions currently in progress.",
		},
		[]string{"side"},
	)
	SenderChunks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagleack_sender_chunks_total",
			Help: "The number of paced chunks written by the sender.",
		},
	)
	SenderBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagleack_sender_bytes_total",
			Help: "The number of payload bytes written by the sender.",
		},
	)
	SenderAcks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nagleack_sender_acks_total",
			Help: "Per-chunk acknowledgment outcomes observed by the sender.",
		},
		[]string{"outcome"},
	)
	ReceiverChunks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagleack_receiver_chunks_total",
			Help: "The number of reads counted as received units by the receiver.",
		},
	)
	ReceiverBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nagleack_receiver_bytes_total",
			Help: "The number of payload bytes consumed by the receiver.",
		},
	)
	ReceiverSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nagleack_receiver_sessions_total",
			Help: "The number of completed receiver sessions, by result.",
		},
		[]string{"result"},
	)
)
