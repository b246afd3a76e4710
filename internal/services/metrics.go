package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricVotes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wavesight",
		Name:      "votes_total",
		Help:      "Validation votes recorded, by decision.",
	}, []string{"decision"})

	metricVoteRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wavesight",
		Name:      "vote_rejections_total",
		Help:      "Validation votes refused, by reason.",
	}, []string{"reason"})

	metricTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wavesight",
		Name:      "status_transitions_total",
		Help:      "Submission status transitions.",
	}, []string{"from", "to"})

	metricEarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wavesight",
		Name:      "earnings_credited_total",
		Help:      "Amount credited to the earnings ledger, by entry type.",
	}, []string{"type"})
)
