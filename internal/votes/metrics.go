package votes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// transitionsTotal counts committed vote transitions
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qna_vote_transitions_total",
		Help: "Committed vote transitions by target type and action",
	}, []string{"target_type", "action"})

	// failuresTotal counts rejected or failed vote submissions
	failuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "qna_vote_failures_total",
		Help: "Failed vote submissions by reason",
	}, []string{"reason"})
)
