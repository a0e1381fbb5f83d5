package invites

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var transitionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "teams_invite_transitions_total",
	Help: "Invite status transitions by target status",
}, []string{"status"})
