package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var decisionsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "teams",
	Subsystem: "ratelimit",
	Name:      "decisions_total",
	Help:      "Rate limit decisions by policy prefix and outcome",
}, []string{"prefix", "outcome"})
