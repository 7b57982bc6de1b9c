package risk

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var approvedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "risk",
		Name:      "approved_total",
		Help:      "Opportunities approved and republished to arb.approved.",
	},
)

var rejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "risk",
		Name:      "rejected_total",
		Help:      "Opportunities rejected by the policy gate, by reason.",
	},
	[]string{"reason"},
)
