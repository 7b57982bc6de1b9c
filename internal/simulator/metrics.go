package simulator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fillsEmitted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "simulator",
		Name:      "fills_emitted_total",
		Help:      "Fills appended to orders.fills.",
	},
)

var ordersRejected = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "simulator",
		Name:      "orders_rejected_total",
		Help:      "Orders that could not be parsed into a Fill, by reason.",
	},
	[]string{"reason"},
)
