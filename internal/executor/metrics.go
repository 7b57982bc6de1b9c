package executor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var ordersEmitted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "orders_emitted_total",
		Help:      "Orders appended to orders.new.",
	},
)

var tradesEmitted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "trades_emitted_total",
		Help:      "Trades appended to arb.trades by the executor.",
	},
)

var legsAborted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "legs_aborted_total",
		Help:      "State machines aborted because leg[0] filled zero size.",
	},
)

var inflightEvicted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "inflight_evicted_total",
		Help:      "Inflight entries dropped by TTL eviction.",
	},
)

var inflightCleared = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "inflight_cleared_total",
		Help:      "Inflight entries dropped on the autoTrade true->false falling edge.",
	},
)

var inflightSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "inflight_size",
		Help:      "Current number of corrIds tracked in the inflight table.",
	},
)

var activeStream = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "active_stream",
		Help:      "1 for the input stream currently selected by autoTrade, 0 otherwise.",
	},
	[]string{"stream"},
)

var dropsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "drops_total",
		Help:      "Consumed entries dropped without a state transition, by reason.",
	},
	[]string{"reason"},
)

var tradesDiscarded = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "executor",
		Name:      "trades_discarded_total",
		Help:      "Terminal fills whose realized PnL did not clear MIN_REALIZED_PNL.",
	},
)
