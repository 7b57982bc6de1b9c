package assembler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var tradesEmitted = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "assembler",
		Name:      "trades_emitted_total",
		Help:      "Trades appended to arb.trades by the assembler.",
	},
)

var parseErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "assembler",
		Name:      "parse_errors_total",
		Help:      "Fills that failed to unmarshal.",
	},
)

var persistFailures = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "assembler",
		Name:      "persist_failures_total",
		Help:      "Trades that failed to persist to the store (still republished).",
	},
)

var pendingSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "assembler",
		Name:      "pending_size",
		Help:      "Number of corrIds awaiting their second leg's Fill.",
	},
)
