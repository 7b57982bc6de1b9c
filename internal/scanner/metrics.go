package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var opportunitiesEmitted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "scanner",
		Name:      "opportunities_emitted_total",
		Help:      "Opportunities appended to arb.opportunities.",
	},
	[]string{"path"},
)

var dropsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "arbitrage",
		Subsystem: "scanner",
		Name:      "drops_total",
		Help:      "Candidate paths rejected before emission, by reason.",
	},
	[]string{"reason"},
)

var scanTickDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "arbitrage",
		Subsystem: "scanner",
		Name:      "scan_tick_duration_ms",
		Help:      "Wall time of one scan tick across the full universe.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250},
	},
)

var universeSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "arbitrage",
		Subsystem: "scanner",
		Name:      "universe_size",
		Help:      "Number of symbols in the current scan universe.",
	},
)
