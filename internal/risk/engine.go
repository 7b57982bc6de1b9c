// Package risk applies a policy gate to candidate Opportunities consumed
// from scanner.to.risk, re-publishing approved copies to arb.approved.
package risk

import (
	"context"
	"fmt"
	"time"

	"arbitrage/internal/bus"
	"arbitrage/internal/config"
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

const (
	inputStream  = "scanner.to.risk"
	outputStream = "arb.approved"
	groupName    = "risk"
	consumerName = "risk-1"
)

// Reason tags recorded on rejection, matching the policy table.
const (
	ReasonPaperModeNotAllowed = "paper_mode_not_allowed"
	ReasonMissingSide         = "missing_side"
	ReasonSizeExceedsCap      = "size_exceeds_cap"
	ReasonEdgeBelowThreshold  = "edge_below_threshold"
	ReasonNetBelowThreshold   = "net_below_threshold"
)

// Decision is the tagged policy outcome for one Opportunity.
type Decision struct {
	Approved bool
	Reason   string
	Risk     models.RiskBlock
}

// Evaluate runs the five-check policy gate against opp and returns the
// tagged decision. netBps/totalFeesLikeBps are the values recorded into
// the embedded risk block on approval.
func Evaluate(opp models.Opportunity, cfg config.RiskConfig) Decision {
	risk := models.RiskBlock{
		EdgeMinBps:   cfg.EdgeMinBps,
		NetMinBps:    cfg.NetMinBps,
		MaxTotalSize: cfg.MaxTotalSize,
	}

	if opp.Payload.Paper && !cfg.AllowPaperOnly {
		return Decision{Reason: ReasonPaperModeNotAllowed, Risk: risk}
	}

	buy, sell, ok := opp.BuySellLegs()
	if !ok {
		if cfg.RequireBothSides {
			return Decision{Reason: ReasonMissingSide, Risk: risk}
		}
		// RISK_REQUIRE_BOTH_SIDES=false: the executor's state machine
		// already settles single-leg opportunities on the first positive
		// fill (spec.md §4.3), so fall back to the opportunity's own
		// edgeBps rather than rejecting for a missing pair.
		return evaluateTotalSizeAndEdge(opp, cfg, risk, totalLegSize(opp), opp.Payload.EdgeBps)
	}

	return evaluateTotalSizeAndEdge(opp, cfg, risk, buy.Size+sell.Size, grossBpsFromPair(buy, sell))
}

// evaluateTotalSizeAndEdge applies the size-cap and edge/net-bps checks
// shared by both the BUY/SELL-pair path and the RequireBothSides=false
// fallback path.
func evaluateTotalSizeAndEdge(opp models.Opportunity, cfg config.RiskConfig, risk models.RiskBlock, totalSize, grossBps float64) Decision {
	if cfg.MaxTotalSize > 0 && totalSize > cfg.MaxTotalSize {
		return Decision{Reason: ReasonSizeExceedsCap, Risk: risk}
	}

	feesBps := totalFeesLikeBps(opp)
	netBps := grossBps - feesBps
	risk.NetBps = netBps
	risk.TotalFeesLikeBps = feesBps

	if grossBps < cfg.EdgeMinBps {
		return Decision{Reason: ReasonEdgeBelowThreshold, Risk: risk}
	}
	if netBps < cfg.NetMinBps {
		return Decision{Reason: ReasonNetBelowThreshold, Risk: risk}
	}

	return Decision{Approved: true, Risk: risk}
}

func grossBpsFromPair(buy, sell models.Leg) float64 {
	mid := (buy.EstPx + sell.EstPx) / 2
	if mid <= 0 {
		return 0
	}
	return (sell.EstPx - buy.EstPx) / mid * 10000
}

func totalLegSize(opp models.Opportunity) float64 {
	var total float64
	for _, l := range opp.Payload.Legs {
		total += l.Size
	}
	return total
}

// totalFeesLikeBps prefers the sum of each leg's feeBps; falls back to
// costs.fees expressed as a fraction, converted to bps.
func totalFeesLikeBps(opp models.Opportunity) float64 {
	var sum float64
	var any bool
	for _, l := range opp.Payload.Legs {
		if l.FeeBps != 0 {
			sum += l.FeeBps
			any = true
		}
	}
	if any {
		return sum
	}
	if opp.Payload.Costs != nil {
		return opp.Payload.Costs.Fees * 10000
	}
	return 0
}

// Engine drives the risk consumer loop: read, evaluate, republish on
// approval, acknowledge unconditionally.
type Engine struct {
	b   bus.Bus
	cfg config.RiskConfig
	log *utils.Logger
}

func New(b bus.Bus, cfg config.RiskConfig, log *utils.Logger) *Engine {
	return &Engine{b: b, cfg: cfg, log: log.WithComponent("risk")}
}

// Run ensures the consumer group exists and processes entries until ctx
// is canceled.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.b.EnsureGroup(ctx, inputStream, groupName); err != nil {
		return fmt.Errorf("ensure group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entries, err := e.b.Read(ctx, inputStream, groupName, consumerName, 50, time.Second)
		if err == bus.ErrNoEntries {
			continue
		}
		if err != nil {
			e.log.Warn("read failed", utils.Err(err))
			time.Sleep(300 * time.Millisecond)
			continue
		}

		for _, entry := range entries {
			e.process(ctx, entry)
		}
	}
}

func (e *Engine) process(ctx context.Context, entry bus.Entry) {
	defer func() {
		if err := e.b.Ack(ctx, inputStream, groupName, entry.ID); err != nil {
			e.log.Warn("ack failed", utils.Err(err))
		}
	}()

	var opp models.Opportunity
	if err := models.Unmarshal(entry.Data, &opp); err != nil {
		rejectedTotal.WithLabelValues("parse_error").Inc()
		return
	}

	decision := Evaluate(opp, e.cfg)
	if !decision.Approved {
		rejectedTotal.WithLabelValues(decision.Reason).Inc()
		return
	}

	opp.Approved = true
	risk := decision.Risk
	opp.Risk = &risk

	data, err := models.Marshal(opp)
	if err != nil {
		e.log.Error("marshal approved opportunity", utils.Err(err))
		return
	}
	if _, err := e.b.Append(ctx, outputStream, data); err != nil {
		e.log.Warn("append approved opportunity failed", utils.Err(err))
		return
	}
	approvedTotal.Inc()
}
