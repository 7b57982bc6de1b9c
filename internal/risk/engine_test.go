package risk

import (
	"context"
	"testing"

	"arbitrage/internal/bus"
	"arbitrage/internal/config"
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

func testLogger() *utils.Logger {
	return utils.InitLogger(utils.LogConfig{Level: "error"})
}

func baseOpportunity() models.Opportunity {
	return models.Opportunity{
		ID: "opp-1",
		Payload: models.OpportunityPayload{
			Paper:   true,
			EdgeBps: 50,
			Legs: []models.Leg{
				{Exchange: "binance", Side: models.SideBuy, EstPx: 100, Size: 1},
				{Exchange: "bybit", Side: models.SideSell, EstPx: 101, Size: 1},
			},
		},
	}
}

func baseCfg() config.RiskConfig {
	return config.RiskConfig{
		EdgeMinBps:       20,
		NetMinBps:        10,
		MaxTotalSize:     0,
		RequireBothSides: true,
		AllowPaperOnly:   true,
	}
}

func TestEvaluateApprovesProfitablePath(t *testing.T) {
	d := Evaluate(baseOpportunity(), baseCfg())
	if !d.Approved {
		t.Fatalf("expected approval, got reason=%s", d.Reason)
	}
	if d.Risk.EdgeMinBps != 20 || d.Risk.NetMinBps != 10 {
		t.Errorf("risk block should carry the configured thresholds: %+v", d.Risk)
	}
}

func TestEvaluateRejectsPaperModeWhenDisallowed(t *testing.T) {
	cfg := baseCfg()
	cfg.AllowPaperOnly = false
	d := Evaluate(baseOpportunity(), cfg)
	if d.Approved || d.Reason != ReasonPaperModeNotAllowed {
		t.Fatalf("expected %s, got approved=%v reason=%s", ReasonPaperModeNotAllowed, d.Approved, d.Reason)
	}
}

func TestEvaluateRejectsMissingSide(t *testing.T) {
	opp := baseOpportunity()
	opp.Payload.Legs = opp.Payload.Legs[:1]
	d := Evaluate(opp, baseCfg())
	if d.Approved || d.Reason != ReasonMissingSide {
		t.Fatalf("expected %s, got approved=%v reason=%s", ReasonMissingSide, d.Approved, d.Reason)
	}
}

func TestEvaluateAllowsSingleLegWhenBothSidesNotRequired(t *testing.T) {
	opp := baseOpportunity()
	opp.Payload.Legs = opp.Payload.Legs[:1] // BUY only
	cfg := baseCfg()
	cfg.RequireBothSides = false

	d := Evaluate(opp, cfg)
	if !d.Approved {
		t.Fatalf("expected approval using opp.Payload.EdgeBps, got reason=%s", d.Reason)
	}
	if d.Reason == ReasonMissingSide {
		t.Fatal("missing-side check should be skipped when RequireBothSides is false")
	}
}

func TestEvaluateRejectsSizeExceedsCap(t *testing.T) {
	cfg := baseCfg()
	cfg.MaxTotalSize = 1.5
	d := Evaluate(baseOpportunity(), cfg)
	if d.Approved || d.Reason != ReasonSizeExceedsCap {
		t.Fatalf("expected %s, got approved=%v reason=%s", ReasonSizeExceedsCap, d.Approved, d.Reason)
	}
}

func TestEvaluateRejectsEdgeBelowThreshold(t *testing.T) {
	opp := baseOpportunity()
	opp.Payload.Legs[1].EstPx = 100.05 // mid ~100.025, gross ~5bps, below EdgeMinBps=20
	d := Evaluate(opp, baseCfg())
	if d.Approved || d.Reason != ReasonEdgeBelowThreshold {
		t.Fatalf("expected %s, got approved=%v reason=%s", ReasonEdgeBelowThreshold, d.Approved, d.Reason)
	}
}

func TestEvaluateRejectsNetBelowThreshold(t *testing.T) {
	opp := baseOpportunity()
	opp.Payload.Legs[0].FeeBps = 50 // gross ~99.5bps - 100bps fees = net ~-0.5bps, below NetMinBps=10
	opp.Payload.Legs[1].FeeBps = 50
	cfg := baseCfg()
	cfg.EdgeMinBps = 20
	cfg.NetMinBps = 10
	d := Evaluate(opp, cfg)
	if d.Approved || d.Reason != ReasonNetBelowThreshold {
		t.Fatalf("expected %s, got approved=%v reason=%s", ReasonNetBelowThreshold, d.Approved, d.Reason)
	}
}

// TestNoRejectedEntryReachesApproved exercises S3: a rejected opportunity
// never produces an entry on arb.approved, and the group has nothing left
// to deliver afterwards.
func TestNoRejectedEntryReachesApproved(t *testing.T) {
	b := bus.NewMemoryBus(1_700_000_000_000)
	ctx := context.Background()

	cfg := baseCfg()
	cfg.EdgeMinBps = 1000 // force rejection

	e := &Engine{b: b, cfg: cfg, log: testLogger()}

	if err := b.EnsureGroup(ctx, inputStream, groupName); err != nil {
		t.Fatalf("ensure group: %v", err)
	}
	if err := b.EnsureGroup(ctx, outputStream, "downstream"); err != nil {
		t.Fatalf("ensure group: %v", err)
	}
	data, err := models.Marshal(baseOpportunity())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := b.Append(ctx, inputStream, data); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := b.Read(ctx, inputStream, groupName, consumerName, 10, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, entry := range entries {
		e.process(ctx, entry)
	}

	_, err = b.Read(ctx, outputStream, "downstream", "c1", 10, 0)
	if err != bus.ErrNoEntries {
		t.Fatalf("expected no approved entries for a rejected opportunity, got err=%v", err)
	}

	// The rejected entry is not delivered a second time. MemoryBus.Ack is a
	// no-op and Read advances the group cursor on delivery, so this read
	// does not itself observe the acknowledgement.
	again, err := b.Read(ctx, inputStream, groupName, "c2", 10, 0)
	if err != bus.ErrNoEntries {
		t.Fatalf("expected rejected entry not to be redelivered, got %d entries err=%v", len(again), err)
	}
}

func TestProcessApprovedEntryIsPublished(t *testing.T) {
	b := bus.NewMemoryBus(1_700_000_000_000)
	ctx := context.Background()

	e := &Engine{b: b, cfg: baseCfg(), log: testLogger()}

	if err := b.EnsureGroup(ctx, inputStream, groupName); err != nil {
		t.Fatalf("ensure group: %v", err)
	}
	if err := b.EnsureGroup(ctx, outputStream, "downstream"); err != nil {
		t.Fatalf("ensure group: %v", err)
	}
	data, err := models.Marshal(baseOpportunity())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := b.Append(ctx, inputStream, data); err != nil {
		t.Fatalf("append: %v", err)
	}

	entries, err := b.Read(ctx, inputStream, groupName, consumerName, 10, 0)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, entry := range entries {
		e.process(ctx, entry)
	}

	out, err := b.Read(ctx, outputStream, "downstream", "c1", 10, 0)
	if err != nil {
		t.Fatalf("expected one approved entry, got err=%v", err)
	}
	var opp models.Opportunity
	if err := models.Unmarshal(out[0].Data, &opp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !opp.Approved || opp.Risk == nil {
		t.Fatalf("expected approved=true with an embedded risk block, got %+v", opp)
	}
}
