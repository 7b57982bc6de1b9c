package scanner

import (
	"context"
	"testing"
	"time"

	"arbitrage/internal/bus"
	"arbitrage/internal/config"
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

func testScanner(t *testing.T, b *bus.MemoryBus) *Scanner {
	t.Helper()
	cfg := config.ScannerConfig{
		ScanInterval:   50 * time.Millisecond,
		MaxSymbols:     100,
		DiscoverEvery:  time.Hour,
		MinGrossBps:    10,
		MinNetBps:      5,
		MinAbsSpread:   0.01,
		MinNotional:    1,
		MaxBookAgeMs:   2000,
		EmitRatePerSec: 1000,
		EmitBurst:      1000,
	}
	log := utils.InitLogger(utils.LogConfig{Level: "error"})
	return New(b, cfg, TakerBps{}, "binance", "bybit", true, log)
}

func writeQuote(t *testing.T, b *bus.MemoryBus, venue, instrument string, bid, ask float64, ts int64) {
	t.Helper()
	data, err := models.Marshal(models.QuoteSnapshot{Venue: venue, InstrumentID: instrument, Bid: bid, Ask: ask, Ts: ts})
	if err != nil {
		t.Fatalf("marshal quote: %v", err)
	}
	if err := b.Set(context.Background(), "quote:"+venue+":"+instrument, string(data), 0); err != nil {
		t.Fatalf("set quote: %v", err)
	}
}

func TestScannerEmitsOnProfitablePath(t *testing.T) {
	b := bus.NewMemoryBus(1_700_000_000_000)
	ctx := context.Background()
	tNow, _ := b.Now(ctx)

	writeQuote(t, b, "binance", "BTCUSDT", 100, 100, tNow)
	writeQuote(t, b, "bybit", "BTCUSDT", 101, 101, tNow)

	s := testScanner(t, b)
	s.universe = []UniverseEntry{{Canonical: "BTCUSDT", NativeA: "BTCUSDT", NativeB: "BTCUSDT"}}
	s.lastDiscovery = time.Now()

	if err := b.EnsureGroup(ctx, opportunitiesStream, "executor"); err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}

	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	entries, err := b.Read(ctx, opportunitiesStream, "executor", "c1", 10, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one opportunity (the profitable path), got %d", len(entries))
	}

	var opp models.Opportunity
	if err := models.Unmarshal(entries[0].Data, &opp); err != nil {
		t.Fatalf("unmarshal opportunity: %v", err)
	}
	buy, sell, ok := opp.BuySellLegs()
	if !ok {
		t.Fatal("expected exactly one BUY and one SELL leg")
	}
	if buy.Exchange != "binance" || sell.Exchange != "bybit" {
		t.Errorf("unexpected leg venues: buy=%s sell=%s", buy.Exchange, sell.Exchange)
	}
}

func TestScannerDropsStaleBook(t *testing.T) {
	b := bus.NewMemoryBus(1_700_000_000_000)
	ctx := context.Background()
	tNow, _ := b.Now(ctx)

	writeQuote(t, b, "binance", "BTCUSDT", 100, 100, tNow-3000)
	writeQuote(t, b, "bybit", "BTCUSDT", 101, 101, tNow)

	s := testScanner(t, b)
	s.universe = []UniverseEntry{{Canonical: "BTCUSDT", NativeA: "BTCUSDT", NativeB: "BTCUSDT"}}
	s.lastDiscovery = time.Now()
	b.EnsureGroup(ctx, opportunitiesStream, "executor")

	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	_, err := b.Read(ctx, opportunitiesStream, "executor", "c1", 10, 0)
	if err != bus.ErrNoEntries {
		t.Fatalf("expected no opportunities for a stale book, got err=%v", err)
	}
}

func TestScannerPathSymmetry(t *testing.T) {
	p1 := computePathEdge("binance", "bybit", 100, 101, TakerBps{})
	p2 := computePathEdge("bybit", "binance", 101, 100, TakerBps{})

	if p1.GrossBps != -p2.GrossBps {
		t.Errorf("expected symmetric edges, got %v and %v", p1.GrossBps, p2.GrossBps)
	}
}

func TestScannerEdgeAtExactThresholdAdmits(t *testing.T) {
	b := bus.NewMemoryBus(1_700_000_000_000)
	ctx := context.Background()
	tNow, _ := b.Now(ctx)

	// mid = 100.05, abs = 0.1, grossBps = 0.1/100.05*10000 ~= 9.995; MinGrossBps is set to
	// that same computed value so the edge lands exactly on the threshold
	writeQuote(t, b, "binance", "BTCUSDT", 100, 100, tNow)
	writeQuote(t, b, "bybit", "BTCUSDT", 100.1, 100.1, tNow)

	s := testScanner(t, b)
	s.cfg.MinGrossBps = computePathEdge("binance", "bybit", 100, 100.1, TakerBps{}).GrossBps
	s.cfg.MinNetBps = -1000
	s.universe = []UniverseEntry{{Canonical: "BTCUSDT", NativeA: "BTCUSDT", NativeB: "BTCUSDT"}}
	s.lastDiscovery = time.Now()
	b.EnsureGroup(ctx, opportunitiesStream, "executor")

	if err := s.Tick(ctx); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	entries, err := b.Read(ctx, opportunitiesStream, "executor", "c1", 10, 0)
	if err != nil {
		t.Fatalf("expected an admitted opportunity at/above threshold, got err=%v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected at least one admitted opportunity")
	}
}
