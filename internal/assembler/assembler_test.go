package assembler

import (
	"context"
	"sync"
	"testing"

	"arbitrage/internal/bus"
	"arbitrage/internal/models"
	"arbitrage/pkg/utils"
)

// fakeStore records Save calls in-process instead of hitting Postgres.
type fakeStore struct {
	mu    sync.Mutex
	saved map[string]models.Trade
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: make(map[string]models.Trade)}
}

func (f *fakeStore) Save(ctx context.Context, corrID string, trade models.Trade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved[corrID] = trade
	return nil
}

func appendFill(t *testing.T, b *bus.MemoryBus, fill models.Fill) {
	t.Helper()
	data, err := models.Marshal(fill)
	if err != nil {
		t.Fatalf("marshal fill: %v", err)
	}
	if _, err := b.Append(context.Background(), inputStream, data); err != nil {
		t.Fatalf("append fill: %v", err)
	}
}

// TestAssemblerJoinsFillsRegardlessOfOrder mirrors testable property #2:
// a BUY/SELL fill pair for the same corrId, in either arrival order,
// produces exactly one Trade with source="assembler" and
// realizedPnl=(sellPx-buyPx)*min(filledSize).
func TestAssemblerJoinsFillsRegardlessOfOrder(t *testing.T) {
	for _, sellFirst := range []bool{false, true} {
		b := bus.NewMemoryBus(1_700_000_000_000)
		ctx := context.Background()
		store := newFakeStore()
		log := utils.InitLogger(utils.LogConfig{Level: "error"})
		asm := newWithStore(b, store, log)

		if err := b.EnsureGroup(ctx, inputStream, groupName); err != nil {
			t.Fatalf("EnsureGroup: %v", err)
		}
		if err := b.EnsureGroup(ctx, outputStream, "test"); err != nil {
			t.Fatalf("EnsureGroup: %v", err)
		}

		buyFill := models.Fill{Payload: models.FillPayload{
			CorrID: "corr-1", LegIndex: 0, Side: models.SideBuy, Px: 100, FilledSize: 1,
		}}
		sellFill := models.Fill{Payload: models.FillPayload{
			CorrID: "corr-1", LegIndex: 1, Side: models.SideSell, Px: 101, FilledSize: 1,
		}}

		if sellFirst {
			appendFill(t, b, sellFill)
			appendFill(t, b, buyFill)
		} else {
			appendFill(t, b, buyFill)
			appendFill(t, b, sellFill)
		}

		entries, err := b.Read(ctx, inputStream, groupName, consumerName, 10, 0)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		for _, e := range entries {
			asm.process(ctx, e)
		}

		trades, err := b.Read(ctx, outputStream, "test", "t1", 10, 0)
		if err != nil {
			t.Fatalf("Read trades: %v", err)
		}
		if len(trades) != 1 {
			t.Fatalf("sellFirst=%v: expected 1 trade, got %d", sellFirst, len(trades))
		}

		var trade models.Trade
		if err := models.Unmarshal(trades[0].Data, &trade); err != nil {
			t.Fatalf("unmarshal trade: %v", err)
		}
		if trade.RealizedPnl != 1.0 {
			t.Errorf("sellFirst=%v: realizedPnl = %v, want 1.0", sellFirst, trade.RealizedPnl)
		}
		if trade.Source != models.SourceAssembler {
			t.Errorf("sellFirst=%v: source = %v, want assembler", sellFirst, trade.Source)
		}
		if _, ok := store.saved["corr-1"]; !ok {
			t.Errorf("sellFirst=%v: trade not persisted", sellFirst)
		}
		if len(asm.pending) != 0 {
			t.Errorf("sellFirst=%v: pending size = %d, want 0 after join", sellFirst, len(asm.pending))
		}
	}
}

func TestAssemblerDoesNotJoinTwoFillsSameSide(t *testing.T) {
	b := bus.NewMemoryBus(1_700_000_000_000)
	ctx := context.Background()
	store := newFakeStore()
	log := utils.InitLogger(utils.LogConfig{Level: "error"})
	asm := newWithStore(b, store, log)

	if err := b.EnsureGroup(ctx, inputStream, groupName); err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}
	if err := b.EnsureGroup(ctx, outputStream, "test"); err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}

	appendFill(t, b, models.Fill{Payload: models.FillPayload{CorrID: "corr-2", LegIndex: 0, Side: models.SideBuy, Px: 100, FilledSize: 1}})
	appendFill(t, b, models.Fill{Payload: models.FillPayload{CorrID: "corr-2", LegIndex: 1, Side: models.SideBuy, Px: 99, FilledSize: 1}})

	entries, err := b.Read(ctx, inputStream, groupName, consumerName, 10, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	for _, e := range entries {
		asm.process(ctx, e)
	}

	trades, err := b.Read(ctx, outputStream, "test", "t1", 10, 0)
	if err != nil {
		t.Fatalf("Read trades: %v", err)
	}
	if len(trades) != 0 {
		t.Fatalf("expected no trade from two same-side fills, got %d", len(trades))
	}
	if len(asm.pending) != 1 {
		t.Errorf("pending size = %d, want 1 (still awaiting a SELL)", len(asm.pending))
	}
}
