package assembler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"arbitrage/internal/bus"
	"arbitrage/internal/models"
	"arbitrage/internal/websocket"
	"arbitrage/pkg/utils"
)

const (
	inputStream  = "orders.fills"
	outputStream = "arb.trades"
	groupName    = "asm"
	consumerName = "asm-1"
)

// tradeStore is the persistence seam the Assembler depends on; *Store
// satisfies it against Postgres, a fake satisfies it in tests.
type tradeStore interface {
	Save(ctx context.Context, corrID string, trade models.Trade) error
}

// pendingEntry accumulates fills for one corrId until a BUY/SELL pair is
// observed. Unlike the executor's inflight table, the assembler does not
// assume any arrival order between legs.
type pendingEntry struct {
	legs []models.FillPayload
	ts   int64
	mode string
}

// Assembler independently reconstructs Trades from Fills, regardless of
// whether the executor already emitted its own filtered Trade for the
// same corrId. This is the unfiltered record accounting consumes.
type Assembler struct {
	b     bus.Bus
	store tradeStore
	log   *utils.Logger

	mu      sync.Mutex
	pending map[string]*pendingEntry

	recent *recentTrades
	hub    *websocket.Hub
}

func New(b bus.Bus, store *Store, log *utils.Logger) *Assembler {
	return newWithStore(b, store, log)
}

func newWithStore(b bus.Bus, store tradeStore, log *utils.Logger) *Assembler {
	return &Assembler{
		b:       b,
		store:   store,
		log:     log.WithComponent("assembler"),
		pending: make(map[string]*pendingEntry),
		recent:  newRecentTrades(100),
	}
}

// RecentTrades returns a snapshot of the last assembled trades, newest
// first, for the /v1/trades/recent debug endpoint.
func (a *Assembler) RecentTrades() []models.Trade {
	return a.recent.snapshot()
}

// SetHub wires a debug WebSocket hub; every assembled Trade is broadcast
// to its subscribers in addition to being persisted and appended.
func (a *Assembler) SetHub(h *websocket.Hub) {
	a.hub = h
}

// Run ensures the "asm" consumer group exists and processes Fills until
// ctx is canceled.
func (a *Assembler) Run(ctx context.Context) error {
	if err := a.b.EnsureGroup(ctx, inputStream, groupName); err != nil {
		return fmt.Errorf("ensure group: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		entries, err := a.b.Read(ctx, inputStream, groupName, consumerName, 50, time.Second)
		if err == bus.ErrNoEntries {
			continue
		}
		if err != nil {
			a.log.Warn("read failed", utils.Err(err))
			time.Sleep(300 * time.Millisecond)
			continue
		}

		for _, entry := range entries {
			a.process(ctx, entry)
		}
	}
}

func (a *Assembler) process(ctx context.Context, entry bus.Entry) {
	defer func() {
		if err := a.b.Ack(ctx, inputStream, groupName, entry.ID); err != nil {
			a.log.Warn("ack failed", utils.Err(err))
		}
	}()

	var fill models.Fill
	if err := models.Unmarshal(entry.Data, &fill); err != nil {
		parseErrors.Inc()
		return
	}
	p := fill.Payload

	a.mu.Lock()
	pe, ok := a.pending[p.CorrID]
	if !ok {
		pe = &pendingEntry{ts: fill.Ts, mode: p.Mode}
		a.pending[p.CorrID] = pe
	}
	pe.legs = append(pe.legs, p)
	buy, sell, joined := joinPair(pe.legs)
	if joined {
		delete(a.pending, p.CorrID)
	}
	pendingSize.Set(float64(len(a.pending)))
	a.mu.Unlock()

	if !joined {
		return
	}

	size := minFloat(buy.FilledSize, sell.FilledSize)
	pnl := (sell.Px - buy.Px) * size

	trade := models.Trade{
		Ts:          pe.ts,
		Mode:        modeFromLegs(pe.mode, buy, sell),
		Legs:        []models.TradeLeg{legToTradeLeg(buy), legToTradeLeg(sell)},
		RealizedPnl: pnl,
		Source:      models.SourceAssembler,
		CorrID:      p.CorrID,
	}

	if err := a.store.Save(ctx, p.CorrID, trade); err != nil {
		a.log.Warn("persist trade failed", utils.Err(err), utils.String("corr_id", p.CorrID))
		persistFailures.Inc()
	}

	data, err := models.Marshal(trade)
	if err != nil {
		a.log.Error("marshal trade", utils.Err(err))
		return
	}
	if _, err := a.b.Append(ctx, outputStream, data); err != nil {
		a.log.Warn("append trade failed", utils.Err(err))
		return
	}
	tradesEmitted.Inc()
	a.recent.add(trade)
	if a.hub != nil {
		a.hub.BroadcastTrade(trade)
	}
}

// joinPair reports whether legs contains at least one BUY and one SELL,
// returning the first of each in (buy, sell) order regardless of arrival
// order. Further fills on an already-seen side are ignored.
func joinPair(legs []models.FillPayload) (buy, sell models.FillPayload, ok bool) {
	var buyFound, sellFound bool
	for _, l := range legs {
		switch l.Side {
		case models.SideBuy:
			if !buyFound {
				buy, buyFound = l, true
			}
		case models.SideSell:
			if !sellFound {
				sell, sellFound = l, true
			}
		}
	}
	return buy, sell, buyFound && sellFound
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func legToTradeLeg(f models.FillPayload) models.TradeLeg {
	return models.TradeLeg{
		Exchange:     f.Exchange,
		InstrumentID: f.InstrumentID,
		Side:         f.Side,
		Px:           f.Px,
		FilledSize:   f.FilledSize,
	}
}

// modeFromLegs prefers the mode carried on the fills (set by the
// simulator from the Order's mode field); falls back to the pending
// entry's first-observed mode when fills don't carry one.
func modeFromLegs(pendingMode string, buy, sell models.FillPayload) string {
	if buy.Mode != "" {
		return buy.Mode
	}
	if sell.Mode != "" {
		return sell.Mode
	}
	if pendingMode != "" {
		return pendingMode
	}
	return models.ModePaper
}
