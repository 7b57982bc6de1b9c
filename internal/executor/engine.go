// Package executor drives the Router-Executor: a per-opportunity,
// protective-leg-first state machine that reads candidate or approved
// Opportunities (depending on the autoTrade toggle), emits Orders,
// joins Fills by corrId, and emits Trades.
package executor

import (
	"context"
	"fmt"
	"time"

	"arbitrage/internal/bus"
	"arbitrage/internal/config"
	"arbitrage/internal/models"
	"arbitrage/internal/toggles"
	"arbitrage/internal/websocket"
	"arbitrage/pkg/utils"
)

const (
	preRiskStream  = "arb.opportunities"
	approvedStream = "arb.approved"
	ordersStream   = "orders.new"
	fillsStream    = "orders.fills"
	tradesStream   = "arb.trades"
	groupName      = "executor"
	consumerName   = "executor-1"
)

// Engine owns the inflight table and drives the consumer loop described
// in spec.md §4.3: a single-threaded tick that refreshes toggles,
// selects the input stream, drains a bounded batch from it, then drains
// a bounded batch of fills.
type Engine struct {
	b     bus.Bus
	cfg   config.ExecutorConfig
	store *toggles.Store
	log   *utils.Logger

	inflight *inflightTable

	recent *recentTrades
	hub    *websocket.Hub
}

// New builds an Engine. store must already be seeded with the configured
// toggle defaults (see toggles.NewStore).
func New(b bus.Bus, cfg config.ExecutorConfig, store *toggles.Store, log *utils.Logger) *Engine {
	return &Engine{
		b:        b,
		cfg:      cfg,
		store:    store,
		log:      log.WithComponent("executor"),
		inflight: newInflightTable(),
		recent:   newRecentTrades(100),
	}
}

// RecentTrades returns a snapshot of the last trades this executor
// emitted, newest first, for the /v1/trades/recent debug endpoint.
func (e *Engine) RecentTrades() []models.Trade {
	return e.recent.snapshot()
}

// SetHub wires a debug WebSocket hub; every emitted Trade is broadcast
// to its subscribers in addition to being appended to arb.trades. Safe
// to leave unset: settle only broadcasts when hub is non-nil.
func (e *Engine) SetHub(h *websocket.Hub) {
	e.hub = h
}

// Run ensures both candidate streams plus the fills stream have a
// durable "executor" consumer group, then loops until ctx is canceled.
func (e *Engine) Run(ctx context.Context) error {
	for _, s := range []string{preRiskStream, approvedStream, fillsStream} {
		if err := e.b.EnsureGroup(ctx, s, groupName); err != nil {
			return fmt.Errorf("ensure group on %s: %w", s, err)
		}
	}

	go e.evictLoop(ctx)

	prevAutoTrade := false
	haveToggle := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tg, err := e.store.Current(ctx)
		if err != nil {
			e.log.Warn("toggle refresh failed, using last-known value", utils.Err(err))
		}
		if !haveToggle {
			prevAutoTrade = tg.AutoTrade
			haveToggle = true
		}
		if prevAutoTrade && !tg.AutoTrade {
			n := e.inflight.clear()
			inflightCleared.Add(float64(n))
			e.log.Info("autoTrade false edge: inflight table flushed", utils.Int("cleared", n))
		}
		prevAutoTrade = tg.AutoTrade

		stream := selectStream(tg.AutoTrade)
		setActiveStream(stream)

		e.drainOpportunities(ctx, stream)
		e.drainFills(ctx)

		inflightSize.Set(float64(e.inflight.size()))
	}
}

func selectStream(autoTrade bool) string {
	if autoTrade {
		return preRiskStream
	}
	return approvedStream
}

func setActiveStream(stream string) {
	for _, s := range []string{preRiskStream, approvedStream} {
		v := 0.0
		if s == stream {
			v = 1.0
		}
		activeStream.WithLabelValues(s).Set(v)
	}
}

func (e *Engine) drainOpportunities(ctx context.Context, stream string) {
	entries, err := e.b.Read(ctx, stream, groupName, consumerName, 50, 500*time.Millisecond)
	if err == bus.ErrNoEntries {
		return
	}
	if err != nil {
		e.log.Warn("read opportunities failed", utils.Err(err))
		time.Sleep(300 * time.Millisecond)
		return
	}
	for _, entry := range entries {
		e.handleOpportunity(ctx, stream, entry)
	}
}

func (e *Engine) drainFills(ctx context.Context) {
	entries, err := e.b.Read(ctx, fillsStream, groupName, consumerName, 50, 500*time.Millisecond)
	if err == bus.ErrNoEntries {
		return
	}
	if err != nil {
		e.log.Warn("read fills failed", utils.Err(err))
		time.Sleep(300 * time.Millisecond)
		return
	}
	for _, entry := range entries {
		e.handleFill(ctx, entry)
	}
}

func (e *Engine) handleOpportunity(ctx context.Context, stream string, entry bus.Entry) {
	defer e.ack(ctx, stream, entry.ID)

	var opp models.Opportunity
	if err := models.Unmarshal(entry.Data, &opp); err != nil {
		dropsTotal.WithLabelValues("parse_error").Inc()
		return
	}
	if len(opp.Payload.Legs) == 0 {
		dropsTotal.WithLabelValues("no_legs").Inc()
		return
	}

	legs := reorderProtectiveFirst(opp.Payload.Legs)
	e.inflight.start(opp.ID, opp, legs)
	e.emitLeg(ctx, opp.ID, 0, legs[0], models.ModeFromPaper(opp.Payload.Paper))
}

func (e *Engine) handleFill(ctx context.Context, entry bus.Entry) {
	defer e.ack(ctx, fillsStream, entry.ID)

	var fill models.Fill
	if err := models.Unmarshal(entry.Data, &fill); err != nil {
		dropsTotal.WithLabelValues("parse_error").Inc()
		return
	}

	p := fill.Payload
	inflightEntry, ok := e.inflight.setFill(p.CorrID, p.LegIndex, p)
	if !ok {
		// Race after a toggle-edge flush, or a fill for a corrId this
		// process never started. Acknowledge and drop.
		dropsTotal.WithLabelValues("unknown_corr_id").Inc()
		return
	}

	if p.LegIndex == 0 {
		if p.FilledSize <= 0 {
			e.inflight.remove(p.CorrID)
			legsAborted.Inc()
			return
		}
		if len(inflightEntry.legs) > 1 {
			e.emitLeg(ctx, p.CorrID, 1, inflightEntry.legs[1], models.ModeFromPaper(inflightEntry.opp.Payload.Paper))
			return
		}
		// Single-leg opportunity: the first positive fill is terminal.
		e.settle(ctx, p.CorrID, inflightEntry)
		return
	}

	if p.LegIndex == len(inflightEntry.legs)-1 {
		e.settle(ctx, p.CorrID, inflightEntry)
	}
}

func (e *Engine) emitLeg(ctx context.Context, corrID string, legIndex int, leg models.Leg, mode string) {
	ts, err := e.b.Now(ctx)
	if err != nil {
		e.log.Warn("read bus clock failed, order not sent", utils.Err(err), utils.String("corr_id", corrID))
		return
	}

	order := models.NewOrder(orderID(corrID, legIndex), ts, corrID, legIndex, leg, mode)
	data, err := models.Marshal(order)
	if err != nil {
		e.log.Error("marshal order", utils.Err(err))
		return
	}
	if _, err := e.b.Append(ctx, ordersStream, data); err != nil {
		// Bus write failures abort this transition; the inflight entry
		// is left in place. A retry of the Order would be incorrect
		// under IOC semantics, so none is attempted.
		e.log.Warn("append order failed", utils.Err(err), utils.String("corr_id", corrID))
		return
	}
	ordersEmitted.Inc()
}

// settle computes realized PnL for the completed state machine and, if
// it clears the configured floor, emits a Trade. The inflight entry is
// removed either way.
func (e *Engine) settle(ctx context.Context, corrID string, entry *inflightEntry) {
	defer e.inflight.remove(corrID)

	pnl := realizedPnl(entry.opp, entry.fills)
	if pnl <= e.cfg.MinRealizedPnl {
		tradesDiscarded.Inc()
		return
	}

	ts, err := e.b.Now(ctx)
	if err != nil {
		e.log.Warn("read bus clock failed, trade not emitted", utils.Err(err))
		return
	}

	trade := models.Trade{
		Ts:          ts,
		Mode:        models.ModeFromPaper(entry.opp.Payload.Paper),
		Legs:        tradeLegs(entry.fills),
		RealizedPnl: pnl,
		Taken:       true,
		Approved:    entry.opp.Approved,
		Source:      models.SourceExecutor,
		CorrID:      corrID,
	}

	data, err := models.Marshal(trade)
	if err != nil {
		e.log.Error("marshal trade", utils.Err(err))
		return
	}
	if _, err := e.b.Append(ctx, tradesStream, data); err != nil {
		e.log.Warn("append trade failed", utils.Err(err))
		return
	}
	tradesEmitted.Inc()
	e.recent.add(trade)
	if e.hub != nil {
		e.hub.BroadcastTrade(trade)
	}
}

func tradeLegs(fills []*models.FillPayload) []models.TradeLeg {
	out := make([]models.TradeLeg, 0, len(fills))
	for _, f := range fills {
		if f == nil {
			continue
		}
		out = append(out, models.TradeLeg{
			Exchange:     f.Exchange,
			InstrumentID: f.InstrumentID,
			Side:         f.Side,
			Px:           f.Px,
			FilledSize:   f.FilledSize,
		})
	}
	return out
}

func (e *Engine) ack(ctx context.Context, stream, id string) {
	if err := e.b.Ack(ctx, stream, groupName, id); err != nil {
		e.log.Warn("ack failed", utils.Err(err), utils.String("stream", stream))
	}
}

func (e *Engine) evictLoop(ctx context.Context) {
	if e.cfg.InflightTTL <= 0 {
		return
	}
	interval := e.cfg.InflightTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n := e.inflight.evictOlderThan(e.cfg.InflightTTL)
			if n > 0 {
				inflightEvicted.Add(float64(n))
				e.log.Info("evicted stale inflight entries", utils.Int("count", n))
			}
		}
	}
}

func orderID(corrID string, legIndex int) string {
	return fmt.Sprintf("ord-%s-%d-%d", corrID, legIndex, time.Now().UnixNano())
}
