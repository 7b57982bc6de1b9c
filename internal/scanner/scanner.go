// Package scanner polls the Quote View on a fixed cadence, computes
// cross-venue edges, and emits candidate Opportunities to the bus.
package scanner

import (
	"context"
	"fmt"
	"time"

	"arbitrage/internal/bus"
	"arbitrage/internal/config"
	"arbitrage/internal/models"
	"arbitrage/internal/websocket"
	"arbitrage/pkg/ratelimit"
	"arbitrage/pkg/utils"
)

const opportunitiesStream = "arb.opportunities"

// Scanner correlates quotes from two venues for a shared instrument
// universe and emits candidate Opportunities.
type Scanner struct {
	bus    bus.Bus
	cfg    config.ScannerConfig
	taker  TakerBps
	venueA string
	venueB string
	paper  bool
	// Options toggles canonical-id universe discovery for derivatives,
	// where native ids differ across venues but canonicalize to the
	// same instrument.
	Options bool

	limiter *ratelimit.RateLimiter
	log     *utils.Logger
	hub     *websocket.Hub

	universe      []UniverseEntry
	lastDiscovery time.Time
}

// SetHub wires a debug WebSocket hub; every admitted Opportunity is
// broadcast to its subscribers in addition to being appended to the
// stream. Safe to leave unset.
func (s *Scanner) SetHub(h *websocket.Hub) {
	s.hub = h
}

// New builds a Scanner for the venueA/venueB pair. paper marks every
// emitted Opportunity's payload.paper flag.
func New(b bus.Bus, cfg config.ScannerConfig, taker TakerBps, venueA, venueB string, paper bool, log *utils.Logger) *Scanner {
	return &Scanner{
		bus:     b,
		cfg:     cfg,
		taker:   taker,
		venueA:  venueA,
		venueB:  venueB,
		paper:   paper,
		limiter: ratelimit.NewRateLimiter(cfg.EmitRatePerSec, float64(cfg.EmitBurst)),
		log:     log.WithComponent("scanner"),
	}
}

// Run blocks, ticking every cfg.ScanInterval until ctx is canceled.
func (s *Scanner) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.log.Warn("scan tick failed", utils.Err(err))
			}
		}
	}
}

// Tick runs one full scan: universe refresh (if due), quote batch-fetch,
// edge computation, and admission.
func (s *Scanner) Tick(ctx context.Context) error {
	start := time.Now()
	defer func() {
		scanTickDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
	}()

	tNow, err := s.bus.Now(ctx)
	if err != nil {
		return fmt.Errorf("read bus clock: %w", err)
	}

	if time.Since(s.lastDiscovery) >= s.cfg.DiscoverEvery || s.universe == nil {
		if err := s.discoverUniverse(ctx); err != nil {
			s.log.Warn("universe discovery failed", utils.Err(err))
		}
	}
	universeSize.Set(float64(len(s.universe)))

	if len(s.universe) == 0 {
		return nil
	}

	keys := make([]string, 0, len(s.universe)*2)
	for _, e := range s.universe {
		keys = append(keys, quoteKey(s.venueA, e.NativeA), quoteKey(s.venueB, e.NativeB))
	}
	values, found, err := s.bus.MGet(ctx, keys...)
	if err != nil {
		return fmt.Errorf("multi-get quotes: %w", err)
	}

	for i, e := range s.universe {
		qaRaw, qaOK := values[2*i], found[2*i]
		qbRaw, qbOK := values[2*i+1], found[2*i+1]
		if !qaOK || !qbOK {
			dropsTotal.WithLabelValues("missing_side").Inc()
			continue
		}

		var qa, qb models.QuoteSnapshot
		if err := models.Unmarshal([]byte(qaRaw), &qa); err != nil {
			dropsTotal.WithLabelValues("parse_error").Inc()
			continue
		}
		if err := models.Unmarshal([]byte(qbRaw), &qb); err != nil {
			dropsTotal.WithLabelValues("parse_error").Inc()
			continue
		}

		age := qa.Age(tNow)
		if b := qb.Age(tNow); b > age {
			age = b
		}
		if age > s.cfg.MaxBookAgeMs {
			dropsTotal.WithLabelValues("stale_book").Inc()
			continue
		}

		s.evaluatePaths(ctx, tNow, e.Canonical, qa, qb)
	}

	return nil
}

// evaluatePaths computes both directional paths for one symbol and
// admits whichever clear every threshold.
func (s *Scanner) evaluatePaths(ctx context.Context, tNow int64, instrumentID string, qa, qb models.QuoteSnapshot) {
	pathA := computePathEdge(s.venueA, s.venueB, qa.Ask, qb.Bid, s.taker)
	pathB := computePathEdge(s.venueB, s.venueA, qb.Ask, qa.Bid, s.taker)

	s.admit(ctx, tNow, "A", instrumentID, pathA)
	s.admit(ctx, tNow, "B", instrumentID, pathB)
}

func (s *Scanner) admit(ctx context.Context, tNow int64, pathLabel, instrumentID string, p PathEdge) {
	if !(p.GrossBps >= s.cfg.MinGrossBps &&
		p.NetBps >= s.cfg.MinNetBps &&
		p.Abs >= s.cfg.MinAbsSpread &&
		p.Mid >= s.cfg.MinNotional) {
		dropsTotal.WithLabelValues("below_threshold").Inc()
		return
	}

	if !s.limiter.Allow() {
		dropsTotal.WithLabelValues("rate_limited").Inc()
		return
	}

	buy := p.Buy
	buy.InstrumentID = instrumentID
	sell := p.Sell
	sell.InstrumentID = instrumentID

	opp := models.Opportunity{
		ID: fmt.Sprintf("opp-%s-%s-%d", instrumentID, pathLabel, time.Now().UnixNano()),
		Ts: tNow,
		Payload: models.OpportunityPayload{
			Paper:   s.paper,
			EdgeBps: p.GrossBps,
			Legs:    []models.Leg{buy, sell},
		},
	}

	data, err := models.Marshal(opp)
	if err != nil {
		s.log.Error("marshal opportunity", utils.Err(err))
		return
	}

	if _, err := s.bus.Append(ctx, opportunitiesStream, data); err != nil {
		s.log.Warn("append opportunity failed", utils.Err(err))
		return
	}
	opportunitiesEmitted.WithLabelValues(pathLabel).Inc()
	if s.hub != nil {
		s.hub.BroadcastOpportunity(opp)
	}
}

func quoteKey(venue, instrumentID string) string {
	return fmt.Sprintf("quote:%s:%s", venue, instrumentID)
}

func metaKey(venue string) string {
	return fmt.Sprintf("meta:%s:symbols", venue)
}

// discoverUniverse reads each venue's published symbol list and
// intersects them, capping at cfg.MaxSymbols.
func (s *Scanner) discoverUniverse(ctx context.Context) error {
	values, found, err := s.bus.MGet(ctx, metaKey(s.venueA), metaKey(s.venueB))
	if err != nil {
		return err
	}

	var symbolsA, symbolsB []string
	if found[0] {
		if err := models.Unmarshal([]byte(values[0]), &symbolsA); err != nil {
			return fmt.Errorf("parse %s symbols: %w", s.venueA, err)
		}
	}
	if found[1] {
		if err := models.Unmarshal([]byte(values[1]), &symbolsB); err != nil {
			return fmt.Errorf("parse %s symbols: %w", s.venueB, err)
		}
	}

	if len(symbolsA) == 0 || len(symbolsB) == 0 {
		s.universe = nil
		s.lastDiscovery = time.Now()
		return nil
	}

	var universe []UniverseEntry
	if s.Options {
		universe = IntersectOptionUniverse(symbolsA, symbolsB)
	} else {
		universe = intersectSpotUniverse(symbolsA, symbolsB)
	}

	if len(universe) > s.cfg.MaxSymbols {
		universe = universe[:s.cfg.MaxSymbols]
	}

	s.universe = universe
	s.lastDiscovery = time.Now()
	return nil
}

func intersectSpotUniverse(symbolsA, symbolsB []string) []UniverseEntry {
	setB := make(map[string]bool, len(symbolsB))
	for _, s := range symbolsB {
		setB[s] = true
	}

	var out []UniverseEntry
	for _, s := range symbolsA {
		if setB[s] {
			out = append(out, UniverseEntry{Canonical: s, NativeA: s, NativeB: s})
		}
	}
	return out
}
