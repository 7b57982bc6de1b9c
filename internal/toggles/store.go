// Package toggles wraps the two externally-mutable control keys in the
// bus's key-value view: toggles:autoTrade and toggles:mode.
package toggles

import (
	"context"
	"sync"
	"time"

	"arbitrage/internal/bus"
	"arbitrage/internal/models"
)

const (
	keyAutoTrade = "toggles:autoTrade"
	keyMode      = "toggles:mode"
)

// Store caches the toggle values and refreshes them from the bus on a
// fixed cadence, so hot-path readers never block on a KV round trip.
type Store struct {
	b             bus.Bus
	refreshEvery  time.Duration
	defaultAuto   bool
	defaultMode   string

	mu       sync.RWMutex
	current  models.Toggles
	lastRead time.Time
}

// NewStore seeds the cache with defaultAuto/defaultMode; the first
// Refresh call overwrites them if the keys are present on the bus.
func NewStore(b bus.Bus, refreshEvery time.Duration, defaultAuto bool, defaultMode string) *Store {
	return &Store{
		b:            b,
		refreshEvery: refreshEvery,
		defaultAuto:  defaultAuto,
		defaultMode:  defaultMode,
		current:      models.Toggles{AutoTrade: defaultAuto, Paper: defaultMode != "live"},
	}
}

// Current returns the last-read toggle values, refreshing first if the
// cache is older than refreshEvery. On a bus read failure the last-known
// value is kept and the error is returned for the caller to log.
func (s *Store) Current(ctx context.Context) (models.Toggles, error) {
	s.mu.RLock()
	stale := time.Since(s.lastRead) >= s.refreshEvery
	cur := s.current
	s.mu.RUnlock()

	if !stale {
		return cur, nil
	}
	return s.Refresh(ctx)
}

// Refresh unconditionally re-reads both keys from the bus.
func (s *Store) Refresh(ctx context.Context) (models.Toggles, error) {
	values, found, err := s.b.MGet(ctx, keyAutoTrade, keyMode)
	if err != nil {
		s.mu.RLock()
		cur := s.current
		s.mu.RUnlock()
		return cur, err
	}

	next := models.Toggles{AutoTrade: s.defaultAuto, Paper: s.defaultMode != "live"}
	if len(found) > 0 && found[0] {
		next.AutoTrade = models.ParseBoolToggle(values[0])
	}
	if len(found) > 1 && found[1] {
		next.Paper = values[1] != "live"
	}

	s.mu.Lock()
	s.current = next
	s.lastRead = time.Now()
	s.mu.Unlock()

	return next, nil
}

// SetAutoTrade writes the canonical "true"/"false" string for on. It takes
// a bool; raw operator synonyms (1/0, yes/no, on/off) are parsed by
// models.ParseBoolToggle, which Refresh applies when reading the key.
func (s *Store) SetAutoTrade(ctx context.Context, on bool) error {
	val := "false"
	if on {
		val = "true"
	}
	return s.b.Set(ctx, keyAutoTrade, val, 0)
}

// SetMode writes "paper" or "live" verbatim.
func (s *Store) SetMode(ctx context.Context, mode string) error {
	return s.b.Set(ctx, keyMode, mode, 0)
}
