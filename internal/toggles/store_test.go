package toggles

import (
	"context"
	"testing"
	"time"

	"arbitrage/internal/bus"
)

func TestStoreDefaultsWhenKeysAbsent(t *testing.T) {
	b := bus.NewMemoryBus(0)
	s := NewStore(b, time.Minute, false, "paper")

	cur, err := s.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if cur.AutoTrade != false || !cur.Paper {
		t.Errorf("got %+v, want defaults (false, paper)", cur)
	}
}

func TestStoreReadsWrittenValues(t *testing.T) {
	b := bus.NewMemoryBus(0)
	s := NewStore(b, time.Minute, false, "paper")
	ctx := context.Background()

	if err := s.SetAutoTrade(ctx, true); err != nil {
		t.Fatalf("SetAutoTrade: %v", err)
	}
	if err := s.SetMode(ctx, "live"); err != nil {
		t.Fatalf("SetMode: %v", err)
	}

	cur, err := s.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !cur.AutoTrade {
		t.Error("expected AutoTrade=true after SetAutoTrade(true)")
	}
	if cur.Paper {
		t.Error("expected Paper=false after SetMode(\"live\")")
	}
}

func TestStoreCachesUntilRefreshInterval(t *testing.T) {
	b := bus.NewMemoryBus(0)
	s := NewStore(b, time.Hour, false, "paper")
	ctx := context.Background()

	if _, err := s.Current(ctx); err != nil {
		t.Fatalf("Current: %v", err)
	}

	if err := s.SetAutoTrade(ctx, true); err != nil {
		t.Fatalf("SetAutoTrade: %v", err)
	}

	cur, err := s.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.AutoTrade {
		t.Error("expected cached value (false) before refresh interval elapses")
	}

	cur, err = s.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !cur.AutoTrade {
		t.Error("expected AutoTrade=true after explicit Refresh")
	}
}
