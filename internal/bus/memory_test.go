package bus

import (
	"context"
	"testing"
)

func TestMemoryBusAppendAndRead(t *testing.T) {
	b := NewMemoryBus(1000)
	ctx := context.Background()

	if err := b.EnsureGroup(ctx, "s1", "g1"); err != nil {
		t.Fatalf("EnsureGroup: %v", err)
	}

	if _, err := b.Append(ctx, "s1", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := b.Append(ctx, "s1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := b.Read(ctx, "s1", "g1", "c1", 10, 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if string(entries[0].Data) != `{"a":1}` {
		t.Errorf("unexpected first entry: %s", entries[0].Data)
	}

	if _, err := b.Read(ctx, "s1", "g1", "c1", 10, 0); err != ErrNoEntries {
		t.Fatalf("expected ErrNoEntries on empty read, got %v", err)
	}
}

func TestMemoryBusGroupsAreIndependent(t *testing.T) {
	b := NewMemoryBus(0)
	ctx := context.Background()

	b.EnsureGroup(ctx, "s1", "g1")
	b.Append(ctx, "s1", []byte("x"))
	b.EnsureGroup(ctx, "s1", "g2")
	b.Append(ctx, "s1", []byte("y"))

	g1, err := b.Read(ctx, "s1", "g1", "c1", 10, 0)
	if err != nil {
		t.Fatalf("Read g1: %v", err)
	}
	if len(g1) != 2 {
		t.Fatalf("g1 expected both entries, got %d", len(g1))
	}

	g2, err := b.Read(ctx, "s1", "g2", "c1", 10, 0)
	if err != nil {
		t.Fatalf("Read g2: %v", err)
	}
	if len(g2) != 1 {
		t.Fatalf("g2 expected only the entry appended after its creation, got %d", len(g2))
	}
}

func TestMemoryBusSetGet(t *testing.T) {
	b := NewMemoryBus(0)
	ctx := context.Background()

	if err := b.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	val, ok, err := b.Get(ctx, "k")
	if err != nil || !ok || val != "v" {
		t.Fatalf("Get = (%q, %v, %v), want (\"v\", true, nil)", val, ok, err)
	}

	_, ok, err = b.Get(ctx, "missing")
	if err != nil || ok {
		t.Fatalf("Get missing key = (_, %v, %v), want (_, false, nil)", ok, err)
	}
}

func TestMemoryBusMGet(t *testing.T) {
	b := NewMemoryBus(0)
	ctx := context.Background()

	b.Set(ctx, "a", "1", 0)
	b.Set(ctx, "b", "2", 0)

	values, found, err := b.MGet(ctx, "a", "missing", "b")
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	want := []string{"1", "", "2"}
	wantFound := []bool{true, false, true}
	for i := range values {
		if values[i] != want[i] || found[i] != wantFound[i] {
			t.Errorf("index %d: got (%q, %v), want (%q, %v)", i, values[i], found[i], want[i], wantFound[i])
		}
	}
}

func TestMemoryBusNowAdvances(t *testing.T) {
	b := NewMemoryBus(1000)
	ctx := context.Background()

	t0, _ := b.Now(ctx)
	b.Append(ctx, "s1", []byte("x"))
	t1, _ := b.Now(ctx)

	if t1 <= t0 {
		t.Fatalf("expected clock to advance past %d, got %d", t0, t1)
	}
}
