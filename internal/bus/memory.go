package bus

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryBus is an in-process Bus used by unit tests. A single mutex
// guards all state; this is a test double, not a performance-sensitive
// path, so no sharding is needed.
type MemoryBus struct {
	mu sync.Mutex

	nextID  int64
	streams map[string][]Entry
	groups  map[string]map[string]int // stream -> group -> next unread index
	kv      map[string]memVal
	clock   int64
}

type memVal struct {
	value   string
	expires time.Time
	hasTTL  bool
}

// NewMemoryBus returns an empty bus whose wall-clock starts at startMs
// and advances by one millisecond on every Append/Set call, so ordering
// assertions in tests don't depend on real time.
func NewMemoryBus(startMs int64) *MemoryBus {
	return &MemoryBus{
		streams: make(map[string][]Entry),
		groups:  make(map[string]map[string]int),
		kv:      make(map[string]memVal),
		clock:   startMs,
	}
}

func (b *MemoryBus) tick() int64 {
	b.clock++
	return b.clock
}

func (b *MemoryBus) Append(ctx context.Context, stream string, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.tick()
	id := fmt.Sprintf("%d-0", b.nextID)
	b.streams[stream] = append(b.streams[stream], Entry{ID: id, Data: data})
	return id, nil
}

func (b *MemoryBus) EnsureGroup(ctx context.Context, stream, group string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.streams[stream]; !ok {
		b.streams[stream] = nil
	}
	if b.groups[stream] == nil {
		b.groups[stream] = make(map[string]int)
	}
	if _, exists := b.groups[stream][group]; !exists {
		b.groups[stream][group] = len(b.streams[stream])
	}
	return nil
}

func (b *MemoryBus) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error) {
	b.mu.Lock()
	entries := b.streams[stream]
	offset, ok := b.groups[stream][group]
	if !ok {
		b.mu.Unlock()
		return nil, fmt.Errorf("bus: no such group %q on stream %q", group, stream)
	}
	if offset >= len(entries) {
		b.mu.Unlock()
		return nil, ErrNoEntries
	}

	end := offset + int(count)
	if count <= 0 || end > len(entries) {
		end = len(entries)
	}
	out := make([]Entry, end-offset)
	copy(out, entries[offset:end])
	b.groups[stream][group] = end
	b.mu.Unlock()

	return out, nil
}

func (b *MemoryBus) Ack(ctx context.Context, stream, group string, ids ...string) error {
	return nil
}

func (b *MemoryBus) Get(ctx context.Context, key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	v, ok := b.kv[key]
	if !ok {
		return "", false, nil
	}
	if v.hasTTL && time.Now().After(v.expires) {
		delete(b.kv, key)
		return "", false, nil
	}
	return v.value, true, nil
}

func (b *MemoryBus) MGet(ctx context.Context, keys ...string) ([]string, []bool, error) {
	values := make([]string, len(keys))
	found := make([]bool, len(keys))
	for i, k := range keys {
		v, ok, _ := b.Get(ctx, k)
		values[i], found[i] = v, ok
	}
	return values, found, nil
}

func (b *MemoryBus) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.tick()
	v := memVal{value: value}
	if ttl > 0 {
		v.hasTTL = true
		v.expires = time.Now().Add(ttl)
	}
	b.kv[key] = v
	return nil
}

func (b *MemoryBus) Now(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock, nil
}

func (b *MemoryBus) Close() error {
	return nil
}
