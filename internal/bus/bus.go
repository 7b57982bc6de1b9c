// Package bus hides the stream / group / ack / wall-clock operations
// behind a small interface so the log backend is replaceable.
package bus

import (
	"context"
	"errors"
	"time"
)

// ErrNoEntries is returned by Read when the blocking deadline elapses
// with nothing delivered. Callers should treat it as "nothing to do this
// tick", not as a failure.
var ErrNoEntries = errors.New("bus: no entries")

// Entry is one delivered stream record: a bus-assigned id and the raw
// `data` field contents.
type Entry struct {
	ID   string
	Data []byte
}

// Bus is the append-only log plus key-value view plus wall-clock that
// every component in the pipeline depends on.
type Bus interface {
	// Append writes data to stream as a single `data` field and returns
	// the bus-assigned entry id.
	Append(ctx context.Context, stream string, data []byte) (string, error)

	// EnsureGroup creates group on stream at the tail, with MKSTREAM
	// semantics. Creating a group that already exists is not an error.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read blocks up to block for up to count entries on stream for
	// group, delivered to consumer. Returns ErrNoEntries if the deadline
	// elapses with nothing delivered.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error)

	// Ack acknowledges ids on stream for group. Must be called exactly
	// once per delivered entry, including entries that failed to parse.
	Ack(ctx context.Context, stream, group string, ids ...string) error

	// Get returns the value at key, or ("", false, nil) if absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// MGet returns the values at keys in order; an absent key yields ""
	// at that index with found[i]=false.
	MGet(ctx context.Context, keys ...string) ([]string, []bool, error)

	// Set writes value at key with an optional ttl (0 means no expiry).
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Now returns the bus's monotonic wall-clock in epoch milliseconds.
	// Stale-data checks must use this, never the local host clock.
	Now(ctx context.Context) (int64, error)

	// Close releases the underlying connection.
	Close() error
}
