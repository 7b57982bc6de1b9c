package bus

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"arbitrage/pkg/retry"
)

const dataField = "data"

// readRetryConfig matches spec.md §7's "Bus read transient failure: brief
// backoff (≈300ms), retry" — a handful of short, near-constant-delay
// attempts, not an aggressive exponential climb. redis.Nil (no data
// within the block deadline) is wrapped as retry.Permanent so it returns
// immediately instead of being treated as a transient failure.
var readRetryConfig = retry.Config{
	MaxRetries:   3,
	InitialDelay: 300 * time.Millisecond,
	MaxDelay:     300 * time.Millisecond,
	Multiplier:   1,
	JitterFactor: 0.1,
	RetryIf:      retry.IsRetryable,
}

// RedisBus implements Bus over a Redis Streams + string keyspace, using
// the bus's own TIME command as the shared wall-clock.
type RedisBus struct {
	client *redis.Client
}

// NewRedisBus dials addr with the given password/db selector. It does not
// verify connectivity; the first call surfaces any dial error.
func NewRedisBus(addr, password string, db int) *RedisBus {
	return &RedisBus{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

// Append writes data to stream. Per spec.md §7 ("Bus write transient
// failure: log, drop the emission; do not block the consumer") this is a
// single attempt — retrying an Order append would risk a duplicate leg
// under at-least-once redelivery, so callers are expected to log and
// drop rather than loop here.
func (b *RedisBus) Append(ctx context.Context, stream string, data []byte) (string, error) {
	id, err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{dataField: data},
	}).Result()
	if err != nil {
		return "", err
	}
	return id, nil
}

// EnsureGroup creates group on stream with MKSTREAM semantics, retrying
// transient dial failures during startup wiring.
func (b *RedisBus) EnsureGroup(ctx context.Context, stream, group string) error {
	err := retry.Do(ctx, func() error {
		return b.client.XGroupCreateMkStream(ctx, stream, group, "$").Err()
	}, readRetryConfig)
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (b *RedisBus) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Entry, error) {
	var res []redis.XStream
	err := retry.Do(ctx, func() error {
		r, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: consumer,
			Streams:  []string{stream, ">"},
			Count:    count,
			Block:    block,
		}).Result()
		if err == redis.Nil {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		res = r
		return nil
	}, readRetryConfig)

	if errors.Is(err, redis.Nil) {
		return nil, ErrNoEntries
	}
	if err != nil {
		return nil, err
	}
	if len(res) == 0 || len(res[0].Messages) == 0 {
		return nil, ErrNoEntries
	}

	entries := make([]Entry, 0, len(res[0].Messages))
	for _, msg := range res[0].Messages {
		raw, _ := msg.Values[dataField].(string)
		entries = append(entries, Entry{ID: msg.ID, Data: []byte(raw)})
	}
	return entries, nil
}

func (b *RedisBus) Ack(ctx context.Context, stream, group string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return b.client.XAck(ctx, stream, group, ids...).Err()
}

func (b *RedisBus) Get(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := retry.Do(ctx, func() error {
		v, err := b.client.Get(ctx, key).Result()
		if err == redis.Nil {
			return retry.Permanent(err)
		}
		if err != nil {
			return err
		}
		val = v
		return nil
	}, readRetryConfig)

	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (b *RedisBus) MGet(ctx context.Context, keys ...string) ([]string, []bool, error) {
	if len(keys) == 0 {
		return nil, nil, nil
	}
	var res []interface{}
	err := retry.Do(ctx, func() error {
		r, err := b.client.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		res = r
		return nil
	}, readRetryConfig)
	if err != nil {
		return nil, nil, err
	}
	values := make([]string, len(res))
	found := make([]bool, len(res))
	for i, v := range res {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		values[i], found[i] = s, true
	}
	return values, found, nil
}

func (b *RedisBus) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBus) Now(ctx context.Context) (int64, error) {
	var ts int64
	err := retry.Do(ctx, func() error {
		t, err := b.client.Time(ctx).Result()
		if err != nil {
			return err
		}
		ts = t.UnixMilli()
		return nil
	}, readRetryConfig)
	if err != nil {
		return 0, err
	}
	return ts, nil
}

func (b *RedisBus) Close() error {
	return b.client.Close()
}
