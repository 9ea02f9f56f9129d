package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"golang.org/x/sync/singleflight"
)

// Memo runs a computation at most once per key and remembers its result.
// Concurrent misses for the same key share one computation. Failed
// computations are never stored.
type Memo struct {
	store Store
	group singleflight.Group
	log   *slog.Logger
}

func NewMemo(store Store, log *slog.Logger) *Memo {
	if log == nil {
		log = slog.Default()
	}
	return &Memo{store: store, log: log}
}

// Do returns the stored bytes for key, or runs compute and stores its result.
// compute runs detached from the caller's cancellation, bounded by its own
// retry policy; a cancelled caller returns ctx.Err() without stopping it.
func (m *Memo) Do(ctx context.Context, key Key, compute func(context.Context) ([]byte, error)) ([]byte, error) {
	k := key.String()
	if v, ok := m.lookup(ctx, k); ok {
		m.log.Debug("cache hit", "op", key.Op)
		return v, nil
	}

	// Detached: one caller's cancellation must not fail the others.
	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(k, func() (any, error) {
		if v, ok := m.lookup(shared, k); ok {
			return v, nil
		}
		m.log.Debug("cache miss", "op", key.Op)
		val, err := compute(shared)
		if err != nil {
			return nil, err
		}
		stored, err := m.store.SetIfAbsent(shared, k, val)
		if err != nil {
			m.log.Warn("cache write failed", "op", key.Op, "err", err)
			return val, nil
		}
		if !stored {
			// Another writer filled the key first; its value is authoritative.
			if existing, ok := m.lookup(shared, k); ok {
				return existing, nil
			}
		}
		return val, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Clear empties the backing store.
func (m *Memo) Clear(ctx context.Context) error {
	return m.store.Clear(ctx)
}

func (m *Memo) lookup(ctx context.Context, k string) ([]byte, bool) {
	v, ok, err := m.store.Get(ctx, k)
	if err != nil {
		m.log.Warn("cache read failed", "key", k, "err", err)
		return nil, false
	}
	return v, ok
}

// Remember memoizes a typed result, JSON-encoding it for the store.
func Remember[T any](ctx context.Context, m *Memo, key Key, compute func(context.Context) (T, error)) (T, error) {
	var out T
	raw, err := m.Do(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode cached %s result: %w", key.Op, err)
	}
	return out, nil
}
