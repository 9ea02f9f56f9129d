package cache

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Handles memoizes live, process-local values such as conversation sessions
// that cannot be encoded into a Store. The zero value is ready to use.
type Handles[T any] struct {
	mu    sync.Mutex
	items map[string]T
	// gen counts resets; a create that started before the latest reset
	// returns its value to its callers but never stores it.
	gen   uint64
	group singleflight.Group
}

// Get returns the handle for key, calling create only when none exists.
// create runs detached from ctx cancellation so callers sharing it are not
// failed by one of them going away.
func (h *Handles[T]) Get(ctx context.Context, key Key, create func(context.Context) (T, error)) (T, error) {
	var zero T
	k := key.String()
	v, gen, ok := h.load(k)
	if ok {
		return v, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := h.group.DoChan(strconv.FormatUint(gen, 10)+"/"+k, func() (any, error) {
		if v, _, ok := h.load(k); ok {
			return v, nil
		}
		v, err := create(shared)
		if err != nil {
			return nil, err
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.gen != gen {
			return v, nil
		}
		if existing, ok := h.items[k]; ok {
			return existing, nil
		}
		if h.items == nil {
			h.items = make(map[string]T)
		}
		h.items[k] = v
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

// Reset forgets every handle, including ones still being created.
func (h *Handles[T]) Reset() {
	h.mu.Lock()
	h.items = nil
	h.gen++
	h.mu.Unlock()
}

func (h *Handles[T]) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.items)
}

func (h *Handles[T]) load(k string) (T, uint64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.items[k]
	return v, h.gen, ok
}
