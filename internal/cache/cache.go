// Package cache memoizes model results for the lifetime of a process.
//
// Entries are fill-once: the first successful result stored under a key is
// the one every later lookup sees. There is no TTL and no eviction.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Key identifies a memoized result. Input is compared byte for byte, so
// whitespace and casing differences produce distinct keys.
type Key struct {
	Op    string
	Input string
	// Scope further narrows the key, e.g. a conversation id.
	Scope string
}

// String converts the structured key into the string used by a Store.
func (k Key) String() string {
	h := sha256.New()
	h.Write([]byte(k.Scope))
	h.Write([]byte{0})
	h.Write([]byte(k.Input))
	return k.Op + ":" + hex.EncodeToString(h.Sum(nil))
}

// Store is the backend that holds encoded results.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// SetIfAbsent stores value unless key already exists and reports
	// whether this call wrote it.
	SetIfAbsent(ctx context.Context, key string, value []byte) (bool, error)

	// Clear drops every entry owned by this store.
	Clear(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}
