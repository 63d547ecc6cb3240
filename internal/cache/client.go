// Package cache implements the cache-aside layer in front of the store.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL applies to every resource entry.
const DefaultTTL = 300 * time.Second

var ErrDisconnected = errors.New("cache: not connected")

// Client is the subset of a key-value cache the read path needs.
// Delete accepts either an exact key or a glob pattern containing '*'.
type Client interface {
	IsConnected() bool
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keyOrPattern string) error
}
