package cache

import (
	"context"
	"strings"
	"sync/atomic"
	"time"
)

// NullCache disables caching. It stores nothing, but it counts the route
// and artifact lookups it answered with a miss so a --no-cache run can
// report how much work it redid.
type NullCache struct {
	routes    atomic.Int64
	artifacts atomic.Int64
}

// NewNullCache creates a null cache.
func NewNullCache() Cache {
	return &NullCache{}
}

// Get always misses.
func (c *NullCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	switch kindOf(key) {
	case kindRoute:
		c.routes.Add(1)
	case kindArtifact:
		c.artifacts.Add(1)
	}
	return nil, false, nil
}

// Set discards data.
func (c *NullCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return nil
}

// Delete is a no-op.
func (c *NullCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Close is a no-op.
func (c *NullCache) Close() error {
	return nil
}

// Misses returns how many route and artifact lookups were served.
func (c *NullCache) Misses() (routes, artifacts int64) {
	return c.routes.Load(), c.artifacts.Load()
}

// kindOf returns the entry kind of a key built by a Keyer, skipping any
// scope prefix. Keys end in "<kind>:<sha256>".
func kindOf(key string) string {
	i := strings.LastIndexByte(key, ':')
	if i < 0 {
		return ""
	}
	rest := key[:i]
	if j := strings.LastIndexByte(rest, ':'); j >= 0 {
		rest = rest[j+1:]
	}
	return rest
}

var _ Cache = (*NullCache)(nil)
