// Package cache stores routing results and rendered artifacts by content
// key.
//
// Backends implement [Cache]. The CLI uses [FileCache] under the XDG cache
// directory, the API server can share a [RedisCache] between replicas, and
// [NullCache] disables caching. Keys come from a [Keyer], which hashes the
// scenario and every option that changes the output, so a changed turn
// penalty or step never serves a stale route.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Entry kinds, the first segment of every unscoped key.
const (
	kindRoute    = "route"
	kindArtifact = "artifact"
)

// Default time-to-live values per entry kind.
const (
	TTLRoute    = 7 * 24 * time.Hour
	TTLArtifact = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// RouteKeyOpts holds the options that change a routing result.
type RouteKeyOpts struct {
	Step               float64 `json:"step"`
	Clearance          float64 `json:"clearance"`
	BoundaryMultiplier float64 `json:"boundary_multiplier"`
	TurnPenalty        int     `json:"turn_penalty"`
	MaxExpansions      int     `json:"max_expansions"`
}

// ArtifactKeyOpts holds the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Scale     float64 `json:"scale,omitempty"`
	ShowCosts bool    `json:"show_costs,omitempty"`
}

// Keyer derives cache keys.
type Keyer interface {
	// RouteKey keys a routing result by scenario content hash and options.
	RouteKey(scenarioHash string, opts RouteKeyOpts) string

	// ArtifactKey keys a rendered artifact by result hash and render options.
	ArtifactKey(resultHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// RouteKey implements Keyer.
func (DefaultKeyer) RouteKey(scenarioHash string, opts RouteKeyOpts) string {
	return digestKey(kindRoute, scenarioHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return digestKey(kindArtifact, resultHash, opts)
}

// digestKey keys kind by the SHA-256 of the content hash and its options,
// so every option that changes the output changes the key.
func digestKey(kind, contentHash string, opts any) string {
	data, _ := json.Marshal([]any{contentHash, opts})
	return kind + ":" + Hash(data)
}

// Hash returns the hex SHA-256 of data. It content-addresses encoded
// scenarios and routing results.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
