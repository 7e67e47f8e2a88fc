package cache

// ScopedKeyer wraps a Keyer with a prefix so several projects or tenants can
// share one backend without colliding.
//
// Example usage:
//
//	// Per-project keys on a shared Redis
//	k := NewScopedKeyer(NewDefaultKeyer(), "project:level3-east:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RouteKey generates a prefixed key for routing results.
func (k *ScopedKeyer) RouteKey(scenarioHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(scenarioHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(resultHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(resultHash, opts)
}
