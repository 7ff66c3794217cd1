package cache

// ScopedKeyer prefixes every key of an inner Keyer. The CLI and server use it
// when the cache config sets a prefix, to keep deployments that share one
// Redis apart.
//
//	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner uses the
// default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// RouteKey generates a prefixed route key.
func (k *ScopedKeyer) RouteKey(diagramHash string, opts RouteKeyOpts) string {
	return k.prefix + k.inner.RouteKey(diagramHash, opts)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(routedHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(routedHash, opts)
}
