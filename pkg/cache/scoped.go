package cache

// ScopedKeyer wraps a Keyer with a fixed key prefix. Server deployments
// use it to claim a namespace on shared cache infrastructure, such as a
// redis instance serving several applications:
//
//	keyer := cache.NewScopedKeyer(nil, "magpress:")
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

// PageKey generates a prefixed key for page raster caching.
func (k *ScopedKeyer) PageKey(layoutHash, contentHash string, opts PageKeyOpts) string {
	return k.prefix + k.inner.PageKey(layoutHash, contentHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(pagesHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(pagesHash, opts)
}

// Ensure ScopedKeyer implements Keyer.
var _ Keyer = (*ScopedKeyer)(nil)
