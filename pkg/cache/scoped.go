package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis instance without colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "superviolin:v1:")
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

// TableKey generates a prefixed table key.
func (k *ScopedKeyer) TableKey(data []byte) string {
	return k.prefix + k.inner.TableKey(data)
}

// LayoutKey generates a prefixed key for layout caching.
func (k *ScopedKeyer) LayoutKey(tableHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(tableHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(layoutHash, opts)
}

// StatsKey generates a prefixed key for statistics caching.
func (k *ScopedKeyer) StatsKey(tableHash string, opts StatsKeyOpts) string {
	return k.prefix + k.inner.StatsKey(tableHash, opts)
}
