package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// Useful when one Redis instance serves several deployments or users
// that must not share cached pathways.
//
// Example usage:
//
//	// Per-project keys
//	projectKeyer := NewScopedKeyer(NewDefaultKeyer(), "project:abc123:")
//
//	// Shared keys
//	globalKeyer := NewDefaultKeyer()
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

// StoryKey generates a prefixed key for story batch caching.
func (k *ScopedKeyer) StoryKey(storiesHash string, opts StoryKeyOpts) string {
	return k.prefix + k.inner.StoryKey(storiesHash, opts)
}

// PathwayKey generates a prefixed key for pathway caching.
func (k *ScopedKeyer) PathwayKey(storiesHash string, opts PathwayKeyOpts) string {
	return k.prefix + k.inner.PathwayKey(storiesHash, opts)
}

// ArtifactKey generates a prefixed key for artifact caching.
func (k *ScopedKeyer) ArtifactKey(pathwayHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(pathwayHash, opts)
}
