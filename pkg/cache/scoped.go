package cache

// ScopedKeyer wraps a Keyer with a prefix. The CLI scopes keys by release
// version so that entries written by an older build, whose canonical JSON
// may differ, are never read back.
//
//	keyer := cache.NewScopedKeyer(nil, "v1.2.0:")
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

// GraphKey generates a prefixed key for canonical graphs.
func (k *ScopedKeyer) GraphKey(format, contentHash string) string {
	return k.prefix + k.inner.GraphKey(format, contentHash)
}

// RenderKey generates a prefixed key for rendered diagrams.
func (k *ScopedKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(graphHash, opts)
}
