// Package cache provides content-addressed caching for canonicalized graphs
// and rendered artifacts.
//
// Keys are derived from a SHA-256 hash of the input bytes, so a cache entry
// is valid for as long as the input file is unchanged. Two backends are
// provided: [FileCache] for CLI usage and [NullCache] when caching is
// disabled.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the cached value and whether it was found.
	// A missing or expired entry is a miss, not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Default entry lifetimes.
const (
	// TTLGraph applies to canonicalized input graphs. Entries are content
	// addressed, so the TTL only bounds disk usage.
	TTLGraph = 7 * 24 * time.Hour

	// TTLRender applies to rendered SVG diagrams.
	TTLRender = 24 * time.Hour
)

// Keyer derives cache keys.
type Keyer interface {
	// GraphKey identifies the canonical form of an input graph file.
	GraphKey(format, contentHash string) string

	// RenderKey identifies a rendered diagram of a canonical graph.
	RenderKey(graphHash string, opts RenderKeyOpts) string
}

// RenderKeyOpts are the render options that change the output bytes.
type RenderKeyOpts struct {
	Detailed bool   `json:"detailed"`
	Title    string `json:"title,omitempty"`
}

// DefaultKeyer produces unscoped keys of the form "kind:sha256".
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// GraphKey hashes the input format together with the content hash, so the
// same bytes parsed as JSON and as DOT never share an entry.
func (DefaultKeyer) GraphKey(format, contentHash string) string {
	return hashKey("graph", format, contentHash)
}

// RenderKey hashes the graph hash with the render options.
func (DefaultKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return hashKey("svg", graphHash, opts)
}

// NullCache never stores anything. It backs --no-cache.
type NullCache struct{}

// NewNullCache returns a cache on which every Get misses.
func NewNullCache() Cache { return NullCache{} }

func (NullCache) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }
