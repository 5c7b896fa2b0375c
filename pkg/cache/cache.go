// Package cache provides pluggable caching for parsed stories, folded
// pathways, and rendered artifacts.
//
// Three backends are available: FileCache for CLI usage, RedisCache for
// the API server, and NullCache when caching is disabled. Keys are
// generated by a Keyer so every entry point derives identical keys for
// identical work.
package cache

import (
	"context"
	"time"
)

// TTLs per cached stage. Stories are immutable simulator output so the
// cache only guards against re-parsing; pathways and artifacts are
// derived and keyed by content hash, so long TTLs are safe.
const (
	TTLStory    = 24 * time.Hour
	TTLPathway  = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports whether the key was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// StoryKeyOpts identifies how a story batch was interpreted.
type StoryKeyOpts struct {
	Policy string `json:"policy"`
	Rerank bool   `json:"rerank"`
}

// PathwayKeyOpts identifies how a pathway was folded from its stories.
type PathwayKeyOpts struct {
	Policy       string   `json:"policy"`
	Rerank       bool     `json:"rerank"`
	HideIntro    bool     `json:"hide_intro"`
	Ignore       []string `json:"ignore,omitempty"`
	SkipCovers   bool     `json:"skip_covers"`
	SkipReduce   bool     `json:"skip_reduce"`
	ReduceBudget int      `json:"reduce_budget"`
}

// ArtifactKeyOpts identifies how an artifact was rendered from a pathway.
type ArtifactKeyOpts struct {
	Format         string  `json:"format"`
	EdgeLabels     bool    `json:"edge_labels"`
	HideUnderlying bool    `json:"hide_underlying"`
	Ranksep        float64 `json:"ranksep"`
}

// Keyer generates cache keys for each pipeline stage.
type Keyer interface {
	// StoryKey generates a key for a parsed and ranked story batch.
	StoryKey(storiesHash string, opts StoryKeyOpts) string

	// PathwayKey generates a key for a folded pathway.
	PathwayKey(storiesHash string, opts PathwayKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(pathwayHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer generates content-addressed keys: a stage prefix plus a
// SHA-256 hash over the input hash and the options that shaped the
// result.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// StoryKey generates a key for a parsed and ranked story batch.
func (k *DefaultKeyer) StoryKey(storiesHash string, opts StoryKeyOpts) string {
	return hashKey("story", storiesHash, opts)
}

// PathwayKey generates a key for a folded pathway.
func (k *DefaultKeyer) PathwayKey(storiesHash string, opts PathwayKeyOpts) string {
	return hashKey("pathway", storiesHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(pathwayHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", pathwayHash, opts)
}
