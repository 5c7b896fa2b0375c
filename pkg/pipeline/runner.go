package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyfold/pkg/cache"
	"github.com/matzehuels/storyfold/pkg/causal"
	"github.com/matzehuels/storyfold/pkg/graph"
	"github.com/matzehuels/storyfold/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → fold → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	source := opts.StoryDir
	if source == "" {
		source = "explicit"
	}

	// Stage 1: Parse
	parseStart := time.Now()
	observability.Pipeline().OnParseStart(ctx, source)
	stories, err := r.Parse(ctx, opts)
	observability.Pipeline().OnParseComplete(ctx, source, len(stories), time.Since(parseStart), err)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.StoryCount = len(stories)

	r.Logger.Info("parsed stories",
		"count", len(stories),
		"duration", result.Stats.ParseTime)

	eoi := opts.EOI
	if eoi == "" && len(stories) > 0 {
		eoi = stories[0].EOI
	}

	// Stage 2: Fold
	foldStart := time.Now()
	observability.Pipeline().OnFoldStart(ctx, eoi, len(stories))
	pathway, foldHit, err := r.FoldWithCacheInfo(ctx, stories, opts)
	if err != nil {
		observability.Pipeline().OnFoldComplete(ctx, eoi, 0, time.Since(foldStart), err)
		return nil, fmt.Errorf("fold: %w", err)
	}
	observability.Pipeline().OnFoldComplete(ctx, eoi, len(pathway.Nodes), time.Since(foldStart), nil)
	result.Pathway = pathway
	result.Stats.FoldTime = time.Since(foldStart)
	result.Stats.NodeCount = len(pathway.Nodes)
	result.Stats.HyperedgeCount = len(pathway.Hyperedges)
	result.CacheInfo.FoldHit = foldHit

	// Compute pathway hash for cache keys and API responses
	if data, err := graph.MarshalGraph(pathway); err == nil {
		result.PathwayHash = cache.Hash(data)
	}

	r.Logger.Info("folded pathway",
		"nodes", len(pathway.Nodes),
		"hyperedges", len(pathway.Hyperedges),
		"duration", result.Stats.FoldTime)

	// Stage 3: Render
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, pathway, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(renderStart), err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Parse reads and ranks stories. Parsing is never cached: the inputs are
// local files and ranking is cheap relative to hashing them.
func (r *Runner) Parse(ctx context.Context, opts Options) ([]*causal.Graph, error) {
	r.applyLogger(&opts)
	return Parse(ctx, opts)
}

// FoldWithCacheInfo folds stories with caching and returns cache hit info.
func (r *Runner) FoldWithCacheInfo(ctx context.Context, stories []*causal.Graph, opts Options) (*causal.Graph, bool, error) {
	if err := opts.ValidateForFold(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from the ranked story batch
	storiesHash, err := hashStories(stories)
	if err != nil {
		return nil, false, fmt.Errorf("hash stories for cache key: %w", err)
	}
	cacheKey := r.Keyer.PathwayKey(storiesHash, opts.PathwayKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			pathway, err := graph.ReadGraph(bytes.NewReader(data))
			if err == nil {
				observability.Cache().OnCacheHit(ctx, "pathway")
				return pathway, true, nil // Cache hit
			}
			// If deserialization fails, fall through to refold
		}
	}
	observability.Cache().OnCacheMiss(ctx, "pathway")

	// Fold
	pathway, err := Fold(stories, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := graph.MarshalGraph(pathway); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLPathway)
		observability.Cache().OnCacheSet(ctx, "pathway", len(data))
	}

	return pathway, false, nil // Cache miss
}

// Fold is a convenience wrapper that calls FoldWithCacheInfo and discards the cache hit info.
func (r *Runner) Fold(ctx context.Context, stories []*causal.Graph, opts Options) (*causal.Graph, error) {
	pathway, _, err := r.FoldWithCacheInfo(ctx, stories, opts)
	return pathway, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, pathway *causal.Graph, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from the pathway content
	pathwayData, err := graph.MarshalGraph(pathway)
	if err != nil {
		return nil, false, fmt.Errorf("serialize pathway for cache key: %w", err)
	}
	pathwayHash := cache.Hash(pathwayData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		cacheKey := r.Keyer.ArtifactKey(pathwayHash, opts.ArtifactKeyOpts(format))
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			artifacts[format] = data
		} else {
			allCached = false
			break
		}
	}

	if allCached && len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, true, nil // All artifacts from cache
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	// Render all formats
	rendered, err := Render(ctx, pathway, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(pathwayHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, pathway *causal.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, pathway, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// hashStories computes a content hash over a ranked story batch.
func hashStories(stories []*causal.Graph) (string, error) {
	var buf bytes.Buffer
	for _, s := range stories {
		data, err := graph.MarshalGraph(s)
		if err != nil {
			return "", err
		}
		buf.Write(data)
	}
	return cache.Hash(buf.Bytes()), nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
