// Package pipeline provides the core folding pipeline for storyfold.
//
// This package implements the complete parse → fold → render pipeline
// that can be used by CLI and API components. By centralizing this
// logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Parse: Read causal stories from DOT files and rank their nodes
//  2. Fold: Collapse equivalent stories and quotient them into one pathway
//  3. Render: Generate output in various formats (DOT, JSON, SVG, PNG)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    StoryDir: "traces/",
//	    Policy:   "top",
//	    Formats:  []string{"dot"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	dot := result.Artifacts["dot"]
//
// Run individual stages:
//
//	// Parse only
//	stories, err := runner.Parse(ctx, opts)
//
//	// Fold existing stories
//	pathway, err := runner.Fold(ctx, stories, opts)
//
//	// Render an existing pathway
//	artifacts, err := runner.Render(ctx, pathway, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/storyfold/pkg/cache"
	"github.com/matzehuels/storyfold/pkg/causal"
	"github.com/matzehuels/storyfold/pkg/causal/rank"
	"github.com/matzehuels/storyfold/pkg/causal/reduce"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultPolicy is the default rank placement policy.
	DefaultPolicy = "top"

	// DefaultReduceBudget caps path enumeration during edge reduction.
	// This matches reduce.DefaultBudget to maintain consistency.
	DefaultReduceBudget = reduce.DefaultBudget

	// DefaultClimbBudget caps path enumeration during reranking.
	// This matches rank.DefaultClimbBudget to maintain consistency.
	DefaultClimbBudget = rank.DefaultClimbBudget
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the folding pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parse options
	StoryDir string   `json:"story_dir,omitempty"` // Directory of story DOT files
	Stories  []string `json:"stories,omitempty"`   // Explicit story file paths
	EOI      string   `json:"eoi,omitempty"`       // Expected event of interest
	Policy   string   `json:"policy,omitempty"`    // Rank placement policy (top/bot)
	Refresh  bool     `json:"refresh,omitempty"`

	// Fold options
	Rerank       bool     `json:"rerank,omitempty"`     // Recompute ranks from longest paths
	HideIntro    bool     `json:"hide_intro,omitempty"` // Drop introduction nodes from the pathway
	Ignore       []string `json:"ignore,omitempty"`     // Drop nodes whose label contains any of these
	SkipCovers   bool     `json:"skip_covers,omitempty"`
	SkipReduce   bool     `json:"skip_reduce,omitempty"`
	ReduceBudget int      `json:"reduce_budget,omitempty"`

	// Render options
	Formats        []string `json:"formats,omitempty"`
	EdgeLabels     bool     `json:"edge_labels,omitempty"`
	HideUnderlying bool     `json:"hide_underlying,omitempty"`
	Ranksep        float64  `json:"ranksep,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
//
// The parsed stories are not retained: folding consumes them, moving
// their nodes into the pathway. Stats.StoryCount records how many went
// in.
type Result struct {
	// Pathway is the folded pathway graph.
	Pathway *causal.Graph

	// PathwayHash is the content hash of the folded pathway.
	PathwayHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	StoryCount     int
	NodeCount      int
	HyperedgeCount int
	ParseTime      time.Duration
	FoldTime       time.Duration
	RenderTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	FoldHit   bool // Whether the folded pathway came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, json, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePolicy checks that a rank placement policy is valid.
func ValidatePolicy(policy string) error {
	if _, err := rank.ParsePolicy(policy); err != nil {
		return fmt.Errorf("invalid policy: %q (must be top or bot)", policy)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	o.SetFoldDefaults()
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks required fields for parsing.
func (o *Options) ValidateForParse() error {
	if o.StoryDir == "" && len(o.Stories) == 0 {
		return fmt.Errorf("story_dir or stories is required")
	}
	if err := ValidatePolicy(o.Policy); err != nil {
		return err
	}
	if o.Policy == "" {
		o.Policy = DefaultPolicy
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetFoldDefaults sets default values for folding.
func (o *Options) SetFoldDefaults() {
	if o.ReduceBudget == 0 {
		o.ReduceBudget = DefaultReduceBudget
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForFold validates and sets defaults for folding.
func (o *Options) ValidateForFold() error {
	o.SetFoldDefaults()
	return ValidatePolicy(o.Policy)
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDOT}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	return ValidateFormats(o.Formats)
}

// StoryKeyOpts returns cache key options for story batch caching.
func (o *Options) StoryKeyOpts() cache.StoryKeyOpts {
	return cache.StoryKeyOpts{
		Policy: o.Policy,
		Rerank: o.Rerank,
	}
}

// PathwayKeyOpts returns cache key options for the folded pathway.
func (o *Options) PathwayKeyOpts() cache.PathwayKeyOpts {
	return cache.PathwayKeyOpts{
		Policy:       o.Policy,
		Rerank:       o.Rerank,
		HideIntro:    o.HideIntro,
		Ignore:       o.Ignore,
		SkipCovers:   o.SkipCovers,
		SkipReduce:   o.SkipReduce,
		ReduceBudget: o.ReduceBudget,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:         format,
		EdgeLabels:     o.EdgeLabels,
		HideUnderlying: o.HideUnderlying,
		Ranksep:        o.Ranksep,
	}
}
