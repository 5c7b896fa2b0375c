// Package pkg provides the core libraries for storyfold pathway analysis.
//
// # Overview
//
// Storyfold condenses batches of causal stories produced by rule-based
// simulation traces into a single weighted pathway graph for one event of
// interest. The pkg directory is organized into four main areas:
//
//  1. [causal] - Domain logic (story hypergraphs, ranking, folding, reduction)
//  2. [dot] / [graph] - Story parsing and pathway serialization
//  3. [cache] / [store] - Infrastructure (result caching, pathway persistence)
//  4. [pipeline] - Orchestration (parse → fold → render)
//
// # Architecture
//
// The typical data flow through storyfold:
//
//	Simulation trace (DOT story files)
//	         ↓
//	    [dot] package (parse stories)
//	         ↓
//	    [causal/rank] package (assign ranks)
//	         ↓
//	    [causal/fold] package (collapse and quotient stories)
//	         ↓
//	    [causal/cover] / [causal/reduce] packages (covers, edge reduction)
//	         ↓
//	    DOT/SVG/PNG/JSON output
//
// # Quick Start
//
// Fold a directory of stories and render the pathway:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/storyfold/pkg/cache"
//	    "github.com/matzehuels/storyfold/pkg/pipeline"
//	)
//
//	c, _ := cache.NewFileCache(".storyfold-cache")
//	runner := pipeline.NewRunner(c, nil, nil)
//	result, _ := runner.Execute(context.Background(), pipeline.Options{
//	    StoryDir: "traces/",
//	    Policy:   "top",
//	    Formats:  []string{"dot", "svg"},
//	})
//	svg := result.Artifacts["svg"]
//
// # Main Packages
//
// ## Core Domain Logic
//
// [causal] - The story hypergraph: event and state nodes connected by
// weighted hyperedges, with rank bookkeeping and structural validation.
//
// [causal/rank] - Rank assignment for unranked stories under the top and
// bottom placement policies, plus longest-path reranking of folded pathways.
//
// [causal/fold] - Story compression and quotienting. Collapses isomorphic
// stories, merges equivalent nodes across stories, and accumulates
// occurrence counts and hyperedge weights into one pathway.
//
// [causal/cover] - Cover hyperedge extraction, registering summary edges
// that survive intro-node pruning.
//
// [causal/reduce] - Superfluous-edge reduction under a path enumeration
// budget.
//
// ## Parsing and Serialization
//
// [dot] - DOT dialect reader and writer for stories and pathways, plus
// Graphviz rendering to SVG and PNG.
//
// [graph] - JSON serialization types for pathway graphs.
//
// ## Infrastructure
//
// [cache] - Content-addressed result caching with file, Redis, and null
// backends. Keys are derived from the story batch hash plus options.
//
// [store] - Pathway persistence with MongoDB and in-memory backends, used
// by the HTTP API.
//
// [config] - TOML configuration with STORYFOLD_* environment overrides.
//
// [errors] - Structured error codes shared by the CLI and API.
//
// [observability] - Pipeline, cache, and API hooks for metrics collection.
//
// ## Orchestration
//
// [pipeline] - Complete folding pipeline (parse → fold → render) used by
// CLI and API. Ensures consistent behavior across all entry points.
//
// [api] - HTTP API server exposing folding and stored pathways.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...             # All tests
//	go test ./pkg/causal/...      # Specific package
//
// [causal]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/causal
// [causal/rank]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/causal/rank
// [causal/fold]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/causal/fold
// [causal/cover]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/causal/cover
// [causal/reduce]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/causal/reduce
// [dot]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/dot
// [graph]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/graph
// [cache]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/store
// [config]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/pipeline
// [api]: https://pkg.go.dev/github.com/matzehuels/storyfold/pkg/api
package pkg
