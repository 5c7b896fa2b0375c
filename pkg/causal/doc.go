// Package causal provides the core data model for causal story graphs.
//
// # Overview
//
// A story is a directed acyclic graph of rule-firing events extracted from
// one stochastic simulation trace. Nodes are events (rule firings or
// introductions of initial conditions) and, optionally, the states they
// read or write. Elementary causal edges are grouped into hyperedges: all
// edges sharing a target form one hyperedge, modeling a joint (AND-like)
// dependency where the target requires every source.
//
// The package defines [Node], [CausalEdge], [HyperEdge], and the [Graph]
// aggregate, together with [Group], which partitions a flat edge list into
// hyperedges. Algorithms over these structures live in the subpackages:
//
//   - rank: causal-depth assignment via fixed-point propagation
//   - fold: structural equivalence and story merging
//   - cover: underlying/cover hyperedge extraction
//   - reduce: redundant subedge removal
//
// # Derived state
//
// Hyperedge fields Target, Sources, Weight, Number, and Relation are
// derived from the member edge list; call [HyperEdge.Update] after any
// membership change. Graph adjacency (incoming/outgoing hyperedges per
// node) is likewise derived: it is rebuilt lazily on read and invalidated
// by [Graph.MarkDirty], which every structural mutator calls. Adjacency is
// never the source of truth; the hyperedge list is.
//
// # Concurrency
//
// Graphs are not safe for concurrent use. All folding operations mutate a
// single working graph sequentially.
package causal
