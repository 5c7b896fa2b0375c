package causal

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyHyperedge is returned by [HyperEdge.Update] when the member
	// edge list is empty. A hyperedge always carries at least one edge.
	ErrEmptyHyperedge = errors.New("hyperedge has no member edges")

	// ErrMixedTargets is returned by [HyperEdge.Update] and [Group] when
	// member edges disagree on their target. This is a programming
	// invariant violation, never recoverable.
	ErrMixedTargets = errors.New("hyperedge members must share one target")

	// ErrEmptyStatistics is returned when an aggregate (min/max rank,
	// min weight) is requested over an empty collection. It typically
	// indicates a malformed input story.
	ErrEmptyStatistics = errors.New("no values to aggregate")

	// ErrPathBudget is returned by path enumerations when the number of
	// live paths exceeds the configured budget. Larger budgets trade
	// time for completeness; the enumeration is exponential in the
	// worst case.
	ErrPathBudget = errors.New("path enumeration budget exceeded")
)

// Relation classifies the causal meaning of an edge.
type Relation int

const (
	// RelationCausal marks an enabling dependency.
	RelationCausal Relation = iota
	// RelationConflict marks an inhibition/conflict arrow.
	RelationConflict
	// RelationPrecedence marks a pure temporal ordering.
	RelationPrecedence
)

// String returns the lowercase name of the relation.
func (r Relation) String() string {
	switch r {
	case RelationConflict:
		return "conflict"
	case RelationPrecedence:
		return "precedence"
	default:
		return "causal"
	}
}

// CausalEdge is an elementary directed dependency between two nodes.
//
// Weight counts how often the dependency was used across the traces that
// contributed to the graph; Number counts the distinct underlying
// trace-event pairs. Essential marks an edge from an intro node that
// supplies an agent not otherwise mentioned at the target, which protects
// it from being folded away as underlying.
type CausalEdge struct {
	Source *Node
	Target *Node
	Weight int
	Number int

	Relation  Relation
	Essential bool

	// Reverse asks renderers to draw the arrow from lower to higher rank
	// even though the logical direction is inverted. It never changes
	// reachability as seen by ranking or reduction.
	Reverse bool
}

// NewEdge creates a causal edge with weight and number 1.
func NewEdge(source, target *Node) *CausalEdge {
	return &CausalEdge{Source: source, Target: target, Weight: 1, Number: 1}
}

// HyperEdge groups every elementary edge sharing one target, modeling the
// joint dependency of the target on all distinct sources.
//
// Target, Sources, Weight, Number, and Relation are derived from Edges;
// call [HyperEdge.Update] after any change to the member list. Weight and
// Number are the minimum over member edges: the hyperedge is only as
// strong as its weakest necessary contributor (a bottleneck, not a sum).
type HyperEdge struct {
	Edges []*CausalEdge

	Target   *Node
	Sources  []*Node
	Weight   int
	Number   int
	Relation Relation

	// Underlying marks a hyperedge fully explained by introduction nodes
	// (directly, or subsumed by a cover hyperedge). Underlying edges are
	// omitted from views that hide introductions.
	Underlying bool

	// Reverse mirrors CausalEdge.Reverse at the hyperedge level.
	Reverse bool

	// Color groups hyperedges that belong to the same display family;
	// cover extraction only merges within one color.
	Color string
}

// NewHyperEdge creates a hyperedge from the given member edges and
// computes its derived fields. It returns an error if the members are
// empty or disagree on their target.
func NewHyperEdge(edges ...*CausalEdge) (*HyperEdge, error) {
	h := &HyperEdge{Edges: edges}
	if err := h.Update(); err != nil {
		return nil, err
	}
	return h, nil
}

// Update recomputes Target, Sources, Weight, Number, and Relation from the
// member edge list. It must be called after any member addition, removal,
// or endpoint redirection.
//
// Relation is conflict when every member conflicts, precedence when every
// member is a pure temporal ordering, and causal for any mix.
//
// Update fails fast with [ErrEmptyHyperedge] or [ErrMixedTargets]; both
// indicate a structural invariant violation in the caller.
func (h *HyperEdge) Update() error {
	if len(h.Edges) == 0 {
		return ErrEmptyHyperedge
	}

	target := h.Edges[0].Target
	for _, e := range h.Edges[1:] {
		if e.Target != target {
			return fmt.Errorf("%w: %q vs %q", ErrMixedTargets, target.Label, e.Target.Label)
		}
	}
	h.Target = target

	h.Sources = h.Sources[:0]
	seen := make(map[*Node]bool, len(h.Edges))
	for _, e := range h.Edges {
		if !seen[e.Source] {
			seen[e.Source] = true
			h.Sources = append(h.Sources, e.Source)
		}
	}

	h.Weight = h.Edges[0].Weight
	h.Number = h.Edges[0].Number
	allConflict := true
	allPrecedence := true
	for _, e := range h.Edges {
		if e.Weight < h.Weight {
			h.Weight = e.Weight
		}
		if e.Number < h.Number {
			h.Number = e.Number
		}
		if e.Relation != RelationConflict {
			allConflict = false
		}
		if e.Relation != RelationPrecedence {
			allPrecedence = false
		}
	}
	switch {
	case allConflict:
		h.Relation = RelationConflict
	case allPrecedence:
		h.Relation = RelationPrecedence
	default:
		h.Relation = RelationCausal
	}

	return nil
}

// HasSource reports whether n is one of the hyperedge's distinct sources.
func (h *HyperEdge) HasSource(n *Node) bool {
	for _, s := range h.Sources {
		if s == n {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the hyperedge sharing the same node
// pointers but owning fresh edge structs. Derived fields are recomputed.
func (h *HyperEdge) Clone() *HyperEdge {
	edges := make([]*CausalEdge, len(h.Edges))
	for i, e := range h.Edges {
		c := *e
		edges[i] = &c
	}
	clone := &HyperEdge{
		Edges:      edges,
		Underlying: h.Underlying,
		Reverse:    h.Reverse,
		Color:      h.Color,
	}
	// Members were valid before the copy, so Update cannot fail.
	_ = clone.Update()
	return clone
}

// Group partitions a flat list of causal edges into the minimal set of
// hyperedges such that every edge belongs to exactly one hyperedge and
// all edges sharing a target (by node identity, not label) land in the
// same hyperedge. No edge is ever split across two hyperedges.
func Group(edges []*CausalEdge) ([]*HyperEdge, error) {
	var hyperedges []*HyperEdge
	byTarget := make(map[*Node]*HyperEdge, len(edges))
	for _, e := range edges {
		if h, ok := byTarget[e.Target]; ok {
			h.Edges = append(h.Edges, e)
			continue
		}
		h := &HyperEdge{Edges: []*CausalEdge{e}}
		byTarget[e.Target] = h
		hyperedges = append(hyperedges, h)
	}
	for _, h := range hyperedges {
		if err := h.Update(); err != nil {
			return nil, err
		}
	}
	return hyperedges, nil
}
