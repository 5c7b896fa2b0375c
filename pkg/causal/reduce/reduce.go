// Package reduce prunes structurally redundant subedges from a folded
// pathway.
//
// The reduction is a restricted transitive reduction: within each
// multi-member hyperedge, a subedge survives only if it is the unique
// acyclic route from its source to the shared target when traced
// through the whole hyperedge list. It requires an acyclic graph;
// cycles make the path enumeration meaningless and must be folded away
// first.
package reduce

import (
	"fmt"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// DefaultBudget bounds the number of live paths one enumeration may
// hold. The enumeration forks per branching alternative and is
// exponential in the worst case.
const DefaultBudget = 4096

// Paths enumerates every acyclic path from from to to, following
// hyperedges forward: from any node the walk may step to the target of
// each hyperedge listing it as a source. Paths revisiting a node are
// discarded. The full set is enumerated (no early stop) because
// callers need the exact count, not mere reachability.
//
// Paths returns [causal.ErrPathBudget] when more than budget paths are
// live at once; zero means DefaultBudget.
func Paths(g *causal.Graph, from, to *causal.Node, budget int) ([][]*causal.Node, error) {
	if budget <= 0 {
		budget = DefaultBudget
	}
	type path struct {
		nodes []*causal.Node
		on    map[*causal.Node]bool
	}
	live := []path{{nodes: []*causal.Node{from}, on: map[*causal.Node]bool{from: true}}}
	var done [][]*causal.Node

	for len(live) > 0 {
		if len(live) > budget {
			return nil, fmt.Errorf("paths %q to %q: %w", from.Label, to.Label, causal.ErrPathBudget)
		}
		var next []path
		for _, p := range live {
			tip := p.nodes[len(p.nodes)-1]
			if tip == to {
				done = append(done, p.nodes)
				continue
			}
			for _, h := range g.Outgoing(tip) {
				t := h.Target
				if p.on[t] {
					continue
				}
				ext := path{
					nodes: make([]*causal.Node, len(p.nodes), len(p.nodes)+1),
					on:    make(map[*causal.Node]bool, len(p.on)+1),
				}
				copy(ext.nodes, p.nodes)
				for n := range p.on {
					ext.on[n] = true
				}
				ext.nodes = append(ext.nodes, t)
				ext.on[t] = true
				next = append(next, ext)
			}
		}
		live = next
	}
	return done, nil
}

// RemoveSuperfluous drops, from every hyperedge with more than one
// member subedge, the subedges whose source reaches the target along
// more than one acyclic path; such subedges are transitively implied
// by the rest of the graph. A hyperedge losing all members is removed
// entirely. Reachability between any remaining pair of nodes is
// preserved, only duplicate routes are cut.
//
// Decisions for one hyperedge are computed against the current graph
// before any of its subedges are dropped, then applied before the next
// hyperedge is examined.
func RemoveSuperfluous(g *causal.Graph, budget int) error {
	edges := make([]*causal.HyperEdge, len(g.Hyperedges))
	copy(edges, g.Hyperedges)
	for _, h := range edges {
		if len(h.Edges) < 2 {
			continue
		}
		keep := make([]bool, len(h.Edges))
		for i, e := range h.Edges {
			paths, err := Paths(g, e.Source, e.Target, budget)
			if err != nil {
				return fmt.Errorf("reduce hyperedge on %q: %w", h.Target.Label, err)
			}
			keep[i] = len(paths) == 1
		}

		kept := h.Edges[:0]
		for i, e := range h.Edges {
			if keep[i] {
				kept = append(kept, e)
			}
		}
		if len(kept) == len(h.Edges) {
			h.Edges = kept
			continue
		}
		if len(kept) == 0 {
			g.RemoveHyperedge(h)
			continue
		}
		h.Edges = kept
		if err := h.Update(); err != nil {
			return err
		}
		g.MarkDirty()
	}
	return nil
}
