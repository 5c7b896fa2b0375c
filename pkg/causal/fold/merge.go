package fold

import (
	"fmt"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// MergeNodes redirects every hyperedge target and subedge endpoint
// pointing at drop to keep, then deletes drop from the graph. keep
// retains all of its own fields; nothing of drop survives except its
// structural role.
func MergeNodes(g *causal.Graph, keep, drop *causal.Node) error {
	for _, h := range g.Hyperedges {
		changed := false
		for _, e := range h.Edges {
			if e.Source == drop {
				e.Source = keep
				changed = true
			}
			if e.Target == drop {
				e.Target = keep
				changed = true
			}
		}
		if changed {
			if err := h.Update(); err != nil {
				return fmt.Errorf("merge %q into %q: %w", drop.Label, keep.Label, err)
			}
		}
	}
	g.RemoveNode(drop)
	return nil
}

// MergeDuplicateLabels merges every pair of same-label nodes in the
// graph. The first occurrence in graph order wins as the retained node,
// so its auxiliary fields (layout hints in particular) survive.
func MergeDuplicateLabels(g *causal.Graph) error {
	byLabel := make(map[string]*causal.Node, len(g.Nodes))
	snapshot := make([]*causal.Node, len(g.Nodes))
	copy(snapshot, g.Nodes)
	for _, n := range snapshot {
		keep, seen := byLabel[n.Label]
		if !seen {
			byLabel[n.Label] = n
			continue
		}
		if err := MergeNodes(g, keep, n); err != nil {
			return err
		}
	}
	return nil
}

// DedupeSubedges removes, within each hyperedge, member edges whose
// source labels coincide after a node merge. The first edge per source
// label is kept and the weight of the rest is discarded, not summed:
// duplicate subedges record the same causal relationship observed
// redundantly, not reinforcement.
func DedupeSubedges(g *causal.Graph) error {
	for _, h := range g.Hyperedges {
		seen := make(map[string]bool, len(h.Edges))
		kept := h.Edges[:0]
		for _, e := range h.Edges {
			if seen[e.Source.Label] {
				continue
			}
			seen[e.Source.Label] = true
			kept = append(kept, e)
		}
		if len(kept) == len(h.Edges) {
			continue
		}
		h.Edges = kept
		if err := h.Update(); err != nil {
			return err
		}
	}
	g.MarkDirty()
	return nil
}

// MergeEquivalentHyperedges merges every pair of structurally
// equivalent hyperedges (rank-agnostic, duplicate sources collapsed),
// summing member edge weights and numbers pairwise via the subedge
// correspondence. The earlier hyperedge in graph order is retained.
func MergeEquivalentHyperedges(g *causal.Graph) error {
	opts := CompareOptions{DisregardDuplicates: true}
	for i := 0; i < len(g.Hyperedges); i++ {
		a := g.Hyperedges[i]
		for j := i + 1; j < len(g.Hyperedges); {
			b := g.Hyperedges[j]
			if !EquivalentHyperedges(a, b, opts) {
				j++
				continue
			}
			match, ok := MatchSubedges(a, b, false)
			if !ok {
				// Equivalent source sets but mismatched member lists
				// (duplicates on one side only); keep both.
				j++
				continue
			}
			for k, ea := range a.Edges {
				eb := b.Edges[match[k]]
				ea.Weight += eb.Weight
				ea.Number += eb.Number
			}
			if err := a.Update(); err != nil {
				return err
			}
			g.RemoveHyperedge(b)
		}
	}
	return nil
}

// Quotient folds duplicate structure inside one working graph: nodes
// sharing a label collapse first, then redundant subedges, then
// equivalent hyperedges. This is the in-graph half of pathway folding;
// [CollapseStories] handles the cross-story half.
func Quotient(g *causal.Graph) error {
	if err := MergeDuplicateLabels(g); err != nil {
		return err
	}
	if err := DedupeSubedges(g); err != nil {
		return err
	}
	return MergeEquivalentHyperedges(g)
}
