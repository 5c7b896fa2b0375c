package fold

import (
	"strings"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// RemoveIntros deletes every introduction node together with the
// subedges touching it, drops hyperedges that lose all members, and
// shifts the remaining ranks so the earliest event sits at rank 1
// again.
func RemoveIntros(g *causal.Graph) error {
	doomed := make(map[*causal.Node]bool)
	for _, n := range g.Nodes {
		if n.Intro {
			doomed[n] = true
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	return removeNodes(g, doomed)
}

// RemoveIgnored deletes every node whose label contains one of the
// given substrings, with the same edge cleanup as [RemoveIntros] but
// without rank renormalization (ignored nodes can sit anywhere in the
// graph, so the rank origin is unaffected).
func RemoveIgnored(g *causal.Graph, ignore []string) error {
	doomed := make(map[*causal.Node]bool)
	for _, n := range g.Nodes {
		for _, substr := range ignore {
			if strings.Contains(n.Label, substr) {
				doomed[n] = true
				break
			}
		}
	}
	if len(doomed) == 0 {
		return nil
	}
	if err := dropNodes(g, doomed); err != nil {
		return err
	}
	return g.RefreshRanks()
}

func removeNodes(g *causal.Graph, doomed map[*causal.Node]bool) error {
	if err := dropNodes(g, doomed); err != nil {
		return err
	}
	if err := g.RefreshRanks(); err != nil {
		return err
	}
	// Renormalize so the earliest remaining rank is 1.
	shift := g.MinRank - 1
	if shift != 0 {
		for _, n := range g.Nodes {
			if n.Ranked {
				n.SetRank(n.Rank - shift)
			}
		}
		return g.RefreshRanks()
	}
	return nil
}

func dropNodes(g *causal.Graph, doomed map[*causal.Node]bool) error {
	snapshot := make([]*causal.Node, len(g.Nodes))
	copy(snapshot, g.Nodes)
	for _, n := range snapshot {
		if doomed[n] {
			g.RemoveNode(n)
		}
	}

	edges := make([]*causal.HyperEdge, len(g.Hyperedges))
	copy(edges, g.Hyperedges)
	for _, h := range edges {
		if doomed[h.Target] {
			g.RemoveHyperedge(h)
			continue
		}
		kept := h.Edges[:0]
		for _, e := range h.Edges {
			if doomed[e.Source] {
				continue
			}
			kept = append(kept, e)
		}
		if len(kept) == 0 {
			g.RemoveHyperedge(h)
			continue
		}
		if len(kept) != len(h.Edges) {
			h.Edges = kept
			if err := h.Update(); err != nil {
				return err
			}
		}
	}
	g.MarkDirty()
	return nil
}
