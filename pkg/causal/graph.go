package causal

import (
	"fmt"
	"sort"
)

// Graph is one causal story (or the folded pathway built from many).
//
// Nodes and Hyperedges are the authoritative state; everything else is
// either provenance (EOI, Occurrence, PrevCores, ProducedBy) or derived
// (adjacency, rank statistics). Node order matters: when duplicate labels
// are merged the first occurrence is retained, so auxiliary fields of the
// earliest node (layout hints in particular) survive the merge.
//
// The zero value is not usable - use [NewGraph].
type Graph struct {
	// EOI is the label of the event of interest this story explains.
	EOI string
	// Occurrence counts how many raw stories folded into this graph.
	Occurrence int
	// PrevCores records the identifiers of the input stories that
	// contributed to this graph, for traceability.
	PrevCores []string
	// Hypergraph records whether edges arrived pre-grouped into
	// hyperedges or were grouped by [Group] on ingestion.
	Hypergraph bool
	// ProducedBy is an informational provenance tag from the upstream
	// story producer; it never affects the algorithms.
	ProducedBy string

	Nodes      []*Node
	Hyperedges []*HyperEdge
	// Covers holds synthetic cover hyperedges registered by the cover
	// extractor; they substitute for underlying hyperedges in views
	// that hide introductions.
	Covers []*HyperEdge

	// MaxRank, MinRank, and MidRanks are recomputed by RefreshRanks.
	MaxRank  Rank
	MinRank  Rank
	MidRanks bool

	incoming map[*Node][]*HyperEdge
	outgoing map[*Node][]*HyperEdge
	adjDirty bool
}

// NewGraph creates an empty graph for the given event of interest.
func NewGraph(eoi string) *Graph {
	return &Graph{EOI: eoi, Occurrence: 1, adjDirty: true}
}

// AddNode appends a node to the graph.
func (g *Graph) AddNode(n *Node) {
	g.Nodes = append(g.Nodes, n)
	g.adjDirty = true
}

// AddHyperedge appends a hyperedge and invalidates adjacency.
func (g *Graph) AddHyperedge(h *HyperEdge) {
	g.Hyperedges = append(g.Hyperedges, h)
	g.adjDirty = true
}

// RemoveNode deletes a node from the node list. Hyperedges referencing it
// are the caller's responsibility (merge operations redirect them first).
func (g *Graph) RemoveNode(n *Node) {
	for i, cand := range g.Nodes {
		if cand == n {
			g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
			break
		}
	}
	g.adjDirty = true
}

// RemoveHyperedge deletes a hyperedge from the edge list.
func (g *Graph) RemoveHyperedge(h *HyperEdge) {
	for i, cand := range g.Hyperedges {
		if cand == h {
			g.Hyperedges = append(g.Hyperedges[:i], g.Hyperedges[i+1:]...)
			break
		}
	}
	g.adjDirty = true
}

// MarkDirty invalidates the adjacency index. Mutators in this package call
// it automatically; callers that edit hyperedge members or endpoints
// directly must call it themselves before the next adjacency read.
func (g *Graph) MarkDirty() { g.adjDirty = true }

// Incoming returns the hyperedges targeting n. The index is rebuilt from
// the hyperedge list if any structural edit happened since the last read,
// so the result is never stale.
func (g *Graph) Incoming(n *Node) []*HyperEdge {
	g.rebuildAdjacency()
	return g.incoming[n]
}

// Outgoing returns the hyperedges with n among their sources, rebuilding
// the index first if needed.
func (g *Graph) Outgoing(n *Node) []*HyperEdge {
	g.rebuildAdjacency()
	return g.outgoing[n]
}

func (g *Graph) rebuildAdjacency() {
	if !g.adjDirty {
		return
	}
	g.incoming = make(map[*Node][]*HyperEdge, len(g.Nodes))
	g.outgoing = make(map[*Node][]*HyperEdge, len(g.Nodes))
	for _, h := range g.Hyperedges {
		g.incoming[h.Target] = append(g.incoming[h.Target], h)
		for _, s := range h.Sources {
			g.outgoing[s] = append(g.outgoing[s], h)
		}
	}
	g.adjDirty = false
}

// EventNodes returns the nodes of kind event, in graph order.
func (g *Graph) EventNodes() []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Kind == KindEvent {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// StateNodes returns the nodes of kind state, in graph order.
func (g *Graph) StateNodes() []*Node {
	var nodes []*Node
	for _, n := range g.Nodes {
		if n.Kind == KindState {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// Validate checks hyperedge consistency: every hyperedge is non-empty,
// all members share its target, and the derived min-weight/min-number
// match the member edges. It returns the first violation found.
func (g *Graph) Validate() error {
	for _, h := range g.Hyperedges {
		if len(h.Edges) == 0 {
			return ErrEmptyHyperedge
		}
		minW, minN := h.Edges[0].Weight, h.Edges[0].Number
		for _, e := range h.Edges {
			if e.Target != h.Target {
				return fmt.Errorf("%w: hyperedge on %q", ErrMixedTargets, h.Target.Label)
			}
			if e.Weight < minW {
				minW = e.Weight
			}
			if e.Number < minN {
				minN = e.Number
			}
		}
		if h.Weight != minW || h.Number != minN {
			return fmt.Errorf("hyperedge on %q has stale statistics: call Update", h.Target.Label)
		}
	}
	return nil
}

// RefreshRanks recomputes MaxRank, MinRank, and MidRanks over all ranked
// nodes. It returns [ErrEmptyStatistics] if no node carries a rank, which
// indicates the ranking engine never ran or the story is malformed.
func (g *Graph) RefreshRanks() error {
	first := true
	g.MidRanks = false
	for _, n := range g.Nodes {
		if !n.Ranked {
			continue
		}
		if first {
			g.MaxRank, g.MinRank = n.Rank, n.Rank
			first = false
		} else {
			if n.Rank > g.MaxRank {
				g.MaxRank = n.Rank
			}
			if n.Rank < g.MinRank {
				g.MinRank = n.Rank
			}
		}
		if !n.Rank.IsWhole() {
			g.MidRanks = true
		}
	}
	if first {
		return fmt.Errorf("refresh ranks: %w", ErrEmptyStatistics)
	}
	return nil
}

// SequenceIDs renumbers node ids rank-major ("node1", "node2", ...) for
// stable serialized output. Unranked nodes keep their ids. Ties within a
// rank keep graph order.
func (g *Graph) SequenceIDs() {
	ranked := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.Ranked {
			ranked = append(ranked, n)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Rank < ranked[j].Rank })
	for i, n := range ranked {
		n.ID = fmt.Sprintf("node%d", i+1)
	}
}

// Concat moves every node and hyperedge of other into g. The other graph
// must not be used afterwards; nodes are never shared between two live
// graphs.
func (g *Graph) Concat(other *Graph) {
	g.Nodes = append(g.Nodes, other.Nodes...)
	g.Hyperedges = append(g.Hyperedges, other.Hyperedges...)
	g.PrevCores = append(g.PrevCores, other.PrevCores...)
	g.adjDirty = true
	other.Nodes = nil
	other.Hyperedges = nil
}
