package reduce

import (
	"errors"
	"testing"

	"github.com/matzehuels/storyfold/pkg/causal"
)

func rankedNode(g *causal.Graph, label string, rank causal.Rank) *causal.Node {
	n := causal.NewNode(label)
	n.SetRank(rank)
	g.AddNode(n)
	return n
}

func addHyperedge(t *testing.T, g *causal.Graph, edges ...*causal.CausalEdge) *causal.HyperEdge {
	t.Helper()
	h, err := causal.NewHyperEdge(edges...)
	if err != nil {
		t.Fatalf("NewHyperEdge: %v", err)
	}
	g.AddHyperedge(h)
	return h
}

func TestRemoveSuperfluousKeepsDiamond(t *testing.T) {
	// A feeds B and C, which jointly feed D. Each arm is the unique
	// path from its source to D, so both subedges must survive.
	g := causal.NewGraph("d")
	a := rankedNode(g, "a", 1)
	b := rankedNode(g, "b", 2)
	c := rankedNode(g, "c", 2)
	d := rankedNode(g, "d", 3)
	addHyperedge(t, g, causal.NewEdge(a, b))
	addHyperedge(t, g, causal.NewEdge(a, c))
	joint := addHyperedge(t, g, causal.NewEdge(b, d), causal.NewEdge(c, d))

	if err := RemoveSuperfluous(g, 0); err != nil {
		t.Fatalf("RemoveSuperfluous: %v", err)
	}
	if len(joint.Edges) != 2 {
		t.Errorf("joint hyperedge has %d subedges, want 2", len(joint.Edges))
	}
	if len(g.Hyperedges) != 3 {
		t.Errorf("hyperedges = %d, want 3", len(g.Hyperedges))
	}
}

func TestRemoveSuperfluousDropsShortcut(t *testing.T) {
	// a -> c directly and via b: the direct subedge is transitively
	// implied and dropped; b -> c is unique and kept.
	g := causal.NewGraph("c")
	a := rankedNode(g, "a", 1)
	b := rankedNode(g, "b", 2)
	c := rankedNode(g, "c", 3)
	addHyperedge(t, g, causal.NewEdge(a, b))
	joint := addHyperedge(t, g, causal.NewEdge(a, c), causal.NewEdge(b, c))

	if err := RemoveSuperfluous(g, 0); err != nil {
		t.Fatalf("RemoveSuperfluous: %v", err)
	}
	if len(joint.Edges) != 1 {
		t.Fatalf("joint hyperedge has %d subedges, want 1", len(joint.Edges))
	}
	if joint.Edges[0].Source != b {
		t.Errorf("surviving subedge source = %q, want b", joint.Edges[0].Source.Label)
	}

	// Reachability from a to c survives through b.
	paths, err := Paths(g, a, c, 0)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths) != 1 {
		t.Errorf("paths a to c after reduction = %d, want 1", len(paths))
	}
}

func TestPathsCycleGuard(t *testing.T) {
	g := causal.NewGraph("b")
	a := rankedNode(g, "a", 1)
	b := rankedNode(g, "b", 2)
	addHyperedge(t, g, causal.NewEdge(a, b))
	addHyperedge(t, g, causal.NewEdge(b, a))

	paths, err := Paths(g, a, b, 0)
	if err != nil {
		t.Fatalf("Paths: %v", err)
	}
	if len(paths) != 1 {
		t.Fatalf("paths = %d, want 1 (looping path discarded)", len(paths))
	}
	if len(paths[0]) != 2 {
		t.Errorf("path length = %d, want 2", len(paths[0]))
	}
}

func TestPathsBudget(t *testing.T) {
	g := causal.NewGraph("z")
	prev := rankedNode(g, "a", 1)
	var last *causal.Node
	// Stacked diamonds double the live path count per layer.
	for i := 0; i < 6; i++ {
		l := rankedNode(g, "l", causal.Rank(2+2*i))
		r := rankedNode(g, "r", causal.Rank(2+2*i))
		join := rankedNode(g, "j", causal.Rank(3+2*i))
		addHyperedge(t, g, causal.NewEdge(prev, l))
		addHyperedge(t, g, causal.NewEdge(prev, r))
		addHyperedge(t, g, causal.NewEdge(l, join), causal.NewEdge(r, join))
		prev = join
		last = join
	}

	if _, err := Paths(g, g.Nodes[0], last, 4); !errors.Is(err, causal.ErrPathBudget) {
		t.Errorf("Paths with tiny budget = %v, want ErrPathBudget", err)
	}
	paths, err := Paths(g, g.Nodes[0], last, 0)
	if err != nil {
		t.Fatalf("Paths with default budget: %v", err)
	}
	if len(paths) != 64 {
		t.Errorf("paths = %d, want 64", len(paths))
	}
}
