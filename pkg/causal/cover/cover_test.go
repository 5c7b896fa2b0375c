package cover

import (
	"testing"

	"github.com/matzehuels/storyfold/pkg/causal"
)

func rankedNode(label string, rank causal.Rank) *causal.Node {
	n := causal.NewNode(label)
	n.SetRank(rank)
	return n
}

func TestCheckIntro(t *testing.T) {
	intro := causal.NewIntroNode("Intro x")
	event := rankedNode("bind", 1)
	target := rankedNode("phos", 2)

	tests := []struct {
		name    string
		edges   []*causal.CausalEdge
		wantHas bool
		wantAll bool
	}{
		{
			name:    "AllIntro",
			edges:   []*causal.CausalEdge{causal.NewEdge(intro, target)},
			wantHas: true,
			wantAll: true,
		},
		{
			name: "Mixed",
			edges: []*causal.CausalEdge{
				causal.NewEdge(intro, target),
				causal.NewEdge(event, target),
			},
			wantHas: true,
			wantAll: false,
		},
		{
			name:    "NoIntro",
			edges:   []*causal.CausalEdge{causal.NewEdge(event, target)},
			wantHas: false,
			wantAll: false,
		},
		{
			name: "EssentialIntroDoesNotCount",
			edges: []*causal.CausalEdge{
				{Source: intro, Target: target, Weight: 1, Number: 1, Essential: true},
				causal.NewEdge(event, target),
			},
			wantHas: false,
			wantAll: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := causal.NewHyperEdge(tt.edges...)
			if err != nil {
				t.Fatalf("NewHyperEdge: %v", err)
			}
			has, all := CheckIntro(h)
			if has != tt.wantHas || all != tt.wantAll {
				t.Errorf("CheckIntro = (%v, %v), want (%v, %v)", has, all, tt.wantHas, tt.wantAll)
			}
		})
	}
}

func TestExtractAllIntroProducesNoCover(t *testing.T) {
	// Two independent subedges from the same intro node: underlying,
	// and nothing registered as a cover.
	g := causal.NewGraph("bind")
	i := causal.NewIntroNode("Intro X")
	b := rankedNode("bind", 1)
	g.AddNode(i)
	g.AddNode(b)
	h, err := causal.NewHyperEdge(causal.NewEdge(i, b), causal.NewEdge(i, b))
	if err != nil {
		t.Fatal(err)
	}
	g.AddHyperedge(h)

	Extract(g)

	if !h.Underlying {
		t.Error("all-intro hyperedge not marked underlying")
	}
	if len(g.Covers) != 0 {
		t.Errorf("covers = %d, want 0", len(g.Covers))
	}
}

func TestExtractMixedGroupsSameResidue(t *testing.T) {
	// Two hyperedges on the same target share the residue bind->phos
	// once their intro subedges are dropped; one cover absorbs both.
	g := causal.NewGraph("phos")
	i1 := causal.NewIntroNode("Intro X")
	i2 := causal.NewIntroNode("Intro Y")
	bind1 := rankedNode("bind", 1)
	bind2 := rankedNode("bind", 1)
	phos := rankedNode("phos", 2)
	for _, n := range []*causal.Node{i1, i2, bind1, bind2, phos} {
		g.AddNode(n)
	}

	e1 := causal.NewEdge(i1, phos)
	e2 := causal.NewEdge(bind1, phos)
	e2.Weight = 3
	h1, err := causal.NewHyperEdge(e1, e2)
	if err != nil {
		t.Fatal(err)
	}
	e3 := causal.NewEdge(i2, phos)
	e4 := causal.NewEdge(bind2, phos)
	e4.Weight = 2
	h2, err := causal.NewHyperEdge(e3, e4)
	if err != nil {
		t.Fatal(err)
	}
	g.AddHyperedge(h1)
	g.AddHyperedge(h2)

	Extract(g)

	if !h1.Underlying || !h2.Underlying {
		t.Error("grouped hyperedges not marked underlying")
	}
	if len(g.Covers) != 1 {
		t.Fatalf("covers = %d, want 1", len(g.Covers))
	}
	cov := g.Covers[0]
	if cov.Weight != h1.Weight+h2.Weight {
		t.Errorf("cover weight = %d, want %d", cov.Weight, h1.Weight+h2.Weight)
	}
	if len(cov.Edges) != 1 || cov.Edges[0].Source.Intro {
		t.Error("cover retained an intro subedge")
	}
	if cov.Target != phos {
		t.Errorf("cover target = %v, want phos", cov.Target)
	}
}

func TestExtractColorBoundary(t *testing.T) {
	// Same residue but different colors must not group.
	g := causal.NewGraph("phos")
	i1 := causal.NewIntroNode("Intro X")
	i2 := causal.NewIntroNode("Intro Y")
	bind1 := rankedNode("bind", 1)
	bind2 := rankedNode("bind", 1)
	phos := rankedNode("phos", 2)
	for _, n := range []*causal.Node{i1, i2, bind1, bind2, phos} {
		g.AddNode(n)
	}
	h1, err := causal.NewHyperEdge(causal.NewEdge(i1, phos), causal.NewEdge(bind1, phos))
	if err != nil {
		t.Fatal(err)
	}
	h1.Color = "blue"
	h2, err := causal.NewHyperEdge(causal.NewEdge(i2, phos), causal.NewEdge(bind2, phos))
	if err != nil {
		t.Fatal(err)
	}
	h2.Color = "red"
	g.AddHyperedge(h1)
	g.AddHyperedge(h2)

	Extract(g)

	if len(g.Covers) != 2 {
		t.Errorf("covers = %d, want 2 (one per color)", len(g.Covers))
	}
}
