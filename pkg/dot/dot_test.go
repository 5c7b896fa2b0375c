package dot

import (
	"strings"
	"testing"

	"github.com/matzehuels/storyfold/pkg/causal"
)

const sampleStory = `digraph G{
  eoi="phos"
  label="Occurrence = 3" fontsize=28 ;
  labelloc="t" ;
  ranksep=0.5 ;
{ rank = same ; "0" [shape=plaintext] ;
"node1" [label="Intro X", shape=rectangle, style=filled, fillcolor=white] ;
}
{ rank = same ; "1" [shape=plaintext] ;
"node2" [label="bind", shape=invhouse, style=filled, fillcolor=lightblue] ;
}
{ rank = same ; "2" [shape=plaintext] ;
"node3" [label="phos", shape=ellipse, style=filled, fillcolor=indianred2] ;
}
"0" -> "1" [style="invis"] ;
"1" -> "2" [style="invis"] ;
"node1" -> "node2" [penwidth=1, color=black, weight=3] ;
"node2" -> "node3" [penwidth=2, color=black, weight=6, number=4] ;
}`

func TestParseStory(t *testing.T) {
	g, err := ParseStory(strings.NewReader(sampleStory))
	if err != nil {
		t.Fatalf("ParseStory: %v", err)
	}

	if g.EOI != "phos" {
		t.Errorf("eoi = %q, want phos", g.EOI)
	}
	if g.Occurrence != 3 {
		t.Errorf("occurrence = %d, want 3", g.Occurrence)
	}
	if len(g.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(g.Nodes))
	}

	byLabel := make(map[string]*causal.Node)
	for _, n := range g.Nodes {
		byLabel[n.Label] = n
	}
	intro := byLabel["Intro X"]
	if intro == nil || !intro.Intro {
		t.Error("Intro X not flagged as introduction")
	}
	if intro.Rank != 0 || !intro.Ranked {
		t.Errorf("intro rank = %v, want 0", intro.Rank)
	}
	bind := byLabel["bind"]
	if bind == nil || !bind.First {
		t.Error("bind should be first (all predecessors intro)")
	}
	phos := byLabel["phos"]
	if phos == nil || phos.First {
		t.Error("phos should not be first")
	}
	if phos.Rank != 2 {
		t.Errorf("phos rank = %v, want 2", phos.Rank)
	}

	if len(g.Hyperedges) != 2 {
		t.Fatalf("hyperedges = %d, want 2", len(g.Hyperedges))
	}
	var toPhos *causal.HyperEdge
	for _, h := range g.Hyperedges {
		if h.Target == phos {
			toPhos = h
		}
	}
	if toPhos == nil {
		t.Fatal("no hyperedge targets phos")
	}
	if toPhos.Weight != 6 || toPhos.Number != 4 {
		t.Errorf("weight/number = %d/%d, want 6/4", toPhos.Weight, toPhos.Number)
	}
}

func TestParseStoryBareEventNumbers(t *testing.T) {
	// Raw simulator output uses bare event numbers instead of node ids
	// and carries no rank clusters.
	story := `digraph G{
"1" [label="bind", shape=invhouse] ;
"2" [label="phos", shape=invhouse] ;
"1" -> "2" ;
}`
	g, err := ParseStory(strings.NewReader(story))
	if err != nil {
		t.Fatalf("ParseStory: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(g.Nodes))
	}
	if g.Nodes[0].ID != "node1" {
		t.Errorf("id = %q, want node1", g.Nodes[0].ID)
	}
	if g.Nodes[0].Ranked {
		t.Error("nodes should be unranked without rank clusters")
	}
	if len(g.Hyperedges) != 1 {
		t.Errorf("hyperedges = %d, want 1", len(g.Hyperedges))
	}
}

func TestParseStoryErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Empty", input: "digraph G{\n}"},
		{name: "UnknownEdgeEndpoint", input: "digraph G{\n\"node1\" [label=\"a\"] ;\n\"node1\" -> \"node9\" ;\n}"},
		{name: "DuplicateID", input: "digraph G{\n\"node1\" [label=\"a\"] ;\n\"node1\" [label=\"b\"] ;\n}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseStory(strings.NewReader(tt.input)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestBuildDOTRoundTrip(t *testing.T) {
	g, err := ParseStory(strings.NewReader(sampleStory))
	if err != nil {
		t.Fatalf("ParseStory: %v", err)
	}

	out := BuildDOT(g, Options{})
	back, err := ParseStory(strings.NewReader(out))
	if err != nil {
		t.Fatalf("reparse emitted DOT: %v\n%s", err, out)
	}

	if back.EOI != g.EOI || back.Occurrence != g.Occurrence {
		t.Errorf("provenance lost: eoi=%q occurrence=%d", back.EOI, back.Occurrence)
	}
	if len(back.Nodes) != len(g.Nodes) {
		t.Errorf("nodes = %d, want %d", len(back.Nodes), len(g.Nodes))
	}
	if len(back.Hyperedges) != len(g.Hyperedges) {
		t.Errorf("hyperedges = %d, want %d", len(back.Hyperedges), len(g.Hyperedges))
	}
}

func TestBuildDOTHalfRanks(t *testing.T) {
	g := causal.NewGraph("t")
	a := causal.NewNode("a")
	a.SetRank(1)
	s := &causal.Node{ID: "s1", Label: "site", Kind: causal.KindState}
	s.SetRank(1.5)
	b := causal.NewNode("t")
	b.SetRank(2)
	g.AddNode(a)
	g.AddNode(s)
	g.AddNode(b)

	out := BuildDOT(g, Options{})
	if !strings.Contains(out, `"1.5" [shape=plaintext]`) {
		t.Errorf("half rank cluster missing:\n%s", out)
	}
	if !strings.Contains(out, `"1" -> "1.5" [style="invis"]`) {
		t.Errorf("invisible spine missing:\n%s", out)
	}
}

func TestBuildDOTHideUnderlying(t *testing.T) {
	g := causal.NewGraph("phos")
	i := causal.NewIntroNode("Intro X")
	i.SetRank(0)
	bind := causal.NewNode("bind")
	bind.SetRank(1)
	phos := causal.NewNode("phos")
	phos.SetRank(2)
	g.AddNode(i)
	g.AddNode(bind)
	g.AddNode(phos)

	under, err := causal.NewHyperEdge(causal.NewEdge(i, phos), causal.NewEdge(bind, phos))
	if err != nil {
		t.Fatal(err)
	}
	under.Underlying = true
	g.AddHyperedge(under)

	cov, err := causal.NewHyperEdge(causal.NewEdge(bind, phos))
	if err != nil {
		t.Fatal(err)
	}
	g.Covers = append(g.Covers, cov)

	out := BuildDOT(g, Options{HideUnderlying: true})
	if strings.Contains(out, i.ID+`" ->`) {
		t.Errorf("underlying intro edge still drawn:\n%s", out)
	}
	if !strings.Contains(out, `"`+bind.ID+`" -> "`+phos.ID+`"`) {
		t.Errorf("cover edge missing:\n%s", out)
	}
}

func TestBuildDOTPenWidthCap(t *testing.T) {
	g := causal.NewGraph("t")
	a := causal.NewNode("a")
	a.SetRank(1)
	b := causal.NewNode("b")
	b.SetRank(2)
	c := causal.NewNode("c")
	c.SetRank(2)
	g.AddNode(a)
	g.AddNode(b)
	g.AddNode(c)
	light := causal.NewEdge(a, b)
	heavy := causal.NewEdge(a, c)
	heavy.Weight = 1000
	h1, _ := causal.NewHyperEdge(light)
	h2, _ := causal.NewHyperEdge(heavy)
	g.AddHyperedge(h1)
	g.AddHyperedge(h2)

	out := BuildDOT(g, Options{})
	if !strings.Contains(out, "penwidth=20,") {
		t.Errorf("heavy edge not capped at 20:\n%s", out)
	}
	if strings.Contains(out, "penwidth=1000") {
		t.Errorf("pen width exceeded cap:\n%s", out)
	}
}
