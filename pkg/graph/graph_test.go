package graph

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/storyfold/pkg/causal"
)

func buildStory(t *testing.T) *causal.Graph {
	t.Helper()
	g := causal.NewGraph("phos")
	g.Hypergraph = true
	a := &causal.Node{ID: "node1", Label: "bind"}
	a.SetRank(1)
	a.First = true
	b := &causal.Node{ID: "node2", Label: "phos"}
	b.SetRank(2)
	g.AddNode(a)
	g.AddNode(b)
	e := causal.NewEdge(a, b)
	e.Weight = 6
	e.Number = 4
	h, err := causal.NewHyperEdge(e)
	if err != nil {
		t.Fatalf("NewHyperEdge: %v", err)
	}
	g.AddHyperedge(h)
	return g
}

func TestMarshalGraph(t *testing.T) {
	tests := []struct {
		name      string
		build     func(t *testing.T) *causal.Graph
		wantNodes int
		wantEdges int
		check     func(t *testing.T, g Graph)
	}{
		{
			name:      "Empty",
			build:     func(t *testing.T) *causal.Graph { return causal.NewGraph("eoi") },
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name:      "Simple",
			build:     buildStory,
			wantNodes: 2,
			wantEdges: 1,
			check: func(t *testing.T, g Graph) {
				if g.EOI != "phos" {
					t.Errorf("eoi = %q, want phos", g.EOI)
				}
				if g.Nodes[0].Rank == nil || *g.Nodes[0].Rank != 1 {
					t.Errorf("node1 rank = %v, want 1", g.Nodes[0].Rank)
				}
				if !g.Nodes[0].First {
					t.Error("node1 first flag lost")
				}
				he := g.Hyperedges[0]
				if he.Weight != 6 || he.Number != 4 {
					t.Errorf("hyperedge weight/number = %d/%d, want 6/4", he.Weight, he.Number)
				}
			},
		},
		{
			name: "UnrankedNodesOmitRank",
			build: func(t *testing.T) *causal.Graph {
				g := causal.NewGraph("eoi")
				g.AddNode(causal.NewNode("pending"))
				return g
			},
			wantNodes: 1,
			wantEdges: 0,
			check: func(t *testing.T, g Graph) {
				if g.Nodes[0].Rank != nil {
					t.Errorf("rank = %v, want nil", *g.Nodes[0].Rank)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.build(t)

			data, err := MarshalGraph(g)
			if err != nil {
				t.Fatalf("MarshalGraph: %v", err)
			}

			var result Graph
			if err := json.Unmarshal(data, &result); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}

			if got := len(result.Nodes); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}
			edges := 0
			for _, h := range result.Hyperedges {
				edges += len(h.Edges)
			}
			if edges != tt.wantEdges {
				t.Errorf("edges = %d, want %d", edges, tt.wantEdges)
			}

			if tt.check != nil {
				tt.check(t, result)
			}
		})
	}
}

func TestReadGraph(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		wantErr   bool
		check     func(t *testing.T, g *causal.Graph)
	}{
		{
			name: "Valid",
			input: `{
				"eoi": "phos",
				"occurrence": 2,
				"nodes": [
					{"id": "node1", "label": "bind", "rank": 1},
					{"id": "node2", "label": "phos", "rank": 2}
				],
				"hyperedges": [
					{"edges": [{"source": "node1", "target": "node2", "weight": 6, "number": 4}]}
				]
			}`,
			wantNodes: 2,
			check: func(t *testing.T, g *causal.Graph) {
				if g.Occurrence != 2 {
					t.Errorf("occurrence = %d, want 2", g.Occurrence)
				}
				if len(g.Hyperedges) != 1 {
					t.Fatalf("hyperedges = %d, want 1", len(g.Hyperedges))
				}
				// Statistics are re-derived from members on import.
				if g.Hyperedges[0].Weight != 6 {
					t.Errorf("weight = %d, want 6", g.Hyperedges[0].Weight)
				}
				if g.MaxRank != 2 {
					t.Errorf("max rank = %v, want 2", g.MaxRank)
				}
			},
		},
		{
			name:      "Empty",
			input:     `{"eoi": "x", "nodes": [], "hyperedges": []}`,
			wantNodes: 0,
		},
		{
			name:    "Invalid",
			input:   `{invalid json}`,
			wantErr: true,
		},
		{
			name: "UnknownNodeReference",
			input: `{
				"eoi": "x",
				"nodes": [{"id": "node1", "label": "a"}],
				"hyperedges": [{"edges": [{"source": "node1", "target": "ghost"}]}]
			}`,
			wantErr: true,
		},
		{
			name: "DuplicateNodeID",
			input: `{
				"eoi": "x",
				"nodes": [{"id": "node1", "label": "a"}, {"id": "node1", "label": "b"}],
				"hyperedges": []
			}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := strings.NewReader(tt.input)
			g, err := ReadGraph(r)

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("ReadGraph: %v", err)
			}

			if got := len(g.Nodes); got != tt.wantNodes {
				t.Errorf("nodes = %d, want %d", got, tt.wantNodes)
			}

			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	g := buildStory(t)
	g.Nodes[0].X, g.Nodes[0].Y = 12.5, 40

	data, err := MarshalGraph(g)
	if err != nil {
		t.Fatalf("MarshalGraph: %v", err)
	}
	back, err := ReadGraph(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadGraph: %v", err)
	}

	if back.EOI != g.EOI || back.Occurrence != g.Occurrence {
		t.Errorf("provenance lost: eoi=%q occurrence=%d", back.EOI, back.Occurrence)
	}
	if len(back.Nodes) != 2 || len(back.Hyperedges) != 1 {
		t.Fatalf("structure lost: %d nodes, %d hyperedges", len(back.Nodes), len(back.Hyperedges))
	}
	if back.Nodes[0].X != 12.5 || back.Nodes[0].Y != 40 {
		t.Error("layout hints lost in round trip")
	}
	if back.Hyperedges[0].Weight != 6 || back.Hyperedges[0].Number != 4 {
		t.Errorf("statistics lost: %d/%d", back.Hyperedges[0].Weight, back.Hyperedges[0].Number)
	}
}

func TestReadGraphFile(t *testing.T) {
	content := `{"eoi": "x", "nodes": [{"id": "node1", "label": "a"}], "hyperedges": []}`

	dir := t.TempDir()
	path := filepath.Join(dir, "test.json")

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	g, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}

	if len(g.Nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(g.Nodes))
	}
}

func TestReadGraphFileNotFound(t *testing.T) {
	_, err := ReadGraphFile("nonexistent.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestWriteGraphFile(t *testing.T) {
	g := buildStory(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	if err := WriteGraphFile(g, path); err != nil {
		t.Fatalf("WriteGraphFile: %v", err)
	}
	back, err := ReadGraphFile(path)
	if err != nil {
		t.Fatalf("ReadGraphFile: %v", err)
	}
	if len(back.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(back.Nodes))
	}
}
