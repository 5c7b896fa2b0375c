package graph

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node kinds.
const (
	KindEvent = "event"
	KindState = "state"
	KindMid   = "mid"
)

// Edge relations.
const (
	RelationCausal     = "causal"
	RelationConflict   = "conflict"
	RelationPrecedence = "precedence"
)

// Output formats for rendered pathways.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// =============================================================================
// Graph - Pathway Serialization
// =============================================================================

// Graph is the canonical serialization format for story and pathway
// graphs. Used for API responses, storage, caching, and cross-tool
// compatibility.
//
// The format is human-readable and designed for round-trip fidelity:
// import → fold → export → re-import produces identical results.
type Graph struct {
	EOI        string      `json:"eoi" bson:"eoi"`
	Occurrence int         `json:"occurrence" bson:"occurrence"`
	Hypergraph bool        `json:"hypergraph,omitempty" bson:"hypergraph,omitempty"`
	ProducedBy string      `json:"produced_by,omitempty" bson:"produced_by,omitempty"`
	PrevCores  []string    `json:"prev_cores,omitempty" bson:"prev_cores,omitempty"`
	Nodes      []Node      `json:"nodes" bson:"nodes"`
	Hyperedges []HyperEdge `json:"hyperedges" bson:"hyperedges"`
	Covers     []HyperEdge `json:"covers,omitempty" bson:"covers,omitempty"`
}

// Node is the unified node type for all serialization contexts.
type Node struct {
	ID     string   `json:"id" bson:"id"`
	Label  string   `json:"label" bson:"label"`
	Kind   string   `json:"kind,omitempty" bson:"kind,omitempty"` // "event" (default), "state", or "mid"
	Rank   *float64 `json:"rank,omitempty" bson:"rank,omitempty"` // nil until the ranking engine ran
	Intro  bool     `json:"intro,omitempty" bson:"intro,omitempty"`
	First  bool     `json:"first,omitempty" bson:"first,omitempty"`
	Shrink bool     `json:"shrink,omitempty" bson:"shrink,omitempty"`
	X      float64  `json:"x,omitempty" bson:"x,omitempty"` // layout hint, round-trip only
	Y      float64  `json:"y,omitempty" bson:"y,omitempty"`
}

// IsState returns true if this is a state node.
func (n *Node) IsState() bool { return n.Kind == KindState }

// Edge represents one member subedge of a hyperedge.
type Edge struct {
	Source    string `json:"source" bson:"source"`
	Target    string `json:"target" bson:"target"`
	Weight    int    `json:"weight" bson:"weight"`
	Number    int    `json:"number" bson:"number"`
	Relation  string `json:"relation,omitempty" bson:"relation,omitempty"`
	Essential bool   `json:"essential,omitempty" bson:"essential,omitempty"`
	Reverse   bool   `json:"reverse,omitempty" bson:"reverse,omitempty"`
}

// HyperEdge groups the subedges sharing one target. Weight, Number,
// and Relation are the derived statistics; they are serialized so
// consumers need not recompute them, and re-derived on import.
type HyperEdge struct {
	Edges      []Edge `json:"edges" bson:"edges"`
	Weight     int    `json:"weight" bson:"weight"`
	Number     int    `json:"number" bson:"number"`
	Relation   string `json:"relation,omitempty" bson:"relation,omitempty"`
	Underlying bool   `json:"underlying,omitempty" bson:"underlying,omitempty"`
	Reverse    bool   `json:"reverse,omitempty" bson:"reverse,omitempty"`
	Color      string `json:"color,omitempty" bson:"color,omitempty"`
}

// =============================================================================
// causal ↔ Graph Conversion
// =============================================================================

// FromCausal converts a causal graph to its serialization format.
// Node order is preserved; call SequenceIDs on the causal graph first
// for rank-major deterministic ids.
func FromCausal(g *causal.Graph) Graph {
	out := Graph{
		EOI:        g.EOI,
		Occurrence: g.Occurrence,
		Hypergraph: g.Hypergraph,
		ProducedBy: g.ProducedBy,
		PrevCores:  g.PrevCores,
		Nodes:      make([]Node, len(g.Nodes)),
		Hyperedges: make([]HyperEdge, len(g.Hyperedges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i] = nodeFromCausal(n)
	}
	for i, h := range g.Hyperedges {
		out.Hyperedges[i] = hyperedgeFromCausal(h)
	}
	if len(g.Covers) > 0 {
		out.Covers = make([]HyperEdge, len(g.Covers))
		for i, h := range g.Covers {
			out.Covers[i] = hyperedgeFromCausal(h)
		}
	}
	return out
}

// ToCausal converts a serialized graph back to a causal graph.
// Hyperedge statistics are re-derived from the member edges; cover
// weights are restored from the serialized value since covers carry
// summed, not derived, weights.
func ToCausal(gj Graph) (*causal.Graph, error) {
	g := causal.NewGraph(gj.EOI)
	g.Occurrence = gj.Occurrence
	g.Hypergraph = gj.Hypergraph
	g.ProducedBy = gj.ProducedBy
	g.PrevCores = gj.PrevCores

	byID := make(map[string]*causal.Node, len(gj.Nodes))
	for _, nj := range gj.Nodes {
		if _, dup := byID[nj.ID]; dup {
			return nil, fmt.Errorf("duplicate node id %q", nj.ID)
		}
		n := nodeToCausal(nj)
		byID[nj.ID] = n
		g.AddNode(n)
	}

	for _, hj := range gj.Hyperedges {
		h, err := hyperedgeToCausal(hj, byID)
		if err != nil {
			return nil, err
		}
		g.AddHyperedge(h)
	}
	for _, hj := range gj.Covers {
		h, err := hyperedgeToCausal(hj, byID)
		if err != nil {
			return nil, err
		}
		h.Weight = hj.Weight
		g.Covers = append(g.Covers, h)
	}

	if err := g.RefreshRanks(); err != nil {
		// Unranked stories are legal on import; ranking happens later.
		g.MaxRank, g.MinRank = 0, 0
	}
	return g, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// =============================================================================
// Internal Helpers
// =============================================================================

func nodeFromCausal(n *causal.Node) Node {
	node := Node{
		ID:     n.ID,
		Label:  n.Label,
		Kind:   kindToString(n.Kind),
		Intro:  n.Intro,
		First:  n.First,
		Shrink: n.Shrink,
		X:      n.X,
		Y:      n.Y,
	}
	if n.Ranked {
		r := float64(n.Rank)
		node.Rank = &r
	}
	return node
}

func nodeToCausal(nj Node) *causal.Node {
	n := &causal.Node{
		ID:     nj.ID,
		Label:  nj.Label,
		Kind:   stringToKind(nj.Kind),
		Intro:  nj.Intro,
		First:  nj.First,
		Shrink: nj.Shrink,
		X:      nj.X,
		Y:      nj.Y,
	}
	if nj.Rank != nil {
		n.SetRank(causal.Rank(*nj.Rank))
	}
	return n
}

func hyperedgeFromCausal(h *causal.HyperEdge) HyperEdge {
	out := HyperEdge{
		Edges:      make([]Edge, len(h.Edges)),
		Weight:     h.Weight,
		Number:     h.Number,
		Relation:   relationToString(h.Relation),
		Underlying: h.Underlying,
		Reverse:    h.Reverse,
		Color:      h.Color,
	}
	for i, e := range h.Edges {
		out.Edges[i] = Edge{
			Source:    e.Source.ID,
			Target:    e.Target.ID,
			Weight:    e.Weight,
			Number:    e.Number,
			Relation:  relationToString(e.Relation),
			Essential: e.Essential,
			Reverse:   e.Reverse,
		}
	}
	return out
}

func hyperedgeToCausal(hj HyperEdge, byID map[string]*causal.Node) (*causal.HyperEdge, error) {
	edges := make([]*causal.CausalEdge, len(hj.Edges))
	for i, ej := range hj.Edges {
		src, ok := byID[ej.Source]
		if !ok {
			return nil, fmt.Errorf("edge references unknown source %q", ej.Source)
		}
		dst, ok := byID[ej.Target]
		if !ok {
			return nil, fmt.Errorf("edge references unknown target %q", ej.Target)
		}
		edges[i] = &causal.CausalEdge{
			Source:    src,
			Target:    dst,
			Weight:    ej.Weight,
			Number:    ej.Number,
			Relation:  stringToRelation(ej.Relation),
			Essential: ej.Essential,
			Reverse:   ej.Reverse,
		}
	}
	h, err := causal.NewHyperEdge(edges...)
	if err != nil {
		return nil, fmt.Errorf("hyperedge: %w", err)
	}
	h.Underlying = hj.Underlying
	h.Reverse = hj.Reverse
	h.Color = hj.Color
	return h, nil
}

func kindToString(k causal.Kind) string {
	switch k {
	case causal.KindState:
		return KindState
	case causal.KindMid:
		return KindMid
	default:
		return ""
	}
}

func stringToKind(s string) causal.Kind {
	switch s {
	case KindState:
		return causal.KindState
	case KindMid:
		return causal.KindMid
	default:
		return causal.KindEvent
	}
}

func relationToString(r causal.Relation) string {
	switch r {
	case causal.RelationConflict:
		return RelationConflict
	case causal.RelationPrecedence:
		return RelationPrecedence
	default:
		return ""
	}
}

func stringToRelation(s string) causal.Relation {
	switch s {
	case RelationConflict:
		return causal.RelationConflict
	case RelationPrecedence:
		return causal.RelationPrecedence
	default:
		return causal.RelationCausal
	}
}
