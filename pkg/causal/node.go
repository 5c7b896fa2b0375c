package causal

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind distinguishes the node variants of a story graph.
type Kind int

const (
	// KindEvent represents a rule firing or an introduction node.
	KindEvent Kind = iota
	// KindState represents a site/agent state read or written by events.
	// State nodes may sit between event ranks (half-integer ranks).
	KindState
	// KindMid represents an intermediate junction marker inserted when a
	// hyperedge is drawn through a shared midpoint.
	KindMid
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindState:
		return "state"
	case KindMid:
		return "mid"
	default:
		return "event"
	}
}

// Rank is a causal depth. Event nodes carry whole ranks; state nodes may
// carry half-integer ranks to sit between the events that read and write
// them. Ranks order nodes such that every causal hyperedge points from a
// lower rank to a strictly higher one.
type Rank float64

// IsWhole reports whether the rank is a whole number. A graph containing
// any non-whole rank renders with mid-rank rows.
func (r Rank) IsWhole() bool { return r == Rank(int(r)) }

// Node is a vertex in a story graph. Identity (ID) is unique within one
// graph and is never used for structural comparison; equivalence between
// nodes is decided on Label (and optionally Rank) alone.
//
// The zero value is not usable - create nodes with [NewNode] or populate
// ID and Label before adding to a graph.
type Node struct {
	ID    string // unique within one graph, opaque
	Label string // equivalence key, NOT identity
	Kind  Kind

	// Rank is valid only when Ranked is true; nodes start unranked.
	Rank   Rank
	Ranked bool

	// Intro marks an initial-condition node rather than a fired rule.
	Intro bool
	// First marks a node eligible to seed rank 1: all of its causal
	// predecessors are intro nodes.
	First bool
	// Shrink marks a multi-output junction collapsed to a single visual
	// marker. A shrunk node's own rank is not meaningful; rank policies
	// look one level through it.
	Shrink bool

	// X, Y are embedded layout hints carried through folding for
	// round-trip fidelity. The algorithms never read them.
	X, Y float64
}

// NewNode creates an event node with a fresh unique id.
func NewNode(label string) *Node {
	return &Node{ID: uuid.NewString(), Label: label}
}

// NewIntroNode creates an introduction (initial condition) node.
func NewIntroNode(label string) *Node {
	return &Node{ID: uuid.NewString(), Label: label, Intro: true}
}

// SetRank assigns a rank and marks the node ranked.
func (n *Node) SetRank(r Rank) {
	n.Rank = r
	n.Ranked = true
}

// ClearRank returns the node to the unranked state.
func (n *Node) ClearRank() {
	n.Rank = 0
	n.Ranked = false
}

// String returns a short debug representation.
func (n *Node) String() string {
	if n.Ranked {
		return fmt.Sprintf("%s %q rank=%v", n.Kind, n.Label, n.Rank)
	}
	return fmt.Sprintf("%s %q unranked", n.Kind, n.Label)
}
