// Package fold implements structural equivalence and the quotienting
// operations that merge many story graphs into one pathway.
//
// Equivalence is decided on labels (and optionally ranks) alone; node
// identity never participates. List comparisons use greedy first-match
// pairing rather than maximum bipartite matching: with several
// equally-labeled but differently-ranked duplicates the greedy order
// can reject an assignment a full matcher would accept. That is an
// accepted approximation kept for parity with observed folding
// behavior, not a bug.
package fold

import "github.com/matzehuels/storyfold/pkg/causal"

// CompareOptions tunes hyperedge equivalence.
type CompareOptions struct {
	// EnforceRank additionally requires equal ranks wherever labels
	// are compared.
	EnforceRank bool
	// DisregardDuplicates collapses same-label sources to a single
	// representative before comparing, treating duplication as an
	// artifact rather than a distinct cause.
	DisregardDuplicates bool
}

// EquivalentNodes reports whether two nodes are interchangeable for
// merging: equal labels and, when enforceRank is set, equal ranks.
func EquivalentNodes(a, b *causal.Node, enforceRank bool) bool {
	if a.Label != b.Label {
		return false
	}
	if !enforceRank {
		return true
	}
	if a.Ranked != b.Ranked {
		return false
	}
	return !a.Ranked || a.Rank == b.Rank
}

// MatchNodes pairs every element of l1 with an element of l2 using
// greedy first-match order: for each node of l1 in order, the first
// still-unmatched equivalent node of l2 is taken. It returns the
// pairing as indices into l2, or ok=false if any element of either
// list remains unmatched.
func MatchNodes(l1, l2 []*causal.Node, enforceRank bool) ([]int, bool) {
	if len(l1) != len(l2) {
		return nil, false
	}
	match := make([]int, len(l1))
	used := make([]bool, len(l2))
	for i, a := range l1 {
		found := false
		for j, b := range l2 {
			if used[j] || !EquivalentNodes(a, b, enforceRank) {
				continue
			}
			match[i] = j
			used[j] = true
			found = true
			break
		}
		if !found {
			return nil, false
		}
	}
	return match, true
}

// EquivalentNodeLists reports whether two unordered node collections
// pair up completely under [MatchNodes].
func EquivalentNodeLists(l1, l2 []*causal.Node, enforceRank bool) bool {
	_, ok := MatchNodes(l1, l2, enforceRank)
	return ok
}

func dedupeByLabel(nodes []*causal.Node) []*causal.Node {
	seen := make(map[string]bool, len(nodes))
	out := make([]*causal.Node, 0, len(nodes))
	for _, n := range nodes {
		if seen[n.Label] {
			continue
		}
		seen[n.Label] = true
		out = append(out, n)
	}
	return out
}

// EquivalentHyperedges reports whether two hyperedges are structurally
// equivalent: equivalent targets and pairwise-matchable source lists.
func EquivalentHyperedges(a, b *causal.HyperEdge, opts CompareOptions) bool {
	if !EquivalentNodes(a.Target, b.Target, opts.EnforceRank) {
		return false
	}
	s1, s2 := a.Sources, b.Sources
	if opts.DisregardDuplicates {
		s1 = dedupeByLabel(s1)
		s2 = dedupeByLabel(s2)
	}
	return EquivalentNodeLists(s1, s2, opts.EnforceRank)
}

// MatchSubedges pairs the member edges of two hyperedges by source
// equivalence (targets are assumed already compared), returning indices
// into b.Edges. Merging code uses the pairing to sum weights and
// numbers edge by edge.
func MatchSubedges(a, b *causal.HyperEdge, enforceRank bool) ([]int, bool) {
	if len(a.Edges) != len(b.Edges) {
		return nil, false
	}
	match := make([]int, len(a.Edges))
	used := make([]bool, len(b.Edges))
	for i, ea := range a.Edges {
		found := false
		for j, eb := range b.Edges {
			if used[j] || !EquivalentNodes(ea.Source, eb.Source, enforceRank) {
				continue
			}
			match[i] = j
			used[j] = true
			found = true
			break
		}
		if !found {
			return nil, false
		}
	}
	return match, true
}

// MatchGraphs decides whole-graph equivalence with ranks enforced and,
// when equivalent, returns the hyperedge correspondence (indices into
// b.Hyperedges) used to accumulate weights across equivalent stories.
//
// Comparison short-circuits cheapest first: event nodes, then state
// nodes, then hyperedges.
func MatchGraphs(a, b *causal.Graph) ([]int, bool) {
	if !EquivalentNodeLists(a.EventNodes(), b.EventNodes(), true) {
		return nil, false
	}
	if !EquivalentNodeLists(a.StateNodes(), b.StateNodes(), true) {
		return nil, false
	}
	if len(a.Hyperedges) != len(b.Hyperedges) {
		return nil, false
	}
	match := make([]int, len(a.Hyperedges))
	used := make([]bool, len(b.Hyperedges))
	opts := CompareOptions{EnforceRank: true}
	for i, ha := range a.Hyperedges {
		found := false
		for j, hb := range b.Hyperedges {
			if used[j] || !EquivalentHyperedges(ha, hb, opts) {
				continue
			}
			match[i] = j
			used[j] = true
			found = true
			break
		}
		if !found {
			return nil, false
		}
	}
	return match, true
}

// EquivalentGraphs reports whether two stories are structurally
// equivalent with ranks enforced.
func EquivalentGraphs(a, b *causal.Graph) bool {
	_, ok := MatchGraphs(a, b)
	return ok
}
