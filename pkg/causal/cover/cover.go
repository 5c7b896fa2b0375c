// Package cover factors introduction-only causality out of a folded
// pathway.
//
// A hyperedge explained entirely by introduction nodes is pure
// bootstrapping and is hidden from views that suppress introductions.
// A hyperedge only partly explained by introductions cannot simply be
// hidden: the contribution its intro sources made must survive. The
// extractor projects such hyperedges to their non-intro residue, groups
// same-color hyperedges with an identical residue, and registers a
// single cover hyperedge carrying their summed weight in place of the
// whole group.
package cover

import (
	"github.com/matzehuels/storyfold/pkg/causal"
	"github.com/matzehuels/storyfold/pkg/causal/fold"
)

// CheckIntro classifies a hyperedge's non-essential sources. hasIntro
// reports whether any is an introduction node; allIntro whether every
// one is. Essential sources never count: they carry an agent the
// target mentions nowhere else and must not be folded away.
//
// allIntro is vacuously true when every source is essential; callers
// gate on hasIntro first.
func CheckIntro(h *causal.HyperEdge) (hasIntro, allIntro bool) {
	allIntro = true
	for _, e := range h.Edges {
		if e.Essential {
			continue
		}
		if e.Source.Intro {
			hasIntro = true
		} else {
			allIntro = false
		}
	}
	return hasIntro, allIntro
}

// BuildNoIntro returns a copy of h with every subedge sourced from an
// introduction event node removed. State-node sources are kept even
// when marked intro; only event introductions are projection noise.
// The copy's derived fields are recomputed; if every subedge is
// dropped the copy has no members and must not be registered.
func BuildNoIntro(h *causal.HyperEdge) *causal.HyperEdge {
	clone := h.Clone()
	kept := clone.Edges[:0]
	for _, e := range clone.Edges {
		if e.Source.Intro && e.Source.Kind == causal.KindEvent {
			continue
		}
		kept = append(kept, e)
	}
	clone.Edges = kept
	if len(clone.Edges) > 0 {
		// Members were valid before projection, so Update cannot fail.
		_ = clone.Update()
	}
	return clone
}

// Extract walks every hyperedge of g and factors out introduction
// causality.
//
// An all-intro hyperedge is marked underlying outright. A mixed
// hyperedge becomes underlying too, but its no-intro projection is
// registered as a cover hyperedge on the graph, absorbing the weight
// of every same-color hyperedge whose own projection is structurally
// equivalent (rank-agnostic); each absorbed hyperedge is marked
// underlying as well. Hyperedges already marked underlying are
// skipped, so Extract is idempotent.
func Extract(g *causal.Graph) {
	for _, h := range g.Hyperedges {
		if h.Underlying {
			continue
		}
		hasIntro, allIntro := CheckIntro(h)
		if !hasIntro {
			continue
		}
		if allIntro {
			h.Underlying = true
			continue
		}

		cov := BuildNoIntro(h)
		if len(cov.Edges) == 0 {
			continue
		}
		weight := h.Weight
		h.Underlying = true
		for _, other := range g.Hyperedges {
			if other == h || other.Underlying || other.Color != h.Color {
				continue
			}
			proj := BuildNoIntro(other)
			if len(proj.Edges) == 0 {
				continue
			}
			if !fold.EquivalentHyperedges(cov, proj, fold.CompareOptions{}) {
				continue
			}
			weight += other.Weight
			other.Underlying = true
		}
		cov.Weight = weight
		g.Covers = append(g.Covers, cov)
	}
	g.MarkDirty()
}
