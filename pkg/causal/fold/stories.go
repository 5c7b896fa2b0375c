package fold

import (
	"fmt"
	"sort"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// CollapseStories merges structurally equivalent input stories into
// one representative each. The representative accumulates the
// occurrence counts and the per-subedge weights and numbers of every
// story folded into it, and collects their provenance ids in
// PrevCores. Results are ordered by descending occurrence (ties keep
// input order).
//
// Input graphs folded into a representative are consumed and must not
// be used afterwards.
func CollapseStories(stories []*causal.Graph) ([]*causal.Graph, error) {
	remaining := make([]*causal.Graph, len(stories))
	copy(remaining, stories)

	var merged []*causal.Graph
	for len(remaining) > 0 {
		rep := remaining[0]
		rest := remaining[1:]
		remaining = remaining[:0]
		for _, cand := range rest {
			match, ok := MatchGraphs(rep, cand)
			if !ok {
				remaining = append(remaining, cand)
				continue
			}
			if err := accumulate(rep, cand, match); err != nil {
				return nil, err
			}
		}
		merged = append(merged, rep)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Occurrence > merged[j].Occurrence
	})
	return merged, nil
}

// accumulate folds cand into rep along the hyperedge correspondence
// returned by [MatchGraphs].
func accumulate(rep, cand *causal.Graph, match []int) error {
	rep.Occurrence += cand.Occurrence
	rep.PrevCores = append(rep.PrevCores, cand.PrevCores...)
	for i, h := range rep.Hyperedges {
		other := cand.Hyperedges[match[i]]
		sub, ok := MatchSubedges(h, other, true)
		if !ok {
			return fmt.Errorf("fold story into %q: equivalent hyperedges with unmatchable subedges on %q",
				rep.EOI, h.Target.Label)
		}
		for k, e := range h.Edges {
			o := other.Edges[sub[k]]
			e.Weight += o.Weight
			e.Number += o.Number
		}
		if err := h.Update(); err != nil {
			return err
		}
	}
	return nil
}

// FoldPathway folds N ranked stories into a single pathway graph:
// equivalent stories collapse first (accumulating occurrence and
// weights), then the distinct representatives are concatenated into
// one working graph and quotiented node-by-node and edge-by-edge.
//
// The resulting graph's Occurrence is the total number of stories
// folded in. Input graphs are consumed.
func FoldPathway(eoi string, stories []*causal.Graph) (*causal.Graph, error) {
	if len(stories) == 0 {
		return nil, fmt.Errorf("fold pathway %q: %w", eoi, causal.ErrEmptyStatistics)
	}
	collapsed, err := CollapseStories(stories)
	if err != nil {
		return nil, err
	}

	pathway := causal.NewGraph(eoi)
	pathway.Occurrence = 0
	pathway.Hypergraph = true
	for _, s := range collapsed {
		pathway.Occurrence += s.Occurrence
		pathway.Concat(s)
	}
	if err := Quotient(pathway); err != nil {
		return nil, err
	}
	if err := pathway.RefreshRanks(); err != nil {
		return nil, fmt.Errorf("fold pathway %q: %w", eoi, err)
	}
	return pathway, nil
}
