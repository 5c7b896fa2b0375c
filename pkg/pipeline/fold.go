package pipeline

import (
	"fmt"

	"github.com/matzehuels/storyfold/pkg/causal"
	"github.com/matzehuels/storyfold/pkg/causal/cover"
	"github.com/matzehuels/storyfold/pkg/causal/fold"
	"github.com/matzehuels/storyfold/pkg/causal/rank"
	"github.com/matzehuels/storyfold/pkg/causal/reduce"
)

// Fold collapses ranked stories into one pathway graph and applies the
// configured post-processing: reranking, cover extraction, intro and
// label pruning, and superfluous-edge reduction.
func Fold(stories []*causal.Graph, opts Options) (*causal.Graph, error) {
	if err := opts.ValidateForFold(); err != nil {
		return nil, err
	}
	if len(stories) == 0 {
		return nil, fmt.Errorf("fold: no stories")
	}

	eoi := opts.EOI
	if eoi == "" {
		eoi = stories[0].EOI
	}

	pathway, err := fold.FoldPathway(eoi, stories)
	if err != nil {
		return nil, fmt.Errorf("fold pathway: %w", err)
	}

	if opts.Rerank {
		if err := rank.Rerank(pathway, DefaultClimbBudget); err != nil {
			return nil, fmt.Errorf("rerank pathway: %w", err)
		}
	}

	// Covers must be extracted while the introduction nodes are still
	// present; the cover hyperedges themselves carry no intro sources
	// and survive the pruning below.
	if !opts.SkipCovers {
		cover.Extract(pathway)
	}

	if opts.HideIntro {
		if err := fold.RemoveIntros(pathway); err != nil {
			return nil, fmt.Errorf("remove intros: %w", err)
		}
	}
	if len(opts.Ignore) > 0 {
		if err := fold.RemoveIgnored(pathway, opts.Ignore); err != nil {
			return nil, fmt.Errorf("remove ignored: %w", err)
		}
	}

	if !opts.SkipReduce {
		if err := reduce.RemoveSuperfluous(pathway, opts.ReduceBudget); err != nil {
			return nil, fmt.Errorf("reduce pathway: %w", err)
		}
	}

	pathway.SequenceIDs()
	return pathway, nil
}
