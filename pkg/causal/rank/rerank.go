package rank

import (
	"fmt"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// DefaultClimbBudget bounds the number of live paths a single upward
// climb may hold before [Rerank] gives up with [causal.ErrPathBudget].
const DefaultClimbBudget = 4096

// Rerank reassigns every ranked node's rank to the length of its
// longest loopless upstream path to a rank-1 node. This is used after
// loop-merging collapses equivalent subgraphs, which can leave ranks
// that no longer reflect the longest causal chain feeding a node.
//
// Intro nodes keep their ranks. budget caps the per-node path
// enumeration; zero means DefaultClimbBudget.
func Rerank(g *causal.Graph, budget int) error {
	if budget <= 0 {
		budget = DefaultClimbBudget
	}

	var seeds []*causal.Node
	for _, n := range g.Nodes {
		if n.Ranked && n.Rank == 1 {
			seeds = append(seeds, n)
		}
	}
	if len(seeds) == 0 {
		return fmt.Errorf("rerank %q: no rank-1 nodes: %w", g.EOI, ErrNotSeedable)
	}
	seedSet := make(map[*causal.Node]bool, len(seeds))
	for _, s := range seeds {
		seedSet[s] = true
	}

	type update struct {
		node *causal.Node
		rank causal.Rank
	}
	var updates []update
	for _, n := range g.Nodes {
		if !n.Ranked || n.Intro {
			continue
		}
		longest, err := climb(g, n, seedSet, budget)
		if err != nil {
			return fmt.Errorf("rerank %q: %w", g.EOI, err)
		}
		updates = append(updates, update{n, causal.Rank(longest)})
	}
	// Apply after all climbs so reranking one node cannot influence
	// the paths found for another.
	for _, u := range updates {
		u.node.SetRank(u.rank)
	}
	return g.RefreshRanks()
}

// climb enumerates loopless paths from start upward (target to source)
// until every live path hits a seed, and returns the longest path
// length in nodes. Paths that revisit a node are discarded; paths that
// run out of incoming hyperedges before reaching a seed are dropped.
func climb(g *causal.Graph, start *causal.Node, seeds map[*causal.Node]bool, budget int) (int, error) {
	if seeds[start] {
		return 1, nil
	}
	type path struct {
		nodes []*causal.Node
		on    map[*causal.Node]bool
	}
	first := path{nodes: []*causal.Node{start}, on: map[*causal.Node]bool{start: true}}
	live := []path{first}
	longest := 0

	for len(live) > 0 {
		if len(live) > budget {
			return 0, fmt.Errorf("climbing from %q: %w", start.Label, causal.ErrPathBudget)
		}
		var next []path
		for _, p := range live {
			tip := p.nodes[len(p.nodes)-1]
			if seeds[tip] {
				if len(p.nodes) > longest {
					longest = len(p.nodes)
				}
				continue
			}
			for _, h := range g.Incoming(tip) {
				for _, s := range h.Sources {
					if p.on[s] {
						continue
					}
					ext := path{
						nodes: make([]*causal.Node, len(p.nodes), len(p.nodes)+1),
						on:    make(map[*causal.Node]bool, len(p.on)+1),
					}
					copy(ext.nodes, p.nodes)
					for n := range p.on {
						ext.on[n] = true
					}
					ext.nodes = append(ext.nodes, s)
					ext.on[s] = true
					next = append(next, ext)
				}
			}
		}
		live = next
	}

	if longest == 0 {
		// No loopless path reaches a seed; keep the node where the
		// original ranking put it.
		return int(start.Rank), nil
	}
	return longest, nil
}
