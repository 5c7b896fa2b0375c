// Package rank assigns causal depths to story graph nodes.
//
// Ranks are computed by a fixed-point propagation seeded at the first
// nodes (rank 1) and pushed forward along hyperedges until every
// reachable node is placed. Two policies exist: [PolicyTop] pins each
// node to the earliest rank any secured hyperedge allows, [PolicyBot]
// waits for every non-looping cause and pins to the latest. Stalled
// propagation is reported as [ErrNotSeedable] instead of looping
// forever.
package rank

import (
	"errors"
	"fmt"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// ErrNotSeedable is returned by [Assign] when rank propagation stalls
// before every node is placed. It means the story is cyclic, or its
// first nodes do not reach every event, so the acyclicity/seedability
// precondition does not hold.
var ErrNotSeedable = errors.New("graph is not seedable from its first nodes")

// DefaultMaxIterations caps the propagation loop as a backstop against
// pathological inputs that keep making trivial progress.
const DefaultMaxIterations = 100000

// Policy selects where nodes are pinned when several ranks are legal.
type Policy int

const (
	// PolicyTop assigns a node as soon as one incoming hyperedge is
	// secured, at the earliest rank that hyperedge allows. Intro nodes
	// are placed at rank 0.
	PolicyTop Policy = iota
	// PolicyBot waits until every non-looping incoming hyperedge is
	// secured and assigns the latest-forcing rank. Intro nodes are
	// placed one rank below their earliest target.
	PolicyBot
)

// String returns the policy's wire name ("top" or "bot").
func (p Policy) String() string {
	if p == PolicyBot {
		return "bot"
	}
	return "top"
}

// ParsePolicy converts a wire name into a [Policy].
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "top", "":
		return PolicyTop, nil
	case "bot", "bottom":
		return PolicyBot, nil
	default:
		return PolicyTop, fmt.Errorf("unknown rank policy %q", s)
	}
}

// Options configures a ranking pass.
type Options struct {
	Policy Policy
	// MaxIterations bounds the propagation loop; zero means
	// DefaultMaxIterations.
	MaxIterations int
}

// Assign computes a rank for every node of g under the given policy.
//
// Nodes with First set seed rank 1; ranks then propagate forward until
// a fixed point. Intro nodes are placed last, at rank 0 (top) or one
// below their earliest non-conflict target (bot). On success every
// non-intro node reachable from a first node is ranked and the graph's
// rank statistics are refreshed.
//
// Assign returns [ErrNotSeedable] if propagation stalls, which callers
// should treat as a malformed story rather than retry.
func Assign(g *causal.Graph, opts Options) error {
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}

	current := make(map[*causal.Node]bool)
	for _, n := range g.Nodes {
		n.ClearRank()
		if n.First && !n.Intro {
			n.SetRank(1)
			current[n] = true
		}
	}
	if len(current) == 0 {
		for _, n := range g.Nodes {
			if !n.Intro {
				return fmt.Errorf("assign ranks for %q: no first nodes: %w", g.EOI, ErrNotSeedable)
			}
		}
	}
	g.MarkDirty()

	for iter := 0; len(current) > 0; iter++ {
		if iter >= maxIter {
			return fmt.Errorf("assign ranks for %q: no fixed point after %d iterations: %w",
				g.EOI, maxIter, ErrNotSeedable)
		}

		candidates := frontierTargets(g, current)
		progressed := false
		for _, cand := range candidates {
			if place(g, cand, opts.Policy) {
				current[cand] = true
				progressed = true
			}
		}

		for n := range current {
			settled := true
			for _, h := range g.Outgoing(n) {
				if !h.Target.Ranked {
					settled = false
					break
				}
			}
			if settled {
				delete(current, n)
				progressed = true
			}
		}

		if !progressed {
			return fmt.Errorf("assign ranks for %q: propagation stalled with %d nodes pending: %w",
				g.EOI, len(current), ErrNotSeedable)
		}
	}

	placeIntros(g, opts.Policy)
	return g.RefreshRanks()
}

// frontierTargets collects the unranked targets of every hyperedge
// whose sources intersect the current working set, in graph order for
// determinism.
func frontierTargets(g *causal.Graph, current map[*causal.Node]bool) []*causal.Node {
	seen := make(map[*causal.Node]bool)
	var targets []*causal.Node
	for _, h := range g.Hyperedges {
		if h.Target.Ranked || seen[h.Target] {
			continue
		}
		for _, s := range h.Sources {
			if current[s] {
				seen[h.Target] = true
				targets = append(targets, h.Target)
				break
			}
		}
	}
	return targets
}

// place attempts to rank cand under the policy. It reports whether a
// rank was assigned.
func place(g *causal.Graph, cand *causal.Node, policy Policy) bool {
	incoming := g.Incoming(cand)
	var secured []*causal.HyperEdge
	potential := 0
	for _, h := range incoming {
		if isSecured(g, h, policy) {
			secured = append(secured, h)
			potential++
		} else if policy == PolicyBot && !loopsBack(g, cand, h) {
			potential++
		}
	}
	if len(secured) == 0 {
		return false
	}

	if policy == PolicyBot && len(secured) != potential {
		// Wait for every cause that can still legally fire; looping
		// hyperedges can never secure and are excluded from the count.
		return false
	}

	var rank causal.Rank
	found := false
	for _, h := range secured {
		r, ok := securedRank(g, h, policy)
		if !ok {
			continue
		}
		if !found {
			rank = r
			found = true
			continue
		}
		if policy == PolicyBot {
			if r > rank {
				rank = r
			}
		} else if r < rank {
			rank = r
		}
	}
	if !found {
		// Every secured hyperedge is intro-only, so the candidate has
		// no ranked predecessor and sits right above the seeds.
		rank = 1
	}
	cand.SetRank(rank)
	return true
}

// isSecured reports whether every non-intro source of h carries a rank.
// Under PolicyBot a shrink source counts as ranked when its own
// upstream sources are, since its rank is read through them.
func isSecured(g *causal.Graph, h *causal.HyperEdge, policy Policy) bool {
	for _, s := range h.Sources {
		if s.Intro {
			continue
		}
		if _, ok := sourceRank(g, s, policy); !ok {
			return false
		}
	}
	return true
}

// securedRank returns max(source ranks) + 1 for a secured hyperedge.
// The second result is false when the hyperedge has no non-intro
// source to derive a rank from.
func securedRank(g *causal.Graph, h *causal.HyperEdge, policy Policy) (causal.Rank, bool) {
	var best causal.Rank
	found := false
	for _, s := range h.Sources {
		if s.Intro {
			continue
		}
		r, ok := sourceRank(g, s, policy)
		if !ok {
			continue
		}
		if !found || r > best {
			best = r
			found = true
		}
	}
	return best + 1, found
}

// sourceRank resolves the rank a source contributes. Under PolicyBot a
// shrink node's own rank is not meaningful, so the max rank among its
// upstream sources is used instead (one level of indirection).
func sourceRank(g *causal.Graph, n *causal.Node, policy Policy) (causal.Rank, bool) {
	if policy != PolicyBot || !n.Shrink {
		return n.Rank, n.Ranked
	}
	var best causal.Rank
	found := false
	for _, h := range g.Incoming(n) {
		for _, s := range h.Sources {
			if s.Intro {
				continue
			}
			if !s.Ranked {
				return 0, false
			}
			if !found || s.Rank > best {
				best = s.Rank
				found = true
			}
		}
	}
	if !found {
		return n.Rank, n.Ranked
	}
	return best, true
}

// loopsBack reports whether some unranked non-intro source of h is
// reachable downstream from cand, meaning h can only secure after cand
// itself is ranked. Such hyperedges are excluded from PolicyBot's
// potential count.
func loopsBack(g *causal.Graph, cand *causal.Node, h *causal.HyperEdge) bool {
	for _, s := range h.Sources {
		if s.Intro || s.Ranked {
			continue
		}
		if reachable(g, cand, s) {
			return true
		}
	}
	return false
}

// reachable reports whether to can be reached from from by following
// hyperedges forward.
func reachable(g *causal.Graph, from, to *causal.Node) bool {
	visited := map[*causal.Node]bool{from: true}
	stack := []*causal.Node{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, h := range g.Outgoing(n) {
			t := h.Target
			if t == to {
				return true
			}
			if !visited[t] {
				visited[t] = true
				stack = append(stack, t)
			}
		}
	}
	return false
}

// placeIntros assigns ranks to intro nodes after propagation.
func placeIntros(g *causal.Graph, policy Policy) {
	for _, n := range g.Nodes {
		if !n.Intro {
			continue
		}
		if policy == PolicyTop {
			n.SetRank(0)
			continue
		}
		var min causal.Rank
		found := false
		consider := func(r causal.Rank) {
			if !found || r < min {
				min = r
				found = true
			}
		}
		for _, h := range g.Outgoing(n) {
			if h.Relation == causal.RelationConflict {
				continue
			}
			t := h.Target
			if t.Shrink {
				// Look through the shrunk junction to the nodes it
				// feeds; its own rank is not meaningful.
				for _, h2 := range g.Outgoing(t) {
					if h2.Target.Ranked {
						consider(h2.Target.Rank)
					}
				}
				continue
			}
			if t.Ranked {
				consider(t.Rank)
			}
		}
		if found {
			n.SetRank(min - 1)
		}
	}
}
