package dot

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// Pen widths scale with subedge weight relative to the lightest edge
// in the graph, capped so heavily traveled pathways stay readable.
const (
	minPenWidth = 1.0
	maxPenWidth = 20.0
)

// Options configures DOT emission.
type Options struct {
	// EdgeLabels annotates each subedge with its weight.
	EdgeLabels bool
	// HideUnderlying omits hyperedges marked underlying and draws the
	// registered cover hyperedges in their place.
	HideUnderlying bool
	// Ranksep overrides the vertical separation between rank rows;
	// zero picks 0.5 for single stories and 1.0 for folded pathways.
	Ranksep float64
}

// BuildDOT renders a ranked graph to the DOT dialect read back by
// [ParseStory]. Nodes are clustered per rank with a plaintext rank
// label, and an invisible spine of rank labels enforces top-to-bottom
// order. Intro nodes draw as white rectangles, the event of interest
// as a red ellipse, everything else as light blue invhouses.
func BuildDOT(g *causal.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G{\n")
	if g.EOI != "" {
		fmt.Fprintf(&buf, "  eoi=%q\n", g.EOI)
	}
	if g.ProducedBy != "" {
		fmt.Fprintf(&buf, "  producedby=%q\n", g.ProducedBy)
	}
	if g.Occurrence > 0 {
		fmt.Fprintf(&buf, "  label=\"Occurrence = %d\" fontsize=28 ;\n", g.Occurrence)
	}
	if len(g.PrevCores) > 0 {
		fmt.Fprintf(&buf, "  prevcores=%q\n", strings.Join(g.PrevCores, ","))
	}
	buf.WriteString("  labelloc=\"t\" ;\n")
	fmt.Fprintf(&buf, "  ranksep=%s ;\n", formatFloat(ranksep(g, opts)))

	ranks := distinctRanks(g)
	for _, r := range ranks {
		label := formatRank(r)
		fmt.Fprintf(&buf, "{ rank = same ; %q [shape=plaintext] ;\n", label)
		for _, n := range g.Nodes {
			if !n.Ranked || n.Rank != r {
				continue
			}
			writeNode(&buf, g, n)
		}
		buf.WriteString("}\n")
	}
	for i := 0; i+1 < len(ranks); i++ {
		fmt.Fprintf(&buf, "%q -> %q [style=\"invis\"] ;\n", formatRank(ranks[i]), formatRank(ranks[i+1]))
	}

	edges := visibleEdges(g, opts)
	minWeight := 1
	for i, e := range edges {
		if i == 0 || e.Weight < minWeight {
			minWeight = e.Weight
		}
	}
	if minWeight < 1 {
		minWeight = 1
	}
	for _, e := range edges {
		writeEdge(&buf, e, minWeight, opts)
	}

	buf.WriteString("}")
	return buf.String()
}

func ranksep(g *causal.Graph, opts Options) float64 {
	if opts.Ranksep > 0 {
		return opts.Ranksep
	}
	if g.Occurrence > 1 {
		return 1.0
	}
	return 0.5
}

func distinctRanks(g *causal.Graph) []causal.Rank {
	seen := make(map[causal.Rank]bool)
	var ranks []causal.Rank
	for _, n := range g.Nodes {
		if n.Ranked && !seen[n.Rank] {
			seen[n.Rank] = true
			ranks = append(ranks, n.Rank)
		}
	}
	sort.Slice(ranks, func(i, j int) bool { return ranks[i] < ranks[j] })
	return ranks
}

func writeNode(buf *bytes.Buffer, g *causal.Graph, n *causal.Node) {
	shape, color := "invhouse", "lightblue"
	switch {
	case n.Intro:
		shape, color = "rectangle", "white"
	case n.Label == g.EOI:
		shape, color = "ellipse", "indianred2"
	case n.Kind == causal.KindState:
		shape, color = "ellipse", "lightblue"
	case n.Kind == causal.KindMid:
		shape, color = "circle", "black"
	}
	fmt.Fprintf(buf, "%q [label=%q, shape=%s, style=filled, fillcolor=%s] ;\n",
		n.ID, n.Label, shape, color)
}

// visibleEdges flattens the hyperedges to draw. With HideUnderlying
// set, underlying hyperedges are swapped for the registered covers.
func visibleEdges(g *causal.Graph, opts Options) []*causal.CausalEdge {
	var out []*causal.CausalEdge
	for _, h := range g.Hyperedges {
		if opts.HideUnderlying && h.Underlying {
			continue
		}
		out = append(out, h.Edges...)
	}
	if opts.HideUnderlying {
		for _, h := range g.Covers {
			out = append(out, h.Edges...)
		}
	}
	return out
}

func writeEdge(buf *bytes.Buffer, e *causal.CausalEdge, minWeight int, opts Options) {
	src, dst := e.Source, e.Target
	if e.Reverse {
		src, dst = dst, src
	}
	pen := float64(e.Weight) / float64(minWeight) * minPenWidth
	if pen > maxPenWidth {
		pen = maxPenWidth
	}
	color := "black"
	if e.Relation == causal.RelationConflict {
		color = "red"
	}
	fmt.Fprintf(buf, "%q -> %q [penwidth=%s, color=%s", src.ID, dst.ID, formatFloat(pen), color)
	if opts.EdgeLabels {
		fmt.Fprintf(buf, ", label=\"  %d\"", e.Weight)
	}
	fmt.Fprintf(buf, ", weight=%d, number=%d] ;\n", e.Weight, e.Number)
}

// formatRank renders a rank for cluster labels, keeping half-integer
// ranks readable ("1.5") and whole ranks bare ("2").
func formatRank(r causal.Rank) string {
	return formatFloat(float64(r))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
