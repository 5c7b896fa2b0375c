// Package dot reads and writes the Graphviz DOT dialect used for
// causal stories and pathways.
//
// The dialect is line-oriented: graph-level attributes (eoi,
// occurrence, prevcores) ride on their own lines, nodes of one rank
// are grouped in a "rank = same" cluster headed by a plaintext rank
// label, and an invisible spine of rank labels forces vertical order.
// The parser matches that shape line by line rather than using a full
// DOT grammar; upstream story producers emit nothing fancier.
package dot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// introMarker identifies introduction nodes by label, as emitted by
// the trace producer.
const introMarker = "Intro"

// ParseStory reads one causal story in DOT form. Elementary edges are
// grouped into hyperedges on ingestion, one hyperedge per target.
//
// Nodes whose causal predecessors are all introductions are marked
// first; if the file carries no ranks the story is left unranked for
// the ranking engine.
func ParseStory(r io.Reader) (*causal.Graph, error) {
	g := causal.NewGraph("")
	byID := make(map[string]*causal.Node)
	var edges []*causal.CausalEdge
	var rank *causal.Rank

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.Contains(line, "eoi="):
			g.EOI = quotedValue(line, "eoi=")
		case strings.Contains(line, "producedby="):
			g.ProducedBy = quotedValue(line, "producedby=")
		case strings.Contains(line, "prevcores="):
			g.PrevCores = splitList(quotedValue(line, "prevcores="))
		case strings.Contains(line, "Occurrence"):
			occ, err := trailingInt(line)
			if err != nil {
				return nil, fmt.Errorf("parse occurrence: %w", err)
			}
			g.Occurrence = occ
		case strings.Contains(line, "rank = same"):
			r, err := clusterRank(line)
			if err != nil {
				return nil, fmt.Errorf("parse rank cluster: %w", err)
			}
			rank = &r
		case strings.Contains(line, "->"):
			if strings.Contains(line, `style="invis"`) {
				continue
			}
			e, err := parseEdgeLine(line, byID)
			if err != nil {
				return nil, err
			}
			edges = append(edges, e)
		case strings.Contains(line, "label="):
			n, err := parseNodeLine(line, rank)
			if err != nil {
				return nil, err
			}
			if _, dup := byID[n.ID]; dup {
				return nil, fmt.Errorf("duplicate node id %q", n.ID)
			}
			byID[n.ID] = n
			g.AddNode(n)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read story: %w", err)
	}
	if len(g.Nodes) == 0 {
		return nil, fmt.Errorf("story has no nodes")
	}

	hyperedges, err := causal.Group(edges)
	if err != nil {
		return nil, fmt.Errorf("group edges: %w", err)
	}
	for _, h := range hyperedges {
		g.AddHyperedge(h)
	}

	markFirstNodes(g)
	if g.EOI == "" {
		inferEOI(g)
	}
	return g, nil
}

// ParseStoryFile reads a story from a DOT file on disk.
func ParseStoryFile(path string) (*causal.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := ParseStory(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return g, nil
}

// markFirstNodes flags every non-intro node whose causal predecessors
// are all introductions (vacuously including nodes with no incoming
// hyperedges) as eligible to seed rank 1.
func markFirstNodes(g *causal.Graph) {
	for _, n := range g.Nodes {
		if n.Intro {
			continue
		}
		first := true
		for _, h := range g.Incoming(n) {
			if h.Relation == causal.RelationConflict {
				continue
			}
			for _, s := range h.Sources {
				if !s.Intro {
					first = false
					break
				}
			}
			if !first {
				break
			}
		}
		n.First = first
	}
}

// inferEOI falls back to the label of a deepest-ranked node when the
// file does not name its event of interest.
func inferEOI(g *causal.Graph) {
	if err := g.RefreshRanks(); err != nil {
		return
	}
	for _, n := range g.Nodes {
		if n.Ranked && n.Rank == g.MaxRank {
			g.EOI = n.Label
			return
		}
	}
}

// =============================================================================
// Line-level parsing
// =============================================================================

// quotedValue extracts the double-quoted value following key on the
// line, e.g. `eoi="phos"` yields "phos".
func quotedValue(line, key string) string {
	idx := strings.Index(line, key)
	if idx < 0 {
		return ""
	}
	rest := line[idx+len(key):]
	open := strings.Index(rest, `"`)
	if open < 0 {
		return ""
	}
	rest = rest[open+1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// trailingInt extracts the integer at the end of an Occurrence label
// line, e.g. `label="Occurrence = 33"`.
func trailingInt(line string) (int, error) {
	value := quotedValue(line, "label=")
	eq := strings.LastIndex(value, "=")
	if eq >= 0 {
		value = value[eq+1:]
	}
	return strconv.Atoi(strings.TrimSpace(value))
}

// clusterRank extracts the rank from a cluster header line, e.g.
// `{ rank = same ; "2" [shape=plaintext] ;`. Half-integer ranks occur
// for state nodes placed between event rows.
func clusterRank(line string) (causal.Rank, error) {
	open := strings.Index(line, `"`)
	end := strings.LastIndex(line, `"`)
	if open < 0 || end <= open {
		return 0, fmt.Errorf("no quoted rank in %q", strings.TrimSpace(line))
	}
	v, err := strconv.ParseFloat(line[open+1:end], 64)
	if err != nil {
		return 0, err
	}
	return causal.Rank(v), nil
}

func parseNodeLine(line string, rank *causal.Rank) (*causal.Node, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("malformed node line %q", line)
	}
	id := normalizeID(fields[0])
	label := quotedValue(line, "label=")
	if label == "" {
		return nil, fmt.Errorf("node %q has no label", id)
	}

	n := &causal.Node{ID: id, Label: label}
	if strings.Contains(label, introMarker) {
		n.Intro = true
	}
	if strings.Contains(line, "shape=circle") {
		n.Kind = causal.KindMid
	} else if strings.Contains(line, "shape=ellipse") && strings.Contains(line, "statenode") {
		n.Kind = causal.KindState
	}
	if rank != nil {
		n.SetRank(*rank)
	}
	if pos := quotedValue(line, "pos="); pos != "" {
		if x, y, err := parsePos(pos); err == nil {
			n.X, n.Y = x, y
		}
	}
	return n, nil
}

func parseEdgeLine(line string, byID map[string]*causal.Node) (*causal.CausalEdge, error) {
	fields := strings.Fields(line)
	arrow := -1
	for i, f := range fields {
		if f == "->" {
			arrow = i
			break
		}
	}
	if arrow < 1 || arrow+1 >= len(fields) {
		return nil, fmt.Errorf("malformed edge line %q", strings.TrimSpace(line))
	}
	srcID := normalizeID(fields[arrow-1])
	dstID := normalizeID(fields[arrow+1])
	src, ok := byID[srcID]
	if !ok {
		return nil, fmt.Errorf("edge references unknown node %q", srcID)
	}
	dst, ok := byID[dstID]
	if !ok {
		return nil, fmt.Errorf("edge references unknown node %q", dstID)
	}

	e := causal.NewEdge(src, dst)
	if w, ok := intAttr(line, "weight="); ok {
		e.Weight = w
	}
	if n, ok := intAttr(line, "number="); ok {
		e.Number = n
	}
	if strings.Contains(line, "conflict") {
		e.Relation = causal.RelationConflict
	}
	return e, nil
}

// normalizeID strips quotes and trailing attribute brackets from a
// node token and prefixes bare event numbers with "node".
func normalizeID(token string) string {
	token = strings.TrimSuffix(token, ";")
	token = strings.Trim(token, `"`)
	if i := strings.Index(token, "["); i >= 0 {
		token = token[:i]
	}
	if token != "" && !strings.Contains(token, "node") {
		if _, err := strconv.Atoi(token); err == nil {
			token = "node" + token
		}
	}
	return token
}

func intAttr(line, key string) (int, bool) {
	idx := strings.Index(line, key)
	if idx < 0 {
		return 0, false
	}
	rest := line[idx+len(key):]
	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9') {
		end++
	}
	if end == 0 {
		return 0, false
	}
	v, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0, false
	}
	return v, true
}

func parsePos(pos string) (float64, float64, error) {
	parts := strings.Split(pos, ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("malformed pos %q", pos)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
