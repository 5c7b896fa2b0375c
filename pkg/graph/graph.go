package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/storyfold/pkg/causal"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a causal graph to JSON bytes.
func MarshalGraph(g *causal.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a causal graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *causal.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a causal graph as JSON to an io.Writer.
// Use MarshalGraph for in-memory serialization or WriteGraphFile for files.
func WriteGraph(g *causal.Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadGraphFile reads a JSON file and returns the decoded causal graph.
// Returns validation errors for malformed graphs or hyperedge
// constraint violations.
func ReadGraphFile(path string) (*causal.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// ReadGraph decodes a JSON graph from an io.Reader into a causal graph.
// Use ReadGraphFile for files or pass bytes.NewReader for in-memory data.
func ReadGraph(r io.Reader) (*causal.Graph, error) {
	return readGraphFrom(r)
}

func writeGraphTo(g *causal.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromCausal(g)); err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	return nil
}

func readGraphFrom(r io.Reader) (*causal.Graph, error) {
	var gj Graph
	dec := json.NewDecoder(r)
	if err := dec.Decode(&gj); err != nil {
		return nil, fmt.Errorf("decode graph: %w", err)
	}
	g, err := ToCausal(gj)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return g, nil
}
