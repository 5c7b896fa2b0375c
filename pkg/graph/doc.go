// Package graph provides serialization types for story and pathway graphs.
//
// This package defines the canonical wire format for Storyfold's graph
// data, used for JSON files, API responses, caching, MongoDB storage,
// and cross-tool interoperability.
//
// # Architecture
//
// The package sits at the serialization boundary between the internal
// representation and external formats:
//
//   - [Graph], [Node], [HyperEdge], [Edge]: serialization types (this package)
//   - pkg/causal.Graph: internal graph representation
//
// Use [FromCausal]/[ToCausal] to convert between them.
//
// # Graph Serialization
//
// Graphs use a node plus hyperedge JSON format:
//
//	{
//	  "eoi": "phos",
//	  "occurrence": 3,
//	  "nodes": [{"id": "node1", "label": "bind", "rank": 1}],
//	  "hyperedges": [{"edges": [{"source": "node1", "target": "node2",
//	                             "weight": 6, "number": 4}],
//	                  "weight": 6, "number": 4}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("pathway.json")  // File → causal.Graph
//	graph.WriteGraphFile(g, "output.json")       // causal.Graph → File
//	data, _ := graph.MarshalGraph(g)             // causal.Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)      // []byte → Graph
//
// Hyperedge statistics (weight, number, relation) are serialized for
// consumers but re-derived from member edges on import; cover
// hyperedges keep their serialized weight since it is a sum, not a
// derivation.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
