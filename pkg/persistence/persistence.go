// Package persistence declares the contract-only Persistence collaborator
// boundary (§6 items 1 and 5): load_attributed_graph, save_graph, and
// load_graph. Binary serialization and the property-file-graph reader
// are out of scope (spec §1 Non-goals: "on-disk serialization"); this
// package gives that external implementation a real Go interface and a
// goccy/go-json-backed stats encoder, grounded on the teacher's
// pkg/storage collaborator-interface style (badger.go implements a
// Store interface rather than being called directly).
package persistence

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/telemetry"
)

// ErrNotFound is returned by LoadGraph/LoadAttributedGraph when path does
// not name an existing graph, mirroring the teacher's pkg/storage
// sentinel-error style.
var ErrNotFound = fmt.Errorf("persistence: graph not found")

// Store is the Persistence collaborator's contract. save_graph/load_graph
// (§6 item 5) round-trip topology, label mappings, node/edge name
// tables, and attribute maps; load_attributed_graph (§6 item 1) instead
// reads an external property-file-graph format and converts boolean
// columns into the label bitset. Implementations of both live outside
// this repository (§1 Non-goals); this interface is what they target.
type Store interface {
	// LoadAttributedGraph reads a property-file-graph at path: CSR
	// topology plus per-node/per-edge columnar property tables, with
	// boolean columns folded into the label bitset (§6 item 1).
	LoadAttributedGraph(path string) (*graph.Graph, error)

	// SaveGraph writes g's full topology, labels, attributes, and name
	// mappings to path in this Store's binary format (§6 item 5).
	SaveGraph(g *graph.Graph, path string) error

	// LoadGraph is SaveGraph's inverse: §8's persistence round-trip law
	// requires LoadGraph(SaveGraph(g)) to equal g in topology, labels,
	// attributes, and name mappings.
	LoadGraph(path string) (*graph.Graph, error)
}

// WriteStatsJSON encodes a telemetry.GraphStats snapshot as JSON to path
// (query-tool does not call it; its --output writes queries.count),
// using goccy/go-json in place of encoding/json per the teacher corpus's
// preference for the faster drop-in.
func WriteStatsJSON(stats telemetry.GraphStats, writeFile func(name string, data []byte) error, path string) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal graph stats: %w", err)
	}
	if err := writeFile(path, data); err != nil {
		return fmt.Errorf("persistence: write %q: %w", path, err)
	}
	return nil
}
