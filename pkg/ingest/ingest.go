// Package ingest declares the contract an external bulk-loader implements
// to hand nodes and edges to build_attributed_graph (§6 item 2). Bulk
// ingest itself — GraphML/CSV/JSON/MongoDB/MySQL readers — is out of
// scope (spec §1 Non-goals); this package only gives that out-of-tree
// code a real Go interface to target, grounded on original_source's
// tools/graph-convert entry points and the teacher's collaborator-style
// package boundaries (pkg/storage's interfaces in nornicdb).
package ingest

import (
	"iter"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/graph"
)

// NodeRecord is one node as handed to the graph Builder: an external
// identifier, the label names it carries, and its attribute values keyed
// by column name.
type NodeRecord struct {
	UUID       string
	Labels     []string
	Attributes map[string]any
}

// EdgeRecord is one directed edge as handed to the graph Builder.
// SrcUUID/DstUUID are resolved against the node UUIDs already emitted by
// the same Source, matching the original's deferred-embedded-node
// ordering constraint (§9 design notes: nodes close before their edges).
type EdgeRecord struct {
	SrcUUID, DstUUID string
	Label            string
	Timestamp        uint64
	Attributes       map[string]any
}

// Source is the contract an ingest collaborator (GraphML reader, MongoDB
// cursor, MySQL query, CSV scanner, ...) implements. Nodes must be fully
// drained before Edges is called, so build_attributed_graph can resolve
// every SrcUUID/DstUUID against an already-known NodeId (§9's "Graph is
// always fully constructed before any matcher runs").
type Source interface {
	Nodes() iter.Seq[NodeRecord]
	Edges() iter.Seq[EdgeRecord]
}

// BuildAttributedGraph drains src into a graph.Builder and returns the
// finalized graph.Graph, implementing §6 item 2's incremental-construction
// entry point. numNodeLabels/numEdgeLabels size the Builder's label
// tables; Source implementations that don't know these counts up front
// should over-estimate, since NewBuilder grows its label tables lazily
// only up to the declared cap (graph.ErrLimitExceeded beyond 32).
func BuildAttributedGraph(src Source, numNodes, numEdges, numNodeLabels, numEdgeLabels int) (*graph.Graph, error) {
	b := graph.NewBuilder(numNodes, numEdges, numNodeLabels, numEdgeLabels)

	nodeIndex := make(map[string]int, numNodes)
	labelBits := make(map[string]uint, numNodeLabels)
	edgeLabelBits := make(map[string]uint, numEdgeLabels)

	id := 0
	for rec := range src.Nodes() {
		nodeIndex[rec.UUID] = id
		for _, name := range rec.Labels {
			bit, ok := labelBits[name]
			if !ok {
				var err error
				bit, err = b.DeclareNodeLabel(name)
				if err != nil {
					return nil, err
				}
				labelBits[name] = bit
			}
			b.AddToNodeLabel(csr.NodeId(id), bit)
		}
		b.SetNodeUUID(csr.NodeId(id), rec.UUID)
		id++
	}

	for rec := range src.Edges() {
		srcID, ok := nodeIndex[rec.SrcUUID]
		if !ok {
			continue
		}
		dstID, ok := nodeIndex[rec.DstUUID]
		if !ok {
			continue
		}
		ticket := b.AddEdge(csr.NodeId(srcID), csr.NodeId(dstID), rec.Timestamp)
		if rec.Label == "" {
			continue
		}
		bit, ok := edgeLabelBits[rec.Label]
		if !ok {
			var err error
			bit, err = b.DeclareEdgeLabel(rec.Label)
			if err != nil {
				return nil, err
			}
			edgeLabelBits[rec.Label] = bit
		}
		b.AddToEdgeLabel(ticket, bit)
	}

	return b.Finalize()
}
