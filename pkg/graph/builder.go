package graph

import (
	"github.com/google/uuid"

	"github.com/orneryd/graphquery/pkg/csr"
)

// pendingEdge is a not-yet-sorted outgoing edge collected during
// incremental construction.
type pendingEdge struct {
	src, dst csr.NodeId
	label    uint32
	ts       uint64
}

// Builder is the incremental-construction entry point (§6 item 2,
// build_attributed_graph) used by an Ingest collaborator: declare labels,
// add nodes and edges, then Finalize into an immutable Graph.
type Builder struct {
	numNodes int

	nodeLabelName []string
	nodeLabelID   map[string]uint
	edgeLabelName []string
	edgeLabelID   map[string]uint

	nodeLabelBits []uint32
	nodeUUID      []string
	nodeIndex     map[string]csr.NodeId

	edges []pendingEdge

	nodeColumns map[string]*Column
	edgeColumns map[string]*Column
}

// NewBuilder preallocates a builder for a graph of the given approximate
// size. numEdgesHint only sizes an internal slice; it is not a hard limit.
func NewBuilder(numNodes, numEdgesHint, numNodeLabels, numEdgeLabels int) *Builder {
	return &Builder{
		numNodes:      numNodes,
		nodeLabelID:   make(map[string]uint, numNodeLabels),
		edgeLabelID:   make(map[string]uint, numEdgeLabels),
		nodeLabelBits: make([]uint32, numNodes),
		nodeUUID:      make([]string, numNodes),
		nodeIndex:     make(map[string]csr.NodeId, numNodes),
		edges:         make([]pendingEdge, 0, numEdgesHint),
		nodeColumns:   make(map[string]*Column),
		edgeColumns:   make(map[string]*Column),
	}
}

// DeclareNodeLabel assigns the next free bit to name, or returns the bit it
// already has. Returns ErrLimitExceeded past 32 distinct labels.
func (b *Builder) DeclareNodeLabel(name string) (uint, error) {
	if bit, ok := b.nodeLabelID[name]; ok {
		return bit, nil
	}
	if len(b.nodeLabelName) >= maxLabels {
		return 0, ErrLimitExceeded
	}
	bit := uint(len(b.nodeLabelName))
	b.nodeLabelName = append(b.nodeLabelName, name)
	b.nodeLabelID[name] = bit
	return bit, nil
}

// DeclareEdgeLabel is the edge-label analogue of DeclareNodeLabel.
func (b *Builder) DeclareEdgeLabel(name string) (uint, error) {
	if bit, ok := b.edgeLabelID[name]; ok {
		return bit, nil
	}
	if len(b.edgeLabelName) >= maxLabels {
		return 0, ErrLimitExceeded
	}
	bit := uint(len(b.edgeLabelName))
	b.edgeLabelName = append(b.edgeLabelName, name)
	b.edgeLabelID[name] = bit
	return bit, nil
}

// AddToNodeLabel ORs bit into node's label_bits. Ingest-time only.
func (b *Builder) AddToNodeLabel(node csr.NodeId, bit uint) {
	b.nodeLabelBits[node] |= 1 << bit
}

// SetNodeUUID records the external identifier for a node.
func (b *Builder) SetNodeUUID(node csr.NodeId, uuid string) {
	b.nodeUUID[node] = uuid
	b.nodeIndex[uuid] = node
}

// assignMissingUUIDs generates a random external id for any node Ingest
// never called SetNodeUUID on, so build_attributed_graph's incremental
// API (§6 item 2) never hands back a Graph with an empty node_uuid slot.
func (b *Builder) assignMissingUUIDs(n int) {
	for v := 0; v < n; v++ {
		if b.nodeUUID[v] != "" {
			continue
		}
		id := uuid.NewString()
		b.nodeUUID[v] = id
		b.nodeIndex[id] = csr.NodeId(v)
	}
}

// AddEdge queues an outgoing edge and returns a ticket that AddToEdgeLabel
// can use to OR in further label bits before Finalize.
func (b *Builder) AddEdge(src, dst csr.NodeId, timestamp uint64) int {
	b.edges = append(b.edges, pendingEdge{src: src, dst: dst, ts: timestamp})
	return len(b.edges) - 1
}

// AddToEdgeLabel ORs bit into the label_bits of the pending edge identified
// by ticket (the value AddEdge returned).
func (b *Builder) AddToEdgeLabel(ticket int, bit uint) {
	b.edges[ticket].label |= 1 << bit
}

// NodeColumn declares (or returns the existing) node attribute column named
// name with the given kind.
func (b *Builder) NodeColumn(name string, kind ColumnKind) *Column {
	return namedColumn(b.nodeColumns, name, kind)
}

// EdgeColumn is the edge-attribute analogue of NodeColumn.
func (b *Builder) EdgeColumn(name string, kind ColumnKind) *Column {
	return namedColumn(b.edgeColumns, name, kind)
}

func namedColumn(m map[string]*Column, name string, kind ColumnKind) *Column {
	if c, ok := m[name]; ok {
		return c
	}
	c := &Column{Kind: kind}
	m[name] = c
	return c
}

// Finalize sorts queued edges into outgoing-adjacency order and hands them
// to csr.Build, producing the immutable Graph.
func (b *Builder) Finalize() (*Graph, error) {
	n := b.numNodes
	outDegree := make([]int32, n+1)
	for _, e := range b.edges {
		outDegree[int(e.src)+1]++
	}
	for v := 0; v < n; v++ {
		outDegree[v+1] += outDegree[v]
	}

	outDst := make([]csr.NodeId, len(b.edges))
	outEData := make([]csr.EdgeData, len(b.edges))
	cursor := append([]int32(nil), outDegree...)
	for _, e := range b.edges {
		pos := cursor[e.src]
		cursor[e.src]++
		outDst[pos] = e.dst
		outEData[pos] = csr.EdgeData{LabelBits: e.label, Timestamp: e.ts}
	}

	topo, err := csr.Build(n, outDegree, outDst, outEData)
	if err != nil {
		return nil, err
	}
	copy(topo.NodeLabel, b.nodeLabelBits)
	b.assignMissingUUIDs(n)

	for _, c := range b.nodeColumns {
		c.grow(n)
	}
	for _, c := range b.edgeColumns {
		c.grow(len(b.edges))
	}

	return &Graph{
		CSR:           topo,
		nodeLabelName: b.nodeLabelName,
		nodeLabelID:   b.nodeLabelID,
		edgeLabelName: b.edgeLabelName,
		edgeLabelID:   b.edgeLabelID,
		nodeUUID:      b.nodeUUID,
		nodeIndex:     b.nodeIndex,
		NodeColumns:   b.nodeColumns,
		EdgeColumns:   b.edgeColumns,
	}, nil
}
