package graph

import (
	"strings"

	"github.com/orneryd/graphquery/pkg/csr"
)

// Graph is the Attributed Graph (C2): topology (package csr) plus
// label/name mappings and columnar attributes.
type Graph struct {
	CSR *csr.Graph

	nodeLabelName []string
	nodeLabelID   map[string]uint
	edgeLabelName []string
	edgeLabelID   map[string]uint

	nodeUUID  []string
	nodeIndex map[string]csr.NodeId

	NodeColumns map[string]*Column
	EdgeColumns map[string]*Column
}

// NodeLabelName returns the string name for a node-label bit position.
func (g *Graph) NodeLabelName(bit uint) string { return g.nodeLabelName[bit] }

// EdgeLabelName returns the string name for an edge-label bit position.
func (g *Graph) EdgeLabelName(bit uint) string { return g.edgeLabelName[bit] }

// NodeLabelNames returns every declared node-label name, ordered by bit
// position, for report_graph_stats (§6 item 6).
func (g *Graph) NodeLabelNames() []string { return append([]string(nil), g.nodeLabelName...) }

// EdgeLabelNames is the edge analogue of NodeLabelNames.
func (g *Graph) EdgeLabelNames() []string { return append([]string(nil), g.edgeLabelName...) }

// NodeUUID returns the external identifier of a node.
func (g *Graph) NodeUUID(v csr.NodeId) string { return g.nodeUUID[v] }

// NodeByUUID resolves an external identifier back to a NodeId.
func (g *Graph) NodeByUUID(uuid string) (csr.NodeId, bool) {
	id, ok := g.nodeIndex[uuid]
	return id, ok
}

// LabelMask is a resolved positive/negative bitmask pair: a data entity
// matches iff every Positive bit is set and every Negative bit is clear
// (§4.2's match_node_label / match_edge_label formula).
type LabelMask struct {
	Positive uint32
	Negative uint32
}

// Matches applies the §4.2 predicate: ((P|N) & bits) == P.
func (m LabelMask) Matches(bits uint32) bool {
	return ((m.Positive | m.Negative) & bits) == m.Positive
}

// GetNodeLabelMask parses a label spec string into a LabelMask. Supported
// forms: "any"/"ANY" (match everything), "~X" (negative only), and a
// semicolon-separated list of positive and "~"-prefixed negative tokens
// ("A;B;~C"). ok is false iff a positive token names a label this graph has
// never declared — callers must then short-circuit to zero matches.
func (g *Graph) GetNodeLabelMask(spec string) (ok bool, mask LabelMask) {
	return parseLabelMask(spec, g.nodeLabelID)
}

// GetEdgeLabelMask is the edge-label analogue of GetNodeLabelMask.
func (g *Graph) GetEdgeLabelMask(spec string) (ok bool, mask LabelMask) {
	return parseLabelMask(spec, g.edgeLabelID)
}

func parseLabelMask(spec string, ids map[string]uint) (bool, LabelMask) {
	trimmed := strings.TrimSpace(spec)
	if strings.EqualFold(trimmed, "any") {
		return true, LabelMask{}
	}

	var mask LabelMask
	for _, tok := range strings.Split(trimmed, ";") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if strings.HasPrefix(tok, "~") {
			name := strings.TrimSpace(tok[1:])
			bit, ok := ids[name]
			if !ok {
				// An unknown negative label can never be set anyway;
				// it contributes nothing rather than failing the query.
				continue
			}
			mask.Negative |= 1 << bit
			continue
		}
		bit, ok := ids[tok]
		if !ok {
			return false, LabelMask{}
		}
		mask.Positive |= 1 << bit
	}
	return true, mask
}

// MatchNodeLabel is the node form of §4.2's match_node_label predicate.
func MatchNodeLabel(q LabelMask, dataLabelBits uint32) bool { return q.Matches(dataLabelBits) }

// MatchEdgeLabel is the edge form of the same predicate.
func MatchEdgeLabel(q LabelMask, dataLabelBits uint32) bool { return q.Matches(dataLabelBits) }

// ResetMatchedStatus clears matched_bits on every node (and, if
// clearEdges is true, every edge). This is the first step of the Graph
// Simulation Matcher's labeling phase (§4.5.1), and also how
// UnknownLabel/EmptyCandidateSet short-circuit back to "zero matches".
func (g *Graph) ResetMatchedStatus(clearEdges bool) {
	g.CSR.ResetAllMatched()
	if !clearEdges {
		return
	}
	for i := range g.CSR.OutEData {
		g.CSR.OutEData[i].MatchedBits = 0
	}
}

// CountMatchedNodes sums, over every node, however many query-node bits
// are currently set, in one sequential pass over the matched_bits array.
func (g *Graph) CountMatchedNodes() uint64 {
	var total uint64
	for _, bits := range g.CSR.NodeMatched {
		total += uint64(popcount32(bits))
	}
	return total
}

// CountMatchedEdges is the edge analogue of CountMatchedNodes.
func (g *Graph) CountMatchedEdges() uint64 {
	var total uint64
	for _, ed := range g.CSR.OutEData {
		total += uint64(popcount64(ed.MatchedBits))
	}
	return total
}

func popcount32(x uint32) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}

func popcount64(x uint64) int {
	n := 0
	for x != 0 {
		x &= x - 1
		n++
	}
	return n
}
