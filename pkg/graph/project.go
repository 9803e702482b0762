package graph

import "github.com/orneryd/graphquery/pkg/csr"

// nameColumn is the conventional attribute column NodeFilter regexes run
// against (§3.6's NodeFilter is applied to the node's "name" attribute).
const nameColumn = "name"

// NodeName returns the "name" string attribute of a node, or "" if the
// graph has no such column or the node has no value in it.
func (g *Graph) NodeName(v csr.NodeId) string {
	c, ok := g.NodeColumns[nameColumn]
	if !ok || c.Kind != ColString || int(v) >= len(c.Strings) {
		return ""
	}
	return c.Strings[v]
}

// MatchedNode is the result-projection shape a caller walks after a query
// returns its count — grounded on the original Katana engine's
// MatchedNode{id, name} struct (GraphSimulation.h).
type MatchedNode struct {
	ID   string
	Name string
}

// MatchedEdge is the edge analogue of MatchedNode, carrying the original's
// timestamp/label/endpoints/singleton shape. IsSingleton is set when the
// matched edge is a self-loop (src == dst).
type MatchedEdge struct {
	Timestamp   uint64
	Label       string
	CausedBy    MatchedNode
	ActedOn     MatchedNode
	IsSingleton bool
}

// EnumerateMatchedNodes walks every data node whose matched_bits has bit q
// set and returns its projection.
func (g *Graph) EnumerateMatchedNodes(q uint) []MatchedNode {
	var out []MatchedNode
	for v := 0; v < g.CSR.N; v++ {
		if g.CSR.NodeMatchedBits(csr.NodeId(v))&(1<<q) != 0 {
			out = append(out, MatchedNode{ID: g.nodeUUID[v], Name: g.NodeName(csr.NodeId(v))})
		}
	}
	return out
}

// EnumerateMatchedEdges walks every edge whose MatchedBits has bit qe set.
func (g *Graph) EnumerateMatchedEdges(qe uint) []MatchedEdge {
	var out []MatchedEdge
	for v := 0; v < g.CSR.N; v++ {
		lo, hi := g.CSR.OutEdges(csr.NodeId(v))
		for i := lo; i < hi; i++ {
			ed := g.CSR.OutEData[i]
			if ed.MatchedBits&(1<<qe) == 0 {
				continue
			}
			dst := g.CSR.OutDst[i]
			label := ""
			for bit := 0; bit < len(g.edgeLabelName); bit++ {
				if ed.LabelBits&(1<<uint(bit)) != 0 {
					label = g.edgeLabelName[bit]
					break
				}
			}
			out = append(out, MatchedEdge{
				Timestamp:   ed.Timestamp,
				Label:       label,
				CausedBy:    MatchedNode{ID: g.nodeUUID[v], Name: g.NodeName(csr.NodeId(v))},
				ActedOn:     MatchedNode{ID: g.nodeUUID[dst], Name: g.NodeName(dst)},
				IsSingleton: csr.NodeId(v) == dst,
			})
		}
	}
	return out
}
