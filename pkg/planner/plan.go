// Package planner turns a compiled cypher.Query plus an attributed graph
// into a Plan the matchers (packages simulate, enumerate, varpath) can
// execute directly: resolved label masks, a small query-graph CSR, a
// descending-total-degree matching order, and the star-edge constraints
// pulled out of the plain pattern (§4.4).
//
// The matching-order heuristic (sort query vertices by total degree,
// ties broken by original index) is grounded on SubgraphQuery.h's
// OrderVertices comparator in the original engine.
package planner

import (
	"fmt"
	"sort"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/cypher"
	"github.com/orneryd/graphquery/pkg/graph"
)

// ErrUnknownLabel describes a query label the data graph never declared.
// Build does not return it: an unknown label yields a nil Plan and a nil
// error, meaning zero matches rather than a failure (§4.3).
type ErrUnknownLabel struct {
	Kind  string // "node" or "edge"
	Label string
}

func (e *ErrUnknownLabel) Error() string {
	return fmt.Sprintf("planner: unknown %s label %q", e.Kind, e.Label)
}

// StarConstraint is a variable-length edge pulled out of the plain
// pattern, to be resolved by package varpath after the rest of the
// pattern is matched.
type StarConstraint struct {
	// Src/Dst are query-node ids (not matching-order positions).
	Src, Dst uint32
	Shortest bool
	LabelMask graph.LabelMask
	// AnyLabel is true when the star edge has no label restriction at all.
	AnyLabel bool
}

// Plan is the fully-resolved, matcher-ready form of a compiled query.
type Plan struct {
	Query *cypher.Query

	// QueryCSR holds only the non-star edges, indexed by QueryNode.ID.
	QueryCSR *csr.Graph

	NodeMasks []graph.LabelMask
	EdgeMasks []graph.LabelMask

	// MatchingOrder[i] is the query-node id visited at step i.
	MatchingOrder []uint32
	// OrderOf[qnode] is the step at which qnode is visited.
	OrderOf []uint32

	Stars []StarConstraint
}

// Build validates every label referenced by q against g and produces a
// Plan. A nil Plan with a nil error means the query is well-formed but can
// never match (e.g. references a label g never declared) — callers should
// treat that as zero results rather than an error (§4.3, §7).
func Build(q *cypher.Query, g *graph.Graph) (*Plan, error) {
	n := uint32(len(q.Nodes))
	if n == 0 {
		return nil, fmt.Errorf("planner: query has no nodes")
	}
	if n > cypher.MaxQueryNodes {
		return nil, fmt.Errorf("planner: query has %d nodes, exceeds %d-node limit: %w", n, cypher.MaxQueryNodes, graph.ErrLimitExceeded)
	}

	nodeMasks := make([]graph.LabelMask, n)
	for _, qn := range q.Nodes {
		spec := qn.Label
		if spec == "" {
			spec = "any"
		}
		ok, mask := g.GetNodeLabelMask(spec)
		if !ok {
			return nil, nil
		}
		nodeMasks[qn.ID] = mask
	}

	var plainEdges []cypher.QueryEdge
	var stars []StarConstraint
	for _, qe := range q.Edges {
		if qe.Star == nil {
			plainEdges = append(plainEdges, qe)
			continue
		}
		restriction := qe.Star.LabelMask
		anyLabel := restriction == ""
		var mask graph.LabelMask
		if !anyLabel {
			ok, m := g.GetEdgeLabelMask(restriction)
			if !ok {
				return nil, nil
			}
			mask = m
		}
		stars = append(stars, StarConstraint{
			Src: qe.Src, Dst: qe.Dst, Shortest: qe.Star.Shortest,
			LabelMask: mask, AnyLabel: anyLabel,
		})
	}

	edgeMasks := make([]graph.LabelMask, len(plainEdges))
	for i, qe := range plainEdges {
		spec := qe.Label
		if spec == "" {
			spec = "ANY"
		}
		ok, mask := g.GetEdgeLabelMask(spec)
		if !ok {
			return nil, nil
		}
		edgeMasks[i] = mask
	}

	qcsr, err := buildQueryCSR(n, plainEdges)
	if err != nil {
		return nil, err
	}

	order, orderOf := matchingOrder(qcsr)

	return &Plan{
		Query:         q,
		QueryCSR:      qcsr,
		NodeMasks:     nodeMasks,
		EdgeMasks:     edgeMasks,
		MatchingOrder: order,
		OrderOf:       orderOf,
		Stars:         stars,
	}, nil
}

// buildQueryCSR assembles a tiny CSR graph out of the query's plain edges,
// reusing package csr's construction/accounting so the matchers can treat
// query topology the same way they treat data topology (§4.1, §4.4).
func buildQueryCSR(n uint32, edges []cypher.QueryEdge) (*csr.Graph, error) {
	outIndex := make([]int32, n+1)
	for _, e := range edges {
		outIndex[e.Src+1]++
	}
	for i := uint32(1); i <= n; i++ {
		outIndex[i] += outIndex[i-1]
	}
	outDst := make([]csr.NodeId, outIndex[n])
	outEData := make([]csr.EdgeData, outIndex[n])
	cursor := append([]int32(nil), outIndex...)
	for i, e := range edges {
		pos := cursor[e.Src]
		cursor[e.Src]++
		outDst[pos] = csr.NodeId(e.Dst)
		// LabelBits doubles here as "which plain query-edge index this
		// came from" (offset by 1 so 0 stays reserved) — the matchers
		// use EdgeMasks[i], not LabelBits, for actual label predicates;
		// this index is what lets a matcher recover which QueryEdge a
		// query-CSR edge corresponds to.
		outEData[pos] = csr.EdgeData{LabelBits: uint32(i) + 1, Timestamp: uint64(e.Timestamp)}
	}
	return csr.Build(int(n), outIndex, outDst, outEData)
}

// matchingOrder sorts query nodes by descending total degree (in+out),
// breaking ties by ascending id for determinism.
func matchingOrder(qcsr *csr.Graph) (order, orderOf []uint32) {
	n := uint32(len(qcsr.OutDegree))
	order = make([]uint32, n)
	for i := range order {
		order[i] = uint32(i)
	}
	totalDegree := func(v uint32) int {
		return int(qcsr.OutDegree[v]) + int(qcsr.InDegree[v])
	}
	sort.SliceStable(order, func(i, j int) bool {
		di, dj := totalDegree(order[i]), totalDegree(order[j])
		if di != dj {
			return di > dj
		}
		return order[i] < order[j]
	})
	orderOf = make([]uint32, n)
	for step, v := range order {
		orderOf[v] = uint32(step)
	}
	return order, orderOf
}
