// Package enumerate implements the Subgraph Enumeration Matcher (C6): BFS
// level-synchronous enumeration of embeddings that respect every structural
// and label constraint surviving the Graph Simulation Matcher (package
// simulate). It returns only a count; matched_bits already carries the
// marks a caller needs to walk surviving nodes (package graph's
// EnumerateMatchedNodes/EnumerateMatchedEdges).
//
// The pivot-selection and candidate-generation shape is grounded on
// SubgraphQuery.h's pickNeighbor/constructNeighbors/toAdd/process_embedding:
// a query node's placed neighbors are split into "in" (query edges into it)
// and "out" (query edges out of it) groups, a pivot with the smallest
// candidate set is picked among them, and every other placed neighbor is
// re-checked for connectivity once a candidate is proposed. Where the
// original's toAdd branches on the pivot's own category for every
// neighbor's direction check, this implementation branches on each
// neighbor's own category instead, matching the direction §4.6 describes
// ("for every non-pivot neighbor i ... in the correct direction").
package enumerate

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/planner"
)

// chunkSize mirrors QUERY_CHUNK_SIZE from the original engine's work-stealing
// galois::chunk_size<> tuning.
const chunkSize = 256

// embedding is a prefix of the matching order: embedding[i] is the data
// node chosen for p.MatchingOrder[i].
type embedding []csr.NodeId

// neighborEdge is one already-placed query neighbor of the query node being
// extended at the current level.
type neighborEdge struct {
	orderIdx uint32 // index into the embedding of the placed neighbor
	mask     graph.LabelMask
}

// Count runs the enumeration to completion and returns the number of
// embeddings found, capped at limit (0 means unlimited). It assumes
// simulate.Run has already populated g.CSR.NodeMatched.
func Count(ctx context.Context, p *planner.Plan, g *graph.Graph, limit uint64) (uint64, error) {
	n := len(p.MatchingOrder)
	if n == 0 {
		return 0, nil
	}

	q0 := p.MatchingOrder[0]
	var level []embedding
	for v := 0; v < len(g.CSR.NodeLabel); v++ {
		d := csr.NodeId(v)
		if g.CSR.NodeMatchedBits(d)&(uint32(1)<<q0) == 0 {
			continue
		}
		if !matchNodeDegree(p, g, q0, d) {
			continue
		}
		level = append(level, embedding{d})
	}

	if n == 1 {
		return capAt(uint64(len(level)), limit), nil
	}

	var total uint64
	for step := 1; step < n && len(level) > 0; step++ {
		nextQ := p.MatchingOrder[step]
		neighbors, numIn := buildNeighbors(p, step)
		lastLevel := step == n-1

		var nextLevel []embedding
		var mu sync.Mutex
		var found atomic.Uint64
		eg, egCtx := errgroup.WithContext(ctx)

		for lo := 0; lo < len(level); lo += chunkSize {
			lo := lo
			hi := lo + chunkSize
			if hi > len(level) {
				hi = len(level)
			}
			eg.Go(func() error {
				if err := egCtx.Err(); err != nil {
					return err
				}
				var localNext []embedding
				var localCount uint64
				for _, emb := range level[lo:hi] {
					pivotIdx := pickPivot(neighbors, numIn, emb, g)
					extendOne(p, g, nextQ, emb, neighbors, numIn, pivotIdx, func(cand csr.NodeId) {
						if lastLevel {
							localCount++
							return
						}
						newEmb := make(embedding, len(emb)+1)
						copy(newEmb, emb)
						newEmb[len(emb)] = cand
						localNext = append(localNext, newEmb)
					})
				}
				if lastLevel {
					found.Add(localCount)
					return nil
				}
				mu.Lock()
				nextLevel = append(nextLevel, localNext...)
				mu.Unlock()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return 0, err
		}
		if lastLevel {
			total = found.Load()
			break
		}
		level = nextLevel
	}

	return capAt(total, limit), nil
}

func capAt(count, limit uint64) uint64 {
	if limit > 0 && count > limit {
		return limit
	}
	return count
}

// buildNeighbors lists, for the query node placed at step, every already
// placed query neighbor: incoming-edge neighbors first (numIn of them),
// then outgoing-edge neighbors (constructNeighbors).
func buildNeighbors(p *planner.Plan, step int) (neighbors []neighborEdge, numIn int) {
	nextQ := csr.NodeId(p.MatchingOrder[step])

	lo, hi := p.QueryCSR.InEdges(nextQ)
	for i := lo; i < hi; i++ {
		src := p.QueryCSR.InSrc[i]
		if p.OrderOf[src] < uint32(step) {
			ed := p.QueryCSR.InEData[i]
			neighbors = append(neighbors, neighborEdge{orderIdx: p.OrderOf[src], mask: p.EdgeMasks[ed.LabelBits-1]})
		}
	}
	numIn = len(neighbors)

	lo, hi = p.QueryCSR.OutEdges(nextQ)
	for i := lo; i < hi; i++ {
		dst := p.QueryCSR.OutDst[i]
		if p.OrderOf[dst] < uint32(step) {
			ed := p.QueryCSR.OutEData[i]
			neighbors = append(neighbors, neighborEdge{orderIdx: p.OrderOf[dst], mask: p.EdgeMasks[ed.LabelBits-1]})
		}
	}
	return neighbors, numIn
}

// pickPivot chooses the neighbor whose corresponding data vertex has the
// smallest candidate-edge count, skipping the search entirely (pivot 0) for
// the common case of fewer than 3 neighbors.
func pickPivot(neighbors []neighborEdge, numIn int, emb embedding, g *graph.Graph) int {
	if len(neighbors) < 3 {
		return 0
	}
	best := 0
	bestCount := -1
	for i, nb := range neighbors {
		d := emb[nb.orderIdx]
		var count int
		if i < numIn {
			count = g.CSR.OutDegreeMatching(d, nb.mask.Matches)
		} else {
			count = g.CSR.InDegreeMatching(d, nb.mask.Matches)
		}
		if bestCount == -1 || count < bestCount {
			bestCount = count
			best = i
		}
	}
	return best
}

// extendOne generates every candidate data node from the pivot and emits
// the ones that pass toAdd via emit.
func extendOne(p *planner.Plan, g *graph.Graph, nextQ uint32, emb embedding, neighbors []neighborEdge, numIn, pivotIdx int, emit func(csr.NodeId)) {
	pivot := neighbors[pivotIdx]
	pivotVertex := emb[pivot.orderIdx]

	if pivotIdx < numIn {
		// Pivot is an in-neighbor: query edge is pivot -> nextQ, so
		// candidates are pivotVertex's matching out-neighbors.
		g.CSR.ForEachOutMatching(pivotVertex, pivot.mask.Matches, func(_ int32, cand csr.NodeId) {
			if toAdd(p, g, nextQ, emb, pivotIdx, cand, neighbors, numIn) {
				emit(cand)
			}
		})
		return
	}
	// Pivot is an out-neighbor: query edge is nextQ -> pivot, so
	// candidates are pivotVertex's matching in-neighbors.
	g.CSR.ForEachInMatching(pivotVertex, pivot.mask.Matches, func(_ int32, cand csr.NodeId) {
		if toAdd(p, g, nextQ, emb, pivotIdx, cand, neighbors, numIn) {
			emit(cand)
		}
	})
}

// toAdd re-validates a candidate against matched_bits, degree, injectivity,
// and connectivity to every placed neighbor other than the pivot.
func toAdd(p *planner.Plan, g *graph.Graph, nextQ uint32, emb embedding, pivotIdx int, cand csr.NodeId, neighbors []neighborEdge, numIn int) bool {
	if g.CSR.NodeMatchedBits(cand)&(uint32(1)<<nextQ) == 0 {
		return false
	}
	if !matchNodeDegree(p, g, nextQ, cand) {
		return false
	}
	for _, v := range emb {
		if v == cand {
			return false
		}
	}
	for i, nb := range neighbors {
		if i == pivotIdx {
			continue
		}
		d := emb[nb.orderIdx]
		if i < numIn {
			// Query edge is d -> nextQ: data edge must be d -> cand.
			if !g.CSR.IsConnectedMatching(d, cand, nb.mask.Matches) {
				return false
			}
		} else {
			// Query edge is nextQ -> d: data edge must be cand -> d.
			if !g.CSR.IsConnectedMatching(cand, d, nb.mask.Matches) {
				return false
			}
		}
	}
	return true
}

// matchNodeDegree requires a candidate's total degree to be at least the
// query node's total degree in each direction (§4.6's match_node_degree).
func matchNodeDegree(p *planner.Plan, g *graph.Graph, qn uint32, d csr.NodeId) bool {
	return g.CSR.OutDegree[d] >= p.QueryCSR.OutDegree[qn] && g.CSR.InDegree[d] >= p.QueryCSR.InDegree[qn]
}
