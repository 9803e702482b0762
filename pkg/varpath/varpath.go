// Package varpath implements the Variable-Length Path Matcher (C7):
// resolving `*` edges (§4.7) after the Graph Simulation Matcher (package
// simulate) has run to a fixed point. Shortest-path resolution is a
// parallel level-synchronous BFS with an atomic compare-and-swap parent
// array, one CAS election per node so each node gets exactly one
// predecessor, followed by a sequential walk back from every reached
// destination to mark its path; all-paths resolution is a two-bit forward/backward
// reachability sweep. Both are grounded on GraphSimulation.h's description
// of the star-edge pass and mirror the chunked, errgroup-driven
// parallelism the rest of this module's matchers use in place of the
// original's galois::do_all.
package varpath

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/planner"
)

const chunkSize = 256

// PathMark records which data nodes and data edges lie on some resolved
// path for one star constraint, so the engine layer can fold them into a
// synthetic matched-bit representation distinct from the fixed
// num_query_nodes bit space (§4.7's "synthetic match-bit").
type PathMark struct {
	Nodes map[csr.NodeId]bool
	Edges map[csr.NodeId]map[csr.NodeId]bool
}

func newPathMark() PathMark {
	return PathMark{Nodes: make(map[csr.NodeId]bool), Edges: make(map[csr.NodeId]map[csr.NodeId]bool)}
}

func (m PathMark) markEdge(src, dst csr.NodeId) {
	row, ok := m.Edges[src]
	if !ok {
		row = make(map[csr.NodeId]bool)
		m.Edges[src] = row
	}
	row[dst] = true
}

// Result holds one PathMark per planner.Plan.Stars entry, in order.
type Result struct {
	Marks []PathMark
}

// Run resolves every star constraint in p.Stars against g, clearing the
// matched_bits of source/destination query nodes that turn out unreachable
// and returning the path marks for the rest.
func Run(ctx context.Context, p *planner.Plan, g *graph.Graph) (*Result, error) {
	res := &Result{Marks: make([]PathMark, len(p.Stars))}
	for i, sc := range p.Stars {
		var mark PathMark
		var err error
		if sc.Shortest {
			mark, err = shortestPaths(ctx, g, sc)
		} else {
			mark, err = allPaths(ctx, g, sc)
		}
		if err != nil {
			return nil, err
		}
		res.Marks[i] = mark
	}
	return res, nil
}

func labelPred(sc planner.StarConstraint) csr.LabelPredicate {
	if sc.AnyLabel {
		return func(uint32) bool { return true }
	}
	return sc.LabelMask.Matches
}

// shortestPaths implements §4.7's default variant: a CAS-elected parent
// array walked level by level, then walked back from every reached
// destination to mark the path.
func shortestPaths(ctx context.Context, g *graph.Graph, sc planner.StarConstraint) (PathMark, error) {
	mark := newPathMark()
	n := len(g.CSR.NodeLabel)
	pred := labelPred(sc)

	// parent[v] == 0 means unvisited; parent[v] == v+1 marks v as a root
	// (one of the seeded sources); otherwise parent[v]-1 is v's predecessor.
	parent := make([]uint32, n)

	var frontier []csr.NodeId
	for v := 0; v < n; v++ {
		d := csr.NodeId(v)
		if g.CSR.NodeMatchedBits(d)&(uint32(1)<<sc.Src) == 0 {
			continue
		}
		if atomic.CompareAndSwapUint32(&parent[v], 0, uint32(v)+1) {
			frontier = append(frontier, d)
		}
	}

	for len(frontier) > 0 {
		next, err := expandFrontier(ctx, g, frontier, pred, parent)
		if err != nil {
			return mark, err
		}
		frontier = next
	}

	usedRoots := make(map[csr.NodeId]bool)
	for v := 0; v < n; v++ {
		d := csr.NodeId(v)
		if g.CSR.NodeMatchedBits(d)&(uint32(1)<<sc.Dst) == 0 {
			continue
		}
		if parent[v] == 0 {
			g.CSR.ClearNodeMatchedBit(d, uint(sc.Dst))
			continue
		}
		walkBack(parent, d, mark, usedRoots)
	}

	for v := 0; v < n; v++ {
		d := csr.NodeId(v)
		if g.CSR.NodeMatchedBits(d)&(uint32(1)<<sc.Src) != 0 && !usedRoots[d] {
			g.CSR.ClearNodeMatchedBit(d, uint(sc.Src))
		}
	}
	return mark, nil
}

// expandFrontier extends the BFS one level: each worker scans its chunk of
// the current frontier and CASes parent[v] from unvisited to its own
// predecessor, so each node is claimed by exactly one edge.
func expandFrontier(ctx context.Context, g *graph.Graph, frontier []csr.NodeId, pred csr.LabelPredicate, parent []uint32) ([]csr.NodeId, error) {
	var mu sync.Mutex
	var next []csr.NodeId
	eg, egCtx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(frontier); lo += chunkSize {
		lo, hi := lo, lo+chunkSize
		if hi > len(frontier) {
			hi = len(frontier)
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			var local []csr.NodeId
			for _, u := range frontier[lo:hi] {
				g.CSR.ForEachOutMatching(u, pred, func(_ int32, v csr.NodeId) {
					if atomic.CompareAndSwapUint32(&parent[v], 0, uint32(u)+1) {
						local = append(local, v)
					}
				})
			}
			mu.Lock()
			next = append(next, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

// walkBack follows parent pointers from d back to its root, marking every
// node and edge traversed. Revisiting an already-marked node mid-walk is
// safe (map writes are idempotent) and lets overlapping shortest paths
// share their common suffix without duplicate work beyond a map write.
func walkBack(parent []uint32, d csr.NodeId, mark PathMark, usedRoots map[csr.NodeId]bool) {
	cur := d
	for {
		mark.Nodes[cur] = true
		pred := csr.NodeId(parent[cur] - 1)
		if pred == cur {
			usedRoots[cur] = true
			return
		}
		mark.markEdge(pred, cur)
		cur = pred
	}
}

// allPaths implements §4.7's explicitly-requested variant: propagate
// forward reachability from every source and backward reachability from
// every destination simultaneously; anything reachable both ways lies on
// some path between a source and a destination.
func allPaths(ctx context.Context, g *graph.Graph, sc planner.StarConstraint) (PathMark, error) {
	mark := newPathMark()
	n := len(g.CSR.NodeLabel)
	pred := labelPred(sc)

	const forwardBit, backwardBit = uint32(1), uint32(2)
	visited := make([]uint32, n)

	var fwdFrontier, bwdFrontier []csr.NodeId
	for v := 0; v < n; v++ {
		d := csr.NodeId(v)
		bits := g.CSR.NodeMatchedBits(d)
		if bits&(uint32(1)<<sc.Src) != 0 && claimBit(&visited[v], forwardBit) {
			fwdFrontier = append(fwdFrontier, d)
		}
		if bits&(uint32(1)<<sc.Dst) != 0 && claimBit(&visited[v], backwardBit) {
			bwdFrontier = append(bwdFrontier, d)
		}
	}

	for len(fwdFrontier) > 0 {
		next, err := expandBitFrontier(ctx, g, fwdFrontier, pred, visited, forwardBit, false)
		if err != nil {
			return mark, err
		}
		fwdFrontier = next
	}
	for len(bwdFrontier) > 0 {
		next, err := expandBitFrontier(ctx, g, bwdFrontier, pred, visited, backwardBit, true)
		if err != nil {
			return mark, err
		}
		bwdFrontier = next
	}

	both := forwardBit | backwardBit
	for v := 0; v < n; v++ {
		if visited[v]&both == both {
			mark.Nodes[csr.NodeId(v)] = true
		} else {
			// Not on any source-to-destination path: drop it as an endpoint.
			g.CSR.ClearNodeMatchedBit(csr.NodeId(v), uint(sc.Src))
			g.CSR.ClearNodeMatchedBit(csr.NodeId(v), uint(sc.Dst))
		}
	}
	for v := 0; v < n; v++ {
		if visited[v]&both != both {
			continue
		}
		u := csr.NodeId(v)
		g.CSR.ForEachOutMatching(u, pred, func(_ int32, w csr.NodeId) {
			if visited[w]&both == both {
				mark.markEdge(u, w)
			}
		})
	}
	return mark, nil
}

// claimBit atomically sets bit in *addr and reports whether this call was
// the one that set it (false if it was already set).
func claimBit(addr *uint32, bit uint32) bool {
	for {
		old := atomic.LoadUint32(addr)
		if old&bit != 0 {
			return false
		}
		if atomic.CompareAndSwapUint32(addr, old, old|bit) {
			return true
		}
	}
}

// expandBitFrontier is the two-bit-visited-array analogue of
// expandFrontier: a node joins the next frontier the first time its
// direction's bit is claimed, in either adjacency direction.
func expandBitFrontier(ctx context.Context, g *graph.Graph, frontier []csr.NodeId, pred csr.LabelPredicate, visited []uint32, bit uint32, reverse bool) ([]csr.NodeId, error) {
	var mu sync.Mutex
	var next []csr.NodeId
	eg, egCtx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(frontier); lo += chunkSize {
		lo, hi := lo, lo+chunkSize
		if hi > len(frontier) {
			hi = len(frontier)
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			var local []csr.NodeId
			claim := func(_ int32, w csr.NodeId) {
				if claimBit(&visited[w], bit) {
					local = append(local, w)
				}
			}
			for _, u := range frontier[lo:hi] {
				if reverse {
					g.CSR.ForEachInMatching(u, pred, claim)
				} else {
					g.CSR.ForEachOutMatching(u, pred, claim)
				}
			}
			mu.Lock()
			next = append(next, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}
