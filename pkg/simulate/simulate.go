// Package simulate implements the Graph Simulation Matcher (C5): the
// monotone fixed-point pruning pass that narrows each data node's
// matched_bits to the query nodes it could still embed as, before the
// Subgraph Enumeration Matcher (package enumerate) does the expensive
// combinatorial search.
//
// The labeling phase and the worklist-driven refinement loop are grounded
// on GraphSimulation.cpp's matchLabel/matchNodesOnce/
// matchNodesUsingGraphSimulation; parallelism is expressed with
// golang.org/x/sync/errgroup the way the rest of this module's ambient
// stack does, in place of the original's galois::do_all.
package simulate

import (
	"context"
	"sync/atomic"

	"github.com/dlclark/regexp2"
	"golang.org/x/sync/errgroup"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/cypher"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/planner"
)

// Options carries the optional temporal constraints from §3.3 (EventLimit,
// EventWindow). A zero value means "no constraint".
type Options struct {
	EventLimit struct {
		Valid bool
		Time  uint64
	}
	EventWindow struct {
		Valid              bool
		StartTime, EndTime uint64
	}
}

// Run executes the labeling phase followed by fixed-point refinement,
// leaving the result in g.CSR.NodeMatched. It returns false if some query
// node has no data-node candidates at all after labeling, in which case
// matched_bits was reset to all-zero and the caller should report zero
// matches (§4.5.1).
func Run(ctx context.Context, p *planner.Plan, g *graph.Graph, opts Options) (bool, error) {
	if err := label(ctx, p, g); err != nil {
		return false, err
	}
	if anyQueryNodeUnmatched(p, g) {
		g.CSR.ResetAllMatched()
		return false, nil
	}
	if err := refine(ctx, p, g, opts); err != nil {
		return false, err
	}
	markSatisfiedEdges(p, g)
	return true, nil
}

// markSatisfiedEdges sets EdgeData.MatchedBits bit qe (the plain query
// edge's index among p.EdgeMasks) on every data out-edge that still
// connects two surviving matched_bits candidates for that query edge's
// endpoints, once refine has converged. This is the edge analogue of
// matched_bits: an over-approximation of "could be part of some
// embedding", not a record of which embedding actually used it — package
// graph's EnumerateMatchedEdges reads it the same way EnumerateMatchedNodes
// reads node matched_bits.
func markSatisfiedEdges(p *planner.Plan, g *graph.Graph) {
	for v := 0; v < len(g.CSR.NodeLabel); v++ {
		d := csr.NodeId(v)
		bits := g.CSR.NodeMatchedBits(d)
		if bits == 0 {
			continue
		}
		for _, qn := range p.Query.Nodes {
			if bits&(uint32(1)<<qn.ID) == 0 {
				continue
			}
			lo, hi := p.QueryCSR.OutEdges(csr.NodeId(qn.ID))
			for i := lo; i < hi; i++ {
				qe := p.QueryCSR.OutEData[i]
				qDstBit := uint32(1) << p.QueryCSR.OutDst[i]
				mask := p.EdgeMasks[qe.LabelBits-1]
				g.CSR.ForEachOutMatching(d, mask.Matches, func(idx int32, dst csr.NodeId) {
					if g.CSR.NodeMatchedBits(dst)&qDstBit != 0 {
						csr.OrUint64(&g.CSR.OutEData[idx].MatchedBits, uint64(1)<<(qe.LabelBits-1))
					}
				})
			}
		}
	}
}

// compiledFilter caches the regexp2 program for a node's substring filter.
// regexp2 gives ECMAScript semantics, matching §4.5.1's stated regex
// dialect, where Go's stdlib regexp (RE2) would silently reject some
// patterns NornicDB users already write (backreferences, lookaheads).
func compiledFilter(pattern string) (*regexp2.Regexp, error) {
	return regexp2.Compile(pattern, regexp2.ECMAScript)
}

// label computes, for every data node, the initial matched_bits: bit qn set
// iff the data node's label and (optional) name-filter satisfy query node
// qn (§4.5.1's matchLabel).
func label(ctx context.Context, p *planner.Plan, g *graph.Graph) error {
	n := len(g.CSR.NodeLabel)
	filters := make([]*regexp2.Regexp, len(p.Query.Nodes))
	for _, qn := range p.Query.Nodes {
		if qn.Filter == nil {
			continue
		}
		re, err := compiledFilter(qn.Filter.Pattern)
		if err != nil {
			return err
		}
		filters[qn.ID] = re
	}

	eg, _ := errgroup.WithContext(ctx)
	const chunk = 256
	for lo := 0; lo < n; lo += chunk {
		lo := lo
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		eg.Go(func() error {
			for v := lo; v < hi; v++ {
				var bits uint32
				dataLabel := g.CSR.NodeLabel[v]
				for _, qn := range p.Query.Nodes {
					if !p.NodeMasks[qn.ID].Matches(dataLabel) {
						continue
					}
					if filters[qn.ID] != nil {
						ok, err := matchesFilter(filters[qn.ID], g.NodeName(csr.NodeId(v)))
						if err != nil || !ok {
							continue
						}
					}
					bits |= 1 << qn.ID
				}
				g.CSR.SetNodeMatchedBits(csr.NodeId(v), bits)
			}
			return nil
		})
	}
	return eg.Wait()
}

func matchesFilter(re *regexp2.Regexp, name string) (bool, error) {
	m, err := re.MatchString(name)
	if err != nil {
		return false, err
	}
	return m, nil
}

// anyQueryNodeUnmatched reports whether some query node has zero candidate
// data nodes after labeling (§4.5.1's existEmptyLabelMatchQGNode).
func anyQueryNodeUnmatched(p *planner.Plan, g *graph.Graph) bool {
	seen := make([]bool, len(p.Query.Nodes))
	for v := range g.CSR.NodeLabel {
		bits := g.CSR.NodeMatchedBits(csr.NodeId(v))
		for _, qn := range p.Query.Nodes {
			if bits&(1<<qn.ID) != 0 {
				seen[qn.ID] = true
			}
		}
	}
	for _, ok := range seen {
		if !ok {
			return true
		}
	}
	return false
}

// refine runs the worklist fixed-point loop: repeatedly clear matched_bits
// for (node, query-node) pairs whose required neighbor edges no longer
// exist, until nothing changes in a full pass (§4.5.2).
func refine(ctx context.Context, p *planner.Plan, g *graph.Graph, opts Options) error {
	n := len(g.CSR.NodeLabel)
	for {
		var anyChange atomic.Bool
		eg, _ := errgroup.WithContext(ctx)
		const chunk = 256
		for lo := 0; lo < n; lo += chunk {
			lo := lo
			hi := lo + chunk
			if hi > n {
				hi = n
			}
			eg.Go(func() error {
				for v := lo; v < hi; v++ {
					bits := g.CSR.NodeMatchedBits(csr.NodeId(v))
					if bits == 0 {
						continue
					}
					for _, qn := range p.Query.Nodes {
						bit := uint32(1) << qn.ID
						if bits&bit == 0 {
							continue
						}
						if !edgesSatisfied(p, g, qn.ID, csr.NodeId(v), opts) {
							g.CSR.ClearNodeMatchedBit(csr.NodeId(v), uint(qn.ID))
							anyChange.Store(true)
						}
					}
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
		if !anyChange.Load() {
			return nil
		}
	}
}

// candidateTimestamps finds, for one query-CSR edge, every actual
// timestamp among v's matching data edges that still lands on a data node
// carrying the destination/source query-node's bit.
func candidateTimestamps(g *graph.Graph, v csr.NodeId, mask graph.LabelMask, qNeighbor csr.NodeId, inEdges bool, opts Options) []uint64 {
	var lo, hi int32
	if inEdges {
		lo, hi = g.CSR.InEdges(v)
	} else {
		lo, hi = g.CSR.OutEdges(v)
	}
	var out []uint64
	for i := lo; i < hi; i++ {
		var ed csr.EdgeData
		var neighbor csr.NodeId
		if inEdges {
			ed = g.CSR.InEData[i]
			neighbor = g.CSR.InSrc[i]
		} else {
			ed = g.CSR.OutEData[i]
			neighbor = g.CSR.OutDst[i]
		}
		if !mask.Matches(ed.LabelBits) || !withinWindow(ed.Timestamp, opts) {
			continue
		}
		if g.CSR.NodeMatchedBits(neighbor)&(uint32(1)<<qNeighbor) == 0 {
			continue
		}
		out = append(out, ed.Timestamp)
	}
	return out
}

// edgesSatisfied checks every outgoing and incoming query-CSR edge of qn
// against v's actual data edges (§4.5.2's matchQueryEdges): each must have
// some matching-labeled data edge landing on a data node that still
// carries the neighboring query node's bit. Edges whose QueryEdge carried
// a finite Timestamp (from a compiled "e1.time < e2.time" clause) must
// jointly admit a non-decreasing assignment of actual timestamps in query
// order — §4.5.2 orders a query node's *incident* edges, in and out
// together, not each direction independently, so both directions' ordered
// edges are collected into one list before temporalOrderSatisfiable runs
// the greedy matchQueryTimestampOrder sequence once over all of them.
func edgesSatisfied(p *planner.Plan, g *graph.Graph, qn uint32, v csr.NodeId, opts Options) bool {
	outOrdered, ok := collectOrdered(p, g, qn, v, false, opts)
	if !ok {
		return false
	}
	inOrdered, ok := collectOrdered(p, g, qn, v, true, opts)
	if !ok {
		return false
	}
	combined := append(outOrdered, inOrdered...)
	return temporalOrderSatisfiable(combined, opts)
}

type orderedEdge struct {
	timestamp uint32
	candidate []uint64
}

// collectOrdered walks qn's query-CSR edges in one direction, requiring
// each to have a non-empty candidate-timestamp set (ok is false otherwise),
// and returns the subset carrying a finite query Timestamp for the caller
// to merge with the other direction's before ordering is checked.
func collectOrdered(p *planner.Plan, g *graph.Graph, qn uint32, v csr.NodeId, inEdges bool, opts Options) ([]orderedEdge, bool) {
	var edgeLo, edgeHi int32
	if inEdges {
		edgeLo, edgeHi = p.QueryCSR.InEdges(csr.NodeId(qn))
	} else {
		edgeLo, edgeHi = p.QueryCSR.OutEdges(csr.NodeId(qn))
	}

	var ordered []orderedEdge
	for i := edgeLo; i < edgeHi; i++ {
		var qe csr.EdgeData
		var qNeighbor csr.NodeId
		if inEdges {
			qe = p.QueryCSR.InEData[i]
			qNeighbor = p.QueryCSR.InSrc[i]
		} else {
			qe = p.QueryCSR.OutEData[i]
			qNeighbor = p.QueryCSR.OutDst[i]
		}
		mask := p.EdgeMasks[qe.LabelBits-1]
		cand := candidateTimestamps(g, v, mask, qNeighbor, inEdges, opts)
		if len(cand) == 0 {
			return nil, false
		}
		if uint32(qe.Timestamp) != cypher.TimestampUnordered {
			ordered = append(ordered, orderedEdge{timestamp: uint32(qe.Timestamp), candidate: cand})
		}
	}
	return ordered, true
}

// temporalOrderSatisfiable greedily assigns, in ascending query-timestamp
// order, the smallest available actual timestamp that is not smaller than
// the previous assignment — matchQueryTimestampOrder's algorithm. When
// opts.EventLimit is set, consecutive assignments more than limit.Time
// apart also fail the sequence.
func temporalOrderSatisfiable(edges []orderedEdge, opts Options) bool {
	if len(edges) == 0 {
		return true
	}
	sorted := append([]orderedEdge(nil), edges...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1].timestamp > sorted[j].timestamp; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	var prev uint64
	first := true
	for _, e := range sorted {
		best, ok := minAtLeast(e.candidate, prev)
		if !ok {
			return false
		}
		if !first && opts.EventLimit.Valid && best-prev > opts.EventLimit.Time {
			return false
		}
		prev = best
		first = false
	}
	return true
}

func minAtLeast(candidates []uint64, floor uint64) (uint64, bool) {
	found := false
	var best uint64
	for _, c := range candidates {
		if c < floor {
			continue
		}
		if !found || c < best {
			best = c
			found = true
		}
	}
	return best, found
}

func withinWindow(ts uint64, opts Options) bool {
	if !opts.EventWindow.Valid {
		return true
	}
	return ts >= opts.EventWindow.StartTime && ts <= opts.EventWindow.EndTime
}

