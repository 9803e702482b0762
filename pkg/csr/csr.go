package csr

import "sort"

// NodeId identifies a node by its dense position in [0, N).
type NodeId uint32

// EdgeId identifies an edge by its position in the destination array of the
// direction it was looked up from. EdgeId is stable for the lifetime of a
// Graph but is direction-relative: the same logical edge has one EdgeId in
// OutEData and a different one in InEData.
type EdgeId uint64

// EdgeData is the per-edge mutable-and-immutable payload carried alongside
// topology. LabelBits and Timestamp are set once at ingest; MatchedBits is
// the optional feature (§3.4) touched only by the matcher.
type EdgeData struct {
	LabelBits   uint32
	Timestamp   uint64
	MatchedBits uint64
}

// LabelBand describes a contiguous run, within one node's adjacency, of
// edges sharing the same LabelBits value. Bands are ordered ascending by
// Label; within a band, destinations are ascending. This is what makes
// is-connected-with-label a binary search instead of a scan.
type LabelBand struct {
	Label      uint32
	Start, End int32 // half-open range into the direction's Dst/EData slices
}

// Graph is the immutable bidirectional CSR. Once Build returns, nothing in
// Graph is mutated except the node and edge matched-bits words, which the
// atomic.go setters set, clear and reset.
type Graph struct {
	N int
	E int

	OutIndex []int32
	OutDst   []NodeId
	OutEData []EdgeData
	outBands [][]LabelBand

	InIndex []int32
	InSrc   []NodeId
	InEData []EdgeData
	inBands [][]LabelBand

	OutDegree []uint32
	InDegree  []uint32

	// NodeLabel is the node-label bitset, at most 32 distinct bits (§3.1).
	NodeLabel []uint32
	// NodeMatched is matched_bits: bit q set iff the node is a live
	// candidate for query node q. Reset and populated by the Graph
	// Simulation Matcher's labeling phase (§4.5.1).
	NodeMatched []uint32
}

// Build constructs the bidirectional CSR from one-directional input arrays
// and sorts every per-node label band. outIndex must have length N+1 with
// outIndex[0] == 0 and outIndex[N] == len(outDst) == len(outEData).
//
// Construction is infallible except for out-of-range destinations, which
// signal input corruption and are reported via ErrInputCorruption.
func Build(n int, outIndex []int32, outDst []NodeId, outEData []EdgeData) (*Graph, error) {
	e := len(outDst)
	for _, d := range outDst {
		if int(d) >= n {
			return nil, ErrInputCorruption
		}
	}

	g := &Graph{
		N:           n,
		E:           e,
		OutIndex:    append([]int32(nil), outIndex...),
		OutDst:      append([]NodeId(nil), outDst...),
		OutEData:    append([]EdgeData(nil), outEData...),
		NodeLabel:   make([]uint32, n),
		NodeMatched: make([]uint32, n),
		OutDegree:   make([]uint32, n),
		InDegree:    make([]uint32, n),
	}

	for v := 0; v < n; v++ {
		sortBand(g.OutDst, g.OutEData, int(g.OutIndex[v]), int(g.OutIndex[v+1]))
		g.OutDegree[v] = uint32(g.OutIndex[v+1] - g.OutIndex[v])
	}
	g.outBands = bandsFromSorted(g.OutDst, g.OutEData, g.OutIndex)

	g.buildIncoming()
	for v := 0; v < n; v++ {
		g.InDegree[v] = uint32(g.InIndex[v+1] - g.InIndex[v])
	}
	g.inBands = bandsFromSorted(g.InSrc, g.InEData, g.InIndex)

	return g, nil
}

// buildIncoming materializes in_index/in_src/in_edata by radix-counting
// incoming edges per destination and scattering, then sorts each node's
// incoming band the same way outgoing bands are sorted.
func (g *Graph) buildIncoming() {
	n, e := g.N, g.E
	counts := make([]int32, n+1)
	for _, d := range g.OutDst {
		counts[int(d)+1]++
	}
	for v := 0; v < n; v++ {
		counts[v+1] += counts[v]
	}
	g.InIndex = counts

	cursor := append([]int32(nil), counts...)
	inSrc := make([]NodeId, e)
	inEData := make([]EdgeData, e)
	for v := 0; v < n; v++ {
		for i := g.OutIndex[v]; i < g.OutIndex[v+1]; i++ {
			dst := g.OutDst[i]
			pos := cursor[dst]
			cursor[dst]++
			inSrc[pos] = NodeId(v)
			inEData[pos] = g.OutEData[i]
		}
	}
	g.InSrc = inSrc
	g.InEData = inEData

	for v := 0; v < n; v++ {
		sortBand(g.InSrc, g.InEData, int(g.InIndex[v]), int(g.InIndex[v+1]))
	}
}

// sortBand sorts dst[lo:hi] and its parallel edata[lo:hi] by (LabelBits,
// destination) ascending — the Sort Order invariant (§3.2).
func sortBand(dst []NodeId, edata []EdgeData, lo, hi int) {
	idx := make([]int, hi-lo)
	for i := range idx {
		idx[i] = lo + i
	}
	sort.Slice(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if edata[ia].LabelBits != edata[ib].LabelBits {
			return edata[ia].LabelBits < edata[ib].LabelBits
		}
		return dst[ia] < dst[ib]
	})
	dstCopy := append([]NodeId(nil), dst[lo:hi]...)
	edataCopy := append([]EdgeData(nil), edata[lo:hi]...)
	for i, srcIdx := range idx {
		dst[lo+i] = dstCopy[srcIdx-lo]
		edata[lo+i] = edataCopy[srcIdx-lo]
	}
}

// bandsFromSorted groups each node's already-sorted slice into LabelBand
// runs of equal label.
func bandsFromSorted(_ []NodeId, edata []EdgeData, index []int32) [][]LabelBand {
	n := len(index) - 1
	out := make([][]LabelBand, n)
	for v := 0; v < n; v++ {
		lo, hi := int(index[v]), int(index[v+1])
		if lo == hi {
			continue
		}
		var bands []LabelBand
		start := lo
		cur := edata[lo].LabelBits
		for i := lo + 1; i < hi; i++ {
			if edata[i].LabelBits != cur {
				bands = append(bands, LabelBand{Label: cur, Start: int32(start), End: int32(i)})
				start = i
				cur = edata[i].LabelBits
			}
		}
		bands = append(bands, LabelBand{Label: cur, Start: int32(start), End: int32(hi)})
		out[v] = bands
	}
	return out
}

// OutEdges returns the contiguous slice of outgoing edges of v, as parallel
// index ranges into OutDst/OutEData.
func (g *Graph) OutEdges(v NodeId) (lo, hi int32) {
	return g.OutIndex[v], g.OutIndex[v+1]
}

// InEdges returns the contiguous slice of incoming edges of v.
func (g *Graph) InEdges(v NodeId) (lo, hi int32) {
	return g.InIndex[v], g.InIndex[v+1]
}

// OutBands returns the ascending-by-label bands of v's outgoing adjacency.
func (g *Graph) OutBands(v NodeId) []LabelBand { return g.outBands[v] }

// InBands returns the ascending-by-label bands of v's incoming adjacency.
func (g *Graph) InBands(v NodeId) []LabelBand { return g.inBands[v] }

// bandForExactLabel binary-searches bands (ascending by Label) for an exact
// match, returning the band's [start,end) or ok=false.
func bandForExactLabel(bands []LabelBand, label uint32) (start, end int32, ok bool) {
	lo, hi := 0, len(bands)
	for lo < hi {
		mid := lo + (hi-lo)/2
		if bands[mid].Label < label {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(bands) && bands[lo].Label == label {
		return bands[lo].Start, bands[lo].End, true
	}
	return 0, 0, false
}

// OutDegreeWithLabel returns the number of outgoing edges of v whose
// LabelBits equals label exactly.
func (g *Graph) OutDegreeWithLabel(v NodeId, label uint32) int {
	s, e, ok := bandForExactLabel(g.outBands[v], label)
	if !ok {
		return 0
	}
	return int(e - s)
}

// InDegreeWithLabel returns the number of incoming edges of v whose
// LabelBits equals label exactly.
func (g *Graph) InDegreeWithLabel(v NodeId, label uint32) int {
	s, e, ok := bandForExactLabel(g.inBands[v], label)
	if !ok {
		return 0
	}
	return int(e - s)
}

// destBinarySearch finds key within dst[lo:hi], which must be ascending.
func destBinarySearch(dst []NodeId, lo, hi int32, key NodeId) bool {
	l, r := lo, hi-1
	for l <= r {
		mid := l + (r-l)/2
		v := dst[mid]
		switch {
		case v == key:
			return true
		case v < key:
			l = mid + 1
		default:
			r = mid - 1
		}
	}
	return false
}

// IsConnected returns true iff some outgoing edge of u with LabelBits ==
// label exactly lands on v. The implementation binary-searches whichever
// side of the pair has the smaller degree in that label band, searching the
// other side's array — the inner-most hot path of the enumeration matcher.
func (g *Graph) IsConnected(u, v NodeId, label uint32) bool {
	outDeg := g.OutDegreeWithLabel(u, label)
	inDeg := g.InDegreeWithLabel(v, label)
	if outDeg == 0 || inDeg == 0 {
		return false
	}
	if outDeg <= inDeg {
		s, e, ok := bandForExactLabel(g.outBands[u], label)
		if !ok {
			return false
		}
		return destBinarySearch(g.OutDst, s, e, v)
	}
	s, e, ok := bandForExactLabel(g.inBands[v], label)
	if !ok {
		return false
	}
	return destBinarySearch(g.InSrc, s, e, u)
}
