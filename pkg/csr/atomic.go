package csr

import "sync/atomic"

// AndUint32 atomically clears bits: *addr &= mask. Go's sync/atomic has no
// native fetch-and-and, so this is a compare-and-swap retry loop — the same
// monotone-clear pattern §5 requires for matched_bits.
func AndUint32(addr *uint32, mask uint32) {
	for {
		old := atomic.LoadUint32(addr)
		next := old & mask
		if next == old {
			return
		}
		if atomic.CompareAndSwapUint32(addr, old, next) {
			return
		}
	}
}

// AndUint64 is the EdgeData.MatchedBits (64-bit) analogue of AndUint32.
func AndUint64(addr *uint64, mask uint64) {
	for {
		old := atomic.LoadUint64(addr)
		next := old & mask
		if next == old {
			return
		}
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// OrUint64 atomically sets bits: *addr |= mask. Used for edge matched-bit
// marking, where multiple workers may discover the same satisfied query
// edge concurrently and the set is idempotent either way.
func OrUint64(addr *uint64, mask uint64) {
	for {
		old := atomic.LoadUint64(addr)
		next := old | mask
		if next == old {
			return
		}
		if atomic.CompareAndSwapUint64(addr, old, next) {
			return
		}
	}
}

// ClearNodeMatchedBit atomically clears bit q from node v's matched_bits.
func (g *Graph) ClearNodeMatchedBit(v NodeId, q uint) {
	AndUint32(&g.NodeMatched[v], ^(uint32(1) << q))
}

// NodeMatchedBits returns node v's current matched_bits (relaxed read).
func (g *Graph) NodeMatchedBits(v NodeId) uint32 {
	return atomic.LoadUint32(&g.NodeMatched[v])
}

// SetNodeMatchedBits sets node v's matched_bits outright. Only safe during
// the single-threaded labeling step, or earlier ingest-time setup (§5).
func (g *Graph) SetNodeMatchedBits(v NodeId, bits uint32) {
	atomic.StoreUint32(&g.NodeMatched[v], bits)
}

// ResetAllMatched clears matched_bits on every node, used at the start of
// each query's labeling phase.
func (g *Graph) ResetAllMatched() {
	for v := range g.NodeMatched {
		g.NodeMatched[v] = 0
	}
}
