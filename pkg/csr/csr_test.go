package csr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// triangle builds the 3-node KNOWS-cycle used by spec scenario 1:
// 0->1, 1->2, 2->0, all label bit 0.
func triangle(t *testing.T) *Graph {
	t.Helper()
	outIndex := []int32{0, 1, 2, 3}
	outDst := []NodeId{1, 2, 0}
	outEData := []EdgeData{{LabelBits: 1}, {LabelBits: 1}, {LabelBits: 1}}
	g, err := Build(3, outIndex, outDst, outEData)
	require.NoError(t, err)
	return g
}

func TestBuild_Accounting(t *testing.T) {
	g := triangle(t)
	assert.Equal(t, 3, g.N)
	assert.Equal(t, 3, g.E)

	var sumOut, sumIn uint32
	for v := 0; v < g.N; v++ {
		sumOut += g.OutDegree[v]
		sumIn += g.InDegree[v]
	}
	assert.EqualValues(t, g.E, sumOut)
	assert.EqualValues(t, g.E, sumIn)
}

func TestBuild_SortOrder(t *testing.T) {
	outIndex := []int32{0, 3, 3, 3}
	outDst := []NodeId{2, 0, 1}
	outEData := []EdgeData{{LabelBits: 2}, {LabelBits: 1}, {LabelBits: 1}}
	g, err := Build(3, outIndex, outDst, outEData)
	require.NoError(t, err)

	// Band for label 1 should be destinations [0,1] ascending.
	s, e, ok := bandForExactLabel(g.outBands[0], 1)
	require.True(t, ok)
	assert.Equal(t, []NodeId{0, 1}, g.OutDst[s:e])

	s, e, ok = bandForExactLabel(g.outBands[0], 2)
	require.True(t, ok)
	assert.Equal(t, []NodeId{2}, g.OutDst[s:e])
}

func TestBuild_InputCorruption(t *testing.T) {
	outIndex := []int32{0, 1}
	outDst := []NodeId{5} // out of range for N=1
	outEData := []EdgeData{{LabelBits: 1}}
	_, err := Build(1, outIndex, outDst, outEData)
	assert.ErrorIs(t, err, ErrInputCorruption)
}

func TestIsConnected_Triangle(t *testing.T) {
	g := triangle(t)
	assert.True(t, g.IsConnected(0, 1, 1))
	assert.True(t, g.IsConnected(1, 2, 1))
	assert.True(t, g.IsConnected(2, 0, 1))
	assert.False(t, g.IsConnected(0, 2, 1))
	assert.False(t, g.IsConnected(0, 1, 2)) // wrong label
}

func TestIsConnected_SmallerDegreeSide(t *testing.T) {
	// node 0 has high out-degree; node 3 has a single incoming edge.
	outIndex := []int32{0, 4, 4, 4, 4}
	outDst := []NodeId{1, 2, 3, 0}
	outEData := []EdgeData{{LabelBits: 1}, {LabelBits: 1}, {LabelBits: 1}, {LabelBits: 1}}
	g, err := Build(4, outIndex, outDst, outEData)
	require.NoError(t, err)
	assert.True(t, g.IsConnected(0, 3, 1))
	assert.False(t, g.IsConnected(0, 99%4, 2))
}

func TestMatching_Predicate(t *testing.T) {
	g := triangle(t)
	anyLabel := func(uint32) bool { return true }
	assert.Equal(t, 1, g.OutDegreeMatching(0, anyLabel))
	assert.True(t, g.IsConnectedMatching(0, 1, anyLabel))

	none := func(uint32) bool { return false }
	assert.Equal(t, 0, g.OutDegreeMatching(0, none))
}

func TestClearNodeMatchedBit(t *testing.T) {
	g := triangle(t)
	g.SetNodeMatchedBits(0, 0b111)
	g.ClearNodeMatchedBit(0, 1)
	assert.Equal(t, uint32(0b101), g.NodeMatchedBits(0))
}

func TestResetAllMatched(t *testing.T) {
	g := triangle(t)
	g.SetNodeMatchedBits(0, 1)
	g.SetNodeMatchedBits(1, 1)
	g.ResetAllMatched()
	for v := 0; v < g.N; v++ {
		assert.Zero(t, g.NodeMatchedBits(NodeId(v)))
	}
}
