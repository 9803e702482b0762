package graph

import (
	"testing"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTriangle builds scenario 1/2's 3-node KNOWS cycle, with node 2
// optionally mislabeled Bot instead of Person (scenario 2).
func buildTriangle(t *testing.T, node2IsBot bool) *Graph {
	t.Helper()
	b := NewBuilder(3, 3, 2, 1)
	personBit, err := b.DeclareNodeLabel("Person")
	require.NoError(t, err)
	botBit, err := b.DeclareNodeLabel("Bot")
	require.NoError(t, err)
	knowsBit, err := b.DeclareEdgeLabel("KNOWS")
	require.NoError(t, err)

	b.AddToNodeLabel(0, personBit)
	b.AddToNodeLabel(1, personBit)
	if node2IsBot {
		b.AddToNodeLabel(2, botBit)
	} else {
		b.AddToNodeLabel(2, personBit)
	}
	for i := 0; i < 3; i++ {
		b.SetNodeUUID(csr.NodeId(i), string(rune('a'+i)))
	}

	t01 := b.AddEdge(0, 1, 0)
	t12 := b.AddEdge(1, 2, 0)
	t20 := b.AddEdge(2, 0, 0)
	b.AddToEdgeLabel(t01, knowsBit)
	b.AddToEdgeLabel(t12, knowsBit)
	b.AddToEdgeLabel(t20, knowsBit)

	g, err := b.Finalize()
	require.NoError(t, err)
	return g
}

func TestGetNodeLabelMask_Any(t *testing.T) {
	g := buildTriangle(t, false)
	ok, mask := g.GetNodeLabelMask("any")
	require.True(t, ok)
	assert.Equal(t, LabelMask{}, mask)
	assert.True(t, mask.Matches(0))
	assert.True(t, mask.Matches(0b11))
}

func TestGetNodeLabelMask_Unknown(t *testing.T) {
	g := buildTriangle(t, false)
	ok, _ := g.GetNodeLabelMask("Ghost")
	assert.False(t, ok)
}

func TestGetNodeLabelMask_Negative(t *testing.T) {
	g := buildTriangle(t, false)
	ok, mask := g.GetNodeLabelMask("~Bot")
	require.True(t, ok)
	assert.Zero(t, mask.Positive)
	assert.NotZero(t, mask.Negative)
	assert.True(t, mask.Matches(0)) // no label bits at all: Bot bit clear
}

func TestGetNodeLabelMask_PositiveAndNegative(t *testing.T) {
	g := buildTriangle(t, false)
	ok, mask := g.GetNodeLabelMask("Person;~Bot")
	require.True(t, ok)
	personBit, _ := g.nodeLabelID["Person"]
	assert.True(t, mask.Matches(1<<personBit))
}

func TestMatchNodeLabel_Scenario1And2(t *testing.T) {
	g1 := buildTriangle(t, false)
	_, personMask := g1.GetNodeLabelMask("Person")
	for v := 0; v < 3; v++ {
		assert.True(t, MatchNodeLabel(personMask, g1.CSR.NodeLabel[v]), "node %d should match Person", v)
	}

	g2 := buildTriangle(t, true)
	assert.False(t, MatchNodeLabel(personMask, g2.CSR.NodeLabel[2]))
}

func TestResetAndCountMatched(t *testing.T) {
	g := buildTriangle(t, false)
	g.CSR.SetNodeMatchedBits(0, 0b11)
	g.CSR.SetNodeMatchedBits(1, 0b1)
	assert.EqualValues(t, 3, g.CountMatchedNodes())

	g.ResetMatchedStatus(true)
	assert.Zero(t, g.CountMatchedNodes())
	assert.Zero(t, g.CountMatchedEdges())
}

func TestNodeName(t *testing.T) {
	b := NewBuilder(1, 0, 0, 0)
	col := b.NodeColumn("name", ColString)
	col.Strings = []string{"alpha.log"}
	g, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, "alpha.log", g.NodeName(0))
}
