package planner

import (
	"testing"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/cypher"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(3, 3, 1, 1)
	personBit, err := b.DeclareNodeLabel("Person")
	require.NoError(t, err)
	knowsBit, err := b.DeclareEdgeLabel("KNOWS")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		b.AddToNodeLabel(csr.NodeId(i), personBit)
	}
	for _, pair := range [][2]int{{0, 1}, {1, 2}, {2, 0}} {
		ticket := b.AddEdge(csr.NodeId(pair[0]), csr.NodeId(pair[1]), 0)
		b.AddToEdgeLabel(ticket, knowsBit)
	}
	g, err := b.Finalize()
	require.NoError(t, err)
	return g
}

func TestBuild_Triangle(t *testing.T) {
	g := triangleGraph(t)
	q, err := cypher.Compile("MATCH (a:Person)-[:KNOWS]->(b:Person)-[:KNOWS]->(c:Person)-[:KNOWS]->(a) RETURN a,b,c")
	require.NoError(t, err)

	p, err := Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 3, p.QueryCSR.N)
	assert.Equal(t, 3, p.QueryCSR.E)
	assert.Len(t, p.MatchingOrder, 3)
	assert.Empty(t, p.Stars)
}

func TestBuild_UnknownLabelYieldsNilPlan(t *testing.T) {
	g := triangleGraph(t)
	q, err := cypher.Compile("MATCH (a:Ghost) RETURN a")
	require.NoError(t, err)

	p, err := Build(q, g)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBuild_StarEdgeExtracted(t *testing.T) {
	g := triangleGraph(t)
	q, err := cypher.Compile("MATCH (a:Person)-[*]->(b:Person) RETURN a,b")
	require.NoError(t, err)

	p, err := Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 0, p.QueryCSR.E)
	require.Len(t, p.Stars, 1)
	assert.True(t, p.Stars[0].AnyLabel)
}

func TestBuild_MatchingOrderDescendingDegree(t *testing.T) {
	g := triangleGraph(t)
	// b has in+out degree 2 (hub); a and c have degree 1 each in this path.
	q, err := cypher.Compile("MATCH (a:Person)-[:KNOWS]->(b:Person)<-[:KNOWS]-(c:Person) RETURN a,b,c")
	require.NoError(t, err)

	p, err := Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.EqualValues(t, 1, p.MatchingOrder[0]) // node b, id 1
}
