package simulate

import (
	"context"
	"testing"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/cypher"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/planner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangleGraph(t *testing.T, node2IsBot bool) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(3, 3, 2, 1)
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
	col := b.NodeColumn("name", graph.ColString)
	col.Strings = []string{"alice", "bob", "carol"}

	for _, pair := range [][2]int{{0, 1}, {1, 2}, {2, 0}} {
		ticket := b.AddEdge(csr.NodeId(pair[0]), csr.NodeId(pair[1]), 0)
		b.AddToEdgeLabel(ticket, knowsBit)
	}
	g, err := b.Finalize()
	require.NoError(t, err)
	return g
}

func TestRun_TriangleAllMatch(t *testing.T) {
	g := triangleGraph(t, false)
	q, err := cypher.Compile("MATCH (a:Person)-[:KNOWS]->(b:Person)-[:KNOWS]->(c:Person)-[:KNOWS]->(a) RETURN a,b,c")
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)

	ok, err := Run(context.Background(), p, g, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	for v := 0; v < 3; v++ {
		assert.NotZero(t, g.CSR.NodeMatchedBits(csr.NodeId(v)), "node %d", v)
	}
	for v := 0; v < 3; v++ {
		lo, hi := g.CSR.OutEdges(csr.NodeId(v))
		for i := lo; i < hi; i++ {
			assert.NotZero(t, g.CSR.OutEData[i].MatchedBits, "edge from node %d", v)
		}
	}
}

func TestRun_LabelMismatchExcludesNode(t *testing.T) {
	g := triangleGraph(t, true) // node 2 is Bot, not Person
	q, err := cypher.Compile("MATCH (a:Person)-[:KNOWS]->(b:Person)-[:KNOWS]->(c:Person)-[:KNOWS]->(a) RETURN a,b,c")
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)

	ok, err := Run(context.Background(), p, g, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, g.CSR.NodeMatchedBits(2))
}

func TestRun_SubstringFilter(t *testing.T) {
	g := triangleGraph(t, false)
	q, err := cypher.Compile(`MATCH (a:Person) WHERE a.name CONTAINS 'ali' RETURN a`)
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)

	ok, err := Run(context.Background(), p, g, Options{})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotZero(t, g.CSR.NodeMatchedBits(0))
	assert.Zero(t, g.CSR.NodeMatchedBits(1))
	assert.Zero(t, g.CSR.NodeMatchedBits(2))
}

func TestRun_UnknownLabelMeansZeroMatches(t *testing.T) {
	g := triangleGraph(t, false)
	q, err := cypher.Compile("MATCH (a:Ghost) RETURN a")
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	assert.Nil(t, p)
}

// temporalGraph builds Scenario 4's (§8) data graph: two candidate
// READ->WRITE chains out of node 0, only one of which obeys
// e1.time < e2.time.
func temporalGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(5, 4, 0, 2)
	readBit, err := b.DeclareEdgeLabel("READ")
	require.NoError(t, err)
	writeBit, err := b.DeclareEdgeLabel("WRITE")
	require.NoError(t, err)

	type e struct {
		src, dst int
		label    uint
		ts       uint64
	}
	for _, edge := range []e{
		{0, 1, readBit, 5},
		{1, 2, writeBit, 10},
		{0, 3, readBit, 20},
		{3, 4, writeBit, 15},
	} {
		ticket := b.AddEdge(csr.NodeId(edge.src), csr.NodeId(edge.dst), edge.ts)
		b.AddToEdgeLabel(ticket, edge.label)
	}
	g, err := b.Finalize()
	require.NoError(t, err)
	return g
}

// TestRun_TemporalOrderingSpansInAndOutEdges is a regression test for
// §4.5.2: the ordering check must cover a query node's incident edges in
// both directions together, not each direction independently. Node 3's
// in-edge (READ t=20) and out-edge (WRITE t=15) each individually satisfy
// existence, but only in reverse order, so node 3 must NOT keep its "b"
// match bit; node 1 (READ t=5, WRITE t=10) is the only valid "b".
func TestRun_TemporalOrderingSpansInAndOutEdges(t *testing.T) {
	g := temporalGraph(t)
	q, err := cypher.Compile(`MATCH (a)-[e1:READ]->(b)-[e2:WRITE]->(c) WHERE e1.time < e2.time RETURN a,b,c`)
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)

	ok, err := Run(context.Background(), p, g, Options{})
	require.NoError(t, err)
	assert.True(t, ok)

	bBit := uint32(1) << 1
	assert.NotZero(t, g.CSR.NodeMatchedBits(1)&bBit, "node 1 obeys e1.time < e2.time")
	assert.Zero(t, g.CSR.NodeMatchedBits(3)&bBit, "node 3 only satisfies the order in reverse")
}

// TestRun_EventWindowExcludesOutOfRangeTimestamps is Scenario 6: the same
// graph as Scenario 4, but every candidate "b" is excluded because at
// least one of its incident edges falls outside the [0,9] window.
func TestRun_EventWindowExcludesOutOfRangeTimestamps(t *testing.T) {
	g := temporalGraph(t)
	q, err := cypher.Compile(`MATCH (a)-[e1:READ]->(b)-[e2:WRITE]->(c) WHERE e1.time < e2.time RETURN a,b,c`)
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)

	opts := Options{}
	opts.EventWindow.Valid = true
	opts.EventWindow.StartTime = 0
	opts.EventWindow.EndTime = 9

	ok, err := Run(context.Background(), p, g, opts)
	require.NoError(t, err)
	assert.True(t, ok)

	bBit := uint32(1) << 1
	assert.Zero(t, g.CSR.NodeMatchedBits(1)&bBit)
	assert.Zero(t, g.CSR.NodeMatchedBits(3)&bBit)
}

func TestRun_DegreeTooLowExcludesLeafNode(t *testing.T) {
	// b: a->b, no outgoing edge from b. Query requires an outgoing KNOWS.
	b := graph.NewBuilder(2, 1, 1, 1)
	personBit, err := b.DeclareNodeLabel("Person")
	require.NoError(t, err)
	knowsBit, err := b.DeclareEdgeLabel("KNOWS")
	require.NoError(t, err)
	b.AddToNodeLabel(0, personBit)
	b.AddToNodeLabel(1, personBit)
	ticket := b.AddEdge(0, 1, 0)
	b.AddToEdgeLabel(ticket, knowsBit)
	g, err := b.Finalize()
	require.NoError(t, err)

	q, err := cypher.Compile("MATCH (a:Person)-[:KNOWS]->(b:Person)-[:KNOWS]->(c:Person) RETURN a,b,c")
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)

	ok, err := Run(context.Background(), p, g, Options{})
	require.NoError(t, err)
	assert.True(t, ok) // labeling alone succeeds; refinement prunes everything
	assert.Zero(t, g.CSR.NodeMatchedBits(0))
	assert.Zero(t, g.CSR.NodeMatchedBits(1))
}
