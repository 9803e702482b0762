package varpath

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/cypher"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/planner"
	"github.com/orneryd/graphquery/pkg/simulate"
)

// chainGraph builds Scenario 5's (§8) data graph: a 6-node KNOWS chain
// 0->1->2->3->4->5, with node 0 labeled Start and node 5 labeled End so a
// star query can single out the endpoints without relying on a property
// filter this compiler doesn't implement.
func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(6, 5, 2, 1)
	startBit, err := b.DeclareNodeLabel("Start")
	require.NoError(t, err)
	endBit, err := b.DeclareNodeLabel("End")
	require.NoError(t, err)
	knowsBit, err := b.DeclareEdgeLabel("KNOWS")
	require.NoError(t, err)
	b.AddToNodeLabel(0, startBit)
	b.AddToNodeLabel(5, endBit)
	for i := 0; i < 5; i++ {
		ticket := b.AddEdge(csr.NodeId(i), csr.NodeId(i+1), 0)
		b.AddToEdgeLabel(ticket, knowsBit)
	}
	g, err := b.Finalize()
	require.NoError(t, err)
	return g
}

func planFor(t *testing.T, g *graph.Graph, query string) *planner.Plan {
	t.Helper()
	q, err := cypher.Compile(query)
	require.NoError(t, err)
	p, err := planner.Build(q, g)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

// TestRun_ShortestPathMarksIntermediateNodesAndEdges is Scenario 5: the
// bare "-[*]->" star edge defaults to shortestPath semantics, and the one
// path 0->1->2->3->4->5 should mark every intermediate node and edge.
func TestRun_ShortestPathMarksIntermediateNodesAndEdges(t *testing.T) {
	g := chainGraph(t)
	p := planFor(t, g, "MATCH (a:Start)-[*]->(b:End) RETURN a,b")
	require.Len(t, p.Stars, 1)
	assert.True(t, p.Stars[0].Shortest)

	ok, err := simulate.Run(context.Background(), p, g, simulate.Options{})
	require.NoError(t, err)
	require.True(t, ok)

	res, err := Run(context.Background(), p, g)
	require.NoError(t, err)
	require.Len(t, res.Marks, 1)
	mark := res.Marks[0]
	for _, v := range []csr.NodeId{1, 2, 3, 4} {
		assert.True(t, mark.Nodes[v], "node %d should lie on the shortest path", v)
	}
	for i := csr.NodeId(0); i < 5; i++ {
		assert.True(t, mark.Edges[i][i+1], "edge %d->%d should be marked", i, i+1)
	}

	srcBit := uint32(1) << p.Stars[0].Src
	dstBit := uint32(1) << p.Stars[0].Dst
	assert.NotZero(t, g.CSR.NodeMatchedBits(0)&srcBit)
	assert.NotZero(t, g.CSR.NodeMatchedBits(5)&dstBit)
}

// TestRun_NoReachableDestinationClearsEndpointBits covers the §8 boundary
// behavior "star edge with no reachable destination from any source":
// src and dst never connect, so both endpoints' match bits are cleared and
// no node is marked.
func TestRun_NoReachableDestinationClearsEndpointBits(t *testing.T) {
	b := graph.NewBuilder(4, 2, 2, 1)
	startBit, err := b.DeclareNodeLabel("Start")
	require.NoError(t, err)
	endBit, err := b.DeclareNodeLabel("End")
	require.NoError(t, err)
	knowsBit, err := b.DeclareEdgeLabel("KNOWS")
	require.NoError(t, err)
	b.AddToNodeLabel(0, startBit)
	b.AddToNodeLabel(3, endBit)
	t1 := b.AddEdge(csr.NodeId(0), csr.NodeId(1), 0)
	b.AddToEdgeLabel(t1, knowsBit)
	// Node 2 -> 3 exists, but nothing connects node 1 to node 2: Start
	// cannot reach End.
	t2 := b.AddEdge(csr.NodeId(2), csr.NodeId(3), 0)
	b.AddToEdgeLabel(t2, knowsBit)
	g, err := b.Finalize()
	require.NoError(t, err)

	p := planFor(t, g, "MATCH (a:Start)-[*]->(b:End) RETURN a,b")
	ok, err := simulate.Run(context.Background(), p, g, simulate.Options{})
	require.NoError(t, err)
	require.True(t, ok)

	res, err := Run(context.Background(), p, g)
	require.NoError(t, err)
	assert.Empty(t, res.Marks[0].Nodes)

	srcBit := uint32(1) << p.Stars[0].Src
	dstBit := uint32(1) << p.Stars[0].Dst
	assert.Zero(t, g.CSR.NodeMatchedBits(0)&srcBit)
	assert.Zero(t, g.CSR.NodeMatchedBits(3)&dstBit)
}

// TestRun_AllShortestPathsMarksEveryNodeOnSomePath exercises the
// allShortestPaths variant (Shortest == false), which takes the
// forward/backward reachability sweep instead of the CAS-parent BFS.
func TestRun_AllShortestPathsMarksEveryNodeOnSomePath(t *testing.T) {
	g := chainGraph(t)
	p := planFor(t, g, "MATCH p = allShortestPaths((a:Start)-[*]->(b:End)) RETURN p")
	require.Len(t, p.Stars, 1)
	assert.False(t, p.Stars[0].Shortest)

	ok, err := simulate.Run(context.Background(), p, g, simulate.Options{})
	require.NoError(t, err)
	require.True(t, ok)

	res, err := Run(context.Background(), p, g)
	require.NoError(t, err)
	for _, v := range []csr.NodeId{1, 2, 3, 4} {
		assert.True(t, res.Marks[0].Nodes[v])
	}
}
