package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeQueryFile(t *testing.T, dir, name, query string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(query), 0o644))
	return path
}

func TestRunQueryFile_ReadsAndRunsSingleQuery(t *testing.T) {
	dir := t.TempDir()
	path := writeQueryFile(t, dir, "triangle.cypher",
		"MATCH (a:Person)-[:KNOWS]->(b:Person)-[:KNOWS]->(c:Person)-[:KNOWS]->(a) RETURN a,b,c")

	e := New(triangleGraph(t), nil)
	count, err := e.RunQueryFile(context.Background(), path)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestRunListOfQueries_ReadsEachReferencedFileAndNamesByBasename(t *testing.T) {
	dir := t.TempDir()
	triangle := writeQueryFile(t, dir, "triangle.cypher",
		"MATCH (a:Person)-[:KNOWS]->(b:Person)-[:KNOWS]->(c:Person)-[:KNOWS]->(a) RETURN a,b,c")
	people := writeQueryFile(t, dir, "people.cypher", "MATCH (a:Person) RETURN a")

	listPath := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(listPath, []byte(triangle+"\n"+people+"\n"), 0o644))

	e := New(triangleGraph(t), nil)
	results, err := e.RunListOfQueries(context.Background(), listPath)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "triangle.cypher", results[0].Name)
	assert.EqualValues(t, 3, results[0].Count)
	assert.Equal(t, "people.cypher", results[1].Name)
	assert.EqualValues(t, 3, results[1].Count)
}

func TestRunListOfQueries_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	people := writeQueryFile(t, dir, "people.cypher", "MATCH (a:Person) RETURN a")
	listPath := filepath.Join(dir, "list.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("\n"+people+"\n\n"), 0o644))

	e := New(triangleGraph(t), nil)
	results, err := e.RunListOfQueries(context.Background(), listPath)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "people.cypher", results[0].Name)
}

func TestWriteQueriesCount_WritesNameCountLines(t *testing.T) {
	dir := t.TempDir()
	results := []QueryResult{{Name: "triangle.cypher", Count: 3}, {Name: "people.cypher", Count: 3}}
	require.NoError(t, WriteQueriesCount(results, dir))

	data, err := os.ReadFile(filepath.Join(dir, "queries.count"))
	require.NoError(t, err)
	assert.Equal(t, "triangle.cypher 3\npeople.cypher 3\n", string(data))
}
