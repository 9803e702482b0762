// RunListOfQueries implements the `--listOfQueries` CLI behavior (§6's
// CLI surface): each line of listPath names a file holding one Cypher
// query; every query is run in turn and, when output is requested, a
// "queries.count" report of "<query-name> <match-count>" lines is
// produced — grounded directly on the original lonestar query-test
// tool's processQueryFile/listOfQueries loop
// (original_source/lonestar/querying/cpu/querytest/querytest.cpp), which
// derives queryName from the query file's basename and writes exactly
// that "name count" line format.
package engine

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// QueryResult pairs one query's derived name with its match count, the
// Go shape of the original's "queryName matched" report line.
type QueryResult struct {
	Name  string
	Count uint64
}

// RunQueryFile reads the Cypher query in path and runs it, returning its
// match count. Grounded on processQueryFile minus the per-file StatTimer,
// which pkg/telemetry's Timer already covers at the engine layer.
func (e *Engine) RunQueryFile(ctx context.Context, path string) (uint64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("engine: read query file %q: %w", path, err)
	}
	return e.MatchCypherQuery(ctx, nil, nil, string(data))
}

// RunListOfQueries reads listPath line by line, each line naming a query
// file, and runs every one in turn. The returned name for each result is
// the query file's basename, matching the original's
// `curQueryFile.substr(curQueryFile.find_last_of("/\\") + 1)`.
func (e *Engine) RunListOfQueries(ctx context.Context, listPath string) ([]QueryResult, error) {
	f, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("engine: open query list %q: %w", listPath, err)
	}
	defer f.Close()

	var results []QueryResult
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		count, err := e.RunQueryFile(ctx, line)
		if err != nil {
			return nil, err
		}
		results = append(results, QueryResult{Name: filepath.Base(line), Count: count})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("engine: scan query list %q: %w", listPath, err)
	}
	return results, nil
}

// WriteQueriesCount writes results to outputLocation/queries.count as
// "<name> <count>" lines, the literal report file §6's CLI surface names.
func WriteQueriesCount(results []QueryResult, outputLocation string) error {
	path := filepath.Join(outputLocation, "queries.count")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engine: create %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%s %d\n", r.Name, r.Count); err != nil {
			return fmt.Errorf("engine: write %q: %w", path, err)
		}
	}
	return w.Flush()
}
