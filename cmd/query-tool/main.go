// Command query-tool is the Frontend collaborator (§6's CLI surface): a
// thin cobra wrapper that loads a graph, runs one query or a
// `--listOfQueries` batch against it, and reports match counts — the Go
// analogue of the original lonestar query-test tool
// (original_source/lonestar/querying/cpu/querytest/querytest.cpp),
// wired with nornicdb/cmd/nornicdb/main.go's cobra command-tree idiom.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/orneryd/graphquery/pkg/config"
	"github.com/orneryd/graphquery/pkg/csr"
	"github.com/orneryd/graphquery/pkg/engine"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/persistence"
	"github.com/orneryd/graphquery/pkg/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "query-tool <graph-path>",
		Short: "Run Cypher pattern-matching queries against an attributed graph",
		Args:  cobra.ExactArgs(1),
		RunE:  runQueryTool,
	}
	root.Flags().String("query", "", "inline Cypher query text")
	root.Flags().String("queryFile", "", "path to a file containing one Cypher query")
	root.Flags().String("listOfQueries", "", "path to a file listing query-file paths, one per line")
	root.Flags().Bool("output", false, "write a queries.count report when --listOfQueries is given")
	root.Flags().String("outputLocation", ".", "directory queries.count is written to")
	root.Flags().Int("numPages", 0, "pass-through: pages to pre-fault when loading a large graph")
	root.Flags().Bool("boostSerialized", false, "pass-through: graph-path names a pre-serialized archive")
	root.Flags().String("config", "", "optional YAML engine-tuning file (worker pool, event window, enumeration mode)")
	return root
}

// runQueryTool is the CLI boundary named in §7's error-handling design.
// The engine packages return LimitExceeded/InputCorruption as ordinary
// errors, which end the run with a non-zero exit; the deferred recover
// additionally turns a panic carrying either value into a logged error.
func runQueryTool(cmd *cobra.Command, args []string) (err error) {
	telemetry.Configure(os.Stderr, false, "info")
	log := telemetry.New("query-tool")

	defer func() {
		if r := recover(); r != nil {
			if fatal, ok := asFatal(r); ok {
				log.Error("fatal engine invariant violated", fatal, nil)
				err = fatal
				return
			}
			panic(r)
		}
	}()

	graphPath := args[0]
	queryText, _ := cmd.Flags().GetString("query")
	queryFile, _ := cmd.Flags().GetString("queryFile")
	listOfQueries, _ := cmd.Flags().GetString("listOfQueries")
	output, _ := cmd.Flags().GetBool("output")
	outputLocation, _ := cmd.Flags().GetString("outputLocation")
	numPages, _ := cmd.Flags().GetInt("numPages")
	boostSerialized, _ := cmd.Flags().GetBool("boostSerialized")
	log.Debug("query-tool flags", map[string]any{
		"numPages": numPages, "boostSerialized": boostSerialized, "output": output,
	})

	configPath, _ := cmd.Flags().GetString("config")
	cfg := config.Default()
	if configPath != "" {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("query-tool: load config: %w", err)
		}
	}

	e, err := engine.LoadAttributedGraph(persistence.NullStore{}, graphPath, cfg)
	if err != nil {
		log.Error("failed to load graph", err, map[string]any{"path": graphPath})
		return err
	}

	ctx := context.Background()

	// §6 CLI precedence, matching querytest.cpp's main(): listOfQueries
	// beats queryFile beats an inline query; absent all three it warns
	// "No query specified" and exits cleanly.
	switch {
	case listOfQueries != "":
		results, err := e.RunListOfQueries(ctx, listOfQueries)
		if err != nil {
			return fmt.Errorf("query-tool: run list of queries: %w", err)
		}
		for _, r := range results {
			fmt.Printf("%s %d\n", r.Name, r.Count)
		}
		if output {
			if err := engine.WriteQueriesCount(results, outputLocation); err != nil {
				return fmt.Errorf("query-tool: write queries.count: %w", err)
			}
		}
	case queryFile != "":
		count, err := e.RunQueryFile(ctx, queryFile)
		if err != nil {
			return fmt.Errorf("query-tool: run query file: %w", err)
		}
		fmt.Println(count)
	case queryText != "":
		count, err := e.MatchCypherQuery(ctx, nil, nil, queryText)
		if err != nil {
			return fmt.Errorf("query-tool: run query: %w", err)
		}
		fmt.Println(count)
	default:
		log.Warn("no query specified", nil)
	}
	return nil
}

// asFatal recovers the two panic values §7 marks fatal (LimitExceeded,
// InputCorruption) and reports them as ordinary errors to the caller;
// anything else is re-panicked, since only those two kinds are this
// boundary's responsibility.
func asFatal(r any) (error, bool) {
	err, ok := r.(error)
	if !ok {
		return nil, false
	}
	if errors.Is(err, graph.ErrLimitExceeded) || errors.Is(err, csr.ErrInputCorruption) {
		return err, true
	}
	return nil, false
}
