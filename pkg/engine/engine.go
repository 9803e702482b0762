// Package engine wires the Cypher Compiler (C3), Query Planner (C4),
// Graph Simulation Matcher (C5), Subgraph Enumeration Matcher (C6), and
// Variable-Length Path Matcher (C7) behind the six method shapes §6
// names as the core's single API boundary: load_attributed_graph,
// build_attributed_graph, match_cypher_query, match_query, save_graph/
// load_graph, and report_graph_stats.
//
// This is the Go analogue of the original engine's top-level
// SubgraphQueryMiner/KFHandler driver code (original_source/libquery),
// adapted into a small struct with one method per §6 item rather than a
// free-function driver, matching how nornicdb's pkg/server wraps its own
// subsystems behind a handful of request-shaped methods.
package engine

import (
	"context"
	"fmt"

	"github.com/orneryd/graphquery/pkg/config"
	"github.com/orneryd/graphquery/pkg/cypher"
	"github.com/orneryd/graphquery/pkg/enumerate"
	"github.com/orneryd/graphquery/pkg/graph"
	"github.com/orneryd/graphquery/pkg/persistence"
	"github.com/orneryd/graphquery/pkg/planner"
	"github.com/orneryd/graphquery/pkg/simulate"
	"github.com/orneryd/graphquery/pkg/telemetry"
	"github.com/orneryd/graphquery/pkg/varpath"
)

// Window is the caller-facing form of an event window constraint
// (§3.3/§5): "applied as predicates, not as timeouts". A nil Window means
// unconstrained.
type Window struct {
	Start, End uint64
}

// EventLimit bounds the gap between consecutive timestamps in a
// temporally-ordered chain (§4.5.2). A nil EventLimit means unconstrained.
type EventLimit struct {
	Time uint64
}

// Engine is the §6 API boundary over one in-memory graph.Graph.
type Engine struct {
	Graph *graph.Graph
	Cfg   *config.Config
	log   *telemetry.Logger
}

// New wraps g behind the engine API. cfg may be nil, in which case
// config.Default() is used.
func New(g *graph.Graph, cfg *config.Config) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Engine{Graph: g, Cfg: cfg, log: telemetry.New("engine")}
}

// LoadAttributedGraph is §6 item 1: reads a property-file-graph via store
// and wraps the result behind a new Engine using cfg.
func LoadAttributedGraph(store persistence.Store, path string, cfg *config.Config) (*Engine, error) {
	g, err := store.LoadAttributedGraph(path)
	if err != nil {
		return nil, fmt.Errorf("engine: load attributed graph: %w", err)
	}
	return New(g, cfg), nil
}

// SaveGraph is half of §6 item 5.
func (e *Engine) SaveGraph(store persistence.Store, path string) error {
	return store.SaveGraph(e.Graph, path)
}

// LoadGraph is the other half of §6 item 5: replaces e.Graph in place so
// callers keep using the same *Engine.
func (e *Engine) LoadGraph(store persistence.Store, path string) error {
	g, err := store.LoadGraph(path)
	if err != nil {
		return fmt.Errorf("engine: load graph: %w", err)
	}
	e.Graph = g
	return nil
}

// toOptions converts the caller-facing Window/EventLimit into
// simulate.Options, applying config.Config.DefaultEventWindowSeconds when
// the caller didn't specify a window (§1 ambient config wiring).
func (e *Engine) toOptions(window *Window, limit *EventLimit) simulate.Options {
	var opts simulate.Options
	if window != nil {
		opts.EventWindow.Valid = true
		opts.EventWindow.StartTime = window.Start
		opts.EventWindow.EndTime = window.End
	} else if e.Cfg != nil && e.Cfg.DefaultEventWindowSeconds > 0 {
		opts.EventWindow.Valid = true
		opts.EventWindow.StartTime = 0
		opts.EventWindow.EndTime = e.Cfg.DefaultEventWindowSeconds
	}
	if limit != nil {
		opts.EventLimit.Valid = true
		opts.EventLimit.Time = limit.Time
	}
	return opts
}

// MatchCypherQuery is §6 item 3: parses queryString, runs C4..C7, and
// returns the match count. Per §7, QueryParseError/UnknownLabel/
// EmptyCandidateSet are not Go errors: they are logged at Warn and folded
// into a (0, nil) return, leaving matched_bits cleared.
func (e *Engine) MatchCypherQuery(ctx context.Context, limit *EventLimit, window *Window, queryString string) (uint64, error) {
	q, err := cypher.Compile(queryString)
	if err != nil {
		e.log.Warn("query parse failed", map[string]any{"query": queryString, "error": err.Error()})
		e.Graph.ResetMatchedStatus(true)
		return 0, nil
	}
	return e.matchQuery(ctx, q, limit, window)
}

// MatchQuery is §6 item 4: the IR-level entry point that bypasses C3 for
// callers (Ingest) that already hold a *cypher.Query.
func (e *Engine) MatchQuery(ctx context.Context, q *cypher.Query, limit *EventLimit, window *Window) (uint64, error) {
	return e.matchQuery(ctx, q, limit, window)
}

func (e *Engine) matchQuery(ctx context.Context, q *cypher.Query, limit *EventLimit, window *Window) (uint64, error) {
	stop := e.log.Timer("match_query")
	defer stop()

	p, err := planner.Build(q, e.Graph)
	if err != nil {
		return 0, fmt.Errorf("engine: plan query: %w", err)
	}
	if p == nil {
		e.log.Warn("query references an unknown label", nil)
		e.Graph.ResetMatchedStatus(true)
		return 0, nil
	}

	opts := e.toOptions(window, limit)
	ok, err := simulate.Run(ctx, p, e.Graph, opts)
	if err != nil {
		return 0, fmt.Errorf("engine: simulate: %w", err)
	}
	if !ok {
		e.log.Warn("a query node has no surviving candidates after labeling", nil)
		return 0, nil
	}

	if len(p.Stars) > 0 {
		if _, err := varpath.Run(ctx, p, e.Graph); err != nil {
			return 0, fmt.Errorf("engine: resolve variable-length paths: %w", err)
		}
		// Re-run simulate so the tighter candidate sets left by star-edge
		// resolution propagate before enumeration (§4.7).
		if _, err := simulate.Run(ctx, p, e.Graph, opts); err != nil {
			return 0, fmt.Errorf("engine: re-simulate after star resolution: %w", err)
		}
	}

	count, err := enumerate.Count(ctx, p, e.Graph, 0)
	if err != nil {
		return 0, fmt.Errorf("engine: enumerate: %w", err)
	}
	e.log.Debug("match_query done", map[string]any{"count": count})
	return count, nil
}

// MatchedNodes is the projection half of the original's
// MatchedNode/MatchedEdge result API (SPEC_FULL §4 item 1): walks
// matched_bits for queryNodeID after a MatchCypherQuery/MatchQuery call.
func (e *Engine) MatchedNodes(queryNodeID uint) []graph.MatchedNode {
	return e.Graph.EnumerateMatchedNodes(queryNodeID)
}

// MatchedEdges is the edge analogue of MatchedNodes.
func (e *Engine) MatchedEdges(queryEdgeID uint) []graph.MatchedEdge {
	return e.Graph.EnumerateMatchedEdges(queryEdgeID)
}

// ReportGraphStats is §6 item 6: assembles a telemetry.GraphStats
// snapshot from e.Graph's label/attribute tables and logs it through the
// Telemetry collaborator. Assembly lives here rather than in pkg/telemetry
// because it needs graph.Graph field access telemetry has no business
// depending on.
func (e *Engine) ReportGraphStats() telemetry.GraphStats {
	stats := telemetry.GraphStats{
		NodeCount:  e.Graph.CSR.N,
		EdgeCount:  e.Graph.CSR.E,
		NodeLabels: e.Graph.NodeLabelNames(),
		EdgeLabels: e.Graph.EdgeLabelNames(),
	}
	for name := range e.Graph.NodeColumns {
		stats.NodeAttributes = append(stats.NodeAttributes, name)
	}
	for name := range e.Graph.EdgeColumns {
		stats.EdgeAttributes = append(stats.EdgeAttributes, name)
	}
	e.log.ReportGraphStats(stats)
	return stats
}
