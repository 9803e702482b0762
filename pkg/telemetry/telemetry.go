// Package telemetry provides the structured logging and stats-reporting
// surface that the engine layer (including its report_graph_stats call) and
// cmd/query-tool write through; C5/C6/C7 themselves do not log.
//
// The function surface (Info/Debug/Warn/Error, a settable level, a Stats
// call) mirrors nornicdb's apoc/log package, but the backend is
// github.com/rs/zerolog instead of the standard library's log.Logger: a
// console writer in development, JSON in production, with component and
// query_id fields threaded through via With().
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger scoped to one component ("simulate",
// "enumerate", "varpath", "engine", ...), matching the teacher's
// per-subsystem logger pattern (pkg/maintenance's "component" field in
// the example pack).
type Logger struct {
	z zerolog.Logger
}

var base = newBase(os.Stderr, false)

func newBase(w io.Writer, json bool) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	out := w
	if !json {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// Configure replaces the base logger used by New. json selects JSON-lines
// output (production) over the human-readable console writer (dev); level
// parses the same four names apoc.log.setLevel accepted.
func Configure(w io.Writer, json bool, level string) {
	l := newBase(w, json)
	if lvl, err := zerolog.ParseLevel(level); err == nil {
		l = l.Level(lvl)
	}
	base = l
}

// New returns a Logger scoped to component, e.g. New("simulate").
func New(component string) *Logger {
	return &Logger{z: base.With().Str("component", component).Logger()}
}

// WithQuery returns a copy of l scoped to a single query's lifetime, so
// every phase-boundary line for that query carries the same query_id.
func (l *Logger) WithQuery(queryID string) *Logger {
	return &Logger{z: l.z.With().Str("query_id", queryID).Logger()}
}

// Debug logs one phase-boundary line, e.g. "refine round 3" (§5's
// per-phase instrumentation).
func (l *Logger) Debug(msg string, fields map[string]any) {
	ev := l.z.Debug()
	logFields(ev, fields).Msg(msg)
}

// Info logs a normal-operation line.
func (l *Logger) Info(msg string, fields map[string]any) {
	ev := l.z.Info()
	logFields(ev, fields).Msg(msg)
}

// Warn logs the three §7 semantic-zero kinds (QueryParseError, UnknownLabel,
// EmptyCandidateSet) before their caller folds them into a 0, nil return.
func (l *Logger) Warn(msg string, fields map[string]any) {
	ev := l.z.Warn()
	logFields(ev, fields).Msg(msg)
}

// Error logs a fatal condition just before the caller panics or returns a
// non-nil error (LimitExceeded, InputCorruption, IoError per §7).
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	ev := l.z.Error().Err(err)
	logFields(ev, fields).Msg(msg)
}

func logFields(ev *zerolog.Event, fields map[string]any) *zerolog.Event {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	return ev
}

// Timer starts a phase timer and returns a function that logs the elapsed
// duration under duration_ms when called, mirroring apoc.log.timer.
func (l *Logger) Timer(phase string) func() {
	start := time.Now()
	return func() {
		l.Debug(phase, map[string]any{"duration_ms": time.Since(start).Milliseconds()})
	}
}

// GraphStats is the report_graph_stats (§6 item 6) payload: node/edge
// counts and the declared label/attribute name lists.
type GraphStats struct {
	NodeCount      int      `json:"node_count"`
	EdgeCount      int      `json:"edge_count"`
	NodeLabels     []string `json:"node_labels"`
	EdgeLabels     []string `json:"edge_labels"`
	NodeAttributes []string `json:"node_attributes"`
	EdgeAttributes []string `json:"edge_attributes"`
}

// ReportGraphStats logs a GraphStats snapshot at Info level, the Telemetry
// collaborator's half of §6 item 6 (the other half, assembling the
// snapshot from a graph.Graph, lives in pkg/engine since it needs field
// access telemetry has no business depending on).
func (l *Logger) ReportGraphStats(stats GraphStats) {
	l.Info("graph_stats", map[string]any{
		"node_count":      stats.NodeCount,
		"edge_count":      stats.EdgeCount,
		"node_labels":     stats.NodeLabels,
		"edge_labels":     stats.EdgeLabels,
		"node_attributes": stats.NodeAttributes,
		"edge_attributes": stats.EdgeAttributes,
	})
}
