package persistence

import "github.com/orneryd/graphquery/pkg/graph"

// NullStore is the Store this repository ships by default: every method
// returns ErrNotFound. Persistence and the property-file-graph reader are
// external collaborators (§1 Non-goals); cmd/query-tool wires NullStore
// so it links, and with it every run stops at graph load with ErrNotFound
// until a Store backed by a real file format replaces it.
type NullStore struct{}

func (NullStore) LoadAttributedGraph(path string) (*graph.Graph, error) { return nil, ErrNotFound }
func (NullStore) SaveGraph(g *graph.Graph, path string) error           { return ErrNotFound }
func (NullStore) LoadGraph(path string) (*graph.Graph, error)           { return nil, ErrNotFound }
