// Package graph implements the dependency DAG used to schedule evidence
// resolution. Nodes are evidence ids; edges point from an evidence to the
// evidences its tool input references.
package graph

import (
	"sort"

	"github.com/sweetpotato0/reagent/errors"
)

// Graph is a string-keyed dependency graph.
type Graph struct {
	deps map[string][]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// AddNode registers a node with no dependencies. Adding an existing node is a
// no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.deps[id]; !ok {
		g.deps[id] = nil
	}
}

// AddDependency records that id depends on dependsOn. Both nodes are created
// if absent.
func (g *Graph) AddDependency(id, dependsOn string) {
	g.AddNode(id)
	g.AddNode(dependsOn)
	g.deps[id] = append(g.deps[id], dependsOn)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.deps) }

// Dependencies returns a copy of the direct dependencies of id.
func (g *Graph) Dependencies(id string) []string {
	return append([]string(nil), g.deps[id]...)
}

// Levels partitions the nodes into topological levels: every node in level i
// only depends on nodes in strictly earlier levels, so all nodes within one
// level can execute concurrently. Nodes within a level are sorted for
// deterministic scheduling. A cycle fails the whole computation with
// errors.ErrCircularDependency; no partial order is ever guessed.
func (g *Graph) Levels() ([][]string, error) {
	remaining := make(map[string]map[string]struct{}, len(g.deps))
	for id, deps := range g.deps {
		set := make(map[string]struct{}, len(deps))
		for _, d := range deps {
			set[d] = struct{}{}
		}
		remaining[id] = set
	}

	var levels [][]string
	for len(remaining) > 0 {
		var ready []string
		for id, deps := range remaining {
			if len(deps) == 0 {
				ready = append(ready, id)
			}
		}
		if len(ready) == 0 {
			return nil, errors.ErrCircularDependency
		}
		sort.Strings(ready)
		levels = append(levels, ready)
		for _, id := range ready {
			delete(remaining, id)
		}
		for _, deps := range remaining {
			for _, id := range ready {
				delete(deps, id)
			}
		}
	}

	return levels, nil
}
