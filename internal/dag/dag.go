// SPDX-License-Identifier: MPL-2.0

// Package dag orders modules so that every module comes after the modules
// it depends on.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError reports a dependency cycle. Cycle lists the nodes along the
	// cycle and repeats the first node at the end.
	CycleError struct {
		Cycle []string
	}

	// Graph is a dependency graph keyed by node name. The zero value is not
	// usable; call New.
	Graph struct {
		// dependents maps a node to the nodes that depend on it.
		dependents map[string][]string
		// deps maps a node to the nodes it depends on.
		deps  map[string][]string
		nodes []string
		seen  map[string]bool
	}
)

// Error implements the error interface.
func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle: %s", strings.Join(e.Cycle, " -> "))
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{
		dependents: make(map[string][]string),
		deps:       make(map[string][]string),
		seen:       make(map[string]bool),
	}
}

// AddNode adds name. Adding a node twice is a no-op.
func (g *Graph) AddNode(name string) {
	if g.seen[name] {
		return
	}
	g.seen[name] = true
	g.nodes = append(g.nodes, name)
}

// DependsOn records that node needs dep first. Both are added if missing.
func (g *Graph) DependsOn(node, dep string) {
	g.AddNode(node)
	g.AddNode(dep)
	if slices.Contains(g.deps[node], dep) {
		return
	}
	g.deps[node] = append(g.deps[node], dep)
	g.dependents[dep] = append(g.dependents[dep], node)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Sort returns the nodes with every dependency before its dependents (Kahn's
// algorithm). Independent nodes keep insertion order. A cycle yields a
// *CycleError.
func (g *Graph) Sort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	pending := make(map[string]int, len(g.nodes))
	var ready []string
	for _, n := range g.nodes {
		pending[n] = len(g.deps[n])
		if pending[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, dependent := range g.dependents[n] {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, &CycleError{Cycle: g.findCycle(pending)}
	}
	return order, nil
}

// Levels groups the sorted nodes into batches. Nodes in one batch only
// depend on nodes of earlier batches.
func (g *Graph) Levels() ([][]string, error) {
	order, err := g.Sort()
	if err != nil {
		return nil, err
	}
	depth := make(map[string]int, len(order))
	var levels [][]string
	for _, n := range order {
		d := 0
		for _, dep := range g.deps[n] {
			d = max(d, depth[dep]+1)
		}
		depth[n] = d
		if d == len(levels) {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], n)
	}
	return levels, nil
}

// findCycle follows unresolved dependencies from the first blocked node
// until a node repeats.
func (g *Graph) findCycle(pending map[string]int) []string {
	var start string
	for _, n := range g.nodes {
		if pending[n] > 0 {
			start = n
			break
		}
	}

	index := map[string]int{}
	var path []string
	for n := start; ; {
		if i, ok := index[n]; ok {
			return append(path[i:], n)
		}
		index[n] = len(path)
		path = append(path, n)

		next := ""
		for _, dep := range g.deps[n] {
			if pending[dep] > 0 {
				next = dep
				break
			}
		}
		if next == "" {
			return path
		}
		n = next
	}
}
