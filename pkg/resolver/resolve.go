// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/craftr/craftr/internal/dag"
	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/semver"
)

// ResolveDependencies selects a version for every package root needs,
// directly or transitively, and returns the selection with dependencies
// before their dependents and root last.
//
// Each package gets the highest indexed version satisfying the criteria of
// all selected packages that require it. Selection repeats until it no
// longer changes.
func (ix *Index) ResolveDependencies(root *manifest.Manifest) ([]*manifest.Manifest, error) {
	selected := map[string]*manifest.Manifest{root.Name: root}

	// More rounds than indexed manifests means the selection oscillates.
	for round := 0; round <= ix.Len()+1; round++ {
		next, err := ix.selectRound(root, selected)
		if err != nil {
			return nil, err
		}
		if sameSelection(next, selected) {
			return order(root, selected)
		}
		selected = next
	}
	return nil, fmt.Errorf("%w: selection for %s does not settle", ErrConflict, root.ID())
}

// selectRound picks versions for the requirements of the current selection.
// Packages no longer required are dropped.
func (ix *Index) selectRound(root *manifest.Manifest, selected map[string]*manifest.Manifest) (map[string]*manifest.Manifest, error) {
	reqs := requirements(selected)
	next := map[string]*manifest.Manifest{root.Name: root}

	for _, name := range slices.Sorted(maps.Keys(reqs)) {
		rs := reqs[name]
		if name == root.Name {
			for _, r := range rs {
				if !r.Criteria.Matches(root.Version) {
					return nil, &ConflictError{Name: name, Requirements: rs}
				}
			}
			continue
		}

		m, err := ix.satisfyAll(name, rs)
		if err != nil {
			return nil, err
		}
		next[name] = m
	}
	return next, nil
}

// satisfyAll returns the highest version of name matching every requirement.
func (ix *Index) satisfyAll(name string, rs []Requirement) (*manifest.Manifest, error) {
	ix.mu.RLock()
	list := ix.byName[name]
	ix.mu.RUnlock()

	for i := len(list) - 1; i >= 0; i-- {
		if matchesAll(list[i].Version, rs) {
			return list[i], nil
		}
	}

	// Blame a single requirement when it cannot be met on its own.
	for _, r := range rs {
		if _, ok := semver.Select(r.Criteria, versionsOf(list)); !ok {
			return nil, &NotFoundError{
				Name:       name,
				Criteria:   r.Criteria,
				RequiredBy: requirers(rs, r.Criteria),
				Available:  versionsOf(list),
			}
		}
	}
	return nil, &ConflictError{Name: name, Requirements: rs}
}

// requirements collects what the selected packages demand, by package name.
func requirements(selected map[string]*manifest.Manifest) map[string][]Requirement {
	reqs := map[string][]Requirement{}
	for _, name := range slices.Sorted(maps.Keys(selected)) {
		m := selected[name]
		for _, dep := range m.DependencyNames() {
			reqs[dep] = append(reqs[dep], Requirement{By: m.ID(), Criteria: m.Dependencies[dep]})
		}
	}
	return reqs
}

// order sorts the selection so that dependencies come first.
func order(root *manifest.Manifest, selected map[string]*manifest.Manifest) ([]*manifest.Manifest, error) {
	g := dag.New()
	var visit func(m *manifest.Manifest)
	visited := map[string]bool{}
	visit = func(m *manifest.Manifest) {
		if visited[m.Name] {
			return
		}
		visited[m.Name] = true
		g.AddNode(m.Name)
		for _, dep := range m.DependencyNames() {
			g.DependsOn(m.Name, dep)
			visit(selected[dep])
		}
	}
	visit(root)

	names, err := g.Sort()
	if err != nil {
		var ce *dag.CycleError
		if errors.As(err, &ce) {
			cycle := make([]string, len(ce.Cycle))
			for i, n := range ce.Cycle {
				cycle[i] = selected[n].ID()
			}
			return nil, &CycleError{Cycle: cycle}
		}
		return nil, err
	}

	out := make([]*manifest.Manifest, len(names))
	for i, n := range names {
		out[i] = selected[n]
	}
	return out, nil
}

func matchesAll(v semver.Version, rs []Requirement) bool {
	for _, r := range rs {
		if !r.Criteria.Matches(v) {
			return false
		}
	}
	return true
}

func requirers(rs []Requirement, c semver.Criteria) []string {
	var out []string
	for _, r := range rs {
		if r.Criteria.String() == c.String() {
			out = append(out, r.By)
		}
	}
	return out
}

func sameSelection(a, b map[string]*manifest.Manifest) bool {
	if len(a) != len(b) {
		return false
	}
	for name, m := range a {
		if b[name] != m {
			return false
		}
	}
	return true
}
