// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/semver"
)

// Index holds the known manifests by name, each name's versions ascending.
// It is safe for concurrent use.
type Index struct {
	mu     sync.RWMutex
	byName map[string][]*manifest.Manifest
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byName: map[string][]*manifest.Manifest{}}
}

// Add indexes m. A second manifest with the same name and version is
// rejected with ErrDuplicate.
func (ix *Index) Add(m *manifest.Manifest) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	list := ix.byName[m.Name]
	pos, found := slices.BinarySearchFunc(list, m.Version, func(e *manifest.Manifest, v semver.Version) int {
		return e.Version.Compare(v)
	})
	if found {
		return fmt.Errorf("%w: %s (%s and %s)", ErrDuplicate, m.ID(), list[pos].Path, m.Path)
	}
	ix.byName[m.Name] = slices.Insert(list, pos, m)
	return nil
}

// FindModule returns the highest indexed version of name satisfying c.
func (ix *Index) FindModule(name string, c semver.Criteria) (*manifest.Manifest, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	list := ix.byName[name]
	for i := len(list) - 1; i >= 0; i-- {
		if c.Matches(list[i].Version) {
			return list[i], nil
		}
	}
	return nil, &NotFoundError{Name: name, Criteria: c, Available: versionsOf(list)}
}

// Find is FindModule for a parsed spec.
func (ix *Index) Find(spec ModuleSpec) (*manifest.Manifest, error) {
	return ix.FindModule(spec.Name, spec.Criteria)
}

// Versions returns the indexed versions of name, ascending.
func (ix *Index) Versions(name string) []semver.Version {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return versionsOf(ix.byName[name])
}

// Names returns the indexed module names, sorted.
func (ix *Index) Names() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Sorted(maps.Keys(ix.byName))
}

// Modules returns every indexed manifest ordered by name, then version.
func (ix *Index) Modules() []*manifest.Manifest {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	var out []*manifest.Manifest
	for _, name := range slices.Sorted(maps.Keys(ix.byName)) {
		out = append(out, ix.byName[name]...)
	}
	return out
}

// Len returns the number of indexed manifests.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	n := 0
	for _, list := range ix.byName {
		n += len(list)
	}
	return n
}

func versionsOf(list []*manifest.Manifest) []semver.Version {
	out := make([]semver.Version, len(list))
	for i, m := range list {
		out[i] = m.Version
	}
	return out
}
