// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"encoding/json"
	"testing"

	"github.com/craftr/craftr/pkg/manifest"
	"github.com/craftr/craftr/pkg/semver"
)

// mustManifest builds a manifest for name@version with the given
// dependency criteria.
func mustManifest(t *testing.T, name, version string, deps map[string]string) *manifest.Manifest {
	t.Helper()
	fields := map[string]any{"name": name, "version": version}
	if deps != nil {
		fields["dependencies"] = deps
	}
	doc, err := json.Marshal(fields)
	if err != nil {
		t.Fatal(err)
	}
	m, err := manifest.ParseBytes(doc, "")
	if err != nil {
		t.Fatalf("ParseBytes(%s@%s) error: %v", name, version, err)
	}
	return m
}

func mustIndex(t *testing.T, ms ...*manifest.Manifest) *Index {
	t.Helper()
	ix := NewIndex()
	for _, m := range ms {
		if err := ix.Add(m); err != nil {
			t.Fatalf("Add(%s) error: %v", m.ID(), err)
		}
	}
	return ix
}

func ids(ms []*manifest.Manifest) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID()
	}
	return out
}

func mustCriteria(t *testing.T, text string) semver.Criteria {
	t.Helper()
	c, err := semver.ParseCriteria(text)
	if err != nil {
		t.Fatal(err)
	}
	return c
}
