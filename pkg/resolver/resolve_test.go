// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"slices"
	"testing"
)

func TestResolveDependencies(t *testing.T) {
	t.Parallel()

	ix := mustIndex(t,
		mustManifest(t, "zlib", "1.2.8", nil),
		mustManifest(t, "zlib", "1.2.11", nil),
		mustManifest(t, "zlib", "2.0.0", nil),
		mustManifest(t, "png", "1.6.37", map[string]string{"zlib": "^1.2.0"}),
		mustManifest(t, "jpeg", "9.0.0", map[string]string{"zlib": "<=1.2.8"}),
		mustManifest(t, "jpeg", "9.4.0", nil),
		mustManifest(t, "cxx", "1.0.0", nil),
	)

	tests := []struct {
		name string
		deps map[string]string
		want []string
	}{
		{
			name: "no_dependencies",
			want: []string{"app@1.0.0"},
		},
		{
			name: "highest_satisfying",
			deps: map[string]string{"png": "*"},
			want: []string{"zlib@1.2.11", "png@1.6.37", "app@1.0.0"},
		},
		{
			name: "criteria_accumulate",
			deps: map[string]string{"png": "*", "jpeg": "9.0.0"},
			want: []string{"zlib@1.2.8", "jpeg@9.0.0", "png@1.6.37", "app@1.0.0"},
		},
		{
			name: "dropped_requirement",
			deps: map[string]string{"png": "*", "jpeg": ">=9.1.0"},
			want: []string{"jpeg@9.4.0", "zlib@1.2.11", "png@1.6.37", "app@1.0.0"},
		},
		{
			name: "direct_and_transitive",
			deps: map[string]string{"png": "*", "zlib": "*", "cxx": "1.x"},
			want: []string{"cxx@1.0.0", "zlib@1.2.11", "png@1.6.37", "app@1.0.0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := mustManifest(t, "app", "1.0.0", tt.deps)
			got, err := ix.ResolveDependencies(root)
			if err != nil {
				t.Fatalf("ResolveDependencies() error: %v", err)
			}
			if !slices.Equal(ids(got), tt.want) {
				t.Errorf("ResolveDependencies() = %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestResolveDependencies_NotFound(t *testing.T) {
	t.Parallel()

	ix := mustIndex(t,
		mustManifest(t, "png", "1.6.37", map[string]string{"zlib": ">=3.0.0"}),
		mustManifest(t, "zlib", "1.2.11", nil),
	)
	root := mustManifest(t, "app", "1.0.0", map[string]string{"png": "*"})

	_, err := ix.ResolveDependencies(root)
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want *NotFoundError", err)
	}
	if nfe.Name != "zlib" || !slices.Equal(nfe.RequiredBy, []string{"png@1.6.37"}) {
		t.Errorf("NotFoundError = %+v", nfe)
	}

	_, err = ix.ResolveDependencies(mustManifest(t, "app", "1.0.0", map[string]string{"missing": "*"}))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown dependency error = %v", err)
	}
}

func TestResolveDependencies_Conflict(t *testing.T) {
	t.Parallel()

	ix := mustIndex(t,
		mustManifest(t, "zlib", "1.2.8", nil),
		mustManifest(t, "zlib", "1.2.11", nil),
		mustManifest(t, "png", "1.6.37", map[string]string{"zlib": ">=1.2.11"}),
		mustManifest(t, "jpeg", "9.0.0", map[string]string{"zlib": "<1.2.11"}),
	)
	root := mustManifest(t, "app", "1.0.0", map[string]string{"png": "*", "jpeg": "*"})

	_, err := ix.ResolveDependencies(root)
	var ce *ConflictError
	if !errors.As(err, &ce) || !errors.Is(err, ErrConflict) {
		t.Fatalf("error = %v, want *ConflictError", err)
	}
	if ce.Name != "zlib" || len(ce.Requirements) != 2 {
		t.Errorf("ConflictError = %+v", ce)
	}
}

func TestResolveDependencies_Cycle(t *testing.T) {
	t.Parallel()

	ix := mustIndex(t,
		mustManifest(t, "a", "1.0.0", map[string]string{"b": "*"}),
		mustManifest(t, "b", "1.0.0", map[string]string{"a": "*"}),
	)
	root := mustManifest(t, "app", "1.0.0", map[string]string{"a": "*"})

	_, err := ix.ResolveDependencies(root)
	var ce *CycleError
	if !errors.As(err, &ce) || !errors.Is(err, ErrCycle) {
		t.Fatalf("error = %v, want *CycleError", err)
	}
	if !slices.Equal(ce.Cycle, []string{"a@1.0.0", "b@1.0.0", "a@1.0.0"}) {
		t.Errorf("Cycle = %v", ce.Cycle)
	}
}

func TestResolveDependencies_RootRequiredBack(t *testing.T) {
	t.Parallel()

	ix := mustIndex(t, mustManifest(t, "plugin", "1.0.0", map[string]string{"app": ">=2.0.0"}))
	root := mustManifest(t, "app", "1.0.0", map[string]string{"plugin": "*"})

	_, err := ix.ResolveDependencies(root)
	if !errors.Is(err, ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}
