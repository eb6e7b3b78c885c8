// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		build func(g *Graph)
		want  []string
	}{
		{
			name:  "empty",
			build: func(*Graph) {},
			want:  nil,
		},
		{
			name:  "single",
			build: func(g *Graph) { g.AddNode("app") },
			want:  []string{"app"},
		},
		{
			name: "chain",
			build: func(g *Graph) {
				g.DependsOn("app", "zlib")
				g.DependsOn("zlib", "cxx")
			},
			want: []string{"cxx", "zlib", "app"},
		},
		{
			name: "diamond",
			build: func(g *Graph) {
				g.DependsOn("app", "png")
				g.DependsOn("app", "jpeg")
				g.DependsOn("png", "zlib")
				g.DependsOn("jpeg", "zlib")
			},
			want: []string{"zlib", "png", "jpeg", "app"},
		},
		{
			name: "independent_keep_insertion_order",
			build: func(g *Graph) {
				g.AddNode("b")
				g.AddNode("a")
				g.AddNode("c")
			},
			want: []string{"b", "a", "c"},
		},
		{
			name: "duplicate_edge",
			build: func(g *Graph) {
				g.DependsOn("app", "zlib")
				g.DependsOn("app", "zlib")
			},
			want: []string{"zlib", "app"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := New()
			tt.build(g)
			got, err := g.Sort()
			if err != nil {
				t.Fatalf("Sort() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Sort() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSort_Cycle(t *testing.T) {
	t.Parallel()

	g := New()
	g.DependsOn("app", "a")
	g.DependsOn("a", "b")
	g.DependsOn("b", "c")
	g.DependsOn("c", "a")

	_, err := g.Sort()
	var ce *CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("Sort() error = %v, want *CycleError", err)
	}
	if !slices.Equal(ce.Cycle, []string{"a", "b", "c", "a"}) {
		t.Errorf("Cycle = %v", ce.Cycle)
	}
	if ce.Error() != "dependency cycle: a -> b -> c -> a" {
		t.Errorf("Error() = %q", ce.Error())
	}
}

func TestSort_SelfDependency(t *testing.T) {
	t.Parallel()

	g := New()
	g.DependsOn("zlib", "zlib")
	_, err := g.Sort()
	var ce *CycleError
	if !errors.As(err, &ce) || !slices.Equal(ce.Cycle, []string{"zlib", "zlib"}) {
		t.Fatalf("Sort() error = %v", err)
	}
}

func TestLevels(t *testing.T) {
	t.Parallel()

	g := New()
	g.DependsOn("app", "png")
	g.DependsOn("app", "jpeg")
	g.DependsOn("png", "zlib")
	g.AddNode("tools")

	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("Levels() error: %v", err)
	}
	want := [][]string{{"jpeg", "zlib", "tools"}, {"png"}, {"app"}}
	if len(levels) != len(want) {
		t.Fatalf("Levels() = %v, want %v", levels, want)
	}
	for i := range want {
		if !slices.Equal(levels[i], want[i]) {
			t.Errorf("level %d = %v, want %v", i, levels[i], want[i])
		}
	}
}
