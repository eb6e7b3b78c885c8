// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestManifest_RoundTrip(t *testing.T) {
	t.Parallel()

	first, err := ParseBytes([]byte(zlibManifest), "")
	if err != nil {
		t.Fatalf("ParseBytes() error: %v", err)
	}
	data, err := Encode(first)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	second, err := ParseBytes(data, "")
	if err != nil {
		t.Fatalf("re-parse error: %v\n%s", err, data)
	}

	if second.ID() != first.ID() || second.Author != first.Author || second.URL != first.URL {
		t.Errorf("identity changed: %s -> %s", first.ID(), second.ID())
	}
	for name, c := range first.Dependencies {
		if second.Dependencies[name].String() != c.String() {
			t.Errorf("dependency %s: %q -> %q", name, c, second.Dependencies[name])
		}
	}
	if len(second.Options) != len(first.Options) {
		t.Fatalf("options: %d -> %d", len(first.Options), len(second.Options))
	}
	for i, d := range first.Options {
		got := second.Options[i]
		if got.Name() != d.Name() || got.Type() != d.Type() || got.Inherit() != d.Inherit() ||
			!got.Default().Equal(d.Default()) || got.Help() != d.Help() {
			t.Errorf("option %d: %s/%s -> %s/%s", i, d.Name(), d.Type(), got.Name(), got.Type())
		}
	}
	if len(second.Loaders) != len(first.Loaders) {
		t.Fatalf("loaders: %d -> %d", len(first.Loaders), len(second.Loaders))
	}
	for i, l := range first.Loaders {
		got := second.Loaders[i]
		if got.Name() != l.Name() || got.Type() != l.Type() || !reflect.DeepEqual(got.Params(), l.Params()) {
			t.Errorf("loader %d: %v -> %v", i, l.Params(), got.Params())
		}
	}
}

func TestManifest_MarshalJSON_Order(t *testing.T) {
	t.Parallel()

	m, err := ParseBytes([]byte(zlibManifest), "")
	if err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)

	if !strings.HasPrefix(out, `{"name":"zlib","version":"1.2.11"`) {
		t.Errorf("identity should come first: %s", out)
	}
	if strings.Contains(out, `"main"`) || strings.Contains(out, `"project_dir"`) {
		t.Errorf("default main and project_dir should be omitted: %s", out)
	}
	v, s, d := strings.Index(out, `"VERSION"`), strings.Index(out, `"STATIC":"bool"`), strings.Index(out, `"DEBUG"`)
	if v < 0 || s < 0 || d < 0 || v >= s || s >= d {
		t.Errorf("options should keep declaration order: %s", out)
	}
	if !strings.Contains(out, `{"name":"local","type":"url","urls":["file://src"]}`) {
		t.Errorf("loader declaration not preserved: %s", out)
	}
}
