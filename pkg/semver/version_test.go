// SPDX-License-Identifier: MPL-2.0

package semver

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Version
		wantErr bool
	}{
		{"simple", "1.2.3", Version{Major: 1, Minor: 2, Patch: 3}, false},
		{"zero", "0.0.0", Version{}, false},
		{"prerelease", "1.0.0-alpha.1", Version{Major: 1, Prerelease: "alpha.1"}, false},
		{"build", "1.0.0+build.7", Version{Major: 1, Build: "build.7"}, false},
		{"prerelease_and_build", "2.1.0-rc.1+sha.abc", Version{Major: 2, Minor: 1, Prerelease: "rc.1", Build: "sha.abc"}, false},
		{"missing_patch", "1.2", Version{}, true},
		{"v_prefix", "v1.2.3", Version{}, true},
		{"leading_zero", "01.2.3", Version{}, true},
		{"leading_zero_prerelease", "1.2.3-01", Version{}, true},
		{"empty", "", Version{}, true},
		{"garbage", "one.two.three", Version{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseVersion(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseVersion(%q) = %v, want error", tt.input, got)
				}
				if !errors.Is(err, ErrFormat) {
					t.Errorf("error should wrap ErrFormat, got: %v", err)
				}
				var fe *FormatError
				if !errors.As(err, &fe) || fe.What != "version" {
					t.Errorf("error should be a version FormatError, got: %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseVersion(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersion_StringRoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"1.2.3", "0.1.0-beta", "3.0.0-rc.2+exp.sha.5114f85"} {
		v := MustParseVersion(s)
		if v.String() != s {
			t.Errorf("MustParseVersion(%q).String() = %q", s, v.String())
		}
	}
}

func TestVersion_Compare(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want int
	}{
		{"1.9.0", "1.10.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"1.0.0", "1.0.0", 0},
		{"1.0.0-alpha", "1.0.0", -1},
		{"1.0.0-alpha", "1.0.0-alpha.1", -1},
		{"1.0.0-alpha.beta", "1.0.0-beta", -1},
		{"1.0.0-beta.2", "1.0.0-beta.11", -1},
		{"1.0.0-rc.1", "1.0.0", -1},
		{"1.0.0+build.1", "1.0.0+build.2", 0},
		{"2.0.0", "10.0.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			t.Parallel()
			got := MustParseVersion(tt.a).Compare(MustParseVersion(tt.b))
			if got != tt.want {
				t.Errorf("Compare(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVersion_EqualIncludesBuild(t *testing.T) {
	t.Parallel()

	a := MustParseVersion("1.0.0+a")
	b := MustParseVersion("1.0.0+b")
	if a.Compare(b) != 0 {
		t.Error("build metadata must not affect precedence")
	}
	if a.Equal(b) {
		t.Error("Equal must consider build metadata")
	}
}

func TestSort(t *testing.T) {
	t.Parallel()

	vs := []Version{
		MustParseVersion("1.10.0"),
		MustParseVersion("1.2.0"),
		MustParseVersion("1.2.0-rc.1"),
		MustParseVersion("0.9.9"),
	}
	Sort(vs)

	want := []string{"0.9.9", "1.2.0-rc.1", "1.2.0", "1.10.0"}
	for i, v := range vs {
		if v.String() != want[i] {
			t.Errorf("Sort()[%d] = %s, want %s", i, v, want[i])
		}
	}
}

func TestVersion_UnmarshalText(t *testing.T) {
	t.Parallel()

	var v Version
	if err := v.UnmarshalText([]byte("4.5.6")); err != nil {
		t.Fatalf("UnmarshalText() error: %v", err)
	}
	if v.Major != 4 || v.Minor != 5 || v.Patch != 6 {
		t.Errorf("UnmarshalText() = %+v", v)
	}
	if err := v.UnmarshalText([]byte("4.5")); err == nil {
		t.Error("UnmarshalText(\"4.5\") expected error")
	}
}
