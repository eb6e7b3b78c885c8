// SPDX-License-Identifier: MPL-2.0

package semver

import (
	"errors"
	"testing"
)

func TestCriteria_Matches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		criteria string
		version  string
		want     bool
	}{
		{"*", "0.0.1", true},
		{"*", "99.0.0-alpha", true},
		{"", "1.2.3", true},
		{"1.2.3", "1.2.3", true},
		{"1.2.3", "1.2.4", false},
		{"=1.2.3", "1.2.3+meta", true},
		{">=1.0.0", "1.10.0", true},
		{">=1.0.0", "0.9.0", false},
		{">1.0.0", "1.0.0", false},
		{"<2.0.0", "1.9.9", true},
		{"<=2.0.0", "2.0.0", true},
		{">=1.0.0, <2.0.0", "1.5.0", true},
		{">=1.0.0, <2.0.0", "2.0.0", false},
		{">=1.0.0 <2.0.0", "0.5.0", false},
		{">= 1.0.0", "1.0.0", true},
		{"^1.2.0", "1.9.0", true},
		{"^1.2.0", "2.0.0", false},
		{"^1.2.0", "2.0.0-alpha", false},
		{"^1.2.0", "1.1.0", false},
		{"^0.2.3", "0.2.9", true},
		{"^0.2.3", "0.3.0", false},
		{"^0.0.3", "0.0.4", false},
		{"~1.2.0", "1.2.9", true},
		{"~1.2.0", "1.3.0", false},
		{"1.x", "1.99.0", true},
		{"1.x", "2.0.0", false},
		{"1.2.*", "1.2.7", true},
		{"1.2.*", "1.3.0", false},
		{"1", "1.4.0", true},
		{"1.2", "1.2.0", true},
		{"1.2", "1.3.0", false},
		{">=1.2", "1.2.0", true},
		{">1.2", "1.2.9", false},
		{">1.2", "1.3.0", true},
		{"<1.2", "1.1.9", true},
		{"<1.2", "1.2.0", false},
		{"<=1.2", "1.2.5", true},
		{"^1", "1.9.0", true},
		{"^0.1", "0.2.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.criteria+"_"+tt.version, func(t *testing.T) {
			t.Parallel()
			c, err := ParseCriteria(tt.criteria)
			if err != nil {
				t.Fatalf("ParseCriteria(%q) error: %v", tt.criteria, err)
			}
			if got := c.Matches(MustParseVersion(tt.version)); got != tt.want {
				t.Errorf("ParseCriteria(%q).Matches(%s) = %v, want %v", tt.criteria, tt.version, got, tt.want)
			}
		})
	}
}

func TestParseCriteria_Invalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{">=", "abc", "1.2.3.4", ">>1.0.0", "^x.y", "01.2", "1.0.0,"} {
		t.Run(input, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCriteria(input)
			if input == "1.0.0," {
				// A trailing separator is tolerated.
				if err != nil {
					t.Errorf("ParseCriteria(%q) unexpected error: %v", input, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ParseCriteria(%q) expected error", input)
			}
			if !errors.Is(err, ErrFormat) {
				t.Errorf("error should wrap ErrFormat, got: %v", err)
			}
			var fe *FormatError
			if !errors.As(err, &fe) || fe.What != "criteria" {
				t.Errorf("expected criteria FormatError, got: %#v", err)
			}
		})
	}
}

func TestCriteria_ZeroValueMatchesNothing(t *testing.T) {
	t.Parallel()

	var c Criteria
	if c.Matches(MustParseVersion("1.0.0")) {
		t.Error("zero Criteria should match nothing")
	}
	if !Any().Matches(MustParseVersion("1.0.0")) {
		t.Error("Any() should match everything")
	}
	if !Exactly(MustParseVersion("1.0.0")).Matches(MustParseVersion("1.0.0")) {
		t.Error("Exactly() should match its own version")
	}
}

func TestCriteria_MatchesIsPure(t *testing.T) {
	t.Parallel()

	c := MustParseCriteria("^1.0.0")
	v := MustParseVersion("1.4.0")
	for range 3 {
		if !c.Matches(v) {
			t.Fatal("Matches changed its answer between calls")
		}
	}
	if c.String() != "^1.0.0" {
		t.Errorf("String() = %q", c.String())
	}
}

func TestSelect(t *testing.T) {
	t.Parallel()

	candidates := []Version{
		MustParseVersion("1.0.0"),
		MustParseVersion("1.9.0"),
		MustParseVersion("1.10.0"),
		MustParseVersion("2.0.0"),
	}

	got, ok := Select(MustParseCriteria("^1.0.0"), candidates)
	if !ok {
		t.Fatal("Select() found nothing")
	}
	if got.String() != "1.10.0" {
		t.Errorf("Select() = %s, want 1.10.0", got)
	}

	if _, ok := Select(MustParseCriteria(">=3.0.0"), candidates); ok {
		t.Error("Select() should report no match")
	}
}
