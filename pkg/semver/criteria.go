// SPDX-License-Identifier: MPL-2.0

package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type (
	// Criteria is a predicate over versions parsed from a range expression.
	// The zero value matches nothing; use ParseCriteria or Any.
	Criteria struct {
		text        string
		any         bool
		comparators []comparator
	}

	operator int

	comparator struct {
		op      operator
		version Version
	}
)

const (
	opEQ operator = iota
	opGT
	opGE
	opLT
	opLE
)

// partialRegex matches a possibly incomplete version used inside a range
// clause, e.g. "1", "1.2", "1.x", "1.2.*".
var partialRegex = regexp.MustCompile(`^(\d+|[xX*])(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?$`)

// Any returns a criteria matching every version.
func Any() Criteria {
	return Criteria{text: "*", any: true}
}

// Exactly returns a criteria matching only v (ignoring build metadata).
func Exactly(v Version) Criteria {
	return Criteria{text: v.String(), comparators: []comparator{{op: opEQ, version: v}}}
}

// ParseCriteria parses a version range expression.
func ParseCriteria(text string) (Criteria, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || trimmed == "*" || trimmed == "x" || trimmed == "X" {
		return Criteria{text: "*", any: true}, nil
	}

	clauses, err := splitClauses(trimmed)
	if err != nil {
		return Criteria{}, &FormatError{What: "criteria", Input: text, Reason: err.Error()}
	}

	c := Criteria{text: trimmed}
	allAny := true
	for _, clause := range clauses {
		comps, isAny, err := parseClause(clause)
		if err != nil {
			return Criteria{}, &FormatError{What: "criteria", Input: text, Reason: err.Error()}
		}
		if !isAny {
			allAny = false
		}
		c.comparators = append(c.comparators, comps...)
	}
	c.any = allAny
	return c, nil
}

// MustParseCriteria is like ParseCriteria but panics on malformed input.
func MustParseCriteria(text string) Criteria {
	c, err := ParseCriteria(text)
	if err != nil {
		panic(err)
	}
	return c
}

// Matches reports whether v satisfies every clause of the criteria.
func (c Criteria) Matches(v Version) bool {
	if c.any {
		return true
	}
	if len(c.comparators) == 0 {
		return false
	}
	for _, comp := range c.comparators {
		if !comp.matches(v) {
			return false
		}
	}
	return true
}

// String returns the normalized criteria text.
func (c Criteria) String() string { return c.text }

// IsAny reports whether the criteria matches every version.
func (c Criteria) IsAny() bool { return c.any }

// MarshalText implements encoding.TextMarshaler.
func (c Criteria) MarshalText() ([]byte, error) { return []byte(c.text), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Criteria) UnmarshalText(text []byte) error {
	parsed, err := ParseCriteria(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Select returns the highest version among candidates satisfying c.
func Select(c Criteria, candidates []Version) (Version, bool) {
	var (
		best  Version
		found bool
	)
	for _, v := range candidates {
		if !c.Matches(v) {
			continue
		}
		if !found || best.Less(v) {
			best = v
			found = true
		}
	}
	return best, found
}

func (c comparator) matches(v Version) bool {
	cmp := v.Compare(c.version)
	switch c.op {
	case opEQ:
		return cmp == 0
	case opGT:
		return cmp > 0
	case opGE:
		return cmp >= 0
	case opLT:
		return cmp < 0
	case opLE:
		return cmp <= 0
	default:
		return false
	}
}

// splitClauses splits on commas and whitespace, joining a bare operator
// with the version that follows it (">= 1.0.0").
func splitClauses(text string) ([]string, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	var clauses []string
	pending := ""
	for _, f := range fields {
		if pending != "" {
			clauses = append(clauses, pending+f)
			pending = ""
			continue
		}
		switch f {
		case ">", ">=", "<", "<=", "=", "==", "^", "~":
			pending = f
		default:
			clauses = append(clauses, f)
		}
	}
	if pending != "" {
		return nil, errorf("operator %q without version", pending)
	}
	if len(clauses) == 0 {
		return nil, errorf("empty expression")
	}
	return clauses, nil
}

// parseClause converts one clause into comparators. isAny is true when the
// clause places no restriction at all.
func parseClause(clause string) (comps []comparator, isAny bool, err error) {
	op, rest := splitOperator(clause)
	if rest == "" {
		return nil, false, errorf("operator %q without version", op)
	}

	if v, perr := ParseVersion(rest); perr == nil {
		return fullComparators(op, v)
	}

	m := partialRegex.FindStringSubmatch(rest)
	if m == nil {
		return nil, false, errorf("malformed version %q", rest)
	}

	parts := make([]uint64, 0, 3)
	for _, s := range m[1:] {
		if s == "" || s == "x" || s == "X" || s == "*" {
			break
		}
		if len(s) > 1 && s[0] == '0' {
			return nil, false, errorf("leading zero in %q", rest)
		}
		n, convErr := strconv.ParseUint(s, 10, 64)
		if convErr != nil {
			return nil, false, errorf("component out of range in %q", rest)
		}
		parts = append(parts, n)
	}
	return partialComparators(op, parts)
}

func splitOperator(clause string) (op, rest string) {
	for _, candidate := range []string{">=", "<=", "==", ">", "<", "=", "^", "~"} {
		if after, ok := strings.CutPrefix(clause, candidate); ok {
			if candidate == "==" {
				candidate = "="
			}
			return candidate, after
		}
	}
	return "", clause
}

func fullComparators(op string, v Version) ([]comparator, bool, error) {
	switch op {
	case "", "=":
		return []comparator{{opEQ, v}}, false, nil
	case ">":
		return []comparator{{opGT, v}}, false, nil
	case ">=":
		return []comparator{{opGE, v}}, false, nil
	case "<":
		return []comparator{{opLT, v}}, false, nil
	case "<=":
		return []comparator{{opLE, v}}, false, nil
	case "^":
		var upper Version
		switch {
		case v.Major != 0:
			upper = Version{Major: v.Major + 1, Prerelease: "0"}
		case v.Minor != 0:
			upper = Version{Minor: v.Minor + 1, Prerelease: "0"}
		default:
			upper = Version{Patch: v.Patch + 1, Prerelease: "0"}
		}
		return []comparator{{opGE, v}, {opLT, upper}}, false, nil
	case "~":
		upper := Version{Major: v.Major, Minor: v.Minor + 1, Prerelease: "0"}
		return []comparator{{opGE, v}, {opLT, upper}}, false, nil
	default:
		return nil, false, errorf("unknown operator %q", op)
	}
}

// partialComparators expands an x-range. parts holds the numeric prefix of
// the version (0 to 2 components; a full version never reaches here).
func partialComparators(op string, parts []uint64) ([]comparator, bool, error) {
	if len(parts) == 0 {
		switch op {
		case "", "=", ">=", "<=", "^", "~":
			return nil, true, nil
		default:
			// ">*" and "<*" cannot be satisfied.
			return []comparator{{opLT, Version{Prerelease: "0"}}}, false, nil
		}
	}

	lower := Version{Major: parts[0]}
	var upper Version
	if len(parts) == 1 {
		upper = Version{Major: parts[0] + 1, Prerelease: "0"}
	} else {
		lower.Minor = parts[1]
		upper = Version{Major: parts[0], Minor: parts[1] + 1, Prerelease: "0"}
	}

	switch op {
	case "", "=", "~":
		return []comparator{{opGE, lower}, {opLT, upper}}, false, nil
	case "^":
		if lower.Major == 0 && len(parts) == 2 {
			return []comparator{{opGE, lower}, {opLT, upper}}, false, nil
		}
		return []comparator{{opGE, lower}, {opLT, Version{Major: lower.Major + 1, Prerelease: "0"}}}, false, nil
	case ">=":
		return []comparator{{opGE, lower}}, false, nil
	case ">":
		return []comparator{{opGE, upper}}, false, nil
	case "<":
		return []comparator{{opLT, Version{Major: lower.Major, Minor: lower.Minor, Prerelease: "0"}}}, false, nil
	case "<=":
		return []comparator{{opLT, upper}}, false, nil
	default:
		return nil, false, errorf("unknown operator %q", op)
	}
}

func errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
