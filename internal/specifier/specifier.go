package specifier

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nagarh/anthroab-dist/internal/dist"
)

// ErrInvalidSpecifier is returned for malformed version clauses or
// requirement strings.
var ErrInvalidSpecifier = errors.New("invalid specifier")

// Clause is a single comparison such as ">= 1.9.0".
type Clause struct {
	Op      string
	Version string
}

// String renders the clause without spaces.
func (c Clause) String() string {
	return c.Op + c.Version
}

// Set is a comma separated list of clauses; all must hold.
type Set []Clause

// String renders the set the way setuptools writes Requires-Dist.
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

var operators = []string{"===", "~=", "==", "!=", ">=", "<=", ">", "<"}

// ParseSet parses a specifier such as ">= 1.0, < 2.0". An empty string
// yields an empty set, which admits every version.
func ParseSet(s string) (Set, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	var set Set
	for _, part := range strings.Split(s, ",") {
		c, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		set = append(set, c)
	}
	return set, nil
}

func parseClause(s string) (Clause, error) {
	s = strings.TrimSpace(s)
	for _, op := range operators {
		if !strings.HasPrefix(s, op) {
			continue
		}
		ver := strings.TrimSpace(s[len(op):])
		if ver == "" {
			return Clause{}, fmt.Errorf("%w: %q has no version", ErrInvalidSpecifier, s)
		}
		if op == "===" {
			return Clause{Op: op, Version: ver}, nil
		}

		check := ver
		if strings.HasSuffix(ver, ".*") {
			if op != "==" && op != "!=" {
				return Clause{}, fmt.Errorf("%w: wildcard not allowed with %s", ErrInvalidSpecifier, op)
			}
			check = strings.TrimSuffix(ver, ".*")
		}
		parsed, err := ParseVersion(check)
		if err != nil {
			return Clause{}, fmt.Errorf("%w: %v", ErrInvalidSpecifier, err)
		}
		if op == "~=" && len(parsed.Release) < 2 {
			return Clause{}, fmt.Errorf("%w: %q needs at least two release segments", ErrInvalidSpecifier, s)
		}
		return Clause{Op: op, Version: ver}, nil
	}
	return Clause{}, fmt.Errorf("%w: %q has no operator", ErrInvalidSpecifier, s)
}

// Contains reports whether v satisfies every clause in the set.
func (s Set) Contains(v Version) bool {
	for _, c := range s {
		if !c.contains(v) {
			return false
		}
	}
	return true
}

func (c Clause) contains(v Version) bool {
	if c.Op == "===" {
		return v.String() == c.Version
	}

	if strings.HasSuffix(c.Version, ".*") {
		prefix := MustParseVersion(strings.TrimSuffix(c.Version, ".*"))
		match := v.Epoch == prefix.Epoch && hasReleasePrefix(v.Release, prefix.Release)
		if c.Op == "!=" {
			return !match
		}
		return match
	}

	want := MustParseVersion(c.Version)
	cmp := v.Compare(want)
	switch c.Op {
	case ">=":
		return cmp >= 0
	case ">":
		// >V excludes post-releases of V unless V is one
		if v.HasPost && !want.HasPost && sameRelease(v, want) {
			return false
		}
		return cmp > 0
	case "<=":
		return cmp <= 0
	case "<":
		// <V excludes pre-releases of V unless V is one
		if v.IsPrerelease() && !want.IsPrerelease() && sameRelease(v, want) {
			return false
		}
		return cmp < 0
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "~=":
		return cmp >= 0 && hasReleasePrefix(v.Release, want.Release[:len(want.Release)-1])
	}
	return false
}

func sameRelease(a, b Version) bool {
	return a.Epoch == b.Epoch && compareRelease(a.Release, b.Release) == 0
}

func hasReleasePrefix(release, prefix []int) bool {
	for i, p := range prefix {
		n := 0
		if i < len(release) {
			n = release[i]
		}
		if n != p {
			return false
		}
	}
	return true
}

// Satisfies reports whether the version have meets the specifier want.
// Unparseable input never satisfies.
func Satisfies(have, want string) bool {
	set, err := ParseSet(want)
	if err != nil {
		return false
	}
	v, err := ParseVersion(have)
	if err != nil {
		return false
	}
	return set.Contains(v)
}

var requirementRe = regexp.MustCompile(`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(\[[^\]]*\])?\s*\(?([^)]*)\)?$`)

// ParseRequirement parses a dependency line such as "torch>=1.9.0".
// Extras are dropped and environment markers after ";" are ignored.
func ParseRequirement(s string) (dist.Requirement, error) {
	line := s
	if idx := strings.Index(line, ";"); idx != -1 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)

	m := requirementRe.FindStringSubmatch(line)
	if m == nil {
		return dist.Requirement{}, fmt.Errorf("%w: requirement %q", ErrInvalidSpecifier, s)
	}

	set, err := ParseSet(m[3])
	if err != nil {
		return dist.Requirement{}, fmt.Errorf("requirement %q: %w", s, err)
	}

	return dist.Requirement{Name: m[1], Specifier: set.String()}, nil
}
