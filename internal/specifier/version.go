package specifier

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidVersion is returned for strings that are not PEP 440 versions.
var ErrInvalidVersion = errors.New("invalid version")

var versionRe = regexp.MustCompile(`^v?(?:(\d+)!)?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|b|c|rc|alpha|beta|pre|preview)[-_.]?(\d+)?)?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d+)?)?` +
	`(?:[-_.]?(dev)[-_.]?(\d+)?)?` +
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`)

// Version is a parsed PEP 440 version.
type Version struct {
	raw     string
	Epoch   int
	Release []int

	HasPre  bool
	PreKind string // "a", "b" or "rc"
	PreNum  int

	HasPost bool
	PostNum int

	HasDev bool
	DevNum int

	Local string
}

// ParseVersion parses s, accepting the usual alternate spellings
// ("1.0alpha1", "1.0-r2", "v2.0").
func ParseVersion(s string) (Version, error) {
	v := Version{raw: strings.TrimSpace(s)}
	m := versionRe.FindStringSubmatch(strings.ToLower(v.raw))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}

	if m[1] != "" {
		v.Epoch, _ = strconv.Atoi(m[1])
	}
	for _, p := range strings.Split(m[2], ".") {
		n, _ := strconv.Atoi(p)
		v.Release = append(v.Release, n)
	}

	if m[3] != "" {
		v.HasPre = true
		v.PreKind = normalizePre(m[3])
		v.PreNum = atoiDefault(m[4])
	}

	switch {
	case m[5] != "":
		v.HasPost = true
		v.PostNum = atoiDefault(m[5])
	case m[6] != "":
		v.HasPost = true
		v.PostNum = atoiDefault(m[7])
	}

	if m[8] != "" {
		v.HasDev = true
		v.DevNum = atoiDefault(m[9])
	}

	v.Local = m[10]
	return v, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

func normalizePre(s string) string {
	switch s {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	case "c", "pre", "preview":
		return "rc"
	default:
		return s
	}
}

func atoiDefault(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// String returns the version as it was written.
func (v Version) String() string {
	return v.raw
}

// IsPrerelease reports whether v is a pre-release or a development release.
func (v Version) IsPrerelease() bool {
	return v.HasPre || v.HasDev
}

// Compare returns -1, 0 or 1. Local version labels are ignored.
func (v Version) Compare(o Version) int {
	if c := compareInt(v.Epoch, o.Epoch); c != 0 {
		return c
	}
	if c := compareRelease(v.Release, o.Release); c != 0 {
		return c
	}

	vc, vr, vn := v.preKey()
	oc, or, on := o.preKey()
	if c := compareInt(vc, oc); c != 0 {
		return c
	}
	if c := compareInt(vr, or); c != 0 {
		return c
	}
	if c := compareInt(vn, on); c != 0 {
		return c
	}

	if c := compareInt(v.postKey(), o.postKey()); c != 0 {
		return c
	}
	return compareInt(v.devKey(), o.devKey())
}

// preKey orders dev-only releases before pre-releases before finals.
func (v Version) preKey() (class, rank, num int) {
	switch {
	case !v.HasPre && !v.HasPost && v.HasDev:
		return 0, 0, 0
	case v.HasPre:
		return 1, preRank(v.PreKind), v.PreNum
	default:
		return 2, 0, 0
	}
}

func (v Version) postKey() int {
	if !v.HasPost {
		return -1
	}
	return v.PostNum
}

func (v Version) devKey() int {
	if !v.HasDev {
		return int(^uint(0) >> 1)
	}
	return v.DevNum
}

func preRank(kind string) int {
	switch kind {
	case "a":
		return 0
	case "b":
		return 1
	default:
		return 2
	}
}

func compareRelease(a, b []int) int {
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}

	for i := 0; i < maxLen; i++ {
		aVal, bVal := 0, 0
		if i < len(a) {
			aVal = a[i]
		}
		if i < len(b) {
			bVal = b[i]
		}
		if c := compareInt(aVal, bVal); c != 0 {
			return c
		}
	}
	return 0
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
