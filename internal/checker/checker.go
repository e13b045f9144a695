package checker

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/specifier"
)

// ErrUnsatisfied is returned for requirements no available version meets.
var ErrUnsatisfied = errors.New("requirement not satisfiable")

// VersionSource lists the versions available for a project: releases on an
// index, or the single version installed in an environment. Unknown
// projects yield dist.ErrNotFound.
type VersionSource interface {
	Versions(name string) ([]string, error)
}

// Result is the outcome for one requirement.
type Result struct {
	Requirement dist.Requirement
	// Selected is the highest version satisfying the requirement.
	Selected string
	Err      error
}

// Satisfied reports whether a version was selected.
func (r Result) Satisfied() bool {
	return r.Err == nil && r.Selected != ""
}

// Checker verifies that declared requirements can be met by a source.
type Checker struct {
	source   VersionSource
	allowPre bool
	L        hclog.Logger
}

// NewChecker creates a checker over source.
func NewChecker(source VersionSource) *Checker {
	return &Checker{
		source: source,
		L:      hclog.NewNullLogger(),
	}
}

// AllowPrereleases makes pre-release and development versions eligible.
// They are otherwise only eligible when the requirement names one.
func (c *Checker) AllowPrereleases(allow bool) {
	c.allowPre = allow
}

// Check evaluates every requirement; results keep the input order.
func (c *Checker) Check(reqs []dist.Requirement) []Result {
	results := make([]Result, len(reqs))
	for i, req := range reqs {
		results[i] = c.checkOne(req)
		if results[i].Satisfied() {
			c.L.Debug("requirement satisfied", "requirement", req.String(), "version", results[i].Selected)
		} else {
			c.L.Warn("requirement not satisfied", "requirement", req.String(), "error", results[i].Err)
		}
	}
	return results
}

func (c *Checker) checkOne(req dist.Requirement) Result {
	result := Result{Requirement: req}

	set, err := specifier.ParseSet(req.Specifier)
	if err != nil {
		result.Err = fmt.Errorf("%s: %w", req.Name, err)
		return result
	}

	versions, err := c.source.Versions(req.Name)
	if err != nil {
		result.Err = err
		return result
	}

	allowPre := c.allowPre || mentionsPrerelease(set)

	var best *specifier.Version
	for _, raw := range versions {
		v, err := specifier.ParseVersion(raw)
		if err != nil {
			c.L.Trace("skipping unparseable version", "project", req.Name, "version", raw)
			continue
		}
		if v.IsPrerelease() && !allowPre {
			continue
		}
		if !set.Contains(v) {
			continue
		}
		if best == nil || v.Compare(*best) > 0 {
			v := v
			best = &v
		}
	}

	if best == nil {
		result.Err = fmt.Errorf("%w: %s", ErrUnsatisfied, req.String())
		return result
	}

	result.Selected = best.String()
	return result
}

func mentionsPrerelease(set specifier.Set) bool {
	for _, clause := range set {
		if v, err := specifier.ParseVersion(clause.Version); err == nil && v.IsPrerelease() {
			return true
		}
	}
	return false
}

// Unsatisfied filters results down to the failures.
func Unsatisfied(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Satisfied() {
			out = append(out, r)
		}
	}
	return out
}
