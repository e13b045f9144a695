package dist

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by release sources that do not know a project.
var ErrNotFound = errors.New("project not found")

// Metadata is the distribution metadata record handed to the build step.
// It is assembled once per build and not mutated afterwards.
type Metadata struct {
	Name                   string              `json:"name" yaml:"name" toml:"name"`
	Version                string              `json:"version" yaml:"version" toml:"version"`
	Summary                string              `json:"summary" yaml:"summary" toml:"summary"`
	Description            string              `json:"description" yaml:"description" toml:"description"`
	DescriptionContentType string              `json:"description_content_type" yaml:"description_content_type" toml:"description_content_type"`
	Author                 string              `json:"author" yaml:"author" toml:"author"`
	AuthorEmail            string              `json:"author_email" yaml:"author_email" toml:"author_email"`
	License                string              `json:"license" yaml:"license" toml:"license"`
	RequiresPython         string              `json:"requires_python" yaml:"requires_python" toml:"requires_python"`
	HomePage               string              `json:"home_page" yaml:"home_page" toml:"home_page"`
	Requires               []Requirement       `json:"requires_dist" yaml:"requires_dist" toml:"requires_dist"`
	Keywords               []string            `json:"keywords" yaml:"keywords" toml:"keywords"`
	Classifiers            []string            `json:"classifiers" yaml:"classifiers" toml:"classifiers"`
	PackageData            map[string][]string `json:"package_data" yaml:"package_data" toml:"package_data"`
	ProjectURLs            []ProjectURL        `json:"project_urls" yaml:"project_urls" toml:"project_urls"`
	IncludePackageData     bool                `json:"include_package_data" yaml:"include_package_data" toml:"include_package_data"`
	ZipSafe                bool                `json:"zip_safe" yaml:"zip_safe" toml:"zip_safe"`
}

// Requirement is a runtime dependency, e.g. {Name: "torch", Specifier: ">=1.9.0"}.
type Requirement struct {
	Name      string `json:"name" yaml:"name" toml:"name"`
	Specifier string `json:"specifier" yaml:"specifier" toml:"specifier"`
}

// String renders the requirement the way Requires-Dist expects it.
func (r Requirement) String() string {
	return r.Name + r.Specifier
}

// ProjectURL is a labelled link shown on the package index page.
type ProjectURL struct {
	Label string `json:"label" yaml:"label" toml:"label"`
	URL   string `json:"url" yaml:"url" toml:"url"`
}

// ArchiveName returns the base name of the source distribution,
// e.g. "anthroab-0.1.0". Separators in the project name become "_".
func (m *Metadata) ArchiveName() string {
	return strings.ReplaceAll(NormalizeName(m.Name), "-", "_") + "-" + m.Version
}

// NormalizeName lowercases a project name and folds runs of "-", "_"
// and "." into a single "-" (PEP 503).
func NormalizeName(name string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '-' || r == '_' || r == '.' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}

// SplitKeywords turns a comma separated keyword string into an ordered set.
func SplitKeywords(s string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range strings.Split(s, ",") {
		k = strings.TrimSpace(k)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
