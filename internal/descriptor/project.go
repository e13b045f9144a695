package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/specifier"
)

// ProjectFile is the optional abdist.toml / abdist.yaml overlay. It uses
// the pyproject.toml vocabulary; keys that are present replace the
// literal defaults.
type ProjectFile struct {
	Project Project `toml:"project" yaml:"project"`
	Tool    struct {
		Abdist ToolSection `toml:"abdist" yaml:"abdist"`
	} `toml:"tool" yaml:"tool"`
}

// Project mirrors the [project] table.
type Project struct {
	Name           *string           `toml:"name" yaml:"name"`
	Description    *string           `toml:"description" yaml:"description"`
	Readme         *string           `toml:"readme" yaml:"readme"`
	RequiresPython *string           `toml:"requires-python" yaml:"requires-python"`
	License        *string           `toml:"license" yaml:"license"`
	Authors        []Contact         `toml:"authors" yaml:"authors"`
	Dependencies   []string          `toml:"dependencies" yaml:"dependencies"`
	Keywords       []string          `toml:"keywords" yaml:"keywords"`
	Classifiers    []string          `toml:"classifiers" yaml:"classifiers"`
	URLs           map[string]string `toml:"urls" yaml:"urls"`
}

// Contact is an author entry.
type Contact struct {
	Name  string `toml:"name" yaml:"name"`
	Email string `toml:"email" yaml:"email"`
}

// ToolSection is [tool.abdist].
type ToolSection struct {
	Package     *string             `toml:"package" yaml:"package"`
	HomePage    *string             `toml:"home-page" yaml:"home-page"`
	PackageData map[string][]string `toml:"package-data" yaml:"package-data"`
	ZipSafe     *bool               `toml:"zip-safe" yaml:"zip-safe"`
}

// LoadProjectFile decodes path as TOML or YAML depending on its extension.
func LoadProjectFile(path string) (*ProjectFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading project file: %w", err)
	}

	var pf ProjectFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
		}
	default:
		return nil, fmt.Errorf("project file %s: unsupported extension", path)
	}

	return &pf, nil
}

// Apply overlays the project file onto the descriptor.
func (pf *ProjectFile) Apply(d *Descriptor) error {
	p := pf.Project
	m := &d.Literal

	if p.Name != nil {
		m.Name = *p.Name
	}
	if p.Description != nil {
		m.Summary = *p.Description
	}
	if p.Readme != nil {
		d.Readme = *p.Readme
		m.DescriptionContentType = contentType(*p.Readme)
	}
	if p.RequiresPython != nil {
		if _, err := specifier.ParseSet(*p.RequiresPython); err != nil {
			return fmt.Errorf("requires-python: %w", err)
		}
		m.RequiresPython = *p.RequiresPython
	}
	if p.License != nil {
		m.License = *p.License
	}
	if len(p.Authors) > 0 {
		m.Author = p.Authors[0].Name
		m.AuthorEmail = p.Authors[0].Email
	}
	if p.Dependencies != nil {
		reqs := make([]dist.Requirement, 0, len(p.Dependencies))
		for _, line := range p.Dependencies {
			req, err := specifier.ParseRequirement(line)
			if err != nil {
				return fmt.Errorf("dependencies: %w", err)
			}
			reqs = append(reqs, req)
		}
		m.Requires = reqs
	}
	if p.Keywords != nil {
		m.Keywords = dist.SplitKeywords(strings.Join(p.Keywords, ","))
	}
	if p.Classifiers != nil {
		m.Classifiers = append([]string(nil), p.Classifiers...)
	}
	if p.URLs != nil {
		// Tables carry no order; sort labels so builds stay reproducible.
		labels := make([]string, 0, len(p.URLs))
		for label := range p.URLs {
			labels = append(labels, label)
		}
		sort.Strings(labels)

		m.ProjectURLs = m.ProjectURLs[:0:0]
		for _, label := range labels {
			m.ProjectURLs = append(m.ProjectURLs, dist.ProjectURL{Label: label, URL: p.URLs[label]})
		}
	}

	tool := pf.Tool.Abdist
	if tool.Package != nil {
		d.SetPackage(*tool.Package)
	}
	if tool.HomePage != nil {
		m.HomePage = *tool.HomePage
	}
	if tool.PackageData != nil {
		m.PackageData = tool.PackageData
	}
	if tool.ZipSafe != nil {
		m.ZipSafe = *tool.ZipSafe
	}

	return nil
}

func contentType(readme string) string {
	switch strings.ToLower(filepath.Ext(readme)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".rst":
		return "text/x-rst"
	default:
		return "text/plain"
	}
}
