package descriptor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nagarh/anthroab-dist/internal/dist"
)

const (
	// DefaultPackage is the import package the distribution ships.
	DefaultPackage = "anthroab"
	// DefaultReadme is read as the long description.
	DefaultReadme = "README.md"

	versionFileName = "__version__.py"
)

// Descriptor assembles the distribution metadata record from the files
// under Root and a set of literal values.
type Descriptor struct {
	Root    string
	Package string
	Readme  string

	// Literal holds every field that is not read from disk.
	Literal dist.Metadata
}

// New returns a descriptor for the anthroab package rooted at root.
func New(root string) *Descriptor {
	return &Descriptor{
		Root:    root,
		Package: DefaultPackage,
		Readme:  DefaultReadme,
		Literal: AnthroAb(),
	}
}

// SetPackage switches the package directory, carrying the package data
// patterns of the previous package over to the new one.
func (d *Descriptor) SetPackage(pkg string) {
	if pkg == d.Package {
		return
	}
	if patterns, ok := d.Literal.PackageData[d.Package]; ok {
		data := make(map[string][]string, len(d.Literal.PackageData))
		for k, v := range d.Literal.PackageData {
			if k != d.Package {
				data[k] = v
			}
		}
		data[pkg] = patterns
		d.Literal.PackageData = data
	}
	d.Package = pkg
}

// VersionFilePath is the file the version string is read from.
func (d *Descriptor) VersionFilePath() string {
	return filepath.Join(d.Root, d.Package, versionFileName)
}

// ReadmePath is the file the long description is read from.
func (d *Descriptor) ReadmePath() string {
	return filepath.Join(d.Root, d.Readme)
}

// PackageDir is the directory holding the package sources and data.
func (d *Descriptor) PackageDir() string {
	return filepath.Join(d.Root, d.Package)
}

// Build reads the version and readme files and returns a fresh metadata
// record. A missing file is returned as an error wrapping fs.ErrNotExist.
func (d *Descriptor) Build() (*dist.Metadata, error) {
	version, err := ReadVersionFile(d.VersionFilePath())
	if err != nil {
		return nil, err
	}

	readme, err := os.ReadFile(d.ReadmePath())
	if err != nil {
		return nil, fmt.Errorf("reading readme: %w", err)
	}

	m := clone(d.Literal)
	m.Version = version
	m.Description = string(readme)
	return &m, nil
}

func clone(m dist.Metadata) dist.Metadata {
	out := m
	out.Requires = append([]dist.Requirement(nil), m.Requires...)
	out.Keywords = append([]string(nil), m.Keywords...)
	out.Classifiers = append([]string(nil), m.Classifiers...)
	out.ProjectURLs = append([]dist.ProjectURL(nil), m.ProjectURLs...)
	if m.PackageData != nil {
		out.PackageData = make(map[string][]string, len(m.PackageData))
		for pkg, patterns := range m.PackageData {
			out.PackageData[pkg] = append([]string(nil), patterns...)
		}
	}
	return out
}

// AnthroAb returns the literal metadata of the anthroab distribution.
// Version and Description are filled in by Build.
func AnthroAb() dist.Metadata {
	const repo = "https://github.com/nagarh/AnthroAb"

	return dist.Metadata{
		Name:                   "anthroab",
		Summary:                "AnthroAb: Human antibody language model based on RoBERTa for humanization",
		DescriptionContentType: "text/markdown",
		Author:                 "Hemant Nagar",
		AuthorEmail:            "hn533621@ohio.edu",
		License:                "MIT",
		RequiresPython:         ">=3.7",
		HomePage:               repo,
		Requires: []dist.Requirement{
			{Name: "pandas", Specifier: ">=1.3.0"},
			{Name: "transformers", Specifier: ">=4.20.0"},
			{Name: "torch", Specifier: ">=1.9.0"},
			{Name: "numpy", Specifier: ">=1.21.0"},
		},
		Keywords: dist.SplitKeywords("anthroab, antibody humanization, roberta, biophi, antibody design, bioinformatics, protein engineering"),
		Classifiers: []string{
			"Development Status :: 4 - Beta",
			"Intended Audience :: Science/Research",
			"License :: OSI Approved :: MIT License",
			"Programming Language :: Python :: 3",
			"Programming Language :: Python :: 3.7",
			"Programming Language :: Python :: 3.8",
			"Programming Language :: Python :: 3.9",
			"Programming Language :: Python :: 3.10",
			"Programming Language :: Python :: 3.11",
			"Topic :: Scientific/Engineering :: Bio-Informatics",
			"Topic :: Scientific/Engineering :: Artificial Intelligence",
			"Topic :: Software Development :: Libraries :: Python Modules",
		},
		PackageData: map[string][]string{
			DefaultPackage: {"*.pt", "*.txt", "*.json"},
		},
		ProjectURLs: []dist.ProjectURL{
			{Label: "Bug Reports", URL: repo + "/issues"},
			{Label: "Source", URL: repo},
			{Label: "Documentation", URL: repo},
			{Label: "Download", URL: repo + "/releases"},
		},
		IncludePackageData: true,
		ZipSafe:            false,
	}
}
