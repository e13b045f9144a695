package pkgdata

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// File is a file bundled into the distribution.
type File struct {
	// Path is slash separated and relative to the repository root,
	// e.g. "anthroab/vocab.txt".
	Path string
	// Abs is the location on disk.
	Abs string
	// Package is the package directory the file was collected for.
	Package string
	Data    bool // matched a package data pattern rather than being a source file
}

// Collector lists the files of a package directory.
type Collector struct {
	root string
	L    hclog.Logger
}

// NewCollector creates a collector for packages under root.
func NewCollector(root string) *Collector {
	return &Collector{root: root, L: hclog.NewNullLogger()}
}

// Data expands the package data patterns inside the package directory.
// Patterns are relative to that directory and may name a subdirectory,
// e.g. "weights/*.pt"; "*" never crosses a "/". A pattern that matches
// nothing bundles nothing. The result is sorted and free of duplicates.
func (c *Collector) Data(pkg string, patterns []string) ([]File, error) {
	dir := filepath.Join(c.root, filepath.FromSlash(pkg))
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("package directory: %w", err)
	}

	seen := make(map[string]bool)
	var files []File
	for _, pattern := range patterns {
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("package data pattern %q: %w", pattern, err)
		}

		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("package data pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			c.L.Warn("package data pattern matched no files", "package", pkg, "pattern", pattern)
		}

		for _, abs := range matches {
			info, err := os.Stat(abs)
			if err != nil {
				return nil, fmt.Errorf("package data %s: %w", abs, err)
			}
			if !info.Mode().IsRegular() || seen[abs] {
				continue
			}
			rel, err := filepath.Rel(dir, abs)
			if err != nil {
				return nil, fmt.Errorf("package data %s: %w", abs, err)
			}
			seen[abs] = true
			files = append(files, File{
				Path:    path.Join(pkg, filepath.ToSlash(rel)),
				Abs:     abs,
				Package: pkg,
				Data:    true,
			})
		}
	}

	sortFiles(files)
	return files, nil
}

// Sources walks the package directory and returns every .py file in
// directories that are Python packages (contain __init__.py).
func (c *Collector) Sources(pkg string) ([]File, error) {
	dir := filepath.Join(c.root, filepath.FromSlash(pkg))

	var files []File
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "__pycache__" || (p != dir && strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			if _, err := os.Stat(filepath.Join(p, "__init__.py")); err != nil && p != dir {
				c.L.Debug("skipping non-package directory", "path", p)
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".py") || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(c.root, p)
		if err != nil {
			return err
		}
		files = append(files, File{Path: filepath.ToSlash(rel), Abs: p, Package: pkg})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking package %s: %w", pkg, err)
	}

	sortFiles(files)
	return files, nil
}

// All returns sources and package data for every package in patterns,
// sorted by path. A file that is both a source and data appears once.
func (c *Collector) All(patterns map[string][]string) ([]File, error) {
	pkgs := make([]string, 0, len(patterns))
	for pkg := range patterns {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	seen := make(map[string]bool)
	var out []File
	add := func(files []File) {
		for _, f := range files {
			if seen[f.Path] {
				continue
			}
			seen[f.Path] = true
			out = append(out, f)
		}
	}

	for _, pkg := range pkgs {
		src, err := c.Sources(pkg)
		if err != nil {
			return nil, err
		}
		add(src)

		data, err := c.Data(pkg, patterns[pkg])
		if err != nil {
			return nil, err
		}
		add(data)
	}

	sortFiles(out)
	return out, nil
}

func sortFiles(files []File) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
}
