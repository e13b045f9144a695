package main

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/pkgdata"
	"github.com/nagarh/anthroab-dist/internal/sdist"
	"github.com/nagarh/anthroab-dist/internal/sumfile"
)

func newSdistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sdist",
		Short: "Build a reproducible source distribution",
		Args:  cobra.NoArgs,
		RunE:  runSdist,
	}

	cmd.Flags().StringP("out", "o", "dist", "Output directory")
	_ = viper.BindPFlag("dist_dir", cmd.Flags().Lookup("out"))
	return cmd
}

func runSdist(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	m, err := e.build()
	if err != nil {
		return err
	}

	collector := pkgdata.NewCollector(e.cfg.Root)
	collector.L = e.L.Named("pkgdata")
	files, err := collector.All(m.PackageData)
	if err != nil {
		return fmt.Errorf("collecting package files: %w", err)
	}

	entries := []sdist.Entry{{Path: filepath.ToSlash(e.desc.Readme), Source: e.desc.ReadmePath()}}
	for _, f := range files {
		// the manifest is regenerated below
		if path.Base(f.Path) == sdist.ManifestName {
			continue
		}
		entries = append(entries, sdist.Entry{Path: f.Path, Source: f.Abs})
	}

	manifests, err := manifestEntries(m, files)
	if err != nil {
		return err
	}
	entries = append(entries, manifests...)

	modTime, err := sdist.ModTimeFromEnv()
	if err != nil {
		return err
	}

	builder := sdist.NewBuilder(e.cfg.DistPath())
	builder.L = e.L.Named("sdist")
	builder.SetModTime(modTime)

	archive, err := builder.Build(m, entries)
	if err != nil {
		return fmt.Errorf("building sdist: %w", err)
	}

	fmt.Printf("Generated %s with %d files\n", archive, len(entries)+1)
	return nil
}

// manifestEntries renders one checksum manifest per package covering its
// package data files. Packages without data get no manifest.
func manifestEntries(m *dist.Metadata, files []pkgdata.File) ([]sdist.Entry, error) {
	sums, err := buildManifests(files)
	if err != nil {
		return nil, err
	}

	var entries []sdist.Entry
	for _, pkg := range sortedKeys(sums) {
		if _, ok := m.PackageData[pkg]; !ok {
			continue
		}
		var buf bytes.Buffer
		if err := sums[pkg].Save(&buf); err != nil {
			return nil, err
		}
		entries = append(entries, sdist.Entry{
			Path: path.Join(pkg, sdist.ManifestName),
			Data: buf.Bytes(),
		})
	}
	return entries, nil
}

// buildManifests hashes package data files, grouped by package directory.
func buildManifests(files []pkgdata.File) (map[string]*sumfile.Sumfile, error) {
	sums := make(map[string]*sumfile.Sumfile)
	for _, f := range files {
		if !f.Data || path.Base(f.Path) == sdist.ManifestName {
			continue
		}
		pkg := f.Package
		if sums[pkg] == nil {
			sums[pkg] = &sumfile.Sumfile{}
		}
		if _, err := sums[pkg].AddFile(f.Path, f.Abs); err != nil {
			return nil, err
		}
	}
	return sums, nil
}
