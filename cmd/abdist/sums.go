package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/nagarh/anthroab-dist/internal/pkgdata"
	"github.com/nagarh/anthroab-dist/internal/sdist"
	"github.com/nagarh/anthroab-dist/internal/sumfile"
)

func newSumsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sums",
		Short: "Record or verify checksums of bundled package data",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "write",
		Short: "Write <package>/" + sdist.ManifestName + " for the package data files",
		Args:  cobra.NoArgs,
		RunE:  runSumsWrite,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "Check the package data files against <package>/" + sdist.ManifestName,
		Args:  cobra.NoArgs,
		RunE:  runSumsVerify,
	})
	return cmd
}

func collectData(e *env) ([]pkgdata.File, error) {
	collector := pkgdata.NewCollector(e.cfg.Root)
	collector.L = e.L.Named("pkgdata")

	var files []pkgdata.File
	for _, pkg := range sortedKeys(e.desc.Literal.PackageData) {
		data, err := collector.Data(pkg, e.desc.Literal.PackageData[pkg])
		if err != nil {
			return nil, fmt.Errorf("collecting package data: %w", err)
		}
		files = append(files, data...)
	}
	return files, nil
}

func manifestPath(e *env, pkg string) string {
	return filepath.Join(e.cfg.Root, filepath.FromSlash(pkg), sdist.ManifestName)
}

func runSumsWrite(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	files, err := collectData(e)
	if err != nil {
		return err
	}
	sums, err := buildManifests(files)
	if err != nil {
		return err
	}

	for _, pkg := range sortedKeys(sums) {
		dest := manifestPath(e, pkg)
		out, err := os.Create(dest)
		if err != nil {
			return fmt.Errorf("creating manifest: %w", err)
		}
		err = sums[pkg].Save(out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("writing manifest: %w", err)
		}
		fmt.Printf("Wrote %s with %d entries\n", dest, len(sums[pkg].Entities()))
	}
	return nil
}

func runSumsVerify(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	files, err := collectData(e)
	if err != nil {
		return err
	}

	byPkg := make(map[string][]pkgdata.File)
	for _, f := range files {
		if path.Base(f.Path) == sdist.ManifestName {
			continue
		}
		pkg := f.Package
		byPkg[pkg] = append(byPkg[pkg], f)
	}

	var problems []error
	for _, pkg := range sortedKeys(e.desc.Literal.PackageData) {
		mf, err := os.Open(manifestPath(e, pkg))
		if errors.Is(err, fs.ErrNotExist) && len(byPkg[pkg]) == 0 {
			continue
		}
		if err != nil {
			return fmt.Errorf("opening manifest: %w", err)
		}
		var sums sumfile.Sumfile
		err = sums.Load(mf)
		mf.Close()
		if err != nil {
			return fmt.Errorf("reading manifest for %s: %w", pkg, err)
		}

		onDisk := make(map[string]bool)
		for _, f := range byPkg[pkg] {
			onDisk[f.Path] = true
			if err := sums.Verify(f.Path, f.Abs); err != nil {
				problems = append(problems, err)
				continue
			}
			e.L.Debug("checksum ok", "file", f.Path)
		}
		for _, entity := range sums.Entities() {
			if !onDisk[entity] {
				problems = append(problems, fmt.Errorf("%s: recorded but not present", entity))
			}
		}
	}

	for _, p := range problems {
		fmt.Println(p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("%d package data files failed verification: %w", len(problems), errors.Join(problems...))
	}
	fmt.Printf("Verified %d package data files\n", len(files))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
