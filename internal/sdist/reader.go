package sdist

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/pkginfo"
	"github.com/nagarh/anthroab-dist/internal/sumfile"
)

// ErrNoPKGInfo is returned when an archive has no top-level PKG-INFO.
var ErrNoPKGInfo = errors.New("no PKG-INFO found in archive")

// ManifestName is the checksum manifest written next to the package data.
const ManifestName = "ASSETS.sums"

// Report is the result of inspecting a source distribution.
type Report struct {
	Metadata *dist.Metadata
	// Files lists archive members relative to the top-level directory.
	Files []string
	// Manifests lists the checksum manifests found, one per package.
	Manifests []string
	// Mismatched lists manifest entries whose content hash differs.
	Mismatched []string
	// Missing lists manifest entries absent from the archive.
	Missing []string
}

// OK reports whether the manifest, if any, matched the archive.
func (r *Report) OK() bool {
	return len(r.Mismatched) == 0 && len(r.Missing) == 0
}

// Inspect reads an sdist in a single pass: it parses PKG-INFO, lists the
// members and checks them against any checksum manifest in the archive.
func Inspect(archivePath string) (*Report, error) {
	file, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("decompressing archive: %w", err)
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)

	var pkgInfo []byte
	manifests := make(map[string][]byte)
	report := &Report{}
	hashes := make(map[string][]byte)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading archive: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		// Strip the <name>-<version>/ directory
		parts := strings.SplitN(header.Name, "/", 2)
		if len(parts) != 2 || parts[1] == "" {
			continue
		}
		rel := parts[1]
		report.Files = append(report.Files, rel)

		switch {
		case rel == "PKG-INFO":
			pkgInfo, err = io.ReadAll(tarReader)
			if err != nil {
				return nil, fmt.Errorf("reading PKG-INFO: %w", err)
			}
		case strings.HasSuffix(rel, "/"+ManifestName):
			data, err := io.ReadAll(tarReader)
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", rel, err)
			}
			manifests[rel] = data
			report.Manifests = append(report.Manifests, rel)
		default:
			h := sha256.New()
			if _, err := io.Copy(h, tarReader); err != nil {
				return nil, fmt.Errorf("reading %s: %w", rel, err)
			}
			hashes[rel] = h.Sum(nil)
		}
	}

	if pkgInfo == nil {
		return nil, ErrNoPKGInfo
	}

	report.Metadata, err = pkginfo.NewParser(bytes.NewReader(pkgInfo)).Parse()
	if err != nil {
		return nil, err
	}

	sort.Strings(report.Manifests)
	for _, name := range report.Manifests {
		var sums sumfile.Sumfile
		if err := sums.Load(bytes.NewReader(manifests[name])); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		for _, entity := range sums.Entities() {
			_, want, _ := sums.Lookup(entity)
			got, ok := hashes[entity]
			switch {
			case !ok:
				report.Missing = append(report.Missing, entity)
			case !bytes.Equal(got, want):
				report.Mismatched = append(report.Mismatched, entity)
			}
		}
	}

	sort.Strings(report.Files)
	sort.Strings(report.Mismatched)
	sort.Strings(report.Missing)
	return report, nil
}

// ReadPKGInfo returns only the metadata record of an sdist.
func ReadPKGInfo(archivePath string) (*dist.Metadata, error) {
	report, err := Inspect(archivePath)
	if err != nil {
		return nil, err
	}
	return report.Metadata, nil
}
