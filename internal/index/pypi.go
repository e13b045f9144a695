package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/downloader"
	"github.com/nagarh/anthroab-dist/internal/specifier"
)

const (
	// DefaultURL is the public Python package index.
	DefaultURL = "https://pypi.org"
	cacheTTL   = 24 * time.Hour
)

// Release is one published version of a project.
type Release struct {
	Version string
	// Yanked is set when every file of the release was yanked.
	Yanked bool
}

type projectDoc struct {
	Info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	} `json:"info"`
	Releases map[string][]struct {
		Filename string `json:"filename"`
		Yanked   bool   `json:"yanked"`
	} `json:"releases"`
}

// PyPIIndex looks up project releases through the JSON API
// (<index>/pypi/<name>/json), caching each document on disk.
type PyPIIndex struct {
	url        string
	downloader *downloader.Downloader
	projects   map[string][]Release
	missing    map[string]bool
	L          hclog.Logger
}

// NewPyPIIndex creates a new index client.
func NewPyPIIndex(indexURL string, dl *downloader.Downloader) *PyPIIndex {
	return &PyPIIndex{
		url:        strings.TrimSuffix(indexURL, "/"),
		downloader: dl,
		projects:   make(map[string][]Release),
		missing:    make(map[string]bool),
		L:          hclog.NewNullLogger(),
	}
}

// Load fetches (or reuses cached) documents for the given projects in
// parallel and parses them. Projects the index does not know are recorded
// as missing; any other failure is returned.
func (idx *PyPIIndex) Load(ctx context.Context, names []string) error {
	jobs := make([]downloader.Job, 0, len(names))
	keys := make([]string, 0, len(names))
	for _, name := range names {
		key := dist.NormalizeName(name)
		if _, ok := idx.projects[key]; ok || idx.missing[key] {
			continue
		}
		keys = append(keys, key)
		jobs = append(jobs, downloader.Job{
			URL:      fmt.Sprintf("%s/pypi/%s/json", idx.url, url.PathEscape(key)),
			DestPath: idx.downloader.CachePath("pypi/" + key + ".json"),
			MaxAge:   cacheTTL,
		})
	}

	var errs []error
	for i, result := range idx.downloader.Download(ctx, jobs) {
		key := keys[i]

		var statusErr *downloader.StatusError
		if errors.As(result.Error, &statusErr) && statusErr.Code == http.StatusNotFound {
			idx.L.Debug("project not on index", "project", key)
			idx.missing[key] = true
			continue
		}
		if result.Error != nil {
			errs = append(errs, fmt.Errorf("fetching %s: %w", key, result.Error))
			continue
		}

		releases, err := parseProject(result.Job.DestPath)
		if err != nil {
			errs = append(errs, fmt.Errorf("parsing %s: %w", key, err))
			continue
		}
		idx.L.Debug("loaded project", "project", key, "releases", len(releases))
		idx.projects[key] = releases
	}

	return errors.Join(errs...)
}

func parseProject(path string) ([]Release, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc projectDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		// drop the cached copy so the next run refetches it
		os.Remove(path)
		return nil, err
	}

	var releases []Release
	for version, files := range doc.Releases {
		if len(files) == 0 {
			continue
		}
		yanked := true
		for _, f := range files {
			if !f.Yanked {
				yanked = false
				break
			}
		}
		releases = append(releases, Release{Version: version, Yanked: yanked})
	}

	sortReleases(releases)
	return releases, nil
}

// sortReleases orders releases oldest first; unparseable versions sort
// before everything else, by string.
func sortReleases(releases []Release) {
	sort.Slice(releases, func(i, j int) bool {
		a, errA := specifier.ParseVersion(releases[i].Version)
		b, errB := specifier.ParseVersion(releases[j].Version)
		switch {
		case errA != nil && errB != nil:
			return releases[i].Version < releases[j].Version
		case errA != nil:
			return true
		case errB != nil:
			return false
		}
		return a.Compare(b) < 0
	})
}

// Lookup returns the releases of a loaded project.
func (idx *PyPIIndex) Lookup(name string) ([]Release, bool) {
	releases, ok := idx.projects[dist.NormalizeName(name)]
	return releases, ok
}

// Versions returns the non-yanked versions of name, oldest first. It
// returns dist.ErrNotFound for projects the index does not know.
func (idx *PyPIIndex) Versions(name string) ([]string, error) {
	key := dist.NormalizeName(name)
	if idx.missing[key] {
		return nil, fmt.Errorf("%s: %w", name, dist.ErrNotFound)
	}
	releases, ok := idx.projects[key]
	if !ok {
		return nil, fmt.Errorf("%s: not loaded", name)
	}

	var versions []string
	for _, r := range releases {
		if !r.Yanked {
			versions = append(versions, r.Version)
		}
	}
	return versions, nil
}

// URL returns the configured index URL.
func (idx *PyPIIndex) URL() string {
	return idx.url
}
