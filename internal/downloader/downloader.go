package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Job represents a download job.
type Job struct {
	URL      string
	DestPath string
	// MaxAge is how long an existing DestPath stays fresh. Zero means a
	// cached file is always reused.
	MaxAge time.Duration
}

// Result represents a download result.
type Result struct {
	Job   Job
	Error error
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("downloading %s: HTTP %d", e.URL, e.Code)
}

// Downloader handles parallel HTTP downloads.
type Downloader struct {
	workers  int
	cacheDir string
	client   *http.Client
	L        hclog.Logger
}

// NewDownloader creates a new downloader with the specified number of workers.
func NewDownloader(workers int, cacheDir string) *Downloader {
	if workers < 1 {
		workers = 1
	}
	return &Downloader{
		workers:  workers,
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 60 * time.Second},
		L:        hclog.NewNullLogger(),
	}
}

// Download downloads multiple files in parallel. Results are returned in
// the order of jobs.
func (d *Downloader) Download(ctx context.Context, jobs []Job) []Result {
	results := make([]Result, len(jobs))

	if err := os.MkdirAll(d.cacheDir, 0755); err != nil {
		for i, job := range jobs {
			results[i] = Result{Job: job, Error: err}
		}
		return results
	}

	jobChan := make(chan int, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				job := jobs[idx]
				results[idx] = Result{Job: job, Error: d.downloadOne(ctx, job)}
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)

	wg.Wait()
	return results
}

func (d *Downloader) downloadOne(ctx context.Context, job Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Check if already cached
	if info, err := os.Stat(job.DestPath); err == nil {
		if job.MaxAge == 0 || time.Since(info.ModTime()) < job.MaxAge {
			d.L.Trace("using cached file", "path", job.DestPath)
			return nil
		}
	}

	// Ensure destination directory exists
	if err := os.MkdirAll(filepath.Dir(job.DestPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, job.URL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	d.L.Debug("downloading url", "url", job.URL, "into", job.DestPath)
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", job.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: job.URL, Code: resp.StatusCode}
	}

	// Write to temp file first, then rename
	tmpPath := job.DestPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing file: %w", err)
	}

	if err := os.Rename(tmpPath, job.DestPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming file: %w", err)
	}

	return nil
}

// CacheDir returns the cache directory.
func (d *Downloader) CacheDir() string {
	return d.cacheDir
}

// CachePath returns the cache path for a relative name.
func (d *Downloader) CachePath(name string) string {
	return filepath.Join(d.cacheDir, filepath.FromSlash(name))
}
