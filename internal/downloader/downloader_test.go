package downloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDownloader_Download_SingleFile(t *testing.T) {
	// Arrange
	content := []byte(`{"info": {"name": "torch"}}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(content)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	dl := NewDownloader(2, cacheDir)
	destPath := filepath.Join(cacheDir, "torch.json")

	jobs := []Job{{
		URL:      server.URL + "/pypi/torch/json",
		DestPath: destPath,
	}}

	// Act
	results := dl.Download(context.Background(), jobs)

	// Assert
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Error != nil {
		t.Errorf("Download() error = %v", results[0].Error)
	}

	data, err := os.ReadFile(destPath)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("file content = %q, want %q", data, content)
	}
}

func TestDownloader_Download_Cached(t *testing.T) {
	// Arrange: Pre-create the file
	cacheDir := t.TempDir()
	destPath := filepath.Join(cacheDir, "cached.json")
	if err := os.WriteFile(destPath, []byte("cached"), 0644); err != nil {
		t.Fatal(err)
	}

	var requestCount int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requestCount, 1)
		w.Write([]byte("new content"))
	}))
	defer server.Close()

	dl := NewDownloader(1, cacheDir)
	jobs := []Job{{
		URL:      server.URL + "/cached.json",
		DestPath: destPath,
		MaxAge:   time.Hour,
	}}

	// Act
	results := dl.Download(context.Background(), jobs)

	// Assert
	if results[0].Error != nil {
		t.Errorf("Download() error = %v", results[0].Error)
	}
	if n := atomic.LoadInt32(&requestCount); n != 0 {
		t.Errorf("server was called %d times, want 0 (should use cache)", n)
	}

	data, _ := os.ReadFile(destPath)
	if string(data) != "cached" {
		t.Error("cached file was overwritten")
	}
}

func TestDownloader_Download_Stale(t *testing.T) {
	cacheDir := t.TempDir()
	destPath := filepath.Join(cacheDir, "stale.json")
	if err := os.WriteFile(destPath, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(destPath, old, old); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("fresh"))
	}))
	defer server.Close()

	dl := NewDownloader(1, cacheDir)
	results := dl.Download(context.Background(), []Job{{
		URL:      server.URL + "/stale.json",
		DestPath: destPath,
		MaxAge:   24 * time.Hour,
	}})

	if results[0].Error != nil {
		t.Fatalf("Download() error = %v", results[0].Error)
	}
	data, _ := os.ReadFile(destPath)
	if string(data) != "fresh" {
		t.Errorf("file content = %q, want fresh", data)
	}
}

func TestDownloader_Download_HTTPError(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	dl := NewDownloader(1, cacheDir)
	jobs := []Job{{
		URL:      server.URL + "/pypi/missing/json",
		DestPath: filepath.Join(cacheDir, "missing.json"),
	}}

	// Act
	results := dl.Download(context.Background(), jobs)

	// Assert
	var statusErr *StatusError
	if !errors.As(results[0].Error, &statusErr) {
		t.Fatalf("Download() error = %v, want *StatusError", results[0].Error)
	}
	if statusErr.Code != http.StatusNotFound {
		t.Errorf("Code = %d, want 404", statusErr.Code)
	}
	if _, err := os.Stat(jobs[0].DestPath); !os.IsNotExist(err) {
		t.Error("a failed download left a file behind")
	}
}

func TestDownloader_Download_Parallel(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content for " + r.URL.Path))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	dl := NewDownloader(3, cacheDir)

	jobs := []Job{
		{URL: server.URL + "/pandas", DestPath: filepath.Join(cacheDir, "pandas.json")},
		{URL: server.URL + "/torch", DestPath: filepath.Join(cacheDir, "torch.json")},
		{URL: server.URL + "/numpy", DestPath: filepath.Join(cacheDir, "numpy.json")},
	}

	// Act
	results := dl.Download(context.Background(), jobs)

	// Assert
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	for i, r := range results {
		if r.Error != nil {
			t.Errorf("Download(%s) error = %v", r.Job.URL, r.Error)
		}
		if r.Job != jobs[i] {
			t.Errorf("result %d is for %s, want %s", i, r.Job.URL, jobs[i].URL)
		}
	}

	for _, job := range jobs {
		if _, err := os.Stat(job.DestPath); os.IsNotExist(err) {
			t.Errorf("file %s was not created", job.DestPath)
		}
	}
}

func TestDownloader_Download_Canceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cacheDir := t.TempDir()
	results := NewDownloader(2, cacheDir).Download(ctx, []Job{{
		URL:      server.URL + "/torch",
		DestPath: filepath.Join(cacheDir, "torch.json"),
	}})

	if !errors.Is(results[0].Error, context.Canceled) {
		t.Errorf("Download() error = %v, want context.Canceled", results[0].Error)
	}
}

func TestDownloader_Download_CreatesSubdirectories(t *testing.T) {
	// Arrange
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("content"))
	}))
	defer server.Close()

	cacheDir := t.TempDir()
	dl := NewDownloader(1, cacheDir)
	destPath := filepath.Join(cacheDir, "pypi", "torch.json")

	// Act
	results := dl.Download(context.Background(), []Job{{
		URL:      server.URL + "/pypi/torch/json",
		DestPath: destPath,
	}})

	// Assert
	if results[0].Error != nil {
		t.Errorf("Download() error = %v", results[0].Error)
	}
	if _, err := os.Stat(destPath); os.IsNotExist(err) {
		t.Error("file was not created with subdirectories")
	}
}

func TestDownloader_CachePath(t *testing.T) {
	dl := NewDownloader(1, "/home/user/.abdist/cache")

	got := dl.CachePath("pypi/torch.json")
	want := filepath.Join("/home/user/.abdist/cache", "pypi", "torch.json")

	if got != want {
		t.Errorf("CachePath() = %q, want %q", got, want)
	}
}
