package sdist

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/pkginfo"
)

// DefaultModTime is stamped on every entry unless SOURCE_DATE_EPOCH is set.
var DefaultModTime = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// Entry is a file placed in the archive under the top-level directory.
// Exactly one of Source or Data is used.
type Entry struct {
	Path   string // slash separated, relative to the top-level directory
	Source string // file on disk
	Data   []byte // in-memory content
}

// Builder writes source distributions.
type Builder struct {
	outDir  string
	modTime time.Time
	L       hclog.Logger
}

// NewBuilder creates a builder writing into outDir.
func NewBuilder(outDir string) *Builder {
	return &Builder{
		outDir:  outDir,
		modTime: DefaultModTime,
		L:       hclog.NewNullLogger(),
	}
}

// SetModTime overrides the timestamp written on entries.
func (b *Builder) SetModTime(t time.Time) {
	b.modTime = t.UTC()
}

// ModTimeFromEnv parses SOURCE_DATE_EPOCH, returning DefaultModTime when
// it is unset.
func ModTimeFromEnv() (time.Time, error) {
	v := os.Getenv("SOURCE_DATE_EPOCH")
	if v == "" {
		return DefaultModTime, nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing SOURCE_DATE_EPOCH: %w", err)
	}
	return time.Unix(secs, 0).UTC(), nil
}

// Build writes <outDir>/<name>-<version>.tar.gz containing PKG-INFO and
// the given entries, and returns its path. Entries are sorted and all
// headers are normalized so identical inputs give identical archives.
func (b *Builder) Build(m *dist.Metadata, entries []Entry) (string, error) {
	var info bytes.Buffer
	if err := pkginfo.NewEmitter(&info).Emit(m); err != nil {
		return "", fmt.Errorf("rendering PKG-INFO: %w", err)
	}

	all := append([]Entry{{Path: "PKG-INFO", Data: info.Bytes()}}, entries...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Path < all[j].Path
	})
	for i := 1; i < len(all); i++ {
		if all[i].Path == all[i-1].Path {
			return "", fmt.Errorf("duplicate archive entry %s", all[i].Path)
		}
	}

	if err := os.MkdirAll(b.outDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	top := m.ArchiveName()
	dest := filepath.Join(b.outDir, top+".tar.gz")

	// Write to temp file first, then rename
	tmpPath := dest + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating archive: %w", err)
	}

	err = b.write(out, top, all)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming archive: %w", err)
	}

	b.L.Info("wrote source distribution", "path", dest, "entries", len(all))
	return dest, nil
}

func (b *Builder) write(w io.Writer, top string, entries []Entry) error {
	gw, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(gw)

	for _, e := range entries {
		if err := b.writeEntry(tw, top, e); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing tar: %w", err)
	}
	if err := gw.Close(); err != nil {
		return fmt.Errorf("finishing gzip: %w", err)
	}
	return nil
}

func (b *Builder) writeEntry(tw *tar.Writer, top string, e Entry) error {
	name := path.Join(top, e.Path)

	var (
		r    io.Reader
		size int64
		mode int64 = 0644
	)
	if e.Source != "" {
		f, err := os.Open(e.Source)
		if err != nil {
			return fmt.Errorf("adding %s: %w", e.Path, err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return fmt.Errorf("adding %s: %w", e.Path, err)
		}
		if info.Mode()&0111 != 0 {
			mode = 0755
		}
		r, size = f, info.Size()
	} else {
		r, size = bytes.NewReader(e.Data), int64(len(e.Data))
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     mode,
		Size:     size,
		ModTime:  b.modTime,
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", e.Path, err)
	}

	n, err := io.Copy(tw, r)
	if err != nil {
		return fmt.Errorf("writing %s: %w", e.Path, err)
	}
	if n != size {
		return fmt.Errorf("writing %s: file changed size during build", e.Path)
	}

	b.L.Debug("added archive entry", "name", name, "size", size)
	return nil
}
