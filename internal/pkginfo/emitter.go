package pkginfo

import (
	"fmt"
	"io"
	"strings"

	"github.com/nagarh/anthroab-dist/internal/dist"
)

// MetadataVersion is the core metadata version written in PKG-INFO.
const MetadataVersion = "2.1"

// Emitter writes metadata records in the core metadata (PKG-INFO) format.
type Emitter struct {
	w io.Writer
}

// NewEmitter creates a new PKG-INFO emitter.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: w}
}

// Emit writes m. Multi-valued fields keep their declared order, so the
// output is byte-identical for identical records.
func (e *Emitter) Emit(m *dist.Metadata) error {
	if m.Name == "" || m.Version == "" {
		return fmt.Errorf("metadata requires a name and a version")
	}

	fields := []struct {
		key, value string
	}{
		{"Metadata-Version", MetadataVersion},
		{"Name", m.Name},
		{"Version", m.Version},
		{"Summary", m.Summary},
		{"Home-page", m.HomePage},
		{"Author", m.Author},
		{"Author-email", m.AuthorEmail},
	}
	for _, f := range fields {
		if err := e.header(f.key, f.value); err != nil {
			return err
		}
	}

	if err := e.multiline("License", m.License); err != nil {
		return err
	}

	for _, u := range m.ProjectURLs {
		if err := e.header("Project-URL", u.Label+", "+u.URL); err != nil {
			return err
		}
	}

	if err := e.header("Keywords", strings.Join(m.Keywords, ",")); err != nil {
		return err
	}

	for _, c := range m.Classifiers {
		if err := e.header("Classifier", c); err != nil {
			return err
		}
	}

	if err := e.header("Requires-Python", m.RequiresPython); err != nil {
		return err
	}
	if err := e.header("Description-Content-Type", m.DescriptionContentType); err != nil {
		return err
	}

	for _, r := range m.Requires {
		if err := e.header("Requires-Dist", r.String()); err != nil {
			return err
		}
	}

	if m.Description == "" {
		return nil
	}

	if _, err := fmt.Fprintf(e.w, "\n%s", m.Description); err != nil {
		return err
	}
	return nil
}

func (e *Emitter) header(key, value string) error {
	if value == "" {
		return nil
	}
	// Header values are single line
	value = strings.Join(strings.Fields(value), " ")
	_, err := fmt.Fprintf(e.w, "%s: %s\n", key, value)
	return err
}

// multiline writes a header whose value may span lines, continuing each
// extra line with eight spaces.
func (e *Emitter) multiline(key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	lines := strings.Split(value, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		var err error
		if i == 0 {
			_, err = fmt.Fprintf(e.w, "%s: %s\n", key, line)
		} else {
			_, err = fmt.Fprintf(e.w, "        %s\n", line)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
