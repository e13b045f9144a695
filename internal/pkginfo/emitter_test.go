package pkginfo

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nagarh/anthroab-dist/internal/dist"
)

func sampleMetadata() *dist.Metadata {
	return &dist.Metadata{
		Name:                   "anthroab",
		Version:                "0.1.0",
		Summary:                "AnthroAb: Human antibody language model",
		Description:            "# AnthroAb\n\nBody text.\n",
		DescriptionContentType: "text/markdown",
		Author:                 "Hemant Nagar",
		AuthorEmail:            "hn533621@ohio.edu",
		License:                "MIT",
		RequiresPython:         ">=3.7",
		HomePage:               "https://github.com/nagarh/AnthroAb",
		Requires: []dist.Requirement{
			{Name: "pandas", Specifier: ">=1.3.0"},
			{Name: "torch", Specifier: ">=1.9.0"},
		},
		Keywords:    []string{"anthroab", "antibody humanization"},
		Classifiers: []string{"License :: OSI Approved :: MIT License", "Programming Language :: Python :: 3"},
		PackageData: map[string][]string{"anthroab": {"*.pt"}},
		ProjectURLs: []dist.ProjectURL{
			{Label: "Bug Reports", URL: "https://github.com/nagarh/AnthroAb/issues"},
			{Label: "Source", URL: "https://github.com/nagarh/AnthroAb"},
		},
	}
}

func TestEmitter_Emit(t *testing.T) {
	want := `Metadata-Version: 2.1
Name: anthroab
Version: 0.1.0
Summary: AnthroAb: Human antibody language model
Home-page: https://github.com/nagarh/AnthroAb
Author: Hemant Nagar
Author-email: hn533621@ohio.edu
License: MIT
Project-URL: Bug Reports, https://github.com/nagarh/AnthroAb/issues
Project-URL: Source, https://github.com/nagarh/AnthroAb
Keywords: anthroab,antibody humanization
Classifier: License :: OSI Approved :: MIT License
Classifier: Programming Language :: Python :: 3
Requires-Python: >=3.7
Description-Content-Type: text/markdown
Requires-Dist: pandas>=1.3.0
Requires-Dist: torch>=1.9.0

# AnthroAb

Body text.
`

	var buf bytes.Buffer
	if err := NewEmitter(&buf).Emit(sampleMetadata()); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if got := buf.String(); got != want {
		t.Errorf("Emit() =\n%s\nwant:\n%s", got, want)
	}
}

func TestEmitter_Emit_OmitsEmptyFields(t *testing.T) {
	var buf bytes.Buffer
	m := &dist.Metadata{Name: "x", Version: "1.0", Summary: "line one\nline two"}
	if err := NewEmitter(&buf).Emit(m); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}

	want := "Metadata-Version: 2.1\nName: x\nVersion: 1.0\nSummary: line one line two\n"
	if got := buf.String(); got != want {
		t.Errorf("Emit() = %q, want %q", got, want)
	}
}

func TestEmitter_Emit_RequiresNameAndVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := NewEmitter(&buf).Emit(&dist.Metadata{Name: "x"}); err == nil {
		t.Error("Emit() error = nil, want missing version error")
	}
}

func TestEmitter_Emit_Idempotent(t *testing.T) {
	var first, second bytes.Buffer
	if err := NewEmitter(&first).Emit(sampleMetadata()); err != nil {
		t.Fatal(err)
	}
	if err := NewEmitter(&second).Emit(sampleMetadata()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("two emits of the same record differ")
	}
}

func TestWrite_Formats(t *testing.T) {
	m := sampleMetadata()

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, m, FormatJSON); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		var got dist.Metadata
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if got.Version != "0.1.0" || len(got.Requires) != 2 {
			t.Errorf("decoded %+v", got)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, m, FormatYAML); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		var got dist.Metadata
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not YAML: %v", err)
		}
		if got.PackageData["anthroab"][0] != "*.pt" {
			t.Errorf("PackageData = %v", got.PackageData)
		}
	})

	t.Run("toml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, m, FormatTOML); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		var got dist.Metadata
		if err := toml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not TOML: %v", err)
		}
		if got.Name != "anthroab" || len(got.ProjectURLs) != 2 {
			t.Errorf("decoded %+v", got)
		}
	})

	t.Run("pkg-info", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Write(&buf, m, FormatPKGInfo); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if !strings.HasPrefix(buf.String(), "Metadata-Version: 2.1\n") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"", "pkg-info", "json", "yaml", "toml"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) error = nil")
	}
}
