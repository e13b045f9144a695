package pkginfo

import (
	"encoding/json"
	"fmt"
	"io"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/nagarh/anthroab-dist/internal/dist"
)

// Format selects how a record is rendered by Write.
type Format string

const (
	FormatPKGInfo Format = "pkg-info"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatTOML    Format = "toml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPKGInfo, FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "":
		return FormatPKGInfo, nil
	default:
		return "", fmt.Errorf("unknown format %q (want pkg-info, json, yaml or toml)", s)
	}
}

// Write renders m to w in the given format.
func Write(w io.Writer, m *dist.Metadata, f Format) error {
	switch f {
	case FormatPKGInfo, "":
		return NewEmitter(w).Emit(m)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return err
		}
		return enc.Close()
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(m)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}
