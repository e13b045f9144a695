package pkginfo

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/nagarh/anthroab-dist/internal/dist"
	"github.com/nagarh/anthroab-dist/internal/specifier"
)

var headerRe = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9-]*):\s?(.*)$`)

// Parser reads PKG-INFO / METADATA files.
type Parser struct {
	r io.Reader
}

// NewParser creates a new PKG-INFO parser.
func NewParser(r io.Reader) *Parser {
	return &Parser{r: r}
}

// Parse reads the headers and the description body. Unknown headers are
// ignored.
func (p *Parser) Parse() (*dist.Metadata, error) {
	m := &dist.Metadata{}
	var body strings.Builder
	var lastKey string
	inBody := false

	br := bufio.NewReader(p.r)
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("reading PKG-INFO: %w", err)
		}
		if line == "" && err == io.EOF {
			break
		}

		if inBody {
			body.WriteString(line)
		} else {
			trimmed := strings.TrimRight(line, "\r\n")
			switch {
			case trimmed == "":
				inBody = true
			case (trimmed[0] == ' ' || trimmed[0] == '\t') && lastKey != "":
				if err := apply(m, lastKey, strings.TrimSpace(trimmed), true); err != nil {
					return nil, err
				}
			default:
				matches := headerRe.FindStringSubmatch(trimmed)
				if matches == nil {
					return nil, fmt.Errorf("reading PKG-INFO: malformed header %q", trimmed)
				}
				lastKey = strings.ToLower(matches[1])
				if err := apply(m, lastKey, strings.TrimSpace(matches[2]), false); err != nil {
					return nil, err
				}
			}
		}

		if err == io.EOF {
			break
		}
	}

	m.Description = body.String()
	if m.Name == "" || m.Version == "" {
		return nil, fmt.Errorf("reading PKG-INFO: missing Name or Version")
	}
	return m, nil
}

func apply(m *dist.Metadata, key, value string, continued bool) error {
	if continued {
		switch key {
		case "summary":
			m.Summary += " " + value
		case "license":
			m.License += "\n" + value
		}
		return nil
	}

	switch key {
	case "name":
		m.Name = value
	case "version":
		m.Version = value
	case "summary":
		m.Summary = value
	case "home-page":
		m.HomePage = value
	case "author":
		m.Author = value
	case "author-email":
		m.AuthorEmail = value
	case "license":
		m.License = value
	case "keywords":
		m.Keywords = dist.SplitKeywords(value)
	case "classifier":
		m.Classifiers = append(m.Classifiers, value)
	case "requires-python":
		m.RequiresPython = value
	case "description-content-type":
		m.DescriptionContentType = value
	case "project-url":
		label, url, ok := strings.Cut(value, ",")
		if !ok {
			return fmt.Errorf("reading PKG-INFO: malformed Project-URL %q", value)
		}
		m.ProjectURLs = append(m.ProjectURLs, dist.ProjectURL{
			Label: strings.TrimSpace(label),
			URL:   strings.TrimSpace(url),
		})
	case "requires-dist":
		req, err := specifier.ParseRequirement(value)
		if err != nil {
			return fmt.Errorf("reading PKG-INFO: %w", err)
		}
		m.Requires = append(m.Requires, req)
	}
	return nil
}
