package freeze

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/nagarh/anthroab-dist/internal/dist"
)

// Environment is the set of distributions installed in a Python
// environment, keyed by normalized project name.
type Environment struct {
	installed map[string]string
	// Unpinned lists projects installed from a URL or path, which carry
	// no version.
	Unpinned []string
}

// Parser parses `pip freeze` output.
type Parser struct{}

// NewParser creates a new freeze parser.
func NewParser() *Parser {
	return &Parser{}
}

var (
	pinnedRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*===?\s*(\S+?)\s*(?:;.*)?$`)
	directRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*@\s*\S+`)
)

// ParseFile reads a freeze listing from path.
func (p *Parser) ParseFile(path string) (*Environment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening freeze file: %w", err)
	}
	defer file.Close()

	return p.Parse(file)
}

// Parse reads a freeze listing. Comments, option lines (-e, -r, --hash)
// and blank lines are skipped; other unrecognized lines are an error.
func (p *Parser) Parse(r io.Reader) (*Environment, error) {
	env := &Environment{installed: make(map[string]string)}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Strip comments and skip empty lines
		if idx := strings.Index(line, " #"); idx != -1 {
			line = line[:idx]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") {
			continue
		}

		if matches := pinnedRe.FindStringSubmatch(trimmed); matches != nil {
			env.installed[dist.NormalizeName(matches[1])] = matches[2]
			continue
		}

		if matches := directRe.FindStringSubmatch(trimmed); matches != nil {
			env.Unpinned = append(env.Unpinned, dist.NormalizeName(matches[1]))
			continue
		}

		return nil, fmt.Errorf("freeze line %d: unrecognized entry %q", lineNo, trimmed)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading freeze file: %w", err)
	}

	sort.Strings(env.Unpinned)
	return env, nil
}

// Installed returns the installed version of name.
func (e *Environment) Installed(name string) (string, bool) {
	v, ok := e.installed[dist.NormalizeName(name)]
	return v, ok
}

// Versions implements checker.VersionSource: an environment offers exactly
// one version of each installed project.
func (e *Environment) Versions(name string) ([]string, error) {
	v, ok := e.Installed(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, dist.ErrNotFound)
	}
	return []string{v}, nil
}

// Len returns the number of pinned projects.
func (e *Environment) Len() int {
	return len(e.installed)
}
