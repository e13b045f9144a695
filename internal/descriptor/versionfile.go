package descriptor

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
)

// ErrMalformedVersionFile is returned when the version file exists but
// does not assign a non-empty __version__ string.
var ErrMalformedVersionFile = errors.New("malformed version file")

// versionAssignRe matches `__version__ = "X"`, optionally annotated
// (`__version__: str = "X"`) and followed by a comment or `; stmt`.
var versionAssignRe = regexp.MustCompile(`^__version__\s*(?::\s*[^=]+?\s*)?=\s*(?:'([^'\n]*)'|"([^"\n]*)")\s*(?:[;#].*)?$`)

// ReadVersionFile extracts the __version__ string from a Python module
// such as anthroab/__version__.py. Only literal assignments are read and
// the file is never executed; as with executing it, the last one wins.
func ReadVersionFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading version file: %w", err)
	}
	return parseVersionFile(path, data)
}

func parseVersionFile(path string, data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	var version string
	found := false

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		matches := versionAssignRe.FindSubmatch(line)
		if matches == nil {
			continue
		}

		version = string(matches[1])
		if version == "" {
			version = string(matches[2])
		}
		found = true
	}

	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading version file: %w", err)
	}

	if !found {
		return "", fmt.Errorf("%w: %s: no __version__ assignment", ErrMalformedVersionFile, path)
	}
	if version == "" {
		return "", fmt.Errorf("%w: %s: empty __version__", ErrMalformedVersionFile, path)
	}
	return version, nil
}
