package sumfile

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mr-tron/base58"
)

// Algo is the only hash algorithm written by Add.
const Algo = "sha256"

// ErrChecksumMismatch is returned by Verify when a file's hash differs
// from the recorded one.
var ErrChecksumMismatch = errors.New("checksum mismatch")

type hashedEntity struct {
	hash   []byte
	entity string
	algo   string
}

// Sumfile is a sorted list of "algo:base58hash path" lines recording the
// bundled assets of a distribution.
type Sumfile struct {
	entities []hashedEntity
}

// Load reads entries from r, replacing nothing already present.
func (s *Sumfile) Load(r io.Reader) error {
	br := bufio.NewReader(r)

	for {
		line, err := br.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return err
		}

		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			he, perr := parseLine(trimmed)
			if perr != nil {
				return perr
			}
			s.insert(he)
		}

		if err == io.EOF {
			break
		}
	}

	return nil
}

func parseLine(line []byte) (hashedEntity, error) {
	colon := bytes.IndexByte(line, ':')
	space := bytes.IndexByte(line, ' ')
	if colon == -1 || space == -1 || space < colon {
		return hashedEntity{}, fmt.Errorf("malformed sum line %q", line)
	}

	b, err := base58.Decode(string(line[colon+1 : space]))
	if err != nil {
		return hashedEntity{}, fmt.Errorf("decoding sum for %s: %w", line[space+1:], err)
	}

	return hashedEntity{
		algo:   string(line[:colon]),
		hash:   b,
		entity: string(bytes.TrimSpace(line[space+1:])),
	}, nil
}

// Add records h for entity and returns the rendered "algo:hash" value.
// An existing entry for entity is replaced.
func (s *Sumfile) Add(entity, algo string, h []byte) string {
	s.insert(hashedEntity{algo: algo, hash: h, entity: entity})
	return algo + ":" + base58.Encode(h)
}

func (s *Sumfile) insert(he hashedEntity) {
	idx := sort.Search(len(s.entities), func(i int) bool {
		return s.entities[i].entity >= he.entity
	})

	if idx < len(s.entities) && s.entities[idx].entity == he.entity {
		s.entities[idx] = he
		return
	}

	s.entities = append(s.entities, hashedEntity{})
	copy(s.entities[idx+1:], s.entities[idx:])
	s.entities[idx] = he
}

// AddFile hashes the file at path and records it under entity.
func (s *Sumfile) AddFile(entity, path string) (string, error) {
	h, err := HashFile(path)
	if err != nil {
		return "", err
	}
	return s.Add(entity, Algo, h), nil
}

// Save writes every entry, sorted by entity.
func (s *Sumfile) Save(w io.Writer) error {
	for _, he := range s.entities {
		sh := base58.Encode(he.hash)
		if _, err := fmt.Fprintf(w, "%s:%s %s\n", he.algo, sh, he.entity); err != nil {
			return err
		}
	}

	return nil
}

// Lookup returns the recorded algorithm and hash for entity.
func (s *Sumfile) Lookup(entity string) (string, []byte, bool) {
	idx := sort.Search(len(s.entities), func(i int) bool {
		return s.entities[i].entity >= entity
	})

	if idx == len(s.entities) {
		return "", nil, false
	}

	if s.entities[idx].entity == entity {
		return s.entities[idx].algo, s.entities[idx].hash, true
	}

	return "", nil, false
}

// Entities lists the recorded entities in order.
func (s *Sumfile) Entities() []string {
	out := make([]string, len(s.entities))
	for i, he := range s.entities {
		out[i] = he.entity
	}
	return out
}

// Verify rehashes the file at path and compares it with the entry for
// entity.
func (s *Sumfile) Verify(entity, path string) error {
	algo, want, ok := s.Lookup(entity)
	if !ok {
		return fmt.Errorf("%s: no recorded checksum", entity)
	}
	if algo != Algo {
		return fmt.Errorf("%s: unsupported algorithm %q", entity, algo)
	}

	got, err := HashFile(path)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, entity)
	}
	return nil
}

// HashFile returns the sha256 digest of the file at path.
func HashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
