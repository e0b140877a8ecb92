// Package data loads credential files and hands rows out to actors.
package data

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
)

// Mode decides which row the next caller receives.
type Mode string

const (
	ModeSequential Mode = "sequential" // file order, wrapping around
	ModeRandom     Mode = "random"     // uniform pick per call
)

// ErrEmpty is returned for files and sources without data rows.
var ErrEmpty = errors.New("no data rows")

// Row is one record keyed by column name.
type Row map[string]string

// Source hands out the rows of one file. Safe for concurrent use.
type Source struct {
	name string
	rows []Row
	mode Mode
	next atomic.Uint64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource wraps rows. An empty mode means sequential.
func NewSource(name string, rows []Row, mode Mode) *Source {
	if mode == "" {
		mode = ModeSequential
	}
	return &Source{name: name, rows: rows, mode: mode, rng: rand.New(rand.NewSource(rand.Int63()))}
}

func (s *Source) Name() string { return s.name }
func (s *Source) Len() int     { return len(s.rows) }

// Next returns a row chosen by the source mode, or nil when there are none.
func (s *Source) Next() Row {
	n := len(s.rows)
	if n == 0 {
		return nil
	}
	if s.mode == ModeRandom {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.rows[s.rng.Intn(n)]
	}
	return s.rows[(s.next.Add(1)-1)%uint64(n)]
}

// Require checks that every row has every column. The first incomplete
// row is reported with its 1-based index.
func (s *Source) Require(columns ...string) error {
	if len(s.rows) == 0 {
		return fmt.Errorf("data source %s: %w", s.name, ErrEmpty)
	}
	for i, row := range s.rows {
		var missing []string
		for _, c := range columns {
			if _, ok := row[c]; !ok {
				missing = append(missing, c)
			}
		}
		if missing != nil {
			return fmt.Errorf("data source %s: row %d: missing columns %s", s.name, i+1, strings.Join(missing, ", "))
		}
	}
	return nil
}

// LoadFile reads a .csv or .json file into a Source. Relative paths resolve against dir.
func LoadFile(name, path string, mode Mode, dir string) (*Source, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q (use .csv or .json)", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	defer f.Close()

	rows, err := decode(f)
	if err == nil && len(rows) == 0 {
		err = ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return NewSource(name, rows, mode), nil
}

// Inject exposes row to template lookups as "data.<source>.<field>".
func Inject(vars interface{ Set(key string, value any) }, source string, row Row) {
	prefix := "data." + source + "."
	for field, value := range row {
		vars.Set(prefix+field, value)
	}
}
