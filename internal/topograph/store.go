package topograph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"tsch-topology/internal/mesh"

	log "github.com/sirupsen/logrus"
)

// Store is an in-memory index of a topology log. Later lines for the same
// key replace earlier ones, so appending a re-run overrides it.
type Store struct {
	mu        sync.RWMutex
	positions map[Key]mesh.PositionTable
	seeds     map[Key]int64
	order     []Key
}

func NewStore() *Store {
	return &Store{
		positions: make(map[Key]mesh.PositionTable),
		seeds:     make(map[Key]int64),
	}
}

// Load reads a topology log file. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewStore(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

// Read parses topology log lines from r. Blank lines and lines that are
// not records are skipped with a warning; a record line that cannot be
// decoded is an error.
func Read(r io.Reader) (*Store, error) {
	s := NewStore()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		kind, key, payload, err := parseLine(line)
		if err != nil {
			log.WithField("line", lineNo).Warn("skipping unrecognised topology log line")
			continue
		}
		switch kind {
		case positionLine:
			table, err := decodePositions(payload, key.Nodes)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			s.putPositions(key, table)
		case seedLine:
			seed, err := decodeSeed(payload)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			s.seeds[key] = seed
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) putPositions(key Key, table mesh.PositionTable) {
	if _, ok := s.positions[key]; !ok {
		s.order = append(s.order, key)
	}
	s.positions[key] = table
}

// Put adds or replaces a record.
func (s *Store) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putPositions(rec.Key, rec.Table)
	s.seeds[rec.Key] = rec.Seed
}

// Lookup returns the record for key. A record with positions but no seed
// line gets DefaultSeed.
func (s *Store) Lookup(key Key) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table, ok := s.positions[key]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	seed, ok := s.seeds[key]
	if !ok {
		seed = DefaultSeed
	}
	return Record{Key: key, Table: table, Seed: seed}, nil
}

// Keys lists stored keys in first-seen order.
func (s *Store) Keys() []Key {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Key, len(s.order))
	copy(out, s.order)
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Write emits both lines of each record to w.
func Write(w io.Writer, records ...Record) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if _, err := fmt.Fprintln(bw, rec.PositionLine()); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(bw, rec.SeedLine()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Append adds records to the end of the log at path, creating it if needed.
func Append(path string, records ...Record) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	if err := Write(f, records...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
