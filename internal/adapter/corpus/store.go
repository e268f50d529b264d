// Package corpus loads and holds the static set of precomputed document
// embeddings used for retrieval. The corpus is read once at startup and
// shared read-only by all requests; Reload swaps in a fresh snapshot
// atomically so concurrent readers never see a partial state.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/arturoeanton/go-rag-relay/internal/domain"
)

// Store holds the loaded embedding corpus for the process lifetime.
type Store struct {
	path    string
	records atomic.Pointer[[]domain.EmbeddingRecord]
}

// Empty returns a store with no records; retrieval stays disabled while
// the store is empty.
func Empty() *Store {
	s := &Store{}
	empty := []domain.EmbeddingRecord{}
	s.records.Store(&empty)
	return s
}

// Load parses the corpus file, a JSON array of {id, text, vector}
// records. Any record missing a field rejects the whole load: a corrupt
// corpus should fail loudly at startup, not degrade one document at a
// time. Callers fall back to Empty() on error.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	records, err := parse(data)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path}
	s.records.Store(&records)
	return s, nil
}

func parse(data []byte) ([]domain.EmbeddingRecord, error) {
	var records []domain.EmbeddingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}

	for i, rec := range records {
		if rec.ID == "" {
			return nil, fmt.Errorf("corpus record %d: missing id", i)
		}
		if rec.Text == "" {
			return nil, fmt.Errorf("corpus record %d (%s): missing text", i, rec.ID)
		}
		if len(rec.Vector) == 0 {
			return nil, fmt.Errorf("corpus record %d (%s): missing vector", i, rec.ID)
		}
	}

	return records, nil
}

// Reload re-reads the corpus file and swaps the snapshot. On failure the
// previous snapshot stays in place.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("corpus store has no source file")
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("read corpus: %w", err)
	}

	records, err := parse(data)
	if err != nil {
		return err
	}

	s.records.Store(&records)
	return nil
}

// Records returns the current corpus snapshot. The returned slice must
// not be modified.
func (s *Store) Records() []domain.EmbeddingRecord {
	return *s.records.Load()
}

// Size returns the number of loaded records.
func (s *Store) Size() int {
	return len(s.Records())
}

// Enabled reports whether retrieval has anything to search.
func (s *Store) Enabled() bool {
	return s.Size() > 0
}
