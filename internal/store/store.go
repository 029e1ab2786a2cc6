package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ventolog/ventolog/internal/record"
)

// ErrCorrupt reports a data file that exists but cannot be read or
// parsed. Callers must treat it as fatal for the operation: the store
// never guesses, repairs, or silently resets a document it cannot
// understand.
var ErrCorrupt = errors.New("storage corrupt")

// Store persists the whole ventolog document as a single JSON file.
// The zero value is not usable; construct with Open.
type Store struct {
	path string
	mu   sync.RWMutex
}

// Open returns a store bound to the given file path. The file itself
// is created lazily on first write; until then it reads as the empty
// document.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the data file path the store is bound to.
func (s *Store) Path() string {
	return s.path
}

// View runs fn with a snapshot of the current document under a shared
// lock. The snapshot must not be retained or mutated after fn returns.
func (s *Store) View(fn func(doc record.Document) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

// Update runs fn with the current document under the exclusive lock
// and persists the result when fn reports a change. Read, mutation and
// write form one critical section: concurrent updates serialize, and
// none can overwrite another's effect.
//
// fn returns (changed, err). When changed is false, or fn fails, the
// file is left untouched.
func (s *Store) Update(fn func(doc *record.Document) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}

	changed, err := fn(&doc)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	return s.save(doc)
}

// load reads and parses the document. A missing file reads as the
// empty document with all three collections present.
func (s *Store) load() (record.Document, error) {
	var doc record.Document

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		doc.Normalize()
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("%w: read %s: %v", ErrCorrupt, s.path, err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("%w: parse %s: %v", ErrCorrupt, s.path, err)
	}

	doc.Normalize()
	return doc, nil
}

// save writes the whole document back, creating the parent directory
// on demand. Output is indented the way the previous backend wrote it,
// so existing files stay diffable after migration.
func (s *Store) save(doc record.Document) error {
	doc.Normalize()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
