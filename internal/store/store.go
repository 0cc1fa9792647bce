package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"forum-server/internal/models"
)

// Store is the whole-document JSON store. Every logical operation runs inside
// View or Update so the read-modify-write cycle the document model requires
// cannot be split across writers; a process-wide mutex serializes access.
type Store struct {
	mu   sync.Mutex
	path string
	doc  *models.Document
}

// Open loads the document from path, seeding defaults when the file does not
// exist yet. An empty path keeps the store memory-only, which tests use.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	if path == "" {
		s.doc = SeedDocument()
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.doc = SeedDocument()
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := SeedDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	normalize(doc)
	s.doc = doc
	return s, nil
}

// View runs fn against the current document. fn must not retain or mutate
// anything it reads.
func (s *Store) View(fn func(d *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc)
}

// Update runs fn against the document and persists the whole document when fn
// returns nil. A non-nil error leaves the file untouched, but fn must not
// leave partial mutations behind on the error path: apply writes only after
// all checks pass.
func (s *Store) Update(fn func(d *models.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := fn(s.doc); err != nil {
		return err
	}
	return s.persist()
}

func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// normalize backfills collections that older documents may lack so the rest
// of the code never nil-checks slices.
func normalize(d *models.Document) {
	if d.UIDCounter < 1 {
		d.UIDCounter = 1
	}
	for _, u := range d.Users {
		if u.Roles == nil {
			u.Roles = []string{}
		}
		if u.IPs == nil {
			u.IPs = []models.IPLog{}
		}
	}
	for _, t := range d.Tickets {
		if t.Responses == nil {
			t.Responses = []models.TicketResponse{}
		}
	}
}
