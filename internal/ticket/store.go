package ticket

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

// Document is the on-disk shape of the ticket file.
type Document struct {
	GeneratedAt  time.Time `json:"generatedAt"`
	TotalTickets int       `json:"totalTickets"`
	Tickets      []*Ticket `json:"tickets"`
}

// Store reads and writes the ticket file. Reads are full-document parses
// and writes are full-document overwrites; persistence happens after
// every status transition, so a crash never loses a recorded transition
// (the same ticket may be re-run idempotently).
type Store struct {
	fs   afero.Fs
	path string
}

// NewStore creates a store for the ticket file at path.
func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Path returns the ticket file location.
func (s *Store) Path() string { return s.path }

// Load parses and validates the whole document. Schema violations are
// rejected with a descriptive error, never coerced.
func (s *Store) Load() (*Document, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return nil, fmt.Errorf("reading ticket file %s: %w", s.path, err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing ticket file %s: %w", s.path, err)
	}

	seen := make(map[string]bool, len(doc.Tickets))
	for i, t := range doc.Tickets {
		if t == nil {
			return nil, fmt.Errorf("ticket file %s: tickets[%d] is null", s.path, i)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("ticket file %s: tickets[%d]: %w", s.path, i, err)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("ticket file %s: duplicate ticket id %s", s.path, t.ID)
		}
		seen[t.ID] = true
	}

	return &doc, nil
}

// Save overwrites the whole document atomically (temp file + rename),
// refreshing the ticket count.
func (s *Store) Save(doc *Document) error {
	doc.TotalTickets = len(doc.Tickets)
	if doc.GeneratedAt.IsZero() {
		doc.GeneratedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding ticket file: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(s.path)
	tmp, err := afero.TempFile(s.fs, dir, ".tickets-*.json")
	if err != nil {
		return fmt.Errorf("creating temp ticket file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("writing temp ticket file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("closing temp ticket file: %w", err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("replacing ticket file %s: %w", s.path, err)
	}
	return nil
}

// ResetAll transitions every ticket to Todo, clears errors, and persists.
func (s *Store) ResetAll() (*Document, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	for _, t := range doc.Tickets {
		t.Reset()
	}
	if err := s.Save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Find returns the ticket with the given id, or nil.
func (d *Document) Find(id string) *Ticket {
	for _, t := range d.Tickets {
		if t.ID == id {
			return t
		}
	}
	return nil
}
