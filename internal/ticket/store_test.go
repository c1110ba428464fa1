package ticket

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

const sampleDoc = `{
  "generatedAt": "2026-08-01T12:00:00Z",
  "totalTickets": 2,
  "tickets": [
    {
      "id": "SCHEMA-001",
      "title": "Define user table",
      "description": "users table with auth columns",
      "type": "schema",
      "estimatedEffort": 2,
      "status": "Done"
    },
    {
      "id": "BE-001",
      "title": "Session endpoint",
      "description": "POST /api/session",
      "type": "backend",
      "estimatedEffort": 5,
      "status": "Error",
      "error": "typecheck failed"
    }
  ]
}`

func newTestStore(t *testing.T, content string) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	if content != "" {
		if err := afero.WriteFile(fs, "tickets.json", []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return NewStore(fs, "tickets.json")
}

func TestLoadParsesDocument(t *testing.T) {
	store := newTestStore(t, sampleDoc)

	doc, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if len(doc.Tickets) != 2 {
		t.Fatalf("loaded %d tickets, want 2", len(doc.Tickets))
	}
	if doc.Tickets[0].ID != "SCHEMA-001" || doc.Tickets[0].Status != StatusDone {
		t.Errorf("tickets[0] = %+v", doc.Tickets[0])
	}
	if doc.Tickets[1].Error != "typecheck failed" {
		t.Errorf("tickets[1].Error = %q", doc.Tickets[1].Error)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{
			"invalid type",
			`{"tickets":[{"id":"X-1","title":"t","type":"devops","estimatedEffort":3}]}`,
			"invalid type",
		},
		{
			"effort out of range",
			`{"tickets":[{"id":"X-1","title":"t","type":"backend","estimatedEffort":12}]}`,
			"out of range",
		},
		{
			"missing title",
			`{"tickets":[{"id":"X-1","type":"backend","estimatedEffort":3}]}`,
			"missing required title",
		},
		{
			"duplicate id",
			`{"tickets":[{"id":"X-1","title":"a","type":"backend","estimatedEffort":3},{"id":"X-1","title":"b","type":"backend","estimatedEffort":3}]}`,
			"duplicate ticket id",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(t, tc.doc)
			_, err := store.Load()
			if err == nil {
				t.Fatal("Load() accepted invalid document")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := newTestStore(t, "")
	if _, err := store.Load(); err == nil {
		t.Fatal("Load() succeeded on missing file")
	}
}

// Round-trip: loading a saved document yields an equal ticket set.
func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t, sampleDoc)

	doc, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	reloaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after Save() error: %v", err)
	}
	if !reflect.DeepEqual(doc.Tickets, reloaded.Tickets) {
		t.Errorf("round-trip mismatch:\n%+v\n%+v", doc.Tickets, reloaded.Tickets)
	}
	if reloaded.TotalTickets != len(reloaded.Tickets) {
		t.Errorf("TotalTickets = %d, want %d", reloaded.TotalTickets, len(reloaded.Tickets))
	}
}

func TestSaveStampsGeneratedAt(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "tickets.json")

	doc := &Document{Tickets: []*Ticket{validTicket()}}
	if err := store.Save(doc); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if doc.GeneratedAt.IsZero() {
		t.Error("Save() did not stamp GeneratedAt")
	}
	if time.Since(doc.GeneratedAt) > time.Minute {
		t.Errorf("GeneratedAt = %v, not recent", doc.GeneratedAt)
	}
}

func TestResetAll(t *testing.T) {
	store := newTestStore(t, sampleDoc)

	doc, err := store.ResetAll()
	if err != nil {
		t.Fatalf("ResetAll() error: %v", err)
	}

	for _, tk := range doc.Tickets {
		if tk.Status != StatusTodo {
			t.Errorf("ticket %s status = %q, want Todo", tk.ID, tk.Status)
		}
		if tk.Error != "" {
			t.Errorf("ticket %s error = %q, want cleared", tk.ID, tk.Error)
		}
	}

	// The reset must be persisted, not just in-memory.
	reloaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Tickets[1].Status != StatusTodo || reloaded.Tickets[1].Error != "" {
		t.Errorf("persisted ticket = %+v, want reset state", reloaded.Tickets[1])
	}
}

func TestFind(t *testing.T) {
	store := newTestStore(t, sampleDoc)
	doc, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}

	if tk := doc.Find("BE-001"); tk == nil || tk.Title != "Session endpoint" {
		t.Errorf("Find(BE-001) = %+v", tk)
	}
	if tk := doc.Find("NOPE-1"); tk != nil {
		t.Errorf("Find(NOPE-1) = %+v, want nil", tk)
	}
}
