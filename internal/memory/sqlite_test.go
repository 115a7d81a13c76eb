package memory

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(SQLiteOptions{Path: filepath.Join(t.TempDir(), "docs-memory.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	item := docItem("id-1", "API auth design notes", "docs")
	item.Source = &Source{Channel: "general", From: "user-1"}
	item.Meta = &Meta{Project: "AEGIS"}

	if err := store.Add(ctx, item); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := store.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != "API auth design notes" || got.Project() != "AEGIS" {
		t.Errorf("got = %+v", got)
	}
	if got.Source == nil || got.Source.Channel != "general" {
		t.Errorf("source = %+v", got.Source)
	}

	if _, err := store.Get(ctx, "ghost"); err != ErrNotFound {
		t.Errorf("Get(ghost) err = %v, want ErrNotFound", err)
	}

	found, err := store.Delete(ctx, "id-1")
	if err != nil || !found {
		t.Fatalf("Delete = %v, %v; want true, nil", found, err)
	}
	if _, err := store.Get(ctx, "id-1"); err != ErrNotFound {
		t.Errorf("deleted item still readable, err = %v", err)
	}
}

func TestSQLiteStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	store.Add(ctx, docItem("id-1", "oldest note", "docs"))
	store.Add(ctx, docItem("id-2", "newer note", "docs", "api"))
	store.Add(ctx, docItem("id-3", "newest note", "docs"))

	items, err := store.List(ctx, ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 || items[0].ID != "id-3" || items[1].ID != "id-2" {
		t.Errorf("List order = %v", items)
	}

	items, err = store.List(ctx, ListOptions{Tags: []string{"api"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 1 || items[0].ID != "id-2" {
		t.Errorf("tag-filtered list = %v", items)
	}
}

func TestSQLiteStore_FTSSearch(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)

	store.Add(ctx, docItem("id-1", "backend uses Go with SQLite as the database", "docs"))
	store.Add(ctx, docItem("id-2", "authentication handled via JWT tokens", "docs"))
	store.Add(ctx, docItem("id-3", "Go is a compiled language", "docs", "lang"))

	hits, err := store.Search(ctx, "Go", SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) < 2 {
		t.Errorf("expected at least 2 hits for 'Go', got %d", len(hits))
	}
	for _, h := range hits {
		if h.Score <= 0 || h.Score > 1 {
			t.Errorf("score %f out of (0,1]", h.Score)
		}
	}

	hits, err = store.Search(ctx, "authentication", SearchOptions{Limit: 10})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.ID != "id-2" {
		t.Errorf("hits for 'authentication' = %v", hits)
	}

	hits, err = store.Search(ctx, "Go", SearchOptions{Limit: 10, Tags: []string{"lang"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].Item.ID != "id-3" {
		t.Errorf("tag-filtered hits = %v", hits)
	}
}

func TestSQLiteStore_SearchHostileQuery(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLite(t)
	store.Add(ctx, docItem("id-1", "plain note", "docs"))

	// FTS5 operator characters must never reach the MATCH parser raw.
	for _, q := range []string{`"unbalanced`, `NOT AND OR`, `a*b(c)`, `-`, `   `} {
		if _, err := store.Search(ctx, q, SearchOptions{Limit: 5}); err != nil {
			t.Errorf("Search(%q) failed: %v", q, err)
		}
	}
}

func TestSQLiteStore_MaxItemsEvictsOldest(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLiteStore(SQLiteOptions{
		Path:     filepath.Join(t.TempDir(), "m.db"),
		MaxItems: 2,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	store.Add(ctx, docItem("id-1", "oldest"))
	store.Add(ctx, docItem("id-2", "middle"))
	store.Add(ctx, docItem("id-3", "newest"))

	if _, err := store.Get(ctx, "id-1"); err != ErrNotFound {
		t.Errorf("oldest item should have been evicted, err = %v", err)
	}
	if _, err := store.Get(ctx, "id-3"); err != nil {
		t.Errorf("newest item missing: %v", err)
	}
}
