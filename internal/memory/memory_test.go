package memory

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
)

func docItem(id, text string, tags ...string) Item {
	return Item{
		ID:        id,
		Kind:      "doc",
		Text:      text,
		CreatedAt: "2026-01-15T00:00:00Z",
		Tags:      tags,
	}
}

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a := e.Embed("api auth design notes")
	b := e.Embed("api auth design notes")
	if CosineSimilarity(a, b) < 0.999 {
		t.Error("identical text should embed identically")
	}
}

func TestHashEmbedder_RelatedTextScoresHigher(t *testing.T) {
	e := NewHashEmbedder(256)
	query := e.Embed("database migration")
	related := e.Embed("notes about the database migration plan")
	unrelated := e.Embed("weekend hiking trip photos")

	if CosineSimilarity(query, related) <= CosineSimilarity(query, unrelated) {
		t.Error("related text should score higher than unrelated text")
	}
}

func TestCosineSimilarity(t *testing.T) {
	if sim := CosineSimilarity([]float32{1, 0}, []float32{1, 0}); sim < 0.99 {
		t.Errorf("identical vectors: similarity = %f, want ~1.0", sim)
	}
	if sim := CosineSimilarity([]float32{1, 0}, []float32{0, 1}); sim > 0.01 {
		t.Errorf("orthogonal vectors: similarity = %f, want ~0.0", sim)
	}
	if sim := CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}); sim != 0 {
		t.Errorf("mismatched lengths: similarity = %f, want 0", sim)
	}
}

func TestMeta_JSONRoundTripPreservesUnknownKeys(t *testing.T) {
	in := []byte(`{"project":"AEGIS","custom":{"nested":1},"other":"x"}`)

	var m Meta
	if err := json.Unmarshal(in, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Project != "AEGIS" {
		t.Errorf("project = %q, want AEGIS", m.Project)
	}
	if len(m.Extra) != 2 {
		t.Fatalf("extra keys = %d, want 2", len(m.Extra))
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var round map[string]json.RawMessage
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("reparse: %v", err)
	}
	for _, key := range []string{"project", "custom", "other"} {
		if _, ok := round[key]; !ok {
			t.Errorf("key %q lost in round trip", key)
		}
	}
}

func TestItem_HasTags(t *testing.T) {
	item := docItem("a", "text", "docs", "api")
	if !item.HasTags([]string{"docs"}) {
		t.Error("expected docs tag match")
	}
	if !item.HasTags([]string{"docs", "api"}) {
		t.Error("expected full tag match")
	}
	if item.HasTags([]string{"docs", "infra"}) {
		t.Error("unexpected match for missing tag")
	}
	if !item.HasTags(nil) {
		t.Error("empty filter should always match")
	}
}

func TestJSONLStore_CRUD(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs-memory.jsonl")
	store, err := NewJSONLStore(JSONLOptions{Path: path})
	if err != nil {
		t.Fatalf("NewJSONLStore: %v", err)
	}

	if err := store.Add(ctx, docItem("id-1", "first note", "docs")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(ctx, docItem("id-2", "second note", "docs", "api")); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := store.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Text != "first note" {
		t.Errorf("text = %q", got.Text)
	}

	if _, err := store.Get(ctx, "ghost"); err != ErrNotFound {
		t.Errorf("Get(ghost) err = %v, want ErrNotFound", err)
	}

	found, err := store.Delete(ctx, "id-1")
	if err != nil || !found {
		t.Fatalf("Delete = %v, %v; want true, nil", found, err)
	}
	found, err = store.Delete(ctx, "id-1")
	if err != nil || found {
		t.Fatalf("second Delete = %v, %v; want false, nil", found, err)
	}
}

func TestJSONLStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "docs-memory.jsonl")

	store, err := NewJSONLStore(JSONLOptions{Path: path})
	if err != nil {
		t.Fatalf("NewJSONLStore: %v", err)
	}
	item := docItem("id-1", "persisted note", "docs")
	item.Meta = &Meta{Project: "AEGIS"}
	if err := store.Add(ctx, item); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reopened, err := NewJSONLStore(JSONLOptions{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Text != "persisted note" || got.Project() != "AEGIS" {
		t.Errorf("reloaded item = %+v", got)
	}
}

func TestJSONLStore_ListNewestFirstWithTagFilter(t *testing.T) {
	ctx := context.Background()
	store, err := NewJSONLStore(JSONLOptions{Path: filepath.Join(t.TempDir(), "m.jsonl")})
	if err != nil {
		t.Fatalf("NewJSONLStore: %v", err)
	}
	store.Add(ctx, docItem("id-1", "oldest", "docs"))
	store.Add(ctx, docItem("id-2", "middle", "docs", "api"))
	store.Add(ctx, docItem("id-3", "newest", "docs"))

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

func TestJSONLStore_SearchRanksByRelevance(t *testing.T) {
	ctx := context.Background()
	store, err := NewJSONLStore(JSONLOptions{Path: filepath.Join(t.TempDir(), "m.jsonl")})
	if err != nil {
		t.Fatalf("NewJSONLStore: %v", err)
	}
	store.Add(ctx, docItem("id-1", "API auth design notes", "docs"))
	store.Add(ctx, docItem("id-2", "weekend grocery list", "docs"))

	hits, err := store.Search(ctx, "auth design", SearchOptions{Limit: 5})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one hit")
	}
	if hits[0].Item.ID != "id-1" {
		t.Errorf("top hit = %s, want id-1", hits[0].Item.ID)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Error("hits not sorted by descending score")
		}
	}
}

func TestJSONLStore_MaxItemsEvictsOldest(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "m.jsonl")
	store, err := NewJSONLStore(JSONLOptions{Path: path, MaxItems: 2})
	if err != nil {
		t.Fatalf("NewJSONLStore: %v", err)
	}
	store.Add(ctx, docItem("id-1", "oldest"))
	store.Add(ctx, docItem("id-2", "middle"))
	store.Add(ctx, docItem("id-3", "newest"))

	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
	if _, err := store.Get(ctx, "id-1"); err != ErrNotFound {
		t.Errorf("oldest item should have been evicted, err = %v", err)
	}
	if _, err := store.Get(ctx, "id-3"); err != nil {
		t.Errorf("newest item missing: %v", err)
	}

	// Eviction must survive a reopen.
	reopened, err := NewJSONLStore(JSONLOptions{Path: path, MaxItems: 2})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Len() != 2 {
		t.Errorf("reopened Len = %d, want 2", reopened.Len())
	}
}
