package memory

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// jsonlRecord is one line of the store file: the item plus its embedding,
// so search never has to re-embed the corpus.
type jsonlRecord struct {
	Item      Item      `json:"item"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// JSONLStore persists items as one JSON object per line and keeps the whole
// set in memory. Search ranks by cosine similarity over hash embeddings.
type JSONLStore struct {
	path     string
	embedder *HashEmbedder
	maxItems int

	mu      sync.RWMutex
	records []jsonlRecord  // insertion order, oldest first
	index   map[string]int // id -> position in records
}

// JSONLOptions configures a JSONLStore.
type JSONLOptions struct {
	Path     string
	Dims     int // embedding buckets, DefaultDims when <= 0
	MaxItems int // oldest items are evicted beyond this, 0 = unlimited
}

// NewJSONLStore opens (or creates) the store file at opts.Path and loads
// every record into memory. Unreadable lines are skipped with a warning.
func NewJSONLStore(opts JSONLOptions) (*JSONLStore, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("jsonl store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("jsonl store: create dir: %w", err)
	}

	s := &JSONLStore{
		path:     opts.Path,
		embedder: NewHashEmbedder(opts.Dims),
		maxItems: opts.MaxItems,
		index:    make(map[string]int),
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	slog.Info("memory store opened", "backend", "jsonl", "path", opts.Path, "items", len(s.records))
	return s, nil
}

func (s *JSONLStore) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("jsonl store: open: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec jsonlRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.Item.ID == "" {
			slog.Warn("skipping unreadable store line", "path", s.path, "line", line)
			continue
		}
		if len(rec.Embedding) != s.embedder.Dims() {
			rec.Embedding = s.embedder.Embed(rec.Item.Text)
		}
		s.index[rec.Item.ID] = len(s.records)
		s.records = append(s.records, rec)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("jsonl store: read: %w", err)
	}
	return nil
}

// Add appends the item, evicting the oldest records past MaxItems.
func (s *JSONLStore) Add(_ context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.index[item.ID]; exists {
		return fmt.Errorf("jsonl store: duplicate id %s", item.ID)
	}

	rec := jsonlRecord{Item: item, Embedding: s.embedder.Embed(item.Text)}
	s.index[item.ID] = len(s.records)
	s.records = append(s.records, rec)

	if s.maxItems > 0 && len(s.records) > s.maxItems {
		s.records = s.records[len(s.records)-s.maxItems:]
		s.reindex()
		return s.rewrite()
	}

	return s.appendLine(rec)
}

func (s *JSONLStore) appendLine(rec jsonlRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("jsonl store: marshal: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("jsonl store: open for append: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("jsonl store: append: %w", err)
	}
	return nil
}

func (s *JSONLStore) rewrite() error {
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("jsonl store: rewrite: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, rec := range s.records {
		data, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			return fmt.Errorf("jsonl store: marshal: %w", err)
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("jsonl store: flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("jsonl store: close: %w", err)
	}
	return os.Rename(tmp, s.path)
}

func (s *JSONLStore) reindex() {
	s.index = make(map[string]int, len(s.records))
	for i, rec := range s.records {
		s.index[rec.Item.ID] = i
	}
}

func (s *JSONLStore) Get(_ context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.index[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return s.records[pos].Item, nil
}

func (s *JSONLStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return false, nil
	}
	s.records = append(s.records[:pos], s.records[pos+1:]...)
	s.reindex()
	if err := s.rewrite(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *JSONLStore) List(_ context.Context, opts ListOptions) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []Item
	for i := len(s.records) - 1; i >= 0; i-- {
		item := s.records[i].Item
		if len(opts.Tags) > 0 && !item.HasTags(opts.Tags) {
			continue
		}
		items = append(items, item)
		if opts.Limit > 0 && len(items) >= opts.Limit {
			break
		}
	}
	return items, nil
}

func (s *JSONLStore) Search(_ context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	queryVec := s.embedder.Embed(query)

	var hits []SearchHit
	for _, rec := range s.records {
		if len(opts.Tags) > 0 && !rec.Item.HasTags(opts.Tags) {
			continue
		}
		score := CosineSimilarity(queryVec, rec.Embedding)
		if score <= 0 {
			continue
		}
		hits = append(hits, SearchHit{Item: rec.Item, Score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Len returns the number of stored items.
func (s *JSONLStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
