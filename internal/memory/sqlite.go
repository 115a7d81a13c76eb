package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"
)

const getCacheSize = 512

// SQLiteStore persists items in SQLite with an FTS5 index for search.
// BM25 ranks are normalized to [0,1] scores via 1/(1+|rank|).
type SQLiteStore struct {
	db       *sql.DB
	maxItems int
	mu       sync.RWMutex
	cache    *lru.Cache[string, Item] // read-through cache for Get
}

// SQLiteOptions configures a SQLiteStore.
type SQLiteOptions struct {
	Path     string
	MaxItems int // oldest items deleted beyond this, 0 = unlimited
}

// NewSQLiteStore opens (or creates) the database at opts.Path and applies
// the schema.
func NewSQLiteStore(opts SQLiteOptions) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", opts.Path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	cache, err := lru.New[string, Item](getCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db, maxItems: opts.MaxItems, cache: cache}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	slog.Info("memory store opened", "backend", "sqlite", "path", opts.Path)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			text TEXT NOT NULL,
			created_at TEXT NOT NULL,
			tags TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			meta TEXT NOT NULL DEFAULT '',
			seq INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_created ON items(created_at)`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS items_fts USING fts5(
			text,
			id UNINDEXED,
			tokenize='porter unicode61'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(len(stmt), 40)], err)
		}
	}
	return nil
}

func (s *SQLiteStore) Add(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tagsJSON, sourceJSON, metaJSON, err := marshalAux(item)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO items (id, kind, text, created_at, tags, source, meta, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM items))`,
		item.ID, item.Kind, item.Text, item.CreatedAt, tagsJSON, sourceJSON, metaJSON)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO items_fts (text, id) VALUES (?, ?)`, item.Text, item.ID); err != nil {
		return fmt.Errorf("insert fts: %w", err)
	}

	if s.maxItems > 0 {
		// Evict oldest rows past the cap.
		rows, err := tx.QueryContext(ctx, `SELECT id FROM items ORDER BY seq DESC LIMIT -1 OFFSET ?`, s.maxItems)
		if err != nil {
			return fmt.Errorf("eviction query: %w", err)
		}
		var evict []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err == nil {
				evict = append(evict, id)
			}
		}
		rows.Close()
		for _, id := range evict {
			tx.ExecContext(ctx, `DELETE FROM items_fts WHERE id = ?`, id)
			tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
			s.cache.Remove(id)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.cache.Add(item.ID, item)
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if item, ok := s.cache.Get(id); ok {
		return item, nil
	}

	row := s.db.QueryRowContext(ctx, `SELECT id, kind, text, created_at, tags, source, meta FROM items WHERE id = ?`, id)
	item, err := scanItem(row.Scan)
	if err == sql.ErrNoRows {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get item: %w", err)
	}
	s.cache.Add(id, item)
	return item, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	tx.ExecContext(ctx, `DELETE FROM items_fts WHERE id = ?`, id)

	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return false, err
	}
	s.cache.Remove(id)
	return n > 0, nil
}

func (s *SQLiteStore) List(ctx context.Context, opts ListOptions) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, kind, text, created_at, tags, source, meta FROM items ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			continue
		}
		if len(opts.Tags) > 0 && !item.HasTags(opts.Tags) {
			continue
		}
		items = append(items, item)
		if opts.Limit > 0 && len(items) >= opts.Limit {
			break
		}
	}
	return items, rows.Err()
}

func (s *SQLiteStore) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	match := ftsMatchExpr(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, 1.0 / (1.0 + abs(rank)) AS score
		FROM items_fts WHERE items_fts MATCH ? ORDER BY rank`, match)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	var hits []SearchHit
	for rows.Next() {
		var id string
		var score float64
		if err := rows.Scan(&id, &score); err != nil {
			continue
		}
		item, err := s.getLocked(ctx, id)
		if err != nil {
			continue
		}
		if len(opts.Tags) > 0 && !item.HasTags(opts.Tags) {
			continue
		}
		hits = append(hits, SearchHit{Item: item, Score: score})
		if len(hits) >= limit {
			break
		}
	}
	return hits, rows.Err()
}

// getLocked is Get without re-acquiring the read lock.
func (s *SQLiteStore) getLocked(ctx context.Context, id string) (Item, error) {
	if item, ok := s.cache.Get(id); ok {
		return item, nil
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, kind, text, created_at, tags, source, meta FROM items WHERE id = ?`, id)
	item, err := scanItem(row.Scan)
	if err != nil {
		return Item{}, err
	}
	s.cache.Add(id, item)
	return item, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ftsMatchExpr quotes each query token so user input can never be parsed
// as FTS5 operators, then ORs them for soft matching.
func ftsMatchExpr(query string) string {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + strings.ReplaceAll(tok, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " OR ")
}

func marshalAux(item Item) (tags, source, meta string, err error) {
	if len(item.Tags) > 0 {
		b, err := json.Marshal(item.Tags)
		if err != nil {
			return "", "", "", fmt.Errorf("marshal tags: %w", err)
		}
		tags = string(b)
	}
	if item.Source != nil {
		b, err := json.Marshal(item.Source)
		if err != nil {
			return "", "", "", fmt.Errorf("marshal source: %w", err)
		}
		source = string(b)
	}
	if item.Meta != nil {
		b, err := json.Marshal(item.Meta)
		if err != nil {
			return "", "", "", fmt.Errorf("marshal meta: %w", err)
		}
		meta = string(b)
	}
	return tags, source, meta, nil
}

func scanItem(scan func(dest ...any) error) (Item, error) {
	var item Item
	var tagsJSON, sourceJSON, metaJSON string
	if err := scan(&item.ID, &item.Kind, &item.Text, &item.CreatedAt, &tagsJSON, &sourceJSON, &metaJSON); err != nil {
		return Item{}, err
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &item.Tags); err != nil {
			return Item{}, fmt.Errorf("unmarshal tags: %w", err)
		}
	}
	if sourceJSON != "" {
		item.Source = &Source{}
		if err := json.Unmarshal([]byte(sourceJSON), item.Source); err != nil {
			return Item{}, fmt.Errorf("unmarshal source: %w", err)
		}
	}
	if metaJSON != "" {
		item.Meta = &Meta{}
		if err := json.Unmarshal([]byte(metaJSON), item.Meta); err != nil {
			return Item{}, fmt.Errorf("unmarshal meta: %w", err)
		}
	}
	return item, nil
}
