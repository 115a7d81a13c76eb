// Package memory provides the persisted docs-memory item store, with a
// JSONL backend (hash-embedding cosine search) and a SQLite backend
// (FTS5 BM25 search) behind a common interface.
package memory

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no item carries the requested id.
var ErrNotFound = errors.New("memory item not found")

// Source records where a memory item was captured from. All fields are
// passthrough context supplied by the host; the store never interprets them.
type Source struct {
	Channel        string `json:"channel,omitempty"`
	From           string `json:"from,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	MessageID      string `json:"messageId,omitempty"`
}

// RedactionMatch describes one redaction pattern that fired, by name.
type RedactionMatch struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Redaction records that secrets were stripped from an item's text.
type Redaction struct {
	HadSecrets bool             `json:"hadSecrets"`
	Matches    []RedactionMatch `json:"matches,omitempty"`
}

// Meta is an open-ended item annotation map. Project and Redaction are the
// two recognized keys; anything else round-trips through Extra untouched.
type Meta struct {
	Project   string
	Redaction *Redaction
	Extra     map[string]json.RawMessage
}

// IsEmpty reports whether the meta carries no keys at all.
func (m *Meta) IsEmpty() bool {
	return m == nil || (m.Project == "" && m.Redaction == nil && len(m.Extra) == 0)
}

func (m Meta) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Project != "" {
		b, err := json.Marshal(m.Project)
		if err != nil {
			return nil, err
		}
		out["project"] = b
	}
	if m.Redaction != nil {
		b, err := json.Marshal(m.Redaction)
		if err != nil {
			return nil, err
		}
		out["redaction"] = b
	}
	return json.Marshal(out)
}

func (m *Meta) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Meta{}
	for k, v := range raw {
		switch k {
		case "project":
			if err := json.Unmarshal(v, &m.Project); err != nil {
				return err
			}
		case "redaction":
			m.Redaction = &Redaction{}
			if err := json.Unmarshal(v, m.Redaction); err != nil {
				return err
			}
		default:
			if m.Extra == nil {
				m.Extra = make(map[string]json.RawMessage)
			}
			m.Extra[k] = v
		}
	}
	return nil
}

// Item is a captured docs-memory note. ID and CreatedAt are immutable;
// there is no update operation anywhere in the system.
type Item struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"createdAt"` // ISO-8601
	Tags      []string `json:"tags,omitempty"`
	Source    *Source  `json:"source,omitempty"`
	Meta      *Meta    `json:"meta,omitempty"`
}

// Project returns meta.project, or "" when unset.
func (it Item) Project() string {
	if it.Meta == nil {
		return ""
	}
	return it.Meta.Project
}

// HasTags reports whether the item carries every tag in want.
func (it Item) HasTags(want []string) bool {
	for _, w := range want {
		found := false
		for _, t := range it.Tags {
			if t == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SearchHit is an item plus its relevance score (higher = more relevant).
type SearchHit struct {
	Item  Item    `json:"item"`
	Score float64 `json:"score"`
}

// ListOptions configures List. Limit <= 0 means no limit.
type ListOptions struct {
	Limit int
	Tags  []string
}

// SearchOptions configures Search.
type SearchOptions struct {
	Limit int
	Tags  []string
}

// Store is the persisted item store consumed by the command layer.
type Store interface {
	Add(ctx context.Context, item Item) error
	Get(ctx context.Context, id string) (Item, error)
	Delete(ctx context.Context, id string) (bool, error)
	// List returns items newest-first.
	List(ctx context.Context, opts ListOptions) ([]Item, error)
	// Search returns hits ordered by descending relevance.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchHit, error)
}
