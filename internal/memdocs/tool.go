package memdocs

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/elvatis/memdocs/internal/memory"
	"github.com/elvatis/memdocs/internal/tools"
)

// searchTool exposes the search capability to the host's model loop with
// structured parameters instead of command-line text.
type searchTool struct {
	p *Plugin
}

// SearchTool returns the docs_memory_search tool bound to this plugin.
func (p *Plugin) SearchTool() tools.Tool { return &searchTool{p: p} }

func (t *searchTool) Name() string { return "docs_memory_search" }

func (t *searchTool) Description() string {
	return "Search documentation memory items (local store)"
}

func (t *searchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "Free-text search query",
			},
			"limit": map[string]interface{}{
				"type":    "number",
				"minimum": 1,
				"maximum": searchMaxLimit,
				"default": searchDefaultLimit,
			},
			"tags": map[string]interface{}{
				"type":  "array",
				"items": map[string]interface{}{"type": "string"},
			},
			"project": map[string]interface{}{
				"type": "string",
			},
		},
		"required": []string{"query"},
	}
}

type toolHit struct {
	Score     float64  `json:"score"`
	ID        string   `json:"id"`
	CreatedAt string   `json:"createdAt"`
	Tags      []string `json:"tags"`
	Project   string   `json:"project,omitempty"`
	Text      string   `json:"text"`
}

type toolPayload struct {
	StorePath string    `json:"storePath,omitempty"`
	Hits      []toolHit `json:"hits"`
}

func (t *searchTool) Execute(ctx context.Context, args map[string]interface{}) *tools.Result {
	query, _ := args["query"].(string)
	query = strings.TrimSpace(query)
	if query == "" {
		return tools.NewResult(`{"hits":[]}`)
	}

	opts := memory.SearchOptions{Limit: ClampLimit(args["limit"], searchDefaultLimit, searchMaxLimit)}
	if raw, ok := args["tags"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok && s != "" {
				opts.Tags = append(opts.Tags, s)
			}
		}
	}
	project, _ := args["project"].(string)

	hits, err := t.p.store.Search(ctx, query, opts)
	if err != nil {
		return tools.ErrorResult("docs memory search failed: " + err.Error()).WithError(err)
	}
	hits = filterHitsByProject(hits, project)

	payload := toolPayload{
		StorePath: t.p.storePath(),
		Hits:      make([]toolHit, 0, len(hits)),
	}
	for _, h := range hits {
		payload.Hits = append(payload.Hits, toolHit{
			Score:     h.Score,
			ID:        h.Item.ID,
			CreatedAt: h.Item.CreatedAt,
			Tags:      h.Item.Tags,
			Project:   h.Item.Project(),
			Text:      h.Item.Text,
		})
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return tools.ErrorResult("docs memory search failed: " + err.Error()).WithError(err)
	}
	return tools.NewResult(string(b))
}
