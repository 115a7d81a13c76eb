package memdocs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/elvatis/memdocs/internal/config"
	"github.com/elvatis/memdocs/internal/memory"
	"github.com/elvatis/memdocs/internal/plugin"
)

const (
	searchDefaultLimit = 5
	searchMaxLimit     = 20
	listDefaultLimit   = 10
	listMaxLimit       = 50

	fallbackExportPath = "~/.memdocs/export"
)

func text(s string) plugin.Response { return plugin.Response{Text: s} }

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// mergeTags concatenates defaults and extra, deduplicating while preserving
// first-seen order: defaults first, then novel user tags as supplied.
func mergeTags(defaults, extra []string) []string {
	merged := make([]string, 0, len(defaults)+len(extra))
	for _, t := range defaults {
		if !slices.Contains(merged, t) {
			merged = append(merged, t)
		}
	}
	for _, t := range extra {
		if !slices.Contains(merged, t) {
			merged = append(merged, t)
		}
	}
	return merged
}

func (p *Plugin) handleRemember(ctx context.Context, cmd plugin.CommandContext) plugin.Response {
	pf := ParseFlags(cmd.Args)
	if pf.Text == "" {
		return text("Usage: /remember-doc [--tags t1,t2] [--project name] <text>")
	}

	body := pf.Text
	var redaction *memory.Redaction
	if p.cfg.ShouldRedact() {
		r := p.redactor.Redact(body)
		body = r.RedactedText
		if r.HadSecrets {
			redaction = &memory.Redaction{HadSecrets: true}
			for _, m := range r.Matches {
				redaction.Matches = append(redaction.Matches, memory.RedactionMatch{Name: m.Name, Count: m.Count})
			}
		}
	}

	tags := mergeTags(p.cfg.DefaultTags, pf.Tags)

	var meta *memory.Meta
	if pf.Project != "" || redaction != nil {
		meta = &memory.Meta{Project: pf.Project, Redaction: redaction}
	}

	var source *memory.Source
	if cmd.Channel != "" || cmd.From != "" || cmd.ConversationID != "" || cmd.MessageID != "" {
		source = &memory.Source{
			Channel:        cmd.Channel,
			From:           cmd.From,
			ConversationID: cmd.ConversationID,
			MessageID:      cmd.MessageID,
		}
	}

	item := memory.Item{
		ID:        p.newID(),
		Kind:      "doc",
		Text:      body,
		CreatedAt: p.now().Format(time.RFC3339),
		Tags:      tags,
		Source:    source,
		Meta:      meta,
	}

	if err := p.store.Add(ctx, item); err != nil {
		return text(fmt.Sprintf("Failed to save docs memory: %v", err))
	}

	msg := "Saved docs memory."
	msg += TagsBadge(tags, p.cfg.DefaultTags)
	msg += ProjectBadge(pf.Project)
	if redaction != nil {
		msg += " (note: secrets were redacted)"
	}
	return text(msg)
}

func (p *Plugin) handleSearch(ctx context.Context, cmd plugin.CommandContext) plugin.Response {
	pf := ParseFlags(cmd.Args)
	tokens := strings.Fields(pf.Text)

	// A trailing number is a result-count limit only when it leaves a
	// non-empty query behind, so "policy 2024" still searches both words.
	limit := searchDefaultLimit
	if len(tokens) > 1 {
		last := tokens[len(tokens)-1]
		if n, err := strconv.ParseFloat(last, 64); err == nil && n >= 1 {
			limit = ClampLimit(last, searchDefaultLimit, searchMaxLimit)
			tokens = tokens[:len(tokens)-1]
		}
	}

	query := strings.Join(tokens, " ")
	if query == "" {
		return text("Usage: /search-docs [--tags t1,t2] [--project name] <query> [limit]")
	}

	opts := memory.SearchOptions{Limit: limit}
	if len(pf.Tags) > 0 {
		opts.Tags = pf.Tags
	}
	hits, err := p.store.Search(ctx, query, opts)
	if err != nil {
		return text(fmt.Sprintf("Search failed: %v", err))
	}
	hits = filterHitsByProject(hits, pf.Project)

	if len(hits) == 0 {
		return text(fmt.Sprintf("No docs memories found for %q.", query))
	}

	var b strings.Builder
	b.WriteString("Docs memory results:\n")
	for i, h := range hits {
		fmt.Fprintf(&b, "%d. [id:%s] (%.2f)%s%s %s\n",
			i+1,
			ShortID(h.Item.ID),
			h.Score,
			TagsBadge(h.Item.Tags, p.cfg.DefaultTags),
			ProjectBadge(h.Item.Project()),
			Preview(h.Item.Text),
		)
	}
	return text(strings.TrimRight(b.String(), "\n"))
}

func (p *Plugin) handleList(ctx context.Context, cmd plugin.CommandContext) plugin.Response {
	pf := ParseFlags(cmd.Args)
	limit := ClampLimit(pf.Text, listDefaultLimit, listMaxLimit)

	opts := memory.ListOptions{Limit: limit}
	if len(pf.Tags) > 0 {
		opts.Tags = pf.Tags
	}
	items, err := p.store.List(ctx, opts)
	if err != nil {
		return text(fmt.Sprintf("List failed: %v", err))
	}
	items = filterItemsByProject(items, pf.Project)

	if len(items) == 0 {
		return text("No docs memories stored yet.")
	}

	var b strings.Builder
	b.WriteString("Docs memories:\n")
	for i, it := range items {
		fmt.Fprintf(&b, "%d. [id:%s] %s%s%s %s\n",
			i+1,
			ShortID(it.ID),
			itemDate(it.CreatedAt),
			TagsBadge(it.Tags, p.cfg.DefaultTags),
			ProjectBadge(it.Project()),
			Preview(it.Text),
		)
	}
	b.WriteString("\nFull ids:\n")
	for _, it := range items {
		b.WriteString(it.ID)
		b.WriteString("\n")
	}
	b.WriteString("Use /forget-doc <id> to delete one.")
	return text(b.String())
}

func (p *Plugin) handleForget(ctx context.Context, cmd plugin.CommandContext) plugin.Response {
	id := strings.TrimSpace(cmd.Args)
	if id == "" {
		return text("Usage: /forget-doc <id>")
	}
	found, err := p.store.Delete(ctx, id)
	if err != nil {
		return text(fmt.Sprintf("Delete failed: %v", err))
	}
	if !found {
		return text(fmt.Sprintf("No memory found with id %s.", id))
	}
	return text(fmt.Sprintf("Deleted docs memory %s.", id))
}

// exportDir resolves the target directory: explicit argument, then the
// configured export path, then the built-in fallback.
func (p *Plugin) exportDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p.cfg.ExportPath != "" {
		return p.cfg.ExportPath
	}
	return fallbackExportPath
}

func (p *Plugin) handleExport(ctx context.Context, cmd plugin.CommandContext) plugin.Response {
	pf := ParseFlags(cmd.Args)
	dir, err := config.SafePath("export", p.exportDir(pf.Text))
	if err != nil {
		return text(fmt.Sprintf("Invalid export path: %v", err))
	}

	opts := memory.ListOptions{}
	if len(pf.Tags) > 0 {
		opts.Tags = pf.Tags
	}
	items, err := p.store.List(ctx, opts)
	if err != nil {
		return text(fmt.Sprintf("Export failed: %v", err))
	}
	items = filterItemsByProject(items, pf.Project)

	if len(items) == 0 {
		return text("Nothing to export.")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return text(fmt.Sprintf("Export failed: %v", err))
	}
	for _, it := range items {
		name := fmt.Sprintf("%s_%s.md", itemDate(it.CreatedAt), ShortID(it.ID))
		if err := os.WriteFile(filepath.Join(dir, name), []byte(EncodeMarkdown(it)), 0o644); err != nil {
			return text(fmt.Sprintf("Export failed: %v", err))
		}
	}
	return text(fmt.Sprintf("Exported %d memory item%s to %s.", len(items), plural(len(items)), dir))
}

func (p *Plugin) handleImport(ctx context.Context, cmd plugin.CommandContext) plugin.Response {
	pf := ParseFlags(cmd.Args)
	dir, err := config.SafePath("import", p.exportDir(pf.Text))
	if err != nil {
		return text(fmt.Sprintf("Invalid import path: %v", err))
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return text(fmt.Sprintf("Import directory not found: %s", dir))
	}
	if err != nil {
		return text(fmt.Sprintf("Import failed: %v", err))
	}

	// ReadDir returns entries sorted by name, so import order is stable.
	imported, skipped := 0, 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			skipped++
			continue
		}
		item, ok := DecodeMarkdown(string(data))
		if !ok {
			skipped++
			continue
		}
		if _, err := p.store.Get(ctx, item.ID); err == nil {
			skipped++ // duplicate
			continue
		} else if !errors.Is(err, memory.ErrNotFound) {
			return text(fmt.Sprintf("Import failed: %v", err))
		}
		if err := p.store.Add(ctx, item); err != nil {
			// Prior imports stay; the loop is not transactional.
			return text(fmt.Sprintf("Import failed: %v", err))
		}
		imported++
	}

	msg := fmt.Sprintf("Imported %d memory item%s.", imported, plural(imported))
	if skipped > 0 {
		msg += fmt.Sprintf(" Skipped %d (duplicate or invalid).", skipped)
	}
	return text(msg)
}

func filterHitsByProject(hits []memory.SearchHit, project string) []memory.SearchHit {
	if project == "" {
		return hits
	}
	out := hits[:0]
	for _, h := range hits {
		if h.Item.Project() == project {
			out = append(out, h)
		}
	}
	return out
}

func filterItemsByProject(items []memory.Item, project string) []memory.Item {
	if project == "" {
		return items
	}
	out := items[:0]
	for _, it := range items {
		if it.Project() == project {
			out = append(out, it)
		}
	}
	return out
}
