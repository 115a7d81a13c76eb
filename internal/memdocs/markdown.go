package memdocs

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/elvatis/memdocs/internal/memory"
)

// plainScalarRe matches values that YAML reads back verbatim as plain
// scalars. Anything else ("#infra" would become a comment, "[x]" a flow
// sequence) is emitted double-quoted.
var plainScalarRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]*$`)

// yamlScalar renders a user-supplied value as a YAML scalar that decodes
// back to the same string. Quoting uses the JSON-compatible double-quoted
// style, which yaml.v3 understands.
func yamlScalar(s string) string {
	if plainScalarRe.MatchString(s) {
		return s
	}
	return strconv.Quote(s)
}

// EncodeMarkdown renders an item as a markdown document with a YAML
// frontmatter block. Field order is fixed so exported files diff cleanly.
func EncodeMarkdown(item memory.Item) string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "id: %s\n", item.ID)
	fmt.Fprintf(&b, "kind: %s\n", item.Kind)
	fmt.Fprintf(&b, "createdAt: %s\n", item.CreatedAt)
	if len(item.Tags) > 0 {
		b.WriteString("tags:\n")
		for _, t := range item.Tags {
			fmt.Fprintf(&b, "  - %s\n", yamlScalar(t))
		}
	}
	if p := item.Project(); p != "" {
		fmt.Fprintf(&b, "project: %s\n", yamlScalar(p))
	}
	b.WriteString("---\n\n")
	b.WriteString(item.Text)
	b.WriteString("\n")
	return b.String()
}

type frontmatter struct {
	ID        string   `yaml:"id"`
	Kind      string   `yaml:"kind"`
	CreatedAt string   `yaml:"createdAt"`
	Tags      []string `yaml:"tags"`
	Project   string   `yaml:"project"`
}

// DecodeMarkdown parses a document produced by EncodeMarkdown back into an
// item. The second return is false for anything unimportable: missing or
// unterminated frontmatter, a missing required field, or an empty body.
// Absent tags stay absent (nil, not an empty slice), so a decode of an
// encode is field-equal to the original item.
func DecodeMarkdown(doc string) (memory.Item, bool) {
	rest, ok := strings.CutPrefix(doc, "---\n")
	if !ok {
		return memory.Item{}, false
	}

	var front, body string
	if i := strings.Index(rest, "\n---\n"); i >= 0 {
		front, body = rest[:i], rest[i+len("\n---\n"):]
	} else if strings.HasSuffix(rest, "\n---") {
		front = rest[:len(rest)-len("\n---")]
	} else {
		return memory.Item{}, false
	}

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(front), &fm); err != nil {
		return memory.Item{}, false
	}
	if fm.ID == "" || fm.Kind == "" || fm.CreatedAt == "" {
		return memory.Item{}, false
	}

	// One blank separator line after the closing delimiter is part of the
	// document shape, not the text.
	body = strings.TrimPrefix(body, "\n")
	text := strings.TrimRight(body, " \t\n")
	if text == "" {
		return memory.Item{}, false
	}

	item := memory.Item{
		ID:        fm.ID,
		Kind:      fm.Kind,
		CreatedAt: fm.CreatedAt,
		Text:      text,
	}
	if len(fm.Tags) > 0 {
		item.Tags = fm.Tags
	}
	if fm.Project != "" {
		item.Meta = &memory.Meta{Project: fm.Project}
	}
	return item, true
}
