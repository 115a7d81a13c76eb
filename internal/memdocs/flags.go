// Package memdocs implements the docs-memory plugin: capture, search, list,
// delete, export, and import of short documentation notes, plus the
// docs_memory_search tool surface. Commands compose a flag micro-parser, a
// markdown frontmatter codec, and an external item store.
package memdocs

import (
	"regexp"
	"strings"
)

// ParsedFlags is the result of scanning a raw argument string for the two
// recognized flags. Text is the residual free text with flag tokens removed
// and runs of whitespace collapsed.
type ParsedFlags struct {
	Tags    []string
	Project string
	Text    string
}

var (
	tagsEqRe    = regexp.MustCompile(`(?:^|\s)--tags=(\S+)`)
	tagsSpRe    = regexp.MustCompile(`(?:^|\s)--tags\s+(\S+)`)
	projectEqRe = regexp.MustCompile(`(?:^|\s)--project=(\S+)`)
	projectSpRe = regexp.MustCompile(`(?:^|\s)--project\s+(\S+)`)
)

// ParseFlags extracts --tags and --project from raw. Each flag is matched at
// most once, equals-form first. Flags may sit anywhere relative to the free
// text. ParseFlags never fails; malformed flags are just left in the text.
func ParseFlags(raw string) ParsedFlags {
	var pf ParsedFlags
	rest := raw

	if v, r, ok := extractFlag(rest, tagsEqRe, tagsSpRe); ok {
		pf.Tags = splitTags(v)
		rest = r
	}
	if v, r, ok := extractFlag(rest, projectEqRe, projectSpRe); ok {
		pf.Project = v
		rest = r
	}

	pf.Text = strings.Join(strings.Fields(rest), " ")
	return pf
}

// extractFlag returns the first match of eq then sp, with the matched
// substring cut out of s.
func extractFlag(s string, eq, sp *regexp.Regexp) (value, rest string, ok bool) {
	for _, re := range []*regexp.Regexp{eq, sp} {
		m := re.FindStringSubmatchIndex(s)
		if m == nil {
			continue
		}
		value = s[m[2]:m[3]]
		rest = s[:m[0]] + " " + s[m[1]:]
		return value, rest, true
	}
	return "", s, false
}

// splitTags splits a comma-joined tag value, trimming each tag and dropping
// empties, so "api," yields ["api"].
func splitTags(v string) []string {
	parts := strings.Split(v, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
