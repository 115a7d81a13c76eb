package memdocs

import (
	"slices"
	"strings"
)

const previewRunes = 120

// ShortID is the display form of an identifier: its first 8 characters.
// Never used for lookup.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// Preview truncates text to 120 characters, appending an ellipsis marker
// only when something was cut.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= previewRunes {
		return text
	}
	return string(r[:previewRunes]) + "..."
}

// TagsBadge renders the item's non-default tags as " [tags:a,b]", preserving
// order. Empty string when every tag is a default.
func TagsBadge(tags, defaults []string) string {
	var extra []string
	for _, t := range tags {
		if !slices.Contains(defaults, t) {
			extra = append(extra, t)
		}
	}
	if len(extra) == 0 {
		return ""
	}
	return " [tags:" + strings.Join(extra, ",") + "]"
}

// ProjectBadge renders " [project:NAME]", or "" when project is unset.
func ProjectBadge(project string) string {
	if project == "" {
		return ""
	}
	return " [project:" + project + "]"
}

// itemDate is the 10-character ISO date prefix of a createdAt timestamp.
func itemDate(createdAt string) string {
	if len(createdAt) <= 10 {
		return createdAt
	}
	return createdAt[:10]
}
