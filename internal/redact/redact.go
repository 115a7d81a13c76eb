// Package redact strips credential material from free text before it is
// persisted. Each pattern replaces with a named placeholder so stored text
// still shows what kind of secret was removed.
package redact

import (
	"fmt"
	"regexp"
)

// Match reports one pattern that fired during redaction.
type Match struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Result is the outcome of a redaction pass.
type Result struct {
	RedactedText string
	HadSecrets   bool
	Matches      []Match
}

// Redactor replaces secrets in text. Implementations must be safe for
// concurrent use.
type Redactor interface {
	Redact(text string) Result
}

type pattern struct {
	name string
	re   *regexp.Regexp
}

// DefaultRedactor scans for well-known credential shapes. Order matters:
// more specific prefixes (sk-ant-) must run before broader ones (sk-).
type DefaultRedactor struct {
	patterns []pattern
}

func NewDefaultRedactor() *DefaultRedactor {
	return &DefaultRedactor{patterns: []pattern{
		{"ANTHROPIC_KEY", regexp.MustCompile(`sk-ant-[a-zA-Z0-9-]{20,}`)},
		{"OPENAI_KEY", regexp.MustCompile(`sk-[a-zA-Z0-9_-]{20,}`)},
		{"GITHUB_TOKEN", regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{36}`)},
		{"AWS_ACCESS_KEY", regexp.MustCompile(`AKIA[A-Z0-9]{16}`)},
		{"SLACK_TOKEN", regexp.MustCompile(`xox[baprs]-[a-zA-Z0-9-]{10,}`)},
		{"GENERIC_SECRET", regexp.MustCompile(`(?i)(api[_-]?key|token|secret|password|bearer|authorization)\s*[:=]\s*["']?\S{8,}["']?`)},
	}}
}

// Redact replaces every pattern occurrence with [REDACTED:<NAME>].
func (r *DefaultRedactor) Redact(text string) Result {
	out := Result{RedactedText: text}
	for _, p := range r.patterns {
		count := 0
		out.RedactedText = p.re.ReplaceAllStringFunc(out.RedactedText, func(string) string {
			count++
			return fmt.Sprintf("[REDACTED:%s]", p.name)
		})
		if count > 0 {
			out.HadSecrets = true
			out.Matches = append(out.Matches, Match{Name: p.name, Count: count})
		}
	}
	return out
}

// Noop passes text through untouched. Used when redaction is disabled.
type Noop struct{}

func (Noop) Redact(text string) Result {
	return Result{RedactedText: text}
}
