// Package tools defines the query-style tool surface a plugin exposes to the
// host's model loop: tool definitions with JSON-schema parameters and a
// registry that dispatches structured calls.
package tools

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/elvatis/memdocs/internal/redact"
)

// Tool is the interface all tools must implement.
type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) *Result
}

// Result is the unified return type from tool execution.
type Result struct {
	ForLLM  string `json:"for_llm"`           // content sent to the LLM
	ForUser string `json:"for_user,omitempty"` // content shown to the user
	IsError bool   `json:"is_error"`           // marks error
	Err     error  `json:"-"`                  // internal error (not serialized)
}

func NewResult(forLLM string) *Result {
	return &Result{ForLLM: forLLM}
}

func ErrorResult(message string) *Result {
	return &Result{ForLLM: message, IsError: true}
}

func (r *Result) WithError(err error) *Result {
	r.Err = err
	return r
}

// Registry manages tool registration and execution.
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]Tool
	redactor redact.Redactor // nil = no output scrubbing
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// SetRedactor enables credential scrubbing on tool output.
func (r *Registry) SetRedactor(rd redact.Redactor) {
	r.redactor = rd
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all registered tool names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered tools.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Execute runs a tool by name with the given arguments. Output is scrubbed
// through the registry's redactor before it reaches the model.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) *Result {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return ErrorResult("unknown tool: " + name)
	}

	start := time.Now()
	result := tool.Execute(ctx, args)

	if r.redactor != nil {
		if result.ForLLM != "" {
			result.ForLLM = r.redactor.Redact(result.ForLLM).RedactedText
		}
		if result.ForUser != "" {
			result.ForUser = r.redactor.Redact(result.ForUser).RedactedText
		}
	}

	slog.Debug("tool executed",
		"tool", name,
		"duration_ms", time.Since(start).Milliseconds(),
		"is_error", result.IsError,
	)
	return result
}
