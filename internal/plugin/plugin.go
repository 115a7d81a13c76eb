// Package plugin defines the host-facing command contract: the definitions a
// plugin registers and the registry that dispatches invocations to them,
// enforcing the elevated-auth bit.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var (
	// ErrUnknownCommand is returned when dispatching a name nobody registered.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrAuthRequired is returned when a RequireAuth command is invoked
	// without an authenticated context.
	ErrAuthRequired = errors.New("authentication required")
)

// CommandContext carries one invocation's argument string and provenance.
type CommandContext struct {
	Args           string
	Channel        string
	From           string
	ConversationID string
	MessageID      string
	Authenticated  bool
}

// Response is what a command hands back to the host for display.
type Response struct {
	Text string
}

// Handler runs one command invocation. Handlers translate every failure
// into the response text; they never return errors.
type Handler func(ctx context.Context, cmd CommandContext) Response

// CommandDefinition describes a registered command.
type CommandDefinition struct {
	Name        string
	Description string
	RequireAuth bool
	AcceptsArgs bool
	Handler     Handler
}

// Registry maps command names to definitions and dispatches invocations.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]CommandDefinition
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]CommandDefinition)}
}

// Register adds a command. Re-registering a name replaces it.
func (r *Registry) Register(def CommandDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[def.Name] = def
}

// Get returns a command definition by name.
func (r *Registry) Get(name string) (CommandDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.commands[name]
	return def, ok
}

// Names returns all registered command names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

// Count returns the number of registered commands.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the named command. Auth is checked before the handler runs;
// a rejected invocation never reaches command logic.
func (r *Registry) Dispatch(ctx context.Context, name string, cmd CommandContext) (Response, error) {
	r.mu.RLock()
	def, ok := r.commands[name]
	r.mu.RUnlock()

	if !ok {
		return Response{}, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if def.RequireAuth && !cmd.Authenticated {
		return Response{}, fmt.Errorf("%w: %s", ErrAuthRequired, name)
	}

	start := time.Now()
	resp := def.Handler(ctx, cmd)

	slog.Debug("command executed",
		"command", name,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}
