package memdocs

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/elvatis/memdocs/internal/config"
	"github.com/elvatis/memdocs/internal/memory"
	"github.com/elvatis/memdocs/internal/plugin"
	"github.com/elvatis/memdocs/internal/redact"
	"github.com/elvatis/memdocs/internal/tools"
)

// Plugin binds the docs-memory commands and search tool to one store and
// redactor. Construction is explicit; there are no package-level singletons.
type Plugin struct {
	cfg      config.Config
	store    memory.Store
	redactor redact.Redactor

	// injectable for tests
	now   func() time.Time
	newID func() string
}

// New builds a plugin around the given collaborators. When redaction is
// disabled in cfg the redactor is never called.
func New(cfg config.Config, store memory.Store, redactor redact.Redactor) *Plugin {
	return &Plugin{
		cfg:      cfg,
		store:    store,
		redactor: redactor,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    func() string { return uuid.Must(uuid.NewV7()).String() },
	}
}

func (p *Plugin) storePath() string {
	return config.ExpandHome(p.cfg.StorePath)
}

// Commands returns the six command definitions in registration order.
func (p *Plugin) Commands() []plugin.CommandDefinition {
	return []plugin.CommandDefinition{
		{
			Name:        "remember-doc",
			Description: "Save a documentation memory item (explicit capture)",
			AcceptsArgs: true,
			Handler:     p.handleRemember,
		},
		{
			Name:        "search-docs",
			Description: "Search documentation memory items by relevance",
			AcceptsArgs: true,
			Handler:     p.handleSearch,
		},
		{
			Name:        "list-docs",
			Description: "List recent documentation memory items",
			AcceptsArgs: true,
			Handler:     p.handleList,
		},
		{
			Name:        "forget-doc",
			Description: "Delete a documentation memory item by id",
			RequireAuth: true,
			AcceptsArgs: true,
			Handler:     p.handleForget,
		},
		{
			Name:        "export-docs",
			Description: "Export documentation memory items as markdown files",
			AcceptsArgs: true,
			Handler:     p.handleExport,
		},
		{
			Name:        "import-docs",
			Description: "Import markdown memory files into the store",
			RequireAuth: true,
			AcceptsArgs: true,
			Handler:     p.handleImport,
		},
	}
}

// RegisterAll wires the plugin into the host registries. When the plugin is
// disabled it registers nothing and returns false.
func (p *Plugin) RegisterAll(commands *plugin.Registry, toolReg *tools.Registry) bool {
	if !p.cfg.IsEnabled() {
		return false
	}
	for _, def := range p.Commands() {
		commands.Register(def)
	}
	toolReg.Register(p.SearchTool())
	slog.Info("docs memory plugin enabled", "store", p.storePath())
	return true
}
