// Package cmd wires the docs-memory plugin into a standalone CLI: one
// subcommand per plugin command, plus an MCP stdio server for the search
// tool.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elvatis/memdocs/internal/config"
	"github.com/elvatis/memdocs/internal/memdocs"
	"github.com/elvatis/memdocs/internal/memory"
	"github.com/elvatis/memdocs/internal/plugin"
	"github.com/elvatis/memdocs/internal/redact"
	"github.com/elvatis/memdocs/internal/tools"
)

const version = "0.1.0"

var configPath string

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv("MEMDOCS_CONFIG"); env != "" {
		return env
	}
	return config.DefaultPath()
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "memdocs",
		Short:   "Documentation memory: capture, search, and manage docs notes",
		Version: version,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	cmd.AddCommand(rememberCmd())
	cmd.AddCommand(searchCmd())
	cmd.AddCommand(listCmd())
	cmd.AddCommand(forgetCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(serveCmd())
	return cmd
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime is one constructed instance of the plugin and its registries.
type runtime struct {
	cfg      config.Config
	plugin   *memdocs.Plugin
	commands *plugin.Registry
	tools    *tools.Registry
	closer   func() error
}

func (rt *runtime) close() {
	if rt.closer != nil {
		rt.closer()
	}
}

func loadRuntime() (*runtime, error) {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	storePath := config.ExpandHome(cfg.StorePath)
	var store memory.Store
	var closer func() error
	switch cfg.Backend {
	case "sqlite":
		s, err := memory.NewSQLiteStore(memory.SQLiteOptions{Path: storePath, MaxItems: cfg.MaxItems})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		store, closer = s, s.Close
	default:
		s, err := memory.NewJSONLStore(memory.JSONLOptions{Path: storePath, Dims: cfg.Dims, MaxItems: cfg.MaxItems})
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		store = s
	}

	var rd redact.Redactor = redact.NewDefaultRedactor()
	if !cfg.ShouldRedact() {
		rd = redact.Noop{}
	}

	p := memdocs.New(cfg, store, rd)
	commands := plugin.NewRegistry()
	toolReg := tools.NewRegistry()
	toolReg.SetRedactor(rd)
	if !p.RegisterAll(commands, toolReg) {
		if closer != nil {
			closer()
		}
		return nil, fmt.Errorf("docs memory is disabled in %s", cfgPath)
	}

	return &runtime{cfg: cfg, plugin: p, commands: commands, tools: toolReg, closer: closer}, nil
}

// dispatch runs one plugin command and prints its response. Elevated
// commands run authenticated: the local operator owns the store.
func dispatch(name, args string, authenticated bool) {
	rt, err := loadRuntime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer rt.close()

	resp, err := rt.commands.Dispatch(context.Background(), name, plugin.CommandContext{
		Args:          args,
		Channel:       "cli",
		From:          os.Getenv("USER"),
		Authenticated: authenticated,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(resp.Text)
}
