// Package config loads the plugin configuration file and provides the
// path helpers shared by export/import.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/titanous/json5"
)

// Config enumerates every recognized option. Zero-value fields are filled
// in from Default() after load, so a partial config file is fine.
type Config struct {
	Enabled       *bool    `json:"enabled"`
	StorePath     string   `json:"storePath"`
	Backend       string   `json:"backend"` // "jsonl" or "sqlite"
	Dims          int      `json:"dims"`
	RedactSecrets *bool    `json:"redactSecrets"`
	DefaultTags   []string `json:"defaultTags"`
	MaxItems      int      `json:"maxItems"`
	ExportPath    string   `json:"exportPath"`
}

// IsEnabled reports whether the plugin should register anything.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// ShouldRedact reports whether captured text runs through the redactor.
func (c Config) ShouldRedact() bool {
	return c.RedactSecrets == nil || *c.RedactSecrets
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StorePath:   "~/.memdocs/docs-memory.jsonl",
		Backend:     "jsonl",
		Dims:        256,
		DefaultTags: []string{"docs"},
		MaxItems:    5000,
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	return ExpandHome("~/.memdocs/config.json5")
}

// Load reads a JSON5 config file and fills unset fields from Default().
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	def := Default()
	if cfg.StorePath == "" {
		cfg.StorePath = def.StorePath
	}
	if cfg.Backend == "" {
		cfg.Backend = def.Backend
	}
	if cfg.Dims <= 0 {
		cfg.Dims = def.Dims
	}
	if cfg.DefaultTags == nil {
		cfg.DefaultTags = def.DefaultTags
	}
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = def.MaxItems
	}
	return cfg, nil
}

// ExpandHome resolves a leading ~ or ~/ to the user's home directory.
func ExpandHome(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) > 1 && p[1] == '/' {
		return filepath.Join(home, p[2:])
	}
	return p
}

// SafePath expands and absolutizes p, rejecting traversal segments so a
// hostile path argument can never climb out of its stated directory.
// label names the caller ("export", "import") in the error text.
func SafePath(label, p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("%s path is empty", label)
	}
	expanded := ExpandHome(p)
	for _, seg := range strings.Split(filepath.ToSlash(expanded), "/") {
		if seg == ".." {
			return "", fmt.Errorf("%s path escapes its base directory: %s", label, p)
		}
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%s path could not be resolved: %w", label, err)
	}
	return filepath.Clean(abs), nil
}
