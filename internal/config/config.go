// Package config handles global opencommands configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/DreamCats/opencommands/internal/atomicfile"
)

const appName = "opencommands"

// DefaultSourceURL is the git repository configured when no config file exists.
const DefaultSourceURL = "https://github.com/DreamCats/my-commands"

// Config represents the global configuration.
type Config struct {
	// CommandDir is where installed commands live. Empty means auto-detect.
	CommandDir string `toml:"command_directory"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// DefaultModel is written into commands created with `ocmd new`.
	DefaultModel string `toml:"default_model"`

	// HistoryDB overrides the usage history database location.
	HistoryDB string `toml:"history_db"`

	// Sources are the remote collections `ocmd sync` reconciles against.
	Sources []SourceConfig `toml:"sources"`

	// UI controls optional CLI theming preferences.
	UI UIConfig `toml:"ui"`
}

// UIConfig represents optional CLI theming preferences.
type UIConfig struct {
	// Accent is an ANSI color code ("0" to "255") or a hex color ("#RRGGBB").
	Accent string `toml:"accent"`

	// CodeTheme sets the Glamour/Chroma theme used for rendered code blocks.
	CodeTheme string `toml:"code_theme"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Sources: []SourceConfig{
			{Type: "git", URL: DefaultSourceURL},
		},
	}
}

// Load loads the configuration from the default location.
// Returns the default config if the file doesn't exist.
func Load() (*Config, error) {
	return LoadOrDefault(DefaultPath())
}

// LoadOrDefault loads path, or returns the defaults if it does not exist.
// Environment overrides apply in both cases.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := Default()
		if err := applyEnv(cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolveConfigPath resolves the effective config path from an optional override.
func ResolveConfigPath(explicitConfigPath string) string {
	if strings.TrimSpace(explicitConfigPath) != "" {
		return explicitConfigPath
	}
	return DefaultPath()
}

// DefaultPath returns the default config file path.
// Checks ~/.config/opencommands/config.toml first (XDG style),
// then falls back to the OS-specific location.
func DefaultPath() string {
	if xdgPath, err := XDGPath(); err == nil {
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath
		}
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, appName, "config.toml")
	}

	return filepath.Join(".", "config.toml")
}

// XDGPath returns the XDG-style config path (~/.config/opencommands/config.toml).
func XDGPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

const defaultConfigTemplate = `# opencommands configuration

# Where installed commands live. Defaults to ./.claude/commands when present,
# otherwise ~/.opencommands/commands.
# command_directory = "~/.opencommands/commands"

# debug | info | warn | error
log_level = "info"

# Model written into new commands.
# default_model = "sonnet"

# Usage history database.
# history_db = "~/.opencommands/history.db"

# Remote collections used by ` + "`ocmd sync`" + `.
# type is one of git, local, archive.
[[sources]]
type = "git"
url = "%s"

# [ui]
# accent = "39"
# code_theme = "monokai"
`

// CreateDefault creates a default config file at the default path if it doesn't exist.
func CreateDefault() (string, error) {
	return CreateDefaultAt(DefaultPath())
}

// CreateDefaultAt creates a default config file at path if it doesn't exist.
func CreateDefaultAt(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(defaultConfigTemplate, DefaultSourceURL)
	if err := atomicfile.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// DataDir returns ~/.opencommands.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "."+appName)
	}
	return filepath.Join(home, "."+appName)
}

// GlobalCommandDir returns the configured command directory, or
// ~/.opencommands/commands.
func (c *Config) GlobalCommandDir() string {
	if dir := strings.TrimSpace(c.CommandDir); dir != "" {
		return ExpandHome(dir)
	}
	return filepath.Join(DataDir(), "commands")
}

// CommandDirectory resolves where commands are read from and written to:
// the configured directory, then ./.claude/commands under cwd if it exists,
// then ~/.opencommands/commands.
func (c *Config) CommandDirectory(cwd string) string {
	if dir := strings.TrimSpace(c.CommandDir); dir != "" {
		return ExpandHome(dir)
	}
	if cwd != "" {
		project := ProjectCommandDir(cwd)
		if info, err := os.Stat(project); err == nil && info.IsDir() {
			return project
		}
	}
	return c.GlobalCommandDir()
}

// ProjectCommandDir returns <cwd>/.claude/commands.
func ProjectCommandDir(cwd string) string {
	return filepath.Join(cwd, ".claude", "commands")
}

// HistoryPath returns the usage history database location.
func (c *Config) HistoryPath() string {
	if p := strings.TrimSpace(c.HistoryDB); p != "" {
		return ExpandHome(p)
	}
	return filepath.Join(DataDir(), "history.db")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
