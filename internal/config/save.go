package config

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/DreamCats/opencommands/internal/atomicfile"
)

type persistedConfig struct {
	CommandDir   *string              `toml:"command_directory,omitempty"`
	LogLevel     *string              `toml:"log_level,omitempty"`
	DefaultModel *string              `toml:"default_model,omitempty"`
	HistoryDB    *string              `toml:"history_db,omitempty"`
	Sources      []SourceConfig       `toml:"sources"`
	UI           *persistedUISettings `toml:"ui,omitempty"`
}

type persistedUISettings struct {
	Accent    *string `toml:"accent,omitempty"`
	CodeTheme *string `toml:"code_theme,omitempty"`
}

func nonEmptyPtr(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Save writes the global config to the default config path.
func Save(cfg *Config) error {
	return SaveTo(DefaultPath(), cfg)
}

// SaveTo writes the config to a specific path atomically.
// An empty source list is written explicitly so it stays empty on reload.
func SaveTo(path string, cfg *Config) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("config path is required")
	}
	if cfg == nil {
		cfg = &Config{}
	}

	out := persistedConfig{
		CommandDir:   nonEmptyPtr(cfg.CommandDir),
		LogLevel:     nonEmptyPtr(cfg.LogLevel),
		DefaultModel: nonEmptyPtr(cfg.DefaultModel),
		HistoryDB:    nonEmptyPtr(cfg.HistoryDB),
		Sources:      cfg.Sources,
	}
	if out.Sources == nil {
		out.Sources = []SourceConfig{}
	}

	accent := nonEmptyPtr(cfg.UI.Accent)
	codeTheme := nonEmptyPtr(cfg.UI.CodeTheme)
	if accent != nil || codeTheme != nil {
		out.UI = &persistedUISettings{
			Accent:    accent,
			CodeTheme: codeTheme,
		}
	}

	var buf bytes.Buffer
	buf.WriteString("# ocmd configuration. Sources are synced in the order listed.\n\n")
	if err := toml.NewEncoder(&buf).Encode(out); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// A zero mode keeps the permissions of an existing config file.
	if err := atomicfile.WriteFile(path, buf.Bytes(), 0); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}
