package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides are read from the environment after the config file.
type envOverrides struct {
	CommandDir string `env:"OPENCOMMANDS_COMMAND_DIR"`
	LogLevel   string `env:"OPENCOMMANDS_LOG_LEVEL"`
	HistoryDB  string `env:"OPENCOMMANDS_HISTORY_DB"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}
	if o.CommandDir != "" {
		cfg.CommandDir = o.CommandDir
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.HistoryDB != "" {
		cfg.HistoryDB = o.HistoryDB
	}
	return nil
}
