package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/config"
	"github.com/DreamCats/opencommands/internal/sources"
	"github.com/DreamCats/opencommands/internal/ui"
)

var configSourceType string

var configCmd = &cobra.Command{
	Use:  "config",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, runConfigShow)
	},
}

var configShowCmd = &cobra.Command{
	Use:  "show",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, runConfigShow)
	},
}

var configInitCmd = &cobra.Command{
	Use:  "init",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, runConfigInit)
	},
}

var configAddSourceCmd = &cobra.Command{
	Use:  "add-source <locator>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runConfigAddSource(ctx, op, args[0])
		})
	},
}

var configRemoveSourceCmd = &cobra.Command{
	Use:  "remove-source <locator>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runConfigRemoveSource(ctx, op, args[0])
		})
	},
}

type configView struct {
	Path         string                `json:"path"`
	Exists       bool                  `json:"exists"`
	CommandDir   string                `json:"command_directory"`
	LogLevel     string                `json:"log_level"`
	DefaultModel string                `json:"default_model,omitempty"`
	HistoryDB    string                `json:"history_db"`
	Sources      []config.SourceConfig `json:"sources"`
	Accent       string                `json:"accent,omitempty"`
	CodeTheme    string                `json:"code_theme,omitempty"`
}

func runConfigShow(_ context.Context, op *operation) error {
	_, statErr := os.Stat(op.configPath)
	view := configView{
		Path:         op.configPath,
		Exists:       statErr == nil,
		CommandDir:   op.dir,
		LogLevel:     op.cfg.LogLevel,
		DefaultModel: op.cfg.DefaultModel,
		HistoryDB:    op.cfg.HistoryPath(),
		Sources:      op.cfg.Sources,
		Accent:       op.cfg.UI.Accent,
		CodeTheme:    op.cfg.UI.CodeTheme,
	}
	if view.Sources == nil {
		view.Sources = []config.SourceConfig{}
	}

	if op.json {
		return op.success(view, len(view.Sources))
	}

	path := ui.FilePath(view.Path)
	if !view.Exists {
		path += " " + ui.Hint("(not created; defaults in use)")
	}
	tbl := ui.NewTable(2)
	tbl.AddRow(ui.Hint("config"), path)
	tbl.AddRow(ui.Hint("command_directory"), ui.FilePath(view.CommandDir))
	tbl.AddRow(ui.Hint("log_level"), view.LogLevel)
	tbl.AddRow(ui.Hint("default_model"), view.DefaultModel)
	tbl.AddRow(ui.Hint("history_db"), ui.FilePath(view.HistoryDB))
	op.printf("%s", tbl.String())

	op.printf("\n%s %s\n", ui.Header("Sources"), ui.Count(len(view.Sources), "source", "sources"))
	if len(view.Sources) == 0 {
		op.println(ui.Hint("  none; add one with 'ocmd config add-source <locator>'"))
		return nil
	}
	sourcesTbl := ui.NewTable(2)
	for _, sc := range view.Sources {
		sourcesTbl.AddRow(sc.Type, sc.Locator())
	}
	op.printf("%s", sourcesTbl.String())
	return nil
}

func runConfigInit(_ context.Context, op *operation) error {
	_, statErr := os.Stat(op.configPath)
	existed := statErr == nil

	path, err := config.CreateDefaultAt(op.configPath)
	if err != nil {
		return newError(ErrFileWriteError, err, "")
	}

	if op.json {
		return op.success(map[string]any{"path": path, "created": !existed}, 1)
	}
	if existed {
		op.println(ui.Infof("Config already exists at %s", ui.FilePath(path)))
		return nil
	}
	op.println(ui.Successf("Created %s", ui.FilePath(path)))
	return nil
}

func runConfigAddSource(_ context.Context, op *operation, locator string) error {
	kind := command.SourceKind(configSourceType)
	if kind == "" {
		detected, err := sources.Detect(locator)
		if err != nil {
			return newError(ErrSourceUnknown, err, "Pass --type git, archive or local")
		}
		kind = detected
	}

	sc := config.SourceConfig{Type: string(kind)}
	switch kind {
	case command.SourceLocal:
		path := config.ExpandHome(locator)
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		sc.Path = path
	case command.SourceGit:
		sc.URL = sources.NormalizeGitURL(locator)
	default:
		sc.URL = locator
	}

	added, err := op.cfg.AddSource(sc)
	if err != nil {
		return newError(ErrInvalidInput, err, "")
	}
	if added {
		if err := config.SaveTo(op.configPath, op.cfg); err != nil {
			return newError(ErrFileWriteError, err, "")
		}
	}

	if op.json {
		return op.success(map[string]any{"source": sc, "added": added, "path": op.configPath}, len(op.cfg.Sources))
	}
	if !added {
		op.println(ui.Infof("%s is already configured", sc.Locator()))
		return nil
	}
	op.println(ui.Successf("Added %s source %s", sc.Type, sc.Locator()))
	return nil
}

func runConfigRemoveSource(_ context.Context, op *operation, ref string) error {
	removed := op.cfg.RemoveSource(ref)
	if removed == 0 {
		return newErrorf(ErrInvalidInput, "Run 'ocmd config show' to list configured sources",
			"no configured source matches %s", ref)
	}
	if err := config.SaveTo(op.configPath, op.cfg); err != nil {
		return newError(ErrFileWriteError, err, "")
	}

	if op.json {
		return op.success(map[string]any{"removed": removed, "path": op.configPath}, removed)
	}
	op.println(ui.Successf("Removed %s", ui.Pluralize(removed, "source")))
	return nil
}

func init() {
	configAddSourceCmd.Flags().StringVar(&configSourceType, "type", "", "git, archive or local (detected when omitted)")
	configCmd.AddCommand(configShowCmd, configInitCmd, configAddSourceCmd, configRemoveSourceCmd)
	rootCmd.AddCommand(configCmd)
}
