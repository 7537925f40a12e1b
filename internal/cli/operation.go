package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/config"
	"github.com/DreamCats/opencommands/internal/history"
	"github.com/DreamCats/opencommands/internal/loader"
	"github.com/DreamCats/opencommands/internal/logging"
	"github.com/DreamCats/opencommands/internal/reconcile"
	"github.com/DreamCats/opencommands/internal/registry"
	"github.com/DreamCats/opencommands/internal/shellquote"
	"github.com/DreamCats/opencommands/internal/sources"
	"github.com/DreamCats/opencommands/internal/ui"
)

// picker is the interactive selection surface used by install and sync.
type picker interface {
	reconcile.Selector
	SelectCommands(ctx context.Context, cmds []*command.Command) ([]int, error)
}

var (
	// interactive reports whether prompts can be shown.
	interactive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())
	}

	newPicker = func() picker { return ui.MultiSelect{} }

	openHistory = history.Open
)

// operation is the context of one CLI invocation: resolved configuration,
// the command directory, and output streams. Each invocation builds its own
// registry from it.
type operation struct {
	cfg        *config.Config
	configPath string
	dir        string
	cwd        string
	logger     *slog.Logger
	out        io.Writer
	errOut     io.Writer
	in         io.Reader
	json       bool
	start      time.Time
	warnings   []Warning

	hist    *history.Store
	histErr error
}

func newOperation(cmd *cobra.Command) (*operation, error) {
	op := baseOperation(cmd)

	op.configPath = config.ResolveConfigPath(configPath)
	cfg, err := config.LoadOrDefault(op.configPath)
	if err != nil {
		return op, newError(ErrConfigInvalid, err, "Fix the file or pass --config")
	}
	op.cfg = cfg

	op.logger = logging.New(op.errOut, logging.Options{Level: cfg.LogLevel, Verbose: verbose})
	if strings.TrimSpace(cfg.UI.Accent) != "" {
		ui.ConfigureTheme(cfg.UI.Accent)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return op, fmt.Errorf("resolve working directory: %w", err)
	}
	op.cwd = cwd

	if strings.TrimSpace(dirFlag) != "" {
		op.dir = config.ExpandHome(dirFlag)
	} else {
		op.dir = cfg.CommandDirectory(cwd)
	}
	op.logger.Debug("operation", "command", cmd.CommandPath(), "dir", op.dir, "config", op.configPath)
	return op, nil
}

// baseOperation carries only the output streams, for reporting errors that
// happen before configuration is loaded.
func baseOperation(cmd *cobra.Command) *operation {
	return &operation{
		logger: logging.Discard(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		in:     cmd.InOrStdin(),
		json:   isJSONOutput(),
		start:  time.Now(),
	}
}

// runOperation builds the operation for cmd, runs fn, and reports any error
// in the active output mode.
func runOperation(cmd *cobra.Command, fn func(ctx context.Context, op *operation) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	op, err := newOperation(cmd)
	if err == nil {
		defer op.close()
		err = fn(ctx, op)
	}
	return op.fail(err)
}

func (op *operation) close() {
	if op.hist != nil {
		_ = op.hist.Close()
		op.hist = nil
	}
}

func (op *operation) fail(err error) error {
	if err == nil {
		return nil
	}
	if !op.json {
		return err
	}
	_ = writeJSON(op.out, Response{OK: false, Error: errorInfo(err), Warnings: op.warnings})
	return &reportedError{err: err}
}

// warn records a warning for the JSON envelope, or prints it to stderr.
func (op *operation) warn(code, ref, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if op.json {
		op.warnings = append(op.warnings, Warning{Code: code, Message: msg, Ref: ref})
		return
	}
	fmt.Fprintln(op.errOut, ui.Warning(msg))
}

func (op *operation) success(data any, count int) error {
	meta := &Meta{Count: count, QueryTimeMs: time.Since(op.start).Milliseconds()}
	return writeJSON(op.out, Response{OK: true, Data: data, Warnings: op.warnings, Meta: meta})
}

func (op *operation) printf(format string, args ...any) {
	fmt.Fprintf(op.out, format, args...)
}

func (op *operation) println(args ...any) {
	fmt.Fprintln(op.out, args...)
}

// canPrompt reports whether an interactive prompt may be shown.
func (op *operation) canPrompt() bool {
	return !op.json && interactive()
}

func (op *operation) display() *ui.DisplayContext {
	return ui.DisplayFor(op.out)
}

func (op *operation) sourceOptions() sources.Options {
	return sources.Options{}
}

// loadLocal loads every command in the command directory. A missing
// directory is an empty collection.
func (op *operation) loadLocal() ([]*command.Command, error) {
	res, err := loader.LoadDir(op.dir, loader.Options{
		Source: command.Source{Kind: command.SourceLocal, Path: op.dir},
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			op.logger.Debug("command directory missing", "dir", op.dir)
			return nil, nil
		}
		return nil, newError(ErrFileReadError, err, "")
	}
	for _, sk := range res.Skipped {
		op.warn(WarnSkippedDocument, sk.Path, "skipped %s", sk.Err)
	}
	return res.Commands, nil
}

// loadRegistry builds this operation's registry from the command directory
// and seeds usage counts from the history database. Duplicate keys keep the
// first document found.
func (op *operation) loadRegistry() (*registry.Registry, error) {
	cmds, err := op.loadLocal()
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	for _, c := range cmds {
		if err := reg.Register(c); err != nil {
			var dup *registry.DuplicateKeyError
			if errors.As(err, &dup) {
				op.warn(WarnDuplicateCommand, c.Path, "%s: %s is already defined", c.Path, dup.Key)
				continue
			}
			return nil, err
		}
	}
	op.seedUsage(reg)
	return reg, nil
}

func (op *operation) seedUsage(reg *registry.Registry) {
	hist := op.history()
	if hist == nil {
		return
	}
	summary, err := hist.UsageSummary(context.Background())
	if err != nil {
		op.logger.Warn("read usage history", "error", err)
		return
	}
	for key, u := range summary {
		last := u.LastUsed
		reg.SeedUsage(key, u.Count, &last)
	}
}

// history opens the history database once. Failures are logged and
// reported as nil so history never blocks an operation.
func (op *operation) history() *history.Store {
	if op.hist != nil || op.histErr != nil {
		return op.hist
	}
	op.hist, op.histErr = openHistory(op.cfg.HistoryPath())
	if op.histErr != nil {
		op.logger.Warn("history unavailable", "path", op.cfg.HistoryPath(), "error", op.histErr)
		return nil
	}
	return op.hist
}

// resolve finds one command by key, alias or bare name.
func (op *operation) resolve(reg *registry.Registry, name string) (registry.Entry, error) {
	if e, ok := reg.Find(name); ok {
		return e, nil
	}

	if matches := reg.Matches(name); len(matches) > 1 {
		keys := make([]string, len(matches))
		for i, m := range matches {
			keys[i] = m.Key()
		}
		return registry.Entry{}, &cliError{
			Code:       ErrCommandAmbiguous,
			Message:    fmt.Sprintf("%q matches more than one command: %s", name, strings.Join(keys, ", ")),
			Suggestion: "Use the namespace:name form",
			Details:    map[string]any{"candidates": keys},
		}
	}

	return registry.Entry{}, newErrorf(ErrCommandNotFound,
		"Look for similar commands with: "+shellquote.Join("ocmd", "search", name, "--fuzzy"),
		"command not found: %s", name)
}
