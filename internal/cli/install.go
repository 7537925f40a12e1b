package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/config"
	"github.com/DreamCats/opencommands/internal/reconcile"
	"github.com/DreamCats/opencommands/internal/registry"
	"github.com/DreamCats/opencommands/internal/sources"
	"github.com/DreamCats/opencommands/internal/store"
	"github.com/DreamCats/opencommands/internal/ui"
)

var (
	installNamespace string
	installForce     bool
	installAll       bool
	installGlobal    bool
	installDryRun    bool
)

var installCmd = &cobra.Command{
	Use:     "install <source>",
	Aliases: []string{"add"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runInstall(ctx, op, args[0])
		})
	},
}

func runInstall(ctx context.Context, op *operation, locator string) error {
	if installNamespace != "" && !command.ValidIdent(installNamespace) {
		return newErrorf(ErrInvalidInput, "Use letters, digits, '-' and '_'", "invalid namespace %q", installNamespace)
	}

	kind, err := sources.Detect(locator)
	if err != nil {
		return newError(ErrSourceUnknown, err, "Pass owner/repo, a git URL, a .tar.gz URL or an existing path")
	}
	src, err := sources.ForKind(kind, op.sourceOptions())
	if err != nil {
		return newError(ErrSourceUnknown, err, "")
	}
	if kind == command.SourceLocal {
		locator = config.ExpandHome(locator)
	}

	fetched, err := fetchWithSpinner(ctx, op, sources.WithLogging(src, op.logger), locator)
	if err != nil {
		return err
	}
	for _, sk := range fetched.Skipped {
		op.warn(WarnSkippedDocument, sk.Path, "skipped %s", sk.Err)
	}

	if len(fetched.Commands) == 0 {
		op.warn(WarnNoCommands, locator, "no commands found in %s", locator)
		if op.json {
			return op.success(map[string]any{"source": locator, "installed": 0}, 0)
		}
		return nil
	}

	selected, err := selectForInstall(ctx, op, fetched.Commands)
	if errors.Is(err, reconcile.ErrCanceled) {
		op.println(ui.Info("Install canceled; nothing written."))
		return nil
	}
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		op.println(ui.Info("No commands selected; nothing written."))
		return nil
	}

	selected, err = prepareInstall(op, selected)
	if err != nil {
		return err
	}

	dir := installDir(op)
	plan, err := store.PlanInstall(selected, dir, installForce)
	if err != nil {
		return newError(ErrFileReadError, err, "")
	}

	if installDryRun {
		if op.json {
			return op.success(map[string]any{"source": locator, "dry_run": true, "plan": plan}, len(plan.Actions))
		}
		printInstallPlan(op, plan)
		op.println(ui.Hint(fmt.Sprintf("\nDry run: %d would be written.", plan.Pending())))
		return nil
	}

	if len(plan.Conflicts) > 0 {
		return &cliError{
			Code:       ErrInstallConflict,
			Message:    fmt.Sprintf("%s already exist with different content", ui.Pluralize(len(plan.Conflicts), "file")),
			Suggestion: "Re-run with --force to overwrite, or --dry-run to inspect",
			Details:    map[string]any{"conflicts": plan.Conflicts},
			Err:        store.ErrPlanConflicts,
		}
	}

	written, err := store.ApplyInstall(plan)
	if err != nil {
		return newError(ErrFileWriteError, err, "")
	}

	if op.json {
		return op.success(map[string]any{
			"source":    locator,
			"dir":       dir,
			"plan":      plan,
			"installed": written,
		}, written)
	}
	printInstallPlan(op, plan)
	op.println(ui.Successf("Installed %s into %s", ui.Pluralize(written, "command"), ui.FilePath(dir)))
	return nil
}

func fetchWithSpinner(ctx context.Context, op *operation, src sources.Source, locator string) (*sources.Result, error) {
	if op.json {
		return src.Fetch(ctx, locator)
	}
	spinner := ui.NewSpinner(op.errOut, "Fetching "+locator)
	spinner.Start()
	defer spinner.Stop()
	return src.Fetch(ctx, locator)
}

func selectForInstall(ctx context.Context, op *operation, cmds []*command.Command) ([]*command.Command, error) {
	if installAll {
		return cmds, nil
	}
	if !op.canPrompt() {
		return nil, newErrorf(ErrConfirmationRequired,
			"Pass --all to install every command without prompting",
			"found %s; choose which to install", ui.Pluralize(len(cmds), "command"))
	}
	idxs, err := newPicker().SelectCommands(ctx, cmds)
	if err != nil {
		return nil, err
	}
	out := make([]*command.Command, 0, len(idxs))
	for _, i := range idxs {
		if i >= 0 && i < len(cmds) {
			out = append(out, cmds[i])
		}
	}
	return out, nil
}

// prepareInstall applies --namespace and rejects two selected commands with
// the same key. With --force the first one wins.
func prepareInstall(op *operation, cmds []*command.Command) ([]*command.Command, error) {
	reg := registry.New()
	out := make([]*command.Command, 0, len(cmds))
	for _, c := range cmds {
		if installNamespace != "" {
			c = c.Clone()
			c.Namespace = installNamespace
		}
		if err := reg.Register(c); err != nil {
			var dup *registry.DuplicateKeyError
			if errors.As(err, &dup) && installForce {
				op.warn(WarnDuplicateCommand, dup.Key, "%s appears more than once; keeping the first", dup.Key)
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// installDir is --global's directory, else --dir, else the project's
// .claude/commands.
func installDir(op *operation) string {
	switch {
	case installGlobal:
		return op.cfg.GlobalCommandDir()
	case strings.TrimSpace(dirFlag) != "":
		return op.dir
	default:
		return config.ProjectCommandDir(op.cwd)
	}
}

func printInstallPlan(op *operation, plan *store.InstallPlan) {
	tbl := ui.NewTable(3)
	for _, a := range plan.Actions {
		tbl.AddRow(installOpLabel(a.Op), ui.CommandKey(a.Key), ui.FilePath(a.Path))
	}
	op.printf("%s", tbl.String())
}

func installOpLabel(name string) string {
	switch name {
	case store.OpCreate:
		return ui.Success(name)
	case store.OpConflict, store.OpOverwrite:
		return ui.Warning(name)
	default:
		return ui.Hint(name)
	}
}

func init() {
	installCmd.Flags().StringVarP(&installNamespace, "namespace", "n", "", "Install into this namespace")
	installCmd.Flags().BoolVar(&installForce, "force", false, "Overwrite conflicting files")
	installCmd.Flags().BoolVarP(&installAll, "all", "a", false, "Install everything without prompting")
	installCmd.Flags().BoolVarP(&installGlobal, "global", "g", false, "Install into the global command directory")
	installCmd.Flags().BoolVar(&installDryRun, "dry-run", false, "Show the plan without writing")
	rootCmd.AddCommand(installCmd)
}
