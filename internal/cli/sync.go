package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/config"
	"github.com/DreamCats/opencommands/internal/history"
	"github.com/DreamCats/opencommands/internal/integrations/claude"
	"github.com/DreamCats/opencommands/internal/reconcile"
	"github.com/DreamCats/opencommands/internal/sources"
	"github.com/DreamCats/opencommands/internal/store"
	"github.com/DreamCats/opencommands/internal/ui"
)

var (
	syncDryRun    bool
	syncSources   []string
	syncLocalOnly bool
	syncClaude    bool
	syncYes       bool
)

var syncCmd = &cobra.Command{
	Use:  "sync",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, runSync)
	},
}

type syncOutput struct {
	Dir        string                `json:"dir"`
	Sources    []string              `json:"sources"`
	Candidates []reconcile.Candidate `json:"candidates"`
	Applied    []reconcile.Applied   `json:"applied"`
	DryRun     bool                  `json:"dry_run"`
	Canceled   bool                  `json:"canceled"`
	HadErrors  bool                  `json:"had_errors"`
	Claude     *claude.Export        `json:"claude,omitempty"`
	RunID      string                `json:"run_id,omitempty"`
}

func runSync(ctx context.Context, op *operation) error {
	configured, err := syncSourceConfigs(op)
	if err != nil {
		return err
	}

	local, err := op.loadLocal()
	if err != nil {
		return err
	}

	out := syncOutput{Dir: op.dir, DryRun: syncDryRun}
	var remotes []reconcile.RemoteSource
	for _, sc := range configured {
		label := sc.Type + " " + sc.Locator()
		src, locator, err := sources.ForConfig(sc, op.sourceOptions())
		if err != nil {
			op.warn(WarnSourceFetchFailed, sc.Locator(), "%s: %v", label, err)
			out.HadErrors = true
			continue
		}
		out.Sources = append(out.Sources, label)
		remotes = append(remotes, reconcile.RemoteSource{
			Label:   label,
			Source:  sources.WithLogging(src, op.logger),
			Locator: locator,
		})
	}

	if !op.json && len(remotes) > 0 {
		op.println(ui.Infof("Checking %s against %s", ui.Pluralize(len(remotes), "source"), ui.FilePath(op.dir)))
	}

	r := &reconcile.Reconciler{
		Local:     local,
		Remotes:   remotes,
		Selector:  syncSelector(op),
		Persister: store.Dir(op.dir),
		Logger:    op.logger,
	}
	res, err := r.Run(ctx, reconcile.Options{DryRun: syncDryRun})
	if err != nil {
		return err
	}

	out.Candidates = res.Candidates
	out.Applied = res.Applied
	out.Canceled = res.Canceled
	out.HadErrors = out.HadErrors || res.HadErrors
	for _, fe := range res.FetchErrors {
		op.warn(WarnSourceFetchFailed, "", "%v", fe)
	}
	for _, we := range res.WriteErrors {
		op.warn(WarnWriteFailed, we.Key, "%v", we)
	}

	if syncClaude && !res.Canceled {
		export, err := claude.Write(op.cwd, res.Local, syncDryRun)
		if err != nil {
			op.warn(WarnWriteFailed, claude.AgentsFile, "claude export: %v", err)
			out.HadErrors = true
		}
		out.Claude = export
	}

	// A dry run touches nothing on disk, the history database included.
	if hist := op.syncHistory(); hist != nil {
		run, err := hist.RecordSync(ctx, history.SyncRun{
			StartedAt:  op.start,
			DryRun:     syncDryRun,
			Candidates: len(res.Candidates),
			Applied:    len(res.Applied),
			HadErrors:  out.HadErrors,
		})
		if err != nil {
			op.warn(WarnHistoryUnavailable, "", "sync run not recorded: %v", err)
		} else {
			out.RunID = run.ID
		}
	}

	if op.json {
		return op.success(out, len(out.Candidates))
	}
	printSyncResult(op, out)
	return nil
}

// syncSourceConfigs returns the configured sources this run covers.
// --local-only keeps only local directory sources.
func (op *operation) syncHistory() *history.Store {
	if syncDryRun {
		return nil
	}
	return op.history()
}

func syncSourceConfigs(op *operation) ([]config.SourceConfig, error) {
	selected := op.cfg.SelectSources(syncSources)
	if len(syncSources) > 0 && len(selected) == 0 {
		return nil, newErrorf(ErrInvalidInput, "Run 'ocmd config show' to list configured sources",
			"no configured source matches %s", strings.Join(syncSources, ", "))
	}
	if !syncLocalOnly {
		return selected, nil
	}
	var out []config.SourceConfig
	for _, sc := range selected {
		if sc.Type == "local" {
			out = append(out, sc)
		}
	}
	return out, nil
}

func syncSelector(op *operation) reconcile.Selector {
	switch {
	case syncYes:
		return reconcile.SelectAll
	case op.canPrompt():
		return newPicker()
	default:
		return reconcile.SelectorFunc(func(_ context.Context, cands []reconcile.Candidate) ([]int, error) {
			return nil, newErrorf(ErrConfirmationRequired,
				"Pass --yes to apply every change, or --dry-run to review them",
				"%s pending; confirmation required", ui.Pluralize(len(cands), "change"))
		})
	}
}

func printSyncResult(op *operation, out syncOutput) {
	if len(out.Candidates) == 0 {
		if out.HadErrors {
			op.println(ui.Warning("No changes found, but some sources failed."))
		} else {
			op.println(ui.Success("Everything is up to date."))
		}
		printClaudeExport(op, out.Claude)
		return
	}

	if out.DryRun {
		op.printf("%s %s\n\n", ui.Header("Pending changes"), ui.Count(len(out.Candidates), "change", "changes"))
		tbl := ui.NewTable(3)
		for _, c := range out.Candidates {
			tbl.AddRow(string(c.Action), ui.CommandKey(c.Key()), candidateVersions(c)+"  "+ui.Hint(c.Source))
		}
		op.printf("%s", tbl.String())
		printClaudeExport(op, out.Claude)
		op.println(ui.Hint("\nDry run: nothing written. Re-run without --dry-run to apply."))
		return
	}

	if out.Canceled {
		op.println(ui.Info("Sync canceled; nothing written."))
		return
	}

	tbl := ui.NewTable(3)
	for _, a := range out.Applied {
		tbl.AddRow(string(a.Candidate.Action), ui.CommandKey(a.Candidate.Key()), ui.FilePath(a.Path))
	}
	op.printf("%s", tbl.String())
	printClaudeExport(op, out.Claude)

	msg := fmt.Sprintf("Applied %d of %s", len(out.Applied), ui.Pluralize(len(out.Candidates), "change"))
	if out.HadErrors {
		op.println(ui.Warning(msg + " (with errors)"))
		return
	}
	op.println(ui.Success(msg))
}

func candidateVersions(c reconcile.Candidate) string {
	if c.Action == reconcile.ActionUpdate {
		return ui.Version(c.OldVersion) + " → " + ui.Version(c.NewVersion)
	}
	return ui.Version(c.NewVersion)
}

func printClaudeExport(op *operation, export *claude.Export) {
	if export == nil {
		return
	}
	verb := "Wrote"
	if export.DryRun {
		verb = "Would write"
	}
	op.println(ui.Infof("%s %s for Claude Code", verb, ui.Pluralize(len(export.Files), "file")))
}

func init() {
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Report candidates without prompting or writing")
	syncCmd.Flags().StringSliceVarP(&syncSources, "source", "s", nil, "Only sync sources matching this URL or path (repeatable)")
	syncCmd.Flags().BoolVar(&syncLocalOnly, "local-only", false, "Skip remote sources")
	syncCmd.Flags().BoolVar(&syncClaude, "claude", false, "Also write AGENTS.md and .claude/commands files")
	syncCmd.Flags().BoolVarP(&syncYes, "yes", "y", false, "Apply every candidate without prompting")
	rootCmd.AddCommand(syncCmd)
}
