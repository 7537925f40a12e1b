package cli

import (
	"context"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/history"
	"github.com/DreamCats/opencommands/internal/registry"
	"github.com/DreamCats/opencommands/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:  "stats",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, runStats)
	},
}

const recentSyncLimit = 5

type statsOutput struct {
	Dir           string            `json:"dir"`
	Total         int               `json:"total"`
	Namespaces    int               `json:"namespaces"`
	Tags          int               `json:"tags"`
	ByNamespace   map[string]int    `json:"by_namespace"`
	TotalUseCount int               `json:"total_use_count"`
	MostUsed      []commandSummary  `json:"most_used"`
	RecentlyAdded []commandSummary  `json:"recently_added"`
	RecentSyncs   []history.SyncRun `json:"recent_syncs"`
}

func runStats(ctx context.Context, op *operation) error {
	reg, err := op.loadRegistry()
	if err != nil {
		return err
	}
	st := reg.Stats()

	out := statsOutput{
		Dir:           op.dir,
		Total:         st.Total,
		Namespaces:    st.Namespaces,
		Tags:          st.Tags,
		ByNamespace:   st.ByNamespace,
		TotalUseCount: st.TotalUseCount,
		MostUsed:      summarizeAll(st.MostUsed),
		RecentlyAdded: summarizeAll(st.RecentlyAdded),
		RecentSyncs:   []history.SyncRun{},
	}
	if hist := op.history(); hist != nil {
		runs, err := hist.RecentSyncs(ctx, recentSyncLimit)
		if err != nil {
			op.warn(WarnHistoryUnavailable, "", "sync history: %v", err)
		} else if runs != nil {
			out.RecentSyncs = runs
		}
	}

	if op.json {
		return op.success(out, out.Total)
	}
	printStats(op, out, st)
	return nil
}

func printStats(op *operation, out statsOutput, st registry.Stats) {
	display := op.display()

	summary := ui.NewTable(2)
	summary.AddRow(ui.Hint("directory"), ui.FilePath(out.Dir))
	summary.AddRow(ui.Hint("commands"), strconv.Itoa(out.Total))
	summary.AddRow(ui.Hint("namespaces"), strconv.Itoa(out.Namespaces))
	summary.AddRow(ui.Hint("tags"), strconv.Itoa(out.Tags))
	summary.AddRow(ui.Hint("uses"), strconv.Itoa(out.TotalUseCount))
	op.printf("%s\n", summary.String())

	if len(out.ByNamespace) > 0 {
		names := make([]string, 0, len(out.ByNamespace))
		for ns := range out.ByNamespace {
			names = append(names, ns)
		}
		sort.Strings(names)
		rows := make([][]string, len(names))
		for i, ns := range names {
			label := ns
			if label == "" {
				label = "(none)"
			}
			rows[i] = []string{label, strconv.Itoa(out.ByNamespace[ns])}
		}
		op.println(ui.Grid(display, []string{"Namespace", "Commands"}, rows))
	}

	if len(st.MostUsed) > 0 {
		rows := make([][]string, len(st.MostUsed))
		for i, e := range st.MostUsed {
			last := ""
			if e.LastUsed != nil {
				last = e.LastUsed.Local().Format("2006-01-02 15:04")
			}
			rows[i] = []string{e.Command.Key(), strconv.Itoa(e.UseCount), last}
		}
		op.println(ui.Grid(display, []string{"Most used", "Uses", "Last used"}, rows))
	}

	if len(out.RecentSyncs) > 0 {
		rows := make([][]string, len(out.RecentSyncs))
		for i, run := range out.RecentSyncs {
			status := "ok"
			switch {
			case run.DryRun:
				status = "dry run"
			case run.HadErrors:
				status = "errors"
			}
			rows[i] = []string{
				run.StartedAt.Local().Format("2006-01-02 15:04"),
				strconv.Itoa(run.Candidates),
				strconv.Itoa(run.Applied),
				status,
			}
		}
		op.println(ui.Grid(display, []string{"Sync", "Changes", "Applied", "Status"}, rows))
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
