package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/search"
	"github.com/DreamCats/opencommands/internal/ui"
)

var (
	searchFuzzy bool
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:  "search <query>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runSearch(ctx, op, args[0])
		})
	},
}

type searchHit struct {
	commandSummary
	Fuzzy bool `json:"fuzzy"`
}

func runSearch(_ context.Context, op *operation, query string) error {
	reg, err := op.loadRegistry()
	if err != nil {
		return err
	}

	results := search.Run(reg, query, search.Options{Fuzzy: searchFuzzy, Limit: searchLimit})

	if op.json {
		hits := make([]searchHit, len(results))
		for i, r := range results {
			hits[i] = searchHit{commandSummary: summarize(r.Entry), Fuzzy: r.Fuzzy}
		}
		return op.success(map[string]any{"query": query, "results": hits}, len(hits))
	}

	if len(results) == 0 {
		op.println(ui.Infof("No commands match %q", query))
		if !searchFuzzy {
			op.println(ui.Hint("  Try again with --fuzzy."))
		}
		return nil
	}

	header := ui.Header("Results for " + query)
	if results[0].Fuzzy {
		header += " " + ui.Hint("(fuzzy)")
	}
	op.printf("%s %s\n\n", header, ui.Count(len(results), "match", "matches"))

	descWidth := op.display().AvailableWidth(40)
	if descWidth < 20 {
		descWidth = 20
	}
	tbl := ui.NewTable(3)
	for _, r := range results {
		c := r.Command
		tbl.AddRow(ui.CommandKey(c.Key()), ui.Version(c.Version), ui.TruncateWithEllipsis(c.Description, descWidth))
	}
	op.printf("%s", tbl.String())
	return nil
}

func init() {
	searchCmd.Flags().BoolVarP(&searchFuzzy, "fuzzy", "f", false, "Fall back to subsequence matching")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results (0 = no limit)")
	rootCmd.AddCommand(searchCmd)
}
