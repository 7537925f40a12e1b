package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/registry"
	"github.com/DreamCats/opencommands/internal/ui"
)

var (
	listNamespace string
	listTag       string
	listType      string
	listLong      bool
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, runList)
	},
}

func runList(_ context.Context, op *operation) error {
	reg, err := op.loadRegistry()
	if err != nil {
		return err
	}

	entries := reg.FindAll(registry.Filters{
		Namespace: listNamespace,
		Tag:       listTag,
		Type:      listType,
	})

	if op.json {
		return op.success(map[string]any{
			"dir":      op.dir,
			"commands": summarizeAll(entries),
		}, len(entries))
	}

	if len(entries) == 0 {
		op.println(ui.Info("No commands found in " + ui.FilePath(op.dir)))
		op.println(ui.Hint("  Run 'ocmd install <source>' or 'ocmd new <title>' to add some."))
		return nil
	}

	op.printf("%s %s\n\n", ui.Header("Commands in "+op.dir), ui.Count(len(entries), "command", "commands"))
	descWidth := op.display().AvailableWidth(40)
	if descWidth < 20 {
		descWidth = 20
	}

	tbl := ui.NewTable(3)
	for _, e := range entries {
		c := e.Command
		tbl.AddRow(ui.CommandKey(c.Key()), ui.Version(c.Version), ui.TruncateWithEllipsis(c.Description, descWidth))
	}
	op.printf("%s", tbl.String())

	if !listLong {
		return nil
	}
	for _, e := range entries {
		op.println()
		printCommandDetails(op, e)
	}
	return nil
}

func printCommandDetails(op *operation, e registry.Entry) {
	c := e.Command
	op.printf("%s %s\n", ui.CommandKey(c.Key()), ui.Version(c.Version))
	details := ui.NewTable(2)
	if args := c.ArgumentString(); args != "" {
		details.AddRow(ui.Hint("args"), args)
	}
	if len(c.Metadata.Tags) > 0 {
		details.AddRow(ui.Hint("tags"), strings.Join(c.Metadata.Tags, ", "))
	}
	if e.UseCount > 0 {
		details.AddRow(ui.Hint("used"), ui.Pluralize(e.UseCount, "time"))
	}
	if c.Path != "" {
		details.AddRow(ui.Hint("path"), ui.FilePath(c.Path))
	}
	op.printf("%s", details.String())
}

func init() {
	listCmd.Flags().StringVarP(&listNamespace, "namespace", "n", "", "Only commands in this namespace")
	listCmd.Flags().StringVarP(&listTag, "tag", "t", "", "Only commands with this tag")
	listCmd.Flags().StringVar(&listType, "type", "", "Only commands whose header type matches")
	listCmd.Flags().BoolVarP(&listLong, "long", "l", false, "Show tags, arguments, usage and file paths")
	rootCmd.AddCommand(listCmd)
}
