package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/store"
	"github.com/DreamCats/opencommands/internal/ui"
)

var removeYes bool

var removeCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runRemove(ctx, op, args[0])
		})
	},
}

func runRemove(_ context.Context, op *operation, name string) error {
	reg, err := op.loadRegistry()
	if err != nil {
		return err
	}
	entry, err := op.resolve(reg, name)
	if err != nil {
		return err
	}
	c := entry.Command
	if c.Path == "" {
		return newErrorf(ErrInternal, "", "%s has no file to remove", c.Key())
	}

	if !removeYes {
		if !op.canPrompt() {
			return newErrorf(ErrConfirmationRequired, "Pass --yes to remove without prompting",
				"removing %s requires confirmation", c.Key())
		}
		if !op.confirm(fmt.Sprintf("Remove %s (%s)?", ui.CommandKey(c.Key()), c.Path)) {
			op.println(ui.Info("Nothing removed."))
			return nil
		}
	}

	if err := store.Delete(c.Path); err != nil {
		return newError(ErrFileWriteError, err, "")
	}

	if op.json {
		return op.success(map[string]any{"key": c.Key(), "path": c.Path, "removed": true}, 1)
	}
	op.println(ui.Successf("Removed %s", ui.CommandKey(c.Key())))
	return nil
}

func init() {
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(removeCmd)
}
