package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/shellquote"
)

var renderNoValidate bool

var renderCmd = &cobra.Command{
	Use:     "render <name> [args...]",
	Aliases: []string{"run"},
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runRender(ctx, op, args[0], args[1:])
		})
	},
}

func runRender(ctx context.Context, op *operation, name string, args []string) error {
	reg, err := op.loadRegistry()
	if err != nil {
		return err
	}
	entry, err := op.resolve(reg, name)
	if err != nil {
		return err
	}
	c := entry.Command

	if !renderNoValidate {
		if problems := c.ValidateArgs(args); len(problems) > 0 {
			usage := shellquote.Join("ocmd", "render", c.Key())
			if hint := c.ArgumentString(); hint != "" {
				usage += " " + hint
			}
			return &cliError{
				Code:       ErrValidationFailed,
				Message:    c.Key() + ": " + strings.Join(problems, "; "),
				Suggestion: "Usage: " + usage,
				Details:    map[string]any{"problems": problems},
			}
		}
	}

	output := c.Substitute(args)

	if hist := op.history(); hist != nil {
		if err := hist.RecordUsage(ctx, c.Key()); err != nil {
			op.warn(WarnHistoryUnavailable, c.Key(), "usage not recorded: %v", err)
		}
	}

	if op.json {
		return op.success(map[string]any{
			"key":    c.Key(),
			"args":   args,
			"output": output,
		}, 1)
	}

	op.printf("%s\n", strings.TrimRight(output, "\n"))
	return nil
}

func init() {
	renderCmd.Flags().BoolVar(&renderNoValidate, "no-validate", false, "Skip the required/too-many argument check")
	rootCmd.AddCommand(renderCmd)
}
