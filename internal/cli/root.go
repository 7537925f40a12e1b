// Package cli implements the ocmd command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/ui"
)

var (
	// Global flags
	configPath string
	dirFlag    string
	verbose    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ocmd",
	Short: "OpenCommands - reusable command templates for AI coding assistants",
	Long: `OpenCommands manages a collection of reusable, parameterized command templates
stored as markdown documents with a small metadata header.

Install commands from git repositories, archives or local directories, keep
them in sync with the sources you follow, and render them with arguments.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	syncRegistryMetadata(rootCmd)
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), ui.Error(err.Error()))
			var ce *cliError
			if errors.As(err, &ce) && ce.Suggestion != "" {
				fmt.Fprintln(rootCmd.ErrOrStderr(), ui.Hint("  "+ce.Suggestion))
			}
		}
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Command directory (overrides config and project detection)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
}
