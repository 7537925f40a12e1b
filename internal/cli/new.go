package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/slugs"
	"github.com/DreamCats/opencommands/internal/store"
	"github.com/DreamCats/opencommands/internal/ui"
)

var (
	newNamespace   string
	newDescription string
	newTags        []string
)

var newCmd = &cobra.Command{
	Use:  "new <title>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runNew(ctx, op, args[0])
		})
	},
}

const newCommandBody = `# %s

Describe what the assistant should do.

$ARGUMENTS
`

func runNew(_ context.Context, op *operation, title string) error {
	title = strings.TrimSpace(title)
	namespace, name := slugs.QualifiedName(title)
	if newNamespace != "" {
		namespace = newNamespace
	}
	if !command.ValidIdent(name) {
		return newErrorf(ErrInvalidInput, "Use a title with letters or digits", "cannot derive a command name from %q", title)
	}
	if namespace != "" && !command.ValidIdent(namespace) {
		return newErrorf(ErrInvalidInput, "Use letters, digits, '-' and '_'", "invalid namespace %q", namespace)
	}

	heading := title
	if _, rest, ok := strings.Cut(title, ":"); ok {
		heading = strings.TrimSpace(rest)
	}

	c := &command.Command{
		Name:        name,
		Namespace:   namespace,
		Version:     command.DefaultVersion,
		Description: strings.TrimSpace(newDescription),
		Content:     fmt.Sprintf(newCommandBody, heading),
		Metadata: command.Metadata{
			Tags:  newTags,
			Model: op.cfg.DefaultModel,
		},
	}
	if c.Description == "" {
		c.Description = command.DefaultDescription
	}

	target := store.TargetPath(op.dir, c)
	if _, err := os.Stat(target); err == nil {
		return newErrorf(ErrFileExists, "Edit the existing file or pick another title", "%s already exists", target)
	}

	path, err := store.Save(op.dir, c)
	if err != nil {
		return newError(ErrFileWriteError, err, "")
	}

	if op.json {
		return op.success(map[string]any{"key": c.Key(), "path": path}, 1)
	}
	op.println(ui.Successf("Created %s at %s", ui.CommandKey(c.Key()), ui.FilePath(path)))
	return nil
}

func init() {
	newCmd.Flags().StringVarP(&newNamespace, "namespace", "n", "", "Namespace (overrides a prefix in the title)")
	newCmd.Flags().StringVarP(&newDescription, "description", "d", "", "Description")
	newCmd.Flags().StringSliceVarP(&newTags, "tag", "t", nil, "Tag (repeatable)")
	rootCmd.AddCommand(newCmd)
}
