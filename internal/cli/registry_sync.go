package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/commands"
)

// syncRegistryMetadata copies help text from the commands registry onto the
// cobra tree. Use strings stay defined next to each command.
func syncRegistryMetadata(root *cobra.Command) {
	var walk func(cmd *cobra.Command, path string)
	walk = func(cmd *cobra.Command, path string) {
		if path != "" {
			applyRegistryMetadata(cmd, path)
		}
		for _, child := range cmd.Commands() {
			childPath := child.Name()
			if path != "" {
				childPath = path + " " + child.Name()
			}
			walk(child, childPath)
		}
	}
	walk(root, "")
}

func applyRegistryMetadata(cmd *cobra.Command, path string) {
	meta, ok := commands.Registry[path]
	if !ok {
		return
	}
	if meta.Description != "" {
		cmd.Short = meta.Description
	}
	if meta.LongDesc != "" || len(meta.Examples) > 0 {
		cmd.Long = buildLongDesc(meta)
	}
}

func buildLongDesc(meta commands.Meta) string {
	var b strings.Builder
	if meta.LongDesc != "" {
		b.WriteString(meta.LongDesc)
	} else {
		b.WriteString(meta.Description)
	}
	if len(meta.Examples) > 0 {
		b.WriteString("\n\nExamples:\n")
		for _, ex := range meta.Examples {
			b.WriteString("  " + ex + "\n")
		}
	}
	return b.String()
}
