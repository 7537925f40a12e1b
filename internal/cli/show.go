package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/markdown"
	"github.com/DreamCats/opencommands/internal/ui"
)

var showRaw bool

var showCmd = &cobra.Command{
	Use:  "show <name>",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOperation(cmd, func(ctx context.Context, op *operation) error {
			return runShow(ctx, op, args[0])
		})
	},
}

func runShow(_ context.Context, op *operation, name string) error {
	reg, err := op.loadRegistry()
	if err != nil {
		return err
	}
	entry, err := op.resolve(reg, name)
	if err != nil {
		return err
	}
	c := entry.Command
	headings := markdown.Headings(c.Content)

	if op.json {
		return op.success(map[string]any{
			"command":   c,
			"summary":   summarize(entry),
			"excerpt":   markdown.Excerpt(c.Content, 160),
			"headings":  headings,
			"use_count": entry.UseCount,
		}, 1)
	}

	op.printf("%s %s\n", ui.CommandKey(c.Key()), ui.Version(c.Version))
	op.printf("%s\n\n", c.Description)

	meta := ui.NewTable(2)
	addMeta := func(label, value string) {
		if value != "" {
			meta.AddRow(ui.Hint(label), value)
		}
	}
	addMeta("author", c.Metadata.Author)
	addMeta("tags", strings.Join(c.Metadata.Tags, ", "))
	addMeta("args", c.ArgumentString())
	addMeta("tools", strings.Join(c.Metadata.AllowedTools, ", "))
	addMeta("model", c.Metadata.Model)
	addMeta("source", sourceLabel(c.Source))
	if c.Path != "" {
		addMeta("path", ui.FilePath(c.Path))
	}
	if entry.UseCount > 0 {
		addMeta("used", ui.Pluralize(entry.UseCount, "time"))
	}
	op.printf("%s", meta.String())

	for _, arg := range c.Metadata.Args {
		line := "  " + argLabel(arg)
		if arg.Description != "" {
			line += "  " + ui.Hint(arg.Description)
		}
		op.println(line)
	}

	if len(headings) > 1 {
		op.printf("\n%s\n", ui.Header("Outline"))
		for _, h := range headings {
			op.printf("%s%s %s\n", strings.Repeat("  ", h.Level), h.Text, ui.Hint("#"+h.Anchor))
		}
	}

	op.println()
	display := op.display()
	if showRaw || !display.IsTTY {
		op.println(strings.TrimRight(c.Content, "\n"))
		return nil
	}
	rendered, err := ui.RenderMarkdown(c.Content, ui.MarkdownOptions{
		Width:     display.AvailableWidth(ui.MarkdownRenderMargin),
		CodeTheme: op.cfg.UI.CodeTheme,
		Emphasize: command.PlaceholderPattern(),
	})
	if err != nil {
		op.logger.Debug("markdown render failed", "error", err)
		op.println(c.Content)
		return nil
	}
	op.printf("%s", rendered)
	return nil
}

func argLabel(arg command.Argument) string {
	label := "[" + arg.Name + "]"
	if arg.Required {
		label = "<" + arg.Name + ">"
	}
	if arg.Default != "" {
		label += fmt.Sprintf(" (default %q)", arg.Default)
	}
	return label
}

func sourceLabel(s command.Source) string {
	if s.Kind == "" {
		return ""
	}
	if loc := s.Locator(); loc != "" {
		return fmt.Sprintf("%s %s", s.Kind, loc)
	}
	return string(s.Kind)
}

func init() {
	showCmd.Flags().BoolVar(&showRaw, "raw", false, "Print the body without markdown rendering")
	rootCmd.AddCommand(showCmd)
}
