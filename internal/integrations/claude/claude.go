// Package claude exports commands in the layout Claude Code reads: an
// AGENTS.md index and one file per command under .claude/commands.
package claude

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DreamCats/opencommands/internal/atomicfile"
	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/frontmatter"
	"github.com/DreamCats/opencommands/internal/store"
)

const (
	AgentsFile  = "AGENTS.md"
	CommandsDir = ".claude/commands"

	markerStart = "<!-- OPENCOMMANDS:START -->"
	markerEnd   = "<!-- OPENCOMMANDS:END -->"
)

// SkillsXML renders the <available_skills> registry block.
func SkillsXML(cmds []*command.Command) string {
	var b strings.Builder
	b.WriteString("<available_skills>\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "  <skill>%s: %s</skill>\n", c.FullName(), c.Description)
	}
	b.WriteString("</available_skills>")
	return b.String()
}

// HelpLine renders "/name <args> - description".
func HelpLine(c *command.Command) string {
	parts := []string{"/" + c.FullName()}
	if args := c.ArgumentString(); args != "" {
		parts = append(parts, args)
	}
	return strings.Join(parts, " ") + " - " + c.Description
}

// AgentsMarkdown renders AGENTS.md. Commands are listed grouped by
// namespace, with unnamespaced commands first.
func AgentsMarkdown(cmds []*command.Command) string {
	groups := make(map[string][]*command.Command)
	for _, c := range cmds {
		groups[c.Namespace] = append(groups[c.Namespace], c)
	}
	namespaces := make([]string, 0, len(groups))
	for ns := range groups {
		namespaces = append(namespaces, ns)
	}
	sort.Strings(namespaces)

	var b strings.Builder
	b.WriteString(markerStart + "\n")
	b.WriteString(SkillsXML(cmds) + "\n")
	b.WriteString(markerEnd + "\n\n")
	b.WriteString("## Available Commands\n")

	for _, ns := range namespaces {
		group := groups[ns]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Name < group[j].Name })

		b.WriteString("\n")
		if ns != "" {
			fmt.Fprintf(&b, "### %s\n\n", ns)
		}
		for _, c := range group {
			b.WriteString(HelpLine(c) + "\n")
		}
	}

	b.WriteString(`
## Usage

Use slash commands to quickly access these capabilities:
- Type "/" to see available commands
- Use Tab for autocompletion
- Commands support arguments and options
`)
	return b.String()
}

// ToClaudeCommand renders cmd as a .claude/commands document.
func ToClaudeCommand(c *command.Command) string {
	return frontmatter.Serialize([]frontmatter.Field{
		{Key: "description", Value: c.Description},
		{Key: "allowed-tools", Value: c.Metadata.AllowedTools},
		{Key: "argument-hint", Value: c.ArgumentString()},
		{Key: "model", Value: c.Metadata.Model},
	}, c.Content)
}

// Export is the set of files an export writes, relative to Root.
type Export struct {
	Root   string   `json:"root"`
	Files  []string `json:"files"`
	DryRun bool     `json:"dry_run"`
}

// Write exports cmds under root. Namespaced commands go to a subdirectory
// named after the namespace so Claude Code shows them as "namespace:name".
// With dryRun nothing is written and the returned Export lists what would be.
func Write(root string, cmds []*command.Command, dryRun bool) (*Export, error) {
	out := &Export{Root: root, DryRun: dryRun}

	type file struct {
		path    string
		content string
	}
	files := []file{{path: filepath.Join(root, AgentsFile), content: AgentsMarkdown(cmds)}}
	dir := filepath.Join(root, filepath.FromSlash(CommandsDir))
	for _, c := range cmds {
		files = append(files, file{path: store.TargetPath(dir, c), content: ToClaudeCommand(c)})
	}

	for _, f := range files {
		out.Files = append(out.Files, f.path)
		if dryRun {
			continue
		}
		if err := atomicfile.WriteString(f.path, f.content, 0o644); err != nil {
			return out, fmt.Errorf("export %s: %w", f.path, err)
		}
	}
	return out, nil
}
