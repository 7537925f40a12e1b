// Package store persists commands as markdown documents.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/DreamCats/opencommands/internal/atomicfile"
	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/frontmatter"
	"github.com/DreamCats/opencommands/internal/parser"
)

// TargetPath returns <dir>/<namespace>/<name>.md, or <dir>/<name>.md for
// commands without a namespace.
func TargetPath(dir string, cmd *command.Command) string {
	file := cmd.Name + ".md"
	if cmd.Namespace == "" {
		return filepath.Join(dir, file)
	}
	return filepath.Join(dir, cmd.Namespace, file)
}

// Render returns the persisted document for cmd.
func Render(cmd *command.Command) string {
	return frontmatter.Serialize(headerFields(cmd), cmd.Content)
}

// Save writes cmd under dir and returns the file path.
func Save(dir string, cmd *command.Command) (string, error) {
	if !command.ValidIdent(cmd.Name) {
		return "", fmt.Errorf("save %q: invalid command name", cmd.Name)
	}
	if cmd.Namespace != "" && !command.ValidIdent(cmd.Namespace) {
		return "", fmt.Errorf("save %q: invalid namespace %q", cmd.Name, cmd.Namespace)
	}

	path := TargetPath(dir, cmd)
	if err := atomicfile.WriteString(path, Render(cmd), 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", cmd.Key(), err)
	}
	return path, nil
}

// Delete removes a command file. A missing file is not an error.
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// Dir is a Persister bound to one command directory.
type Dir string

// Save writes cmd under the directory.
func (d Dir) Save(cmd *command.Command) (string, error) {
	return Save(string(d), cmd)
}

func headerFields(cmd *command.Command) []frontmatter.Field {
	md := cmd.Metadata
	fields := []frontmatter.Field{
		{Key: parser.KeyName, Value: cmd.Name},
		{Key: parser.KeyNamespace, Value: cmd.Namespace},
		{Key: parser.KeyVersion, Value: cmd.Version},
		{Key: parser.KeyDescription, Value: cmd.Description},
		{Key: parser.KeyAuthor, Value: md.Author},
		{Key: parser.KeyTags, Value: md.Tags},
		{Key: parser.KeyArgs, Value: argValues(md.Args)},
		{Key: parser.KeyAllowedTools, Value: md.AllowedTools},
		{Key: parser.KeyModel, Value: md.Model},
	}

	custom := make([]string, 0, len(md.Custom))
	for k := range md.Custom {
		custom = append(custom, k)
	}
	sort.Strings(custom)
	for _, k := range custom {
		fields = append(fields, frontmatter.Field{Key: k, Value: md.Custom[k]})
	}
	return fields
}

func argValues(args []command.Argument) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, 0, len(args))
	for _, a := range args {
		m := frontmatter.Map{
			{Key: "name", Value: a.Name},
			{Key: "required", Value: a.Required},
		}
		if a.Description != "" {
			m = append(m, frontmatter.Field{Key: "description", Value: a.Description})
		}
		if a.Default != "" {
			m = append(m, frontmatter.Field{Key: "default", Value: a.Default})
		}
		out = append(out, m)
	}
	return out
}
