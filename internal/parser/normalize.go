// Package parser normalizes raw command documents into canonical commands.
package parser

import (
	"fmt"
	"strings"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/frontmatter"
)

// Recognized header keys. Everything else is kept as a custom field.
const (
	KeyName         = "name"
	KeyNamespace    = "namespace"
	KeyVersion      = "version"
	KeyDescription  = "description"
	KeyAuthor       = "author"
	KeyTags         = "tags"
	KeyArgs         = "args"
	KeyAllowedTools = "allowed-tools"
	KeyModel        = "model"
)

var recognizedKeys = map[string]bool{
	KeyName:         true,
	KeyNamespace:    true,
	KeyVersion:      true,
	KeyDescription:  true,
	KeyAuthor:       true,
	KeyTags:         true,
	KeyArgs:         true,
	KeyAllowedTools: true,
	KeyModel:        true,
}

// Normalize converts raw document text into a command.
//
// pathHint is the file the text came from (may be empty); it is used to
// derive a missing name or namespace and to tag validation errors.
// Validation problems are returned together as a *ValidationError.
func Normalize(content, pathHint string, source command.Source) (*command.Command, error) {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pathLabel(pathHint), err)
	}

	name, _ := scalarText(doc, KeyName)
	namespace, _ := scalarText(doc, KeyNamespace)
	name, namespace = ResolveIdentity(name, namespace, pathHint)

	cmd := &command.Command{
		Name:        name,
		Namespace:   namespace,
		Version:     command.DefaultVersion,
		Description: command.DefaultDescription,
		Content:     doc.Body,
		Source:      source,
		Path:        pathHint,
	}
	if v, ok := scalarText(doc, KeyVersion); ok {
		cmd.Version = v
	}
	if d, ok := scalarText(doc, KeyDescription); ok {
		cmd.Description = d
	}

	var problems []string

	cmd.Metadata.Author, _ = scalarText(doc, KeyAuthor)
	cmd.Metadata.Model, _ = scalarText(doc, KeyModel)
	cmd.Metadata.Tags = normalizeList(doc.Attributes[KeyTags])
	cmd.Metadata.AllowedTools = normalizeList(doc.Attributes[KeyAllowedTools])

	args, argProblems := normalizeArgs(doc.Attributes[KeyArgs])
	cmd.Metadata.Args = args
	problems = append(problems, argProblems...)

	for key, value := range doc.Attributes {
		if recognizedKeys[key] {
			continue
		}
		if cmd.Metadata.Custom == nil {
			cmd.Metadata.Custom = make(map[string]any)
		}
		cmd.Metadata.Custom[key] = value
	}

	problems = append(identityProblems(cmd.Name, cmd.Namespace), problems...)
	if len(problems) > 0 {
		return nil, &ValidationError{Path: pathLabel(pathHint), Problems: problems}
	}

	return cmd, nil
}

func identityProblems(name, namespace string) []string {
	var problems []string
	switch {
	case name == "":
		problems = append(problems, "command name is required")
	case !command.ValidIdent(name):
		problems = append(problems, fmt.Sprintf("invalid command name %q: must contain only alphanumeric characters, hyphens, and underscores", name))
	}
	if namespace != "" && !command.ValidIdent(namespace) {
		problems = append(problems, fmt.Sprintf("invalid namespace %q: must contain only alphanumeric characters, hyphens, and underscores", namespace))
	}
	return problems
}

// scalarText returns a trimmed, non-empty header scalar.
func scalarText(doc *frontmatter.Document, key string) (string, bool) {
	s, ok := doc.Scalar(key)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func pathLabel(pathHint string) string {
	if pathHint == "" {
		return "content"
	}
	return pathHint
}
