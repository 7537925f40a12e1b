// Package command defines the canonical command template entity.
package command

import (
	"maps"
	"regexp"
	"strings"
)

const (
	// DefaultVersion is applied when a document declares no version.
	DefaultVersion = "1.0.0"

	// DefaultDescription is applied when a document declares no description.
	DefaultDescription = "No description provided"
)

var identPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidIdent reports whether s is usable as a command name or namespace.
func ValidIdent(s string) bool {
	return identPattern.MatchString(s)
}

// SourceKind identifies where a command came from.
type SourceKind string

const (
	SourceGit      SourceKind = "git"
	SourceLocal    SourceKind = "local"
	SourceArchive  SourceKind = "archive"
	SourceNPM      SourceKind = "npm"
	SourceRegistry SourceKind = "registry"
)

// Source describes the origin of a command.
type Source struct {
	Kind SourceKind `json:"type"`
	URL  string     `json:"url,omitempty"`
	Path string     `json:"path,omitempty"`
}

// Locator returns the URL or path, whichever is set.
func (s Source) Locator() string {
	if s.URL != "" {
		return s.URL
	}
	return s.Path
}

// Argument is a declared template argument.
type Argument struct {
	Name        string `json:"name"`
	Required    bool   `json:"required"`
	Description string `json:"description,omitempty"`
	Default     string `json:"default,omitempty"`
}

// Metadata holds the normalized header fields that are not part of identity.
type Metadata struct {
	Author       string         `json:"author,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	Args         []Argument     `json:"args,omitempty"`
	AllowedTools []string       `json:"allowed_tools,omitempty"`
	Model        string         `json:"model,omitempty"`
	Custom       map[string]any `json:"custom,omitempty"`
}

// Command is a parameterized text template.
type Command struct {
	Name        string   `json:"name"`
	Namespace   string   `json:"namespace,omitempty"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Metadata    Metadata `json:"metadata"`
	Source      Source   `json:"source"`

	// Path is the file the command was loaded from, if any.
	Path string `json:"path,omitempty"`
}

// Key returns the identity key for a name and optional namespace.
func Key(name, namespace string) string {
	if namespace == "" {
		return name
	}
	return namespace + ":" + name
}

// Key returns the command's identity key.
func (c *Command) Key() string {
	return Key(c.Name, c.Namespace)
}

// FullName is the user-facing name; identical to Key.
func (c *Command) FullName() string {
	return c.Key()
}

// SameIdentity reports whether both commands share name and namespace exactly.
func (c *Command) SameIdentity(other *Command) bool {
	return other != nil && c.Name == other.Name && c.Namespace == other.Namespace
}

// Type returns the custom "type" header field, if it is a string.
func (c *Command) Type() string {
	if c.Metadata.Custom == nil {
		return ""
	}
	s, _ := c.Metadata.Custom["type"].(string)
	return s
}

// HasTag reports whether the command carries tag.
func (c *Command) HasTag(tag string) bool {
	for _, t := range c.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ArgumentString renders declared args as "<required> [optional]".
func (c *Command) ArgumentString() string {
	if len(c.Metadata.Args) == 0 {
		return ""
	}
	parts := make([]string, 0, len(c.Metadata.Args))
	for _, arg := range c.Metadata.Args {
		if arg.Required {
			parts = append(parts, "<"+arg.Name+">")
		} else {
			parts = append(parts, "["+arg.Name+"]")
		}
	}
	return strings.Join(parts, " ")
}

// Clone returns a deep copy. Custom field values are copied one level deep.
func (c *Command) Clone() *Command {
	if c == nil {
		return nil
	}
	out := *c
	out.Metadata.Tags = append([]string(nil), c.Metadata.Tags...)
	out.Metadata.Args = append([]Argument(nil), c.Metadata.Args...)
	out.Metadata.AllowedTools = append([]string(nil), c.Metadata.AllowedTools...)
	if c.Metadata.Custom != nil {
		out.Metadata.Custom = maps.Clone(c.Metadata.Custom)
	}
	return &out
}
