// Package frontmatter reads and writes the YAML header block of command documents.
package frontmatter

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes the header block.
const Delimiter = "---"

// Document is a split command document.
type Document struct {
	// Attributes are the decoded header values keyed by header key.
	Attributes map[string]any

	// Body is the trimmed text after the header.
	Body string

	// HasHeader is false when the document had no (closed) header block.
	HasHeader bool

	// scalars holds the literal text of top-level scalar values, so "1.0"
	// stays "1.0" instead of becoming a float.
	scalars map[string]string
}

// Scalar returns the literal text of a top-level scalar header value.
// Null and missing values report false.
func (d *Document) Scalar(key string) (string, bool) {
	if d == nil || d.scalars == nil {
		return "", false
	}
	s, ok := d.scalars[key]
	return s, ok
}

// Bounds returns the index of the closing delimiter line.
// It only detects a header when the first line is the delimiter.
// If the header is present but unclosed, end is -1.
func Bounds(lines []string) (end int, ok bool) {
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != Delimiter {
		return -1, false
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == Delimiter {
			return i, true
		}
	}
	return -1, true
}

// Parse splits content into header attributes and body.
// A document without a closed header yields empty attributes and the whole
// content as body.
func Parse(content string) (*Document, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	lines := strings.Split(content, "\n")

	end, ok := Bounds(lines)
	if !ok || end == -1 {
		return &Document{
			Attributes: map[string]any{},
			Body:       strings.TrimSpace(content),
		}, nil
	}

	header := QuoteColonValues(strings.Join(lines[1:end], "\n"))

	var root yaml.Node
	if err := yaml.Unmarshal([]byte(header), &root); err != nil {
		return nil, fmt.Errorf("invalid YAML frontmatter: %w", err)
	}

	doc := &Document{
		Attributes: map[string]any{},
		Body:       strings.TrimSpace(strings.Join(lines[end+1:], "\n")),
		HasHeader:  true,
		scalars:    map[string]string{},
	}

	// Empty or comment-only headers decode to an empty node.
	if root.Kind == 0 || len(root.Content) == 0 {
		return doc, nil
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("invalid YAML frontmatter: header must be a mapping")
	}

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode, valueNode := mapping.Content[i], mapping.Content[i+1]

		var value any
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("invalid YAML frontmatter: key %q: %w", keyNode.Value, err)
		}
		doc.Attributes[keyNode.Value] = value

		if valueNode.Kind == yaml.ScalarNode && valueNode.Tag != "!!null" {
			doc.scalars[keyNode.Value] = valueNode.Value
		}
	}

	return doc, nil
}

// QuoteColonValues wraps unquoted header values that contain a colon in
// double quotes, so "description: Fix: bug" stays a single string.
// Values already starting with a quote, bracket or brace are left alone.
func QuoteColonValues(header string) string {
	lines := strings.Split(header, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		idx := strings.Index(line, ":")
		if idx <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		if key == "" || !strings.Contains(value, ":") {
			continue
		}
		if strings.HasPrefix(value, `"`) || strings.HasPrefix(value, "'") ||
			strings.HasPrefix(value, "[") || strings.HasPrefix(value, "{") {
			continue
		}

		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		escaped := strings.ReplaceAll(value, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		lines[i] = fmt.Sprintf(`%s%s: "%s"`, indent, key, escaped)
	}
	return strings.Join(lines, "\n")
}
