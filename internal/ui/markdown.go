package ui

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
)

// MarkdownRenderMargin is the left margin glamour puts around rendered bodies.
const MarkdownRenderMargin = 2

// MarkdownOptions tunes terminal rendering of command bodies.
type MarkdownOptions struct {
	Width int
	// CodeTheme is a chroma style name for fenced code blocks.
	CodeTheme string
	// Emphasize matches tokens that render as inline code when they appear
	// in prose. Fenced blocks and existing code spans are left alone.
	Emphasize *regexp.Regexp
}

// RenderMarkdown renders a command body for terminal display.
func RenderMarkdown(content string, opts MarkdownOptions) (string, error) {
	width := opts.Width
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStyles(commandMarkdownStyle(opts.CodeTheme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}

	if opts.Emphasize != nil {
		content = emphasizeTokens(content, opts.Emphasize)
	}
	rendered, err := r.Render(content)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(rendered, "\n") + "\n", nil
}

// emphasizeTokens wraps every match of pattern in backticks, skipping fenced
// blocks and text already inside a code span.
func emphasizeTokens(content string, pattern *regexp.Regexp) string {
	lines := strings.Split(content, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}

		// Even segments are prose; odd ones sit between backticks.
		parts := strings.Split(line, "`")
		for j := 0; j < len(parts); j += 2 {
			parts[j] = pattern.ReplaceAllString(parts[j], "`$0`")
		}
		lines[i] = strings.Join(parts, "`")
	}
	return strings.Join(lines, "\n")
}

func commandMarkdownStyle(codeTheme string) ansi.StyleConfig {
	muted := ptr("8")
	var accent *string
	if color, ok := AccentColor(); ok {
		accent = ptr(color)
	}

	style := ansi.StyleConfig{
		Document: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockPrefix: "\n", BlockSuffix: "\n"},
			Margin:         ptr(uint(MarkdownRenderMargin)),
		},
		BlockQuote: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: muted, Italic: ptr(true)},
			Indent:         ptr(uint(1)),
			IndentToken:    ptr("▍ "),
		},
		List: ansi.StyleList{LevelIndent: 2},
		Heading: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{BlockSuffix: "\n", Color: accent, Bold: ptr(true)},
		},
		Emph:           ansi.StylePrimitive{Italic: ptr(true)},
		Strong:         ansi.StylePrimitive{Bold: ptr(true)},
		Strikethrough:  ansi.StylePrimitive{CrossedOut: ptr(true)},
		HorizontalRule: ansi.StylePrimitive{Color: muted, Format: "\n────────\n"},
		Item:           ansi.StylePrimitive{BlockPrefix: "• "},
		Enumeration:    ansi.StylePrimitive{BlockPrefix: ". "},
		Task:           ansi.StyleTask{Ticked: "[x] ", Unticked: "[ ] "},
		Link:           ansi.StylePrimitive{Color: muted, Underline: ptr(true)},
		LinkText:       ansi.StylePrimitive{Bold: ptr(true)},
		// Placeholders are emphasized as inline code, so they get the accent.
		Code: ansi.StyleBlock{
			StylePrimitive: ansi.StylePrimitive{Color: accent, Prefix: "`", Suffix: "`"},
		},
		CodeBlock: ansi.StyleCodeBlock{
			StyleBlock: ansi.StyleBlock{Margin: ptr(uint(MarkdownRenderMargin))},
			Theme:      codeTheme,
		},
		Table: ansi.StyleTable{
			CenterSeparator: ptr("┼"),
			ColumnSeparator: ptr("│"),
			RowSeparator:    ptr("─"),
		},
	}

	headings := []*ansi.StyleBlock{&style.H1, &style.H2, &style.H3, &style.H4, &style.H5, &style.H6}
	for i, h := range headings {
		h.Prefix = strings.Repeat("#", i+1) + " "
	}
	return style
}

func ptr[T any](v T) *T { return &v }
