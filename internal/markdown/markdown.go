// Package markdown extracts outlines and excerpts from command bodies.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/DreamCats/opencommands/internal/slugs"
)

// Heading is one heading in a body.
type Heading struct {
	Level  int    `json:"level"`
	Text   string `json:"text"`
	Anchor string `json:"anchor"`
	Line   int    `json:"line"` // 1-indexed
}

func parse(content string) ast.Node {
	return goldmark.New().Parser().Parse(text.NewReader([]byte(content)))
}

// Headings returns every non-empty heading in content.
func Headings(content string) []Heading {
	var headings []Heading
	src := []byte(content)
	lineStarts := computeLineStarts(content)

	_ = ast.Walk(parse(content), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		headingText := strings.TrimSpace(inlineText(heading, src))
		if headingText == "" {
			return ast.WalkSkipChildren, nil
		}

		line := 1
		if heading.Lines().Len() > 0 {
			line += offsetToLine(lineStarts, heading.Lines().At(0).Start)
		}

		headings = append(headings, Heading{
			Level:  heading.Level,
			Text:   headingText,
			Anchor: slugs.HeadingSlug(headingText),
			Line:   line,
		})
		return ast.WalkSkipChildren, nil
	})

	return headings
}

// Excerpt returns the plain text of the first paragraph, cut to at most max
// runes with an ellipsis. max <= 0 disables the cut.
func Excerpt(content string, max int) string {
	src := []byte(content)
	var excerpt string

	_ = ast.Walk(parse(content), func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || excerpt != "" {
			return ast.WalkContinue, nil
		}
		if _, ok := n.(*ast.Paragraph); !ok {
			return ast.WalkContinue, nil
		}
		excerpt = strings.Join(strings.Fields(inlineText(n, src)), " ")
		if excerpt != "" {
			return ast.WalkStop, nil
		}
		return ast.WalkSkipChildren, nil
	})

	return truncate(excerpt, max)
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			switch c := child.(type) {
			case *ast.Text:
				b.Write(c.Segment.Value(src))
				if c.SoftLineBreak() || c.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(c.Value)
			default:
				walk(child)
			}
		}
	}
	walk(n)
	return b.String()
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

func computeLineStarts(content string) []int {
	starts := []int{0}
	for i, c := range content {
		if c == '\n' && i+1 < len(content) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func offsetToLine(lineStarts []int, offset int) int {
	for i := len(lineStarts) - 1; i >= 0; i-- {
		if lineStarts[i] <= offset {
			return i
		}
	}
	return 0
}
