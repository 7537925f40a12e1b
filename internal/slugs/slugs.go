// Package slugs provides the slugification helpers used for command file
// names and heading anchors.
//
// Two strategies live here:
//   - Command slugs: file and command names generated by `ocmd new`, built on
//     gosimple/slug.
//   - Heading slugs: anchors for the section outline shown by `ocmd show`.
//     These keep non-ASCII letters intact.
package slugs

import (
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
)

// HeadingSlug converts a heading text to an anchor slug.
func HeadingSlug(text string) string {
	var result strings.Builder
	prevDash := false

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevDash = false
		case r == ' ' || r == '-' || r == '_' || r == ':':
			if !prevDash && result.Len() > 0 {
				result.WriteRune('-')
				prevDash = true
			}
		}
	}

	return strings.TrimSuffix(result.String(), "-")
}

// CommandName turns a free-form title into a command name.
//
// A trailing ".md" is dropped. When gosimple/slug produces nothing (a title
// made only of symbols), the lowercased title with spaces dashed is used.
func CommandName(title string) string {
	title = strings.TrimSpace(strings.TrimSuffix(title, ".md"))
	slugged := goslug.Make(title)
	if slugged == "" {
		slugged = strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	}
	return slugged
}

// QualifiedName slugs both sides of a "namespace:name" title separately so
// the colon survives.
func QualifiedName(title string) (namespace, name string) {
	if ns, rest, ok := strings.Cut(title, ":"); ok {
		return CommandName(ns), CommandName(rest)
	}
	return "", CommandName(title)
}
