package command

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\$(ARGUMENTS|[0-9]+|[A-Za-z_][A-Za-z0-9_-]*)`)

// PlaceholderPattern matches every token Substitute may expand.
func PlaceholderPattern() *regexp.Regexp {
	return placeholderPattern
}

// Substitute expands placeholders in the command body:
//
//	$ARGUMENTS  all args joined by a single space
//	$1, $2 ...  positional args (1-based)
//	$<name>     the declared arg at that position, or its default
//
// Placeholders that resolve to nothing are left untouched, except declared
// names, which expand to the empty string when neither a value nor a default exists.
func (c *Command) Substitute(args []string) string {
	return placeholderPattern.ReplaceAllStringFunc(c.Content, func(token string) string {
		ref := token[1:]

		if ref == "ARGUMENTS" {
			return strings.Join(args, " ")
		}

		if n, err := strconv.Atoi(ref); err == nil {
			if n >= 1 && n <= len(args) {
				return args[n-1]
			}
			return token
		}

		idx, name := c.longestArgPrefix(ref)
		if idx < 0 {
			return token
		}
		rest := ref[len(name):]
		if idx < len(args) && args[idx] != "" {
			return args[idx] + rest
		}
		return c.Metadata.Args[idx].Default + rest
	})
}

// longestArgPrefix finds the declared argument whose name is the longest
// prefix of ref, so "$target-dir" still resolves "$target" when only
// "target" is declared.
func (c *Command) longestArgPrefix(ref string) (int, string) {
	best, bestName := -1, ""
	for i, arg := range c.Metadata.Args {
		if arg.Name == "" || !strings.HasPrefix(ref, arg.Name) {
			continue
		}
		if len(arg.Name) > len(bestName) {
			best, bestName = i, arg.Name
		}
	}
	return best, bestName
}

// ValidateArgs checks supplied positional args against the declarations.
// Returns one message per problem; nil means the args are acceptable.
func (c *Command) ValidateArgs(args []string) []string {
	if len(c.Metadata.Args) == 0 {
		return nil
	}

	var problems []string
	for i, arg := range c.Metadata.Args {
		if !arg.Required {
			continue
		}
		if i >= len(args) || args[i] == "" {
			problems = append(problems, fmt.Sprintf("missing required argument: %s", arg.Name))
		}
	}

	if len(args) > len(c.Metadata.Args) {
		problems = append(problems, fmt.Sprintf("too many arguments: expected %d, got %d", len(c.Metadata.Args), len(args)))
	}

	return problems
}
