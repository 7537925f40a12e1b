// Package shellquote quotes arguments shown in copy-pasteable command hints.
package shellquote

import "strings"

// Quote wraps s in single quotes, escaping any internal single quotes.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// QuoteIfNeeded quotes strings that a POSIX shell would split or expand.
func QuoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n#[]()|!\"'$&;<>*?`\\{}~") {
		return Quote(s)
	}
	return s
}

// Join quotes each word as needed and joins them with spaces.
func Join(words ...string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = QuoteIfNeeded(w)
	}
	return strings.Join(quoted, " ")
}
