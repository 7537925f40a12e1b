// Package search ranks registered commands against a free-text query.
package search

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/DreamCats/opencommands/internal/registry"
)

// Source is anything that can list registered entries.
type Source interface {
	All() []registry.Entry
}

// Options controls matching.
type Options struct {
	// Fuzzy enables the subsequence fallback when no exact match exists.
	Fuzzy bool
	// Limit caps the result count. Zero or negative means unlimited.
	Limit int
}

// Result is one ranked match.
type Result struct {
	registry.Entry
	Fuzzy bool `json:"fuzzy"`
}

// Run returns the entries matching query.
//
// Exact matching looks for the query, untrimmed, as a case-insensitive
// substring of the name, namespace, description, and tags joined by spaces. Only when that finds nothing and
// fuzzy matching is requested, entries whose name, namespace, or description
// contain the query characters in order are returned instead.
// Name-prefix matches rank first, then results sort by name.
func Run(src Source, query string, opts Options) []Result {
	fold := cases.Fold()
	q := fold.String(query)
	entries := src.All()

	var results []Result
	for _, e := range entries {
		if strings.Contains(fold.String(exactHaystack(e)), q) {
			results = append(results, Result{Entry: e})
		}
	}

	if len(results) == 0 && opts.Fuzzy && q != "" {
		for _, e := range entries {
			if isSubsequence(q, fold.String(fuzzyHaystack(e))) {
				results = append(results, Result{Entry: e, Fuzzy: true})
			}
		}
	}

	rank(results, q, fold)

	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results
}

func exactHaystack(e registry.Entry) string {
	c := e.Command
	parts := []string{c.Name, c.Namespace, c.Description}
	parts = append(parts, c.Metadata.Tags...)
	return strings.Join(parts, " ")
}

func fuzzyHaystack(e registry.Entry) string {
	c := e.Command
	return strings.Join([]string{c.Name, c.Namespace, c.Description}, " ")
}

// isSubsequence reports whether every rune of needle appears in haystack in order.
func isSubsequence(needle, haystack string) bool {
	want := []rune(needle)
	i := 0
	for _, r := range haystack {
		if i == len(want) {
			break
		}
		if r == want[i] {
			i++
		}
	}
	return i == len(want)
}

func rank(results []Result, q string, fold cases.Caser) {
	prefix := make([]bool, len(results))
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = fold.String(r.Command.Name)
		prefix[i] = q != "" && strings.HasPrefix(names[i], q)
	}

	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ia, ib := idx[a], idx[b]
		if prefix[ia] != prefix[ib] {
			return prefix[ia]
		}
		if names[ia] != names[ib] {
			return names[ia] < names[ib]
		}
		return results[ia].Key() < results[ib].Key()
	})

	sorted := make([]Result, len(results))
	for i, j := range idx {
		sorted[i] = results[j]
	}
	copy(results, sorted)
}
