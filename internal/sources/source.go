// Package sources fetches command collections from local directories, git
// repositories, and HTTP archives.
package sources

import (
	"context"
	"fmt"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/loader"
)

// Result is what a fetch produced.
type Result struct {
	Commands []*command.Command
	Skipped  []loader.Skipped
}

// Source fetches every command found at a locator.
type Source interface {
	Kind() command.SourceKind
	Fetch(ctx context.Context, locator string) (*Result, error)
}

// SourceFetchError wraps any failure while fetching from a source.
type SourceFetchError struct {
	Kind    command.SourceKind
	Locator string
	Err     error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("fetch %s source %s: %v", e.Kind, e.Locator, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

func fetchError(kind command.SourceKind, locator string, err error) error {
	if err == nil {
		return nil
	}
	return &SourceFetchError{Kind: kind, Locator: locator, Err: err}
}

func fromLoad(res *loader.Result) *Result {
	return &Result{Commands: res.Commands, Skipped: res.Skipped}
}
