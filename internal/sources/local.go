package sources

import (
	"context"
	"path/filepath"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/loader"
)

// Local loads commands from a file or directory on disk.
type Local struct{}

func (Local) Kind() command.SourceKind { return command.SourceLocal }

func (Local) Fetch(ctx context.Context, locator string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fetchError(command.SourceLocal, locator, err)
	}

	path, err := filepath.Abs(locator)
	if err != nil {
		return nil, fetchError(command.SourceLocal, locator, err)
	}

	res, err := loader.LoadPath(path, loader.Options{
		Source: command.Source{Kind: command.SourceLocal, Path: path},
	})
	if err != nil {
		return nil, fetchError(command.SourceLocal, locator, err)
	}
	return fromLoad(res), nil
}
