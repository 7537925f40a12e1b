// Package loader reads command documents from the filesystem.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/parser"
)

// ErrPathOutsideRoot is reported for files that resolve outside the walk root.
var ErrPathOutsideRoot = errors.New("path is outside the command directory")

var skippedFiles = map[string]bool{
	"README.md":       true,
	"readme.md":       true,
	"README.markdown": true,
	"readme.markdown": true,
}

var skippedDirs = map[string]bool{
	"node_modules": true,
}

// WalkResult is the outcome of loading one file.
type WalkResult struct {
	Path         string
	RelativePath string
	Command      *command.Command
	Error        error
}

// Options controls how documents are loaded.
type Options struct {
	// Source is stamped on every loaded command.
	Source command.Source

	// HintRoot, when set, replaces the walk root in the path hint given to
	// the normalizer. Sources that load from throwaway directories use it so
	// derived namespaces do not depend on a temp dir name.
	HintRoot string
}

// Skipped records a document that failed to load.
type Skipped struct {
	Path string `json:"path"`
	Err  error  `json:"-"`
}

func (s Skipped) Error() string {
	return fmt.Sprintf("%s: %v", s.Path, s.Err)
}

// Result holds the commands loaded from a path plus every skipped document.
type Result struct {
	Commands []*command.Command
	Skipped  []Skipped
}

// WalkMarkdownFiles walks root and calls handler for every command document.
// It skips READMEs, node_modules, and every dot-file or dot-directory below
// root. A handler error stops the walk.
func WalkMarkdownFiles(root string, opts Options, handler func(WalkResult) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		relativePath, _ := filepath.Rel(root, path)
		if err != nil {
			if path == root {
				return err
			}
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: err})
		}

		if d.IsDir() {
			if path != root && (isHidden(d.Name()) || skippedDirs[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}

		if isHidden(d.Name()) || !isCommandFile(d.Name()) {
			return nil
		}

		if !withinRoot(root, path) {
			return handler(WalkResult{Path: path, RelativePath: relativePath, Error: ErrPathOutsideRoot})
		}

		hint := path
		if opts.HintRoot != "" {
			hint = filepath.Join(opts.HintRoot, relativePath)
		}

		cmd, err := loadFile(path, hint, opts.Source)
		return handler(WalkResult{
			Path:         path,
			RelativePath: relativePath,
			Command:      cmd,
			Error:        err,
		})
	})
}

// LoadDir loads every command under root. Per-file failures are collected in
// Result.Skipped and never abort the load; a missing root is an error.
func LoadDir(root string, opts Options) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("command directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("command directory %s: not a directory", root)
	}

	res := &Result{}
	err = WalkMarkdownFiles(root, opts, func(r WalkResult) error {
		if r.Error != nil {
			res.Skipped = append(res.Skipped, Skipped{Path: r.Path, Err: r.Error})
			return nil
		}
		res.Commands = append(res.Commands, r.Command)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// LoadFile loads a single document.
func LoadFile(path string, opts Options) (*command.Command, error) {
	hint := path
	if opts.HintRoot != "" {
		hint = filepath.Join(opts.HintRoot, filepath.Base(path))
	}
	return loadFile(path, hint, opts.Source)
}

// LoadPath loads a directory tree or a single file.
func LoadPath(path string, opts Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path, opts)
	}

	cmd, err := LoadFile(path, opts)
	if err != nil {
		return &Result{Skipped: []Skipped{{Path: path, Err: err}}}, nil
	}
	return &Result{Commands: []*command.Command{cmd}}, nil
}

func loadFile(path, hint string, src command.Source) (*command.Command, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cmd, err := parser.Normalize(string(content), hint, src)
	if err != nil {
		return nil, err
	}
	cmd.Path = path
	return cmd, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isCommandFile(name string) bool {
	return strings.HasSuffix(name, ".md") && !skippedFiles[name]
}

func withinRoot(root, path string) bool {
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
