package sources

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/loader"
)

// hintRoot makes files at a repository root land in the default namespace.
const hintRoot = "commands"

// CloneFunc clones url into dir.
type CloneFunc func(ctx context.Context, url, dir string) error

// Git shallow-clones a repository into a temp dir and loads its commands.
// The locator may carry a subdirectory after '#', e.g. "owner/repo#commands".
type Git struct {
	// Clone defaults to running `git clone --depth 1`.
	Clone CloneFunc
	// TempDir is the parent for clone directories; empty uses os.TempDir.
	TempDir string
}

func (g *Git) Kind() command.SourceKind { return command.SourceGit }

func (g *Git) Fetch(ctx context.Context, locator string) (*Result, error) {
	repo, subdir := splitSubdir(locator)
	url := NormalizeGitURL(repo)

	tempDir, err := os.MkdirTemp(g.TempDir, "opencommands-git-")
	if err != nil {
		return nil, fetchError(command.SourceGit, locator, fmt.Errorf("create temp dir: %w", err))
	}
	defer func() {
		_ = os.RemoveAll(tempDir)
	}()

	clone := g.Clone
	if clone == nil {
		clone = gitClone
	}
	if err := clone(ctx, url, tempDir); err != nil {
		return nil, fetchError(command.SourceGit, locator, err)
	}

	root := tempDir
	if subdir != "" {
		root = filepath.Join(tempDir, filepath.FromSlash(subdir))
		if err := ensureWithin(tempDir, root); err != nil {
			return nil, fetchError(command.SourceGit, locator, fmt.Errorf("subdirectory %q: %w", subdir, err))
		}
	}

	res, err := loader.LoadPath(root, loader.Options{
		Source:   command.Source{Kind: command.SourceGit, URL: url, Path: subdir},
		HintRoot: hintRoot,
	})
	if err != nil {
		return nil, fetchError(command.SourceGit, locator, err)
	}

	// The clone is about to disappear; keep repo-relative paths only.
	for _, cmd := range res.Commands {
		cmd.Path = repoRelative(tempDir, cmd.Path)
	}
	for i := range res.Skipped {
		res.Skipped[i].Path = repoRelative(tempDir, res.Skipped[i].Path)
	}
	return fromLoad(res), nil
}

func gitClone(ctx context.Context, url, dir string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", "--quiet", url, dir)
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = exitErr.Error()
			}
			return fmt.Errorf("git clone %s: %s", url, msg)
		}
		return fmt.Errorf("git clone %s: %w", url, err)
	}
	return nil
}

func splitSubdir(locator string) (string, string) {
	repo, subdir, _ := strings.Cut(locator, "#")
	return repo, strings.Trim(subdir, "/")
}

func repoRelative(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

var (
	shorthandPattern = regexp.MustCompile(`^[A-Za-z0-9-]+/[A-Za-z0-9_.-]+$`)
	httpGitPattern   = regexp.MustCompile(`^https?://.*\.git$`)
	sshGitPattern    = regexp.MustCompile(`^git@.*:.*\.git$`)
	hostedGitPattern = regexp.MustCompile(`^https?://(github|gitlab)\.com/`)
)

// IsGitURL reports whether s looks like a git repository reference:
// owner/repo shorthand, an http(s) or ssh URL ending in .git, or a
// GitHub or GitLab URL. A "#subdir" suffix is ignored.
func IsGitURL(s string) bool {
	repo, _ := splitSubdir(strings.TrimSpace(s))
	return shorthandPattern.MatchString(repo) ||
		httpGitPattern.MatchString(repo) ||
		sshGitPattern.MatchString(repo) ||
		hostedGitPattern.MatchString(repo)
}

// NormalizeGitURL expands owner/repo shorthand to a GitHub https URL.
func NormalizeGitURL(s string) string {
	s = strings.TrimSpace(s)
	if shorthandPattern.MatchString(s) {
		return "https://github.com/" + s + ".git"
	}
	return s
}
