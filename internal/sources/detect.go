package sources

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/config"
)

// Options carries shared dependencies for constructed sources.
type Options struct {
	HTTPClient *http.Client
	TempDir    string
}

// ForKind returns the source implementation for kind.
func ForKind(kind command.SourceKind, opts Options) (Source, error) {
	switch kind {
	case command.SourceLocal:
		return Local{}, nil
	case command.SourceGit:
		return &Git{TempDir: opts.TempDir}, nil
	case command.SourceArchive:
		return &Archive{HTTPClient: opts.HTTPClient, TempDir: opts.TempDir}, nil
	default:
		return nil, fmt.Errorf("unsupported source type %q", kind)
	}
}

// Detect guesses the source kind for a user-supplied locator.
// Existing filesystem paths win over git shorthand, so "dir/sub" that exists
// locally loads from disk.
func Detect(locator string) (command.SourceKind, error) {
	repo, _ := splitSubdir(locator)
	if _, err := os.Stat(locator); err == nil {
		return command.SourceLocal, nil
	}
	switch {
	case isArchiveURL(repo):
		return command.SourceArchive, nil
	case IsGitURL(locator):
		return command.SourceGit, nil
	default:
		return "", fmt.Errorf("unknown source %q: provide a git URL, an archive URL, or an existing local path", locator)
	}
}

func isArchiveURL(s string) bool {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return false
	}
	return strings.HasSuffix(s, ".tar.gz") || strings.HasSuffix(s, ".tgz") ||
		strings.Contains(s, "codeload.github.com/")
}

// ForConfig returns the source and locator for a configured entry.
func ForConfig(sc config.SourceConfig, opts Options) (Source, string, error) {
	kind := command.SourceKind(strings.TrimSpace(sc.Type))
	if kind == "" {
		detected, err := Detect(sc.Locator())
		if err != nil {
			return nil, "", err
		}
		kind = detected
	}
	src, err := ForKind(kind, opts)
	if err != nil {
		return nil, "", err
	}
	locator := sc.Locator()
	if kind == command.SourceLocal {
		locator = config.ExpandHome(locator)
	}
	return src, locator, nil
}
