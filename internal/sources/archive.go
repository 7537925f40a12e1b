package sources

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/loader"
)

const (
	fetchRequestTimeout = 60 * time.Second
	maxArchiveFileSize  = 1 << 20
)

// Archive downloads a .tar.gz over HTTP, unpacks the markdown files into a
// staging dir, and loads them. The locator may carry "#subdir" to restrict
// loading to one directory inside the archive.
//
// A single top-level directory (as produced by GitHub tarballs) is stripped.
type Archive struct {
	HTTPClient *http.Client
	// TempDir is the parent for staging directories; empty uses os.TempDir.
	TempDir string
}

func (a *Archive) Kind() command.SourceKind { return command.SourceArchive }

func (a *Archive) Fetch(ctx context.Context, locator string) (*Result, error) {
	archiveURL, subdir := splitSubdir(locator)

	stagingDir, err := os.MkdirTemp(a.TempDir, "opencommands-archive-")
	if err != nil {
		return nil, fetchError(command.SourceArchive, locator, fmt.Errorf("create staging directory: %w", err))
	}
	defer func() {
		_ = os.RemoveAll(stagingDir)
	}()

	if err := a.download(ctx, archiveURL, stagingDir); err != nil {
		return nil, fetchError(command.SourceArchive, locator, err)
	}

	root := stagingDir
	if subdir != "" {
		root = filepath.Join(stagingDir, filepath.FromSlash(subdir))
		if err := ensureWithin(stagingDir, root); err != nil {
			return nil, fetchError(command.SourceArchive, locator, fmt.Errorf("subdirectory %q: %w", subdir, err))
		}
	}

	res, err := loader.LoadPath(root, loader.Options{
		Source:   command.Source{Kind: command.SourceArchive, URL: archiveURL, Path: subdir},
		HintRoot: hintRoot,
	})
	if err != nil {
		return nil, fetchError(command.SourceArchive, locator, err)
	}

	for _, cmd := range res.Commands {
		cmd.Path = repoRelative(stagingDir, cmd.Path)
	}
	for i := range res.Skipped {
		res.Skipped[i].Path = repoRelative(stagingDir, res.Skipped[i].Path)
	}
	return fromLoad(res), nil
}

func (a *Archive) download(ctx context.Context, archiveURL, stagingDir string) error {
	httpClient := a.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: fetchRequestTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return fmt.Errorf("build archive request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download archive: status %d", resp.StatusCode)
	}

	gzReader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	defer gzReader.Close()

	return extractMarkdown(tar.NewReader(gzReader), stagingDir)
}

func extractMarkdown(tarReader *tar.Reader, stagingDir string) error {
	type entry struct {
		name string
		data []byte
	}
	var entries []entry

	for {
		hdr, err := tarReader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("read archive entries: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !strings.HasSuffix(hdr.Name, ".md") {
			continue
		}

		clean, ok := cleanArchivePath(hdr.Name)
		if !ok {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tarReader, maxArchiveFileSize+1))
		if err != nil {
			return fmt.Errorf("read archive file %q: %w", clean, err)
		}
		if len(data) > maxArchiveFileSize {
			return fmt.Errorf("archive file %q exceeds %d bytes", clean, maxArchiveFileSize)
		}
		entries = append(entries, entry{name: clean, data: data})
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	prefix := commonTopDir(names)
	for _, e := range entries {
		relPath := strings.TrimPrefix(e.name, prefix)
		destPath := filepath.Join(stagingDir, filepath.FromSlash(relPath))
		if err := ensureWithin(stagingDir, destPath); err != nil {
			return fmt.Errorf("invalid archive path %q: %w", e.name, err)
		}
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return fmt.Errorf("create archive file directory: %w", err)
		}
		if err := os.WriteFile(destPath, e.data, 0o644); err != nil {
			return fmt.Errorf("write archive file %q: %w", relPath, err)
		}
	}
	return nil
}

func cleanArchivePath(name string) (string, bool) {
	clean := path.Clean(strings.TrimPrefix(strings.TrimSpace(name), "./"))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") || strings.HasPrefix(clean, "/") {
		return "", false
	}
	return clean, true
}

// commonTopDir returns "dir/" when every name lives under the same single
// top-level directory, and "" otherwise.
func commonTopDir(names []string) string {
	top := ""
	for _, name := range names {
		first, _, ok := strings.Cut(name, "/")
		if !ok {
			return ""
		}
		if top == "" {
			top = first
		} else if top != first {
			return ""
		}
	}
	if top == "" {
		return ""
	}
	return top + "/"
}

func ensureWithin(basePath, candidatePath string) error {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return err
	}
	candidateAbs, err := filepath.Abs(candidatePath)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(baseAbs, candidateAbs)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory")
	}
	return nil
}
