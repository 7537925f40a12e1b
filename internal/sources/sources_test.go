package sources

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func keysOf(cmds []*command.Command) []string {
	var out []string
	for _, c := range cmds {
		out = append(out, c.Key())
	}
	return out
}

func TestLocalFetch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "git", "commit.md"), "---\nname: commit\n---\nbody")
	writeFile(t, filepath.Join(dir, "bad.md"), "---\nname: [x\n---\n")

	res, err := Local{}.Fetch(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"git:commit"}, keysOf(res.Commands))
	assert.Len(t, res.Skipped, 1)
	assert.Equal(t, command.SourceLocal, res.Commands[0].Source.Kind)
}

func TestLocalFetchMissing(t *testing.T) {
	_, err := Local{}.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope"))

	var fe *SourceFetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, command.SourceLocal, fe.Kind)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestGitFetchCleansUpTempDir(t *testing.T) {
	parent := t.TempDir()
	var cloneDir, clonedURL string

	g := &Git{
		TempDir: parent,
		Clone: func(ctx context.Context, url, dir string) error {
			clonedURL, cloneDir = url, dir
			writeFile(t, filepath.Join(dir, "review.md"), "Review the diff")
			writeFile(t, filepath.Join(dir, "ops", "deploy.md"), "---\nname: deploy\n---\nShip")
			writeFile(t, filepath.Join(dir, "README.md"), "# readme")
			return nil
		},
	}

	res, err := g.Fetch(context.Background(), "acme/cmds")
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/acme/cmds.git", clonedURL)
	assert.ElementsMatch(t, []string{"default:review", "ops:deploy"}, keysOf(res.Commands))
	for _, c := range res.Commands {
		assert.Equal(t, command.SourceGit, c.Source.Kind)
		assert.Equal(t, clonedURL, c.Source.URL)
		assert.False(t, filepath.IsAbs(c.Path), "paths are repo-relative")
	}

	_, statErr := os.Stat(cloneDir)
	assert.True(t, os.IsNotExist(statErr), "clone dir removed after success")
}

func TestGitFetchSubdir(t *testing.T) {
	g := &Git{
		TempDir: t.TempDir(),
		Clone: func(ctx context.Context, url, dir string) error {
			writeFile(t, filepath.Join(dir, "other.md"), "---\nname: other\n---\n")
			writeFile(t, filepath.Join(dir, "commands", "lint.md"), "---\nname: lint\n---\n")
			return nil
		},
	}

	res, err := g.Fetch(context.Background(), "https://github.com/acme/cmds.git#commands")
	require.NoError(t, err)
	assert.Equal(t, []string{"default:lint"}, keysOf(res.Commands))
	assert.Equal(t, "commands", res.Commands[0].Source.Path)

	_, err = g.Fetch(context.Background(), "https://github.com/acme/cmds.git#../escape")
	assert.Error(t, err)
}

func TestGitFetchCloneFailure(t *testing.T) {
	parent := t.TempDir()
	var cloneDir string
	boom := errors.New("auth required")

	g := &Git{
		TempDir: parent,
		Clone: func(ctx context.Context, url, dir string) error {
			cloneDir = dir
			return boom
		},
	}

	_, err := g.Fetch(context.Background(), "git@github.com:acme/private.git")

	var fe *SourceFetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, command.SourceGit, fe.Kind)
	assert.Equal(t, "git@github.com:acme/private.git", fe.Locator)
	assert.ErrorIs(t, err, boom)

	_, statErr := os.Stat(cloneDir)
	assert.True(t, os.IsNotExist(statErr), "clone dir removed after failure")
}

func TestIsGitURL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"DreamCats/my-commands", true},
		{"owner/repo.name", true},
		{"owner/repo#sub/dir", true},
		{"https://example.com/x/y.git", true},
		{"git@github.com:a/b.git", true},
		{"https://github.com/a/b", true},
		{"https://gitlab.com/a/b", true},
		{"https://example.com/a/b", false},
		{"./local/dir", false},
		{"/abs/path", false},
		{"a/b/c", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsGitURL(tt.in), tt.in)
	}
}

func TestNormalizeGitURL(t *testing.T) {
	assert.Equal(t, "https://github.com/a/b.git", NormalizeGitURL("a/b"))
	assert.Equal(t, "git@github.com:a/b.git", NormalizeGitURL("git@github.com:a/b.git"))
	assert.Equal(t, "https://gitlab.com/a/b", NormalizeGitURL(" https://gitlab.com/a/b "))
}

func TestDetect(t *testing.T) {
	dir := t.TempDir()

	kind, err := Detect(dir)
	require.NoError(t, err)
	assert.Equal(t, command.SourceLocal, kind)

	kind, err = Detect("https://example.com/cmds.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, command.SourceArchive, kind)

	kind, err = Detect("acme/cmds")
	require.NoError(t, err)
	assert.Equal(t, command.SourceGit, kind)

	_, err = Detect("not a thing")
	assert.Error(t, err)
}

func TestForConfig(t *testing.T) {
	src, loc, err := ForConfig(config.SourceConfig{Type: "git", URL: "a/b"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, command.SourceGit, src.Kind())
	assert.Equal(t, "a/b", loc)

	src, _, err = ForConfig(config.SourceConfig{URL: "https://example.com/x.tgz"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, command.SourceArchive, src.Kind())

	_, _, err = ForConfig(config.SourceConfig{Type: "npm", URL: "x"}, Options{})
	assert.Error(t, err)
}

type fakeTransport struct {
	StatusCode int
	Bodies     map[string][]byte
}

func (t fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	body, ok := t.Bodies[req.URL.Path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(bytes.NewReader(nil)),
			Header:     make(http.Header),
		}, nil
	}
	status := t.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	tw := tar.NewWriter(gz)

	for name, content := range files {
		hdr := &tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0o644,
			Size:     int64(len(content)),
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	return buf.Bytes()
}

func TestArchiveFetch(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"my-commands-main/commit.md":        "---\nname: commit\n---\nCommit",
		"my-commands-main/ops/deploy.md":    "Deploy",
		"my-commands-main/README.md":        "# readme",
		"my-commands-main/scripts/run.sh":   "echo hi",
		"my-commands-main/broken/broken.md": "---\nname: \"no good\"\n---\n",
	})

	parent := t.TempDir()
	a := &Archive{
		TempDir: parent,
		HTTPClient: &http.Client{Transport: fakeTransport{
			Bodies: map[string][]byte{"/acme/cmds/tar.gz/main": archive},
		}},
	}

	res, err := a.Fetch(context.Background(), "https://codeload.example/acme/cmds/tar.gz/main")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"default:commit", "ops:deploy"}, keysOf(res.Commands))
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "broken/broken.md", res.Skipped[0].Path)

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging dir removed")
}

func TestArchiveFetchHTTPError(t *testing.T) {
	parent := t.TempDir()
	a := &Archive{
		TempDir:    parent,
		HTTPClient: &http.Client{Transport: fakeTransport{}},
	}

	_, err := a.Fetch(context.Background(), "https://example.invalid/missing.tar.gz")

	var fe *SourceFetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, command.SourceArchive, fe.Kind)
	assert.Contains(t, err.Error(), "status 404")

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	assert.Empty(t, entries, "staging dir removed on failure")
}

func TestArchiveSkipsEscapingEntries(t *testing.T) {
	archive := buildArchive(t, map[string]string{
		"../evil.md": "---\nname: evil\n---\n",
		"ok.md":      "---\nname: ok\n---\n",
	})
	a := &Archive{
		TempDir: t.TempDir(),
		HTTPClient: &http.Client{Transport: fakeTransport{
			Bodies: map[string][]byte{"/a.tar.gz": archive},
		}},
	}

	res, err := a.Fetch(context.Background(), "https://example.invalid/a.tar.gz")
	require.NoError(t, err)
	assert.Equal(t, []string{"default:ok"}, keysOf(res.Commands))
}

type stubSource struct {
	res *Result
	err error
}

func (s stubSource) Kind() command.SourceKind { return command.SourceLocal }

func (s stubSource) Fetch(context.Context, string) (*Result, error) {
	return s.res, s.err
}

func TestWithLogging(t *testing.T) {
	t.Run("logs success", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := stubSource{res: &Result{Commands: []*command.Command{{Name: "a"}}}}

		res, err := WithLogging(inner, logger).Fetch(context.Background(), "/some/dir")
		require.NoError(t, err)
		assert.Len(t, res.Commands, 1)

		out := buf.String()
		assert.Contains(t, out, "msg=fetch")
		assert.Contains(t, out, "locator=/some/dir")
		assert.Contains(t, out, "commands=1")
		assert.Contains(t, out, "duration=")
	})

	t.Run("logs failure", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := stubSource{err: errors.New("boom")}

		_, err := WithLogging(inner, logger).Fetch(context.Background(), "x")
		require.Error(t, err)
		assert.Contains(t, buf.String(), "fetch failed")
		assert.Contains(t, buf.String(), "error=boom")
	})
}
