package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/reconcile"
)

// testEnv isolates one CLI run: a throwaway home, config file and command
// directory.
type testEnv struct {
	home       string
	dir        string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("OPENCOMMANDS_HISTORY_DB", filepath.Join(home, "history.db"))
	t.Setenv("OPENCOMMANDS_COMMAND_DIR", "")
	t.Setenv("OPENCOMMANDS_LOG_LEVEL", "")

	prevInteractive := interactive
	prevPicker := newPicker
	t.Cleanup(func() {
		interactive = prevInteractive
		newPicker = prevPicker
	})
	interactive = func() bool { return false }

	env := &testEnv{
		home:       home,
		dir:        filepath.Join(home, "commands"),
		configPath: filepath.Join(home, "config.toml"),
	}
	env.writeConfig(t, "")
	return env
}

// writeConfig replaces the config file. An empty body still disables the
// default remote source.
func (e *testEnv) writeConfig(t *testing.T, body string) {
	t.Helper()
	if body == "" {
		body = "sources = []\n"
	}
	require.NoError(t, os.WriteFile(e.configPath, []byte(body), 0o644))
}

func (e *testEnv) writeCommand(t *testing.T, rel, content string) string {
	t.Helper()
	return writeDoc(t, filepath.Join(e.dir, rel), content)
}

func writeDoc(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func doc(name, namespace, version, extra, body string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("name: " + name + "\n")
	if namespace != "" {
		b.WriteString("namespace: " + namespace + "\n")
	}
	if version != "" {
		b.WriteString("version: " + version + "\n")
	}
	b.WriteString("description: " + name + " command\n")
	b.WriteString(extra)
	b.WriteString("---\n")
	b.WriteString(body)
	return b.String()
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// run executes ocmd with the env's config and command directory.
func (e *testEnv) run(t *testing.T, args ...string) cliResult {
	t.Helper()
	return e.runWithInput(t, "", args...)
}

func (e *testEnv) runWithInput(t *testing.T, input string, args ...string) cliResult {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(input))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	full := append([]string{"--config", e.configPath, "--dir", e.dir}, args...)
	rootCmd.SetArgs(full)
	err := rootCmd.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// resetFlags restores every flag in the tree to its default so package-level
// flag variables do not leak between runs.
func resetFlags(root *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	var walk func(cmd *cobra.Command)
	walk = func(cmd *cobra.Command) {
		cmd.Flags().VisitAll(reset)
		cmd.PersistentFlags().VisitAll(reset)
		for _, child := range cmd.Commands() {
			walk(child)
		}
	}
	walk(root)
}

type envelope struct {
	OK       bool            `json:"ok"`
	Data     json.RawMessage `json:"data"`
	Error    *ErrorInfo      `json:"error"`
	Warnings []Warning       `json:"warnings"`
	Meta     *Meta           `json:"meta"`
}

func decodeEnvelope(t *testing.T, out string) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), "output: %s", out)
	return env
}

func decodeData(t *testing.T, env envelope, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, target), "data: %s", env.Data)
}

type fakePicker struct {
	pick  []int
	err   error
	calls int
}

func (p *fakePicker) Select(context.Context, []reconcile.Candidate) ([]int, error) {
	p.calls++
	return p.pick, p.err
}

func (p *fakePicker) SelectCommands(context.Context, []*command.Command) ([]int, error) {
	p.calls++
	return p.pick, p.err
}
