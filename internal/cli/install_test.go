package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/opencommands/internal/reconcile"
	"github.com/DreamCats/opencommands/internal/store"
)

func sourcePack(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "pack")
	writeDoc(t, filepath.Join(root, "tools", "fmt.md"), doc("fmt", "tools", "1.0.0", "", "Format the code.\n"))
	writeDoc(t, filepath.Join(root, "tools", "lint.md"), doc("lint", "tools", "1.0.0", "", "Lint the code.\n"))
	writeDoc(t, filepath.Join(root, "README.md"), "# not a command\n")
	return root
}

type installData struct {
	Installed int                `json:"installed"`
	Plan      *store.InstallPlan `json:"plan"`
}

func TestInstallRequiresConfirmationWithoutTerminal(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "--json", "install", sourcePack(t))
	require.Error(t, res.err)
	out := decodeEnvelope(t, res.stdout)
	require.NotNil(t, out.Error)
	assert.Equal(t, ErrConfirmationRequired, out.Error.Code)
	assert.NoDirExists(t, env.dir)
}

func TestInstallAllThenConflictThenForce(t *testing.T) {
	env := newTestEnv(t)
	pack := sourcePack(t)

	res := env.run(t, "--json", "install", pack, "--all")
	require.NoError(t, res.err)
	var data installData
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	assert.Equal(t, 2, data.Installed)
	fmtPath := filepath.Join(env.dir, "tools", "fmt.md")
	assert.FileExists(t, fmtPath)
	assert.FileExists(t, filepath.Join(env.dir, "tools", "lint.md"))

	res = env.run(t, "--json", "install", pack, "--all")
	require.NoError(t, res.err)
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	assert.Equal(t, 0, data.Installed)
	for _, a := range data.Plan.Actions {
		assert.Equal(t, store.OpUnchanged, a.Op, a.Key)
	}

	require.NoError(t, os.WriteFile(fmtPath, []byte("---\nname: fmt\nnamespace: tools\n---\nlocal edit\n"), 0o644))

	res = env.run(t, "--json", "install", pack, "--all")
	require.Error(t, res.err)
	out := decodeEnvelope(t, res.stdout)
	require.NotNil(t, out.Error)
	assert.Equal(t, ErrInstallConflict, out.Error.Code)
	assert.Equal(t, map[string]any{"conflicts": []any{fmtPath}}, out.Error.Details)

	content, err := os.ReadFile(fmtPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "local edit")

	res = env.run(t, "--json", "install", pack, "--all", "--force")
	require.NoError(t, res.err)
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	assert.Equal(t, 1, data.Installed)

	content, err = os.ReadFile(fmtPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Format the code.")
}

func TestInstallDryRunWithNamespace(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "--json", "install", sourcePack(t), "--all", "--dry-run", "--namespace", "mine")
	require.NoError(t, res.err)
	var data installData
	decodeData(t, decodeEnvelope(t, res.stdout), &data)

	require.Len(t, data.Plan.Actions, 2)
	assert.Equal(t, "mine:fmt", data.Plan.Actions[0].Key)
	assert.Equal(t, store.OpCreate, data.Plan.Actions[0].Op)
	assert.Equal(t, filepath.Join(env.dir, "mine", "fmt.md"), data.Plan.Actions[0].Path)
	assert.NoDirExists(t, env.dir)
}

func TestInstallInteractiveSelection(t *testing.T) {
	env := newTestEnv(t)
	interactive = func() bool { return true }
	p := &fakePicker{pick: []int{1}}
	newPicker = func() picker { return p }

	res := env.run(t, "install", sourcePack(t))
	require.NoError(t, res.err)
	assert.Equal(t, 1, p.calls)
	assert.Contains(t, res.stdout, "Installed 1 command")
	assert.FileExists(t, filepath.Join(env.dir, "tools", "lint.md"))
	assert.NoFileExists(t, filepath.Join(env.dir, "tools", "fmt.md"))
}

func TestInstallInteractiveCancel(t *testing.T) {
	env := newTestEnv(t)
	interactive = func() bool { return true }
	newPicker = func() picker { return &fakePicker{err: reconcile.ErrCanceled} }

	res := env.run(t, "install", sourcePack(t))
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "canceled")
	assert.NoDirExists(t, env.dir)
}

func TestInstallDuplicateKeys(t *testing.T) {
	env := newTestEnv(t)
	pack := sourcePack(t)
	writeDoc(t, filepath.Join(pack, "other", "fmt.md"), doc("fmt", "other", "1.0.0", "", "Other format.\n"))

	res := env.run(t, "--json", "install", pack, "--all", "--namespace", "mine")
	require.Error(t, res.err)
	out := decodeEnvelope(t, res.stdout)
	require.NotNil(t, out.Error)
	assert.Equal(t, ErrDuplicateCommand, out.Error.Code)
	assert.NoDirExists(t, env.dir)

	res = env.run(t, "--json", "install", pack, "--all", "--namespace", "mine", "--force")
	require.NoError(t, res.err)
	out = decodeEnvelope(t, res.stdout)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnDuplicateCommand, out.Warnings[0].Code)
}

func TestInstallUnknownSource(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "--json", "install", "definitely-not-a-source")
	require.Error(t, res.err)
	out := decodeEnvelope(t, res.stdout)
	require.NotNil(t, out.Error)
	assert.Equal(t, ErrSourceUnknown, out.Error.Code)
}

func TestInstallEmptySourceWarns(t *testing.T) {
	env := newTestEnv(t)
	empty := t.TempDir()

	res := env.run(t, "--json", "install", empty, "--all")
	require.NoError(t, res.err)
	out := decodeEnvelope(t, res.stdout)
	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnNoCommands, out.Warnings[0].Code)
}
