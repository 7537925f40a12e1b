package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/opencommands/internal/config"
)

func TestConfigInitCreatesConfigFile(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := filepath.Join(env.home, "nested", "config.toml")

	res := env.run(t, "--json", "--config", cfgPath, "config", "init")
	require.NoError(t, res.err)
	var data struct {
		Path    string `json:"path"`
		Created bool   `json:"created"`
	}
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	assert.Equal(t, cfgPath, data.Path)
	assert.True(t, data.Created)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(content), "# opencommands configuration"))

	res = env.run(t, "--json", "--config", cfgPath, "config", "init")
	require.NoError(t, res.err)
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	assert.False(t, data.Created)
}

func TestConfigShowUsesDefaultsWhenMissing(t *testing.T) {
	env := newTestEnv(t)
	missing := filepath.Join(env.home, "absent.toml")

	res := env.run(t, "--json", "--config", missing, "config", "show")
	require.NoError(t, res.err)
	var view configView
	decodeData(t, decodeEnvelope(t, res.stdout), &view)
	assert.False(t, view.Exists)
	assert.Equal(t, env.dir, view.CommandDir)
	assert.Equal(t, filepath.Join(env.home, "history.db"), view.HistoryDB)
	require.Len(t, view.Sources, 1)
	assert.Equal(t, config.DefaultSourceURL, view.Sources[0].URL)

	res = env.run(t, "--config", missing, "config")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, config.DefaultSourceURL)
}

func TestConfigAddAndRemoveSource(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "--json", "config", "add-source", "acme/commands")
	require.NoError(t, res.err)
	var added struct {
		Source config.SourceConfig `json:"source"`
		Added  bool                `json:"added"`
	}
	decodeData(t, decodeEnvelope(t, res.stdout), &added)
	assert.True(t, added.Added)
	assert.Equal(t, "git", added.Source.Type)
	assert.Equal(t, "https://github.com/acme/commands.git", added.Source.URL)

	res = env.run(t, "--json", "config", "add-source", "acme/commands")
	require.NoError(t, res.err)
	decodeData(t, decodeEnvelope(t, res.stdout), &added)
	assert.False(t, added.Added, "duplicate source is not added twice")

	local := t.TempDir()
	res = env.run(t, "--json", "config", "add-source", local)
	require.NoError(t, res.err)
	decodeData(t, decodeEnvelope(t, res.stdout), &added)
	assert.Equal(t, "local", added.Source.Type)
	assert.Equal(t, local, added.Source.Path)

	cfg, err := config.LoadFrom(env.configPath)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 2)

	res = env.run(t, "--json", "config", "remove-source", "https://github.com/acme/commands.git")
	require.NoError(t, res.err)

	cfg, err = config.LoadFrom(env.configPath)
	require.NoError(t, err)
	require.Len(t, cfg.Sources, 1)
	assert.Equal(t, local, cfg.Sources[0].Path)

	res = env.run(t, "--json", "config", "remove-source", "https://github.com/acme/commands.git")
	require.Error(t, res.err)
	assert.Equal(t, ErrInvalidInput, decodeEnvelope(t, res.stdout).Error.Code)
}

func TestConfigAddSourceRejectsUnknownType(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "--json", "config", "add-source", "https://example.com/x", "--type", "ftp")
	require.Error(t, res.err)
	assert.Equal(t, ErrInvalidInput, decodeEnvelope(t, res.stdout).Error.Code)
}

func TestInvalidConfigReported(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(t, "sources = [[[\n")

	res := env.run(t, "--json", "list")
	require.Error(t, res.err)
	assert.Equal(t, ErrConfigInvalid, decodeEnvelope(t, res.stdout).Error.Code)
}
