package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCommands(t *testing.T, env *testEnv) {
	t.Helper()
	env.writeCommand(t, "git/commit.md", doc("commit", "git", "1.2.0",
		"tags: [git, vcs]\nargs:\n  - name: message\n    required: true\n",
		"# Commit\n\nCommit with $message\n\n## Checks\n\nRun tests first.\n"))
	env.writeCommand(t, "review/pr.md", doc("pr", "review", "", "", "Review the open pull request.\n"))
}

func TestListJSON(t *testing.T) {
	env := newTestEnv(t)
	seedCommands(t, env)
	env.writeCommand(t, "broken.md", "---\nname: bad name\nnamespace: x\n---\nbody\n")

	res := env.run(t, "--json", "list")
	require.NoError(t, res.err)

	out := decodeEnvelope(t, res.stdout)
	require.True(t, out.OK)
	var data struct {
		Dir      string           `json:"dir"`
		Commands []commandSummary `json:"commands"`
	}
	decodeData(t, out, &data)

	assert.Equal(t, env.dir, data.Dir)
	require.Len(t, data.Commands, 2)
	assert.Equal(t, "git:commit", data.Commands[0].Key)
	assert.Equal(t, "<message>", data.Commands[0].Args)
	assert.Equal(t, "review:pr", data.Commands[1].Key)
	assert.Equal(t, "1.0.0", data.Commands[1].Version)

	require.Len(t, out.Warnings, 1)
	assert.Equal(t, WarnSkippedDocument, out.Warnings[0].Code)
}

func TestListFilters(t *testing.T) {
	env := newTestEnv(t)
	seedCommands(t, env)

	res := env.run(t, "--json", "list", "--tag", "vcs")
	require.NoError(t, res.err)
	out := decodeEnvelope(t, res.stdout)
	assert.Equal(t, 1, out.Meta.Count)

	res = env.run(t, "--json", "list", "--namespace", "review")
	require.NoError(t, res.err)
	out = decodeEnvelope(t, res.stdout)
	assert.Equal(t, 1, out.Meta.Count)
}

func TestListText(t *testing.T) {
	env := newTestEnv(t)
	seedCommands(t, env)

	res := env.run(t, "list", "--long")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "git:commit")
	assert.Contains(t, res.stdout, "review:pr")
	assert.Contains(t, res.stdout, "git, vcs")
}

func TestListMissingDirectoryIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	res := env.run(t, "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No commands found")
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	seedCommands(t, env)

	res := env.run(t, "--json", "search", "commit")
	require.NoError(t, res.err)
	var data struct {
		Results []searchHit `json:"results"`
	}
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	require.Len(t, data.Results, 1)
	assert.Equal(t, "git:commit", data.Results[0].Key)
	assert.False(t, data.Results[0].Fuzzy)

	res = env.run(t, "--json", "search", "cmt")
	require.NoError(t, res.err)
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	assert.Empty(t, data.Results, "no fuzzy fallback without --fuzzy")

	res = env.run(t, "--json", "search", "cmt", "--fuzzy")
	require.NoError(t, res.err)
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	require.Len(t, data.Results, 1)
	assert.True(t, data.Results[0].Fuzzy)
}

func TestShowNotFound(t *testing.T) {
	env := newTestEnv(t)
	seedCommands(t, env)

	res := env.run(t, "--json", "show", "nope")
	require.Error(t, res.err)
	var reported *reportedError
	assert.True(t, errors.As(res.err, &reported))

	out := decodeEnvelope(t, res.stdout)
	assert.False(t, out.OK)
	require.NotNil(t, out.Error)
	assert.Equal(t, ErrCommandNotFound, out.Error.Code)
	assert.Contains(t, out.Error.Suggestion, "--fuzzy")
}

func TestShowAmbiguous(t *testing.T) {
	env := newTestEnv(t)
	env.writeCommand(t, "a/deploy.md", doc("deploy", "a", "", "", "A\n"))
	env.writeCommand(t, "b/deploy.md", doc("deploy", "b", "", "", "B\n"))

	res := env.run(t, "--json", "show", "deploy")
	require.Error(t, res.err)
	out := decodeEnvelope(t, res.stdout)
	require.NotNil(t, out.Error)
	assert.Equal(t, ErrCommandAmbiguous, out.Error.Code)
	assert.Equal(t, map[string]any{"candidates": []any{"a:deploy", "b:deploy"}}, out.Error.Details)

	res = env.run(t, "--json", "show", "b:deploy")
	require.NoError(t, res.err)
}

func TestShowText(t *testing.T) {
	env := newTestEnv(t)
	seedCommands(t, env)

	res := env.run(t, "show", "commit", "--raw")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "git:commit")
	assert.Contains(t, res.stdout, "Outline")
	assert.Contains(t, res.stdout, "#checks")
	assert.Contains(t, res.stdout, "Commit with $message")
}

func TestShowJSONIncludesHeadings(t *testing.T) {
	env := newTestEnv(t)
	seedCommands(t, env)

	res := env.run(t, "--json", "show", "git:commit")
	require.NoError(t, res.err)
	var data struct {
		Headings []struct {
			Text   string `json:"text"`
			Anchor string `json:"anchor"`
		} `json:"headings"`
		Excerpt string `json:"excerpt"`
	}
	decodeData(t, decodeEnvelope(t, res.stdout), &data)
	require.Len(t, data.Headings, 2)
	assert.Equal(t, "Checks", data.Headings[1].Text)
	assert.Equal(t, "Commit with $message", data.Excerpt)
}
