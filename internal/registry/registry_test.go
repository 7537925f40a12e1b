package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/opencommands/internal/command"
)

func newCmd(name, namespace string, tags ...string) *command.Command {
	return &command.Command{
		Name:        name,
		Namespace:   namespace,
		Version:     command.DefaultVersion,
		Description: "desc " + name,
		Metadata:    command.Metadata{Tags: tags},
	}
}

// steppingClock returns a clock that advances one minute per call.
func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestRegisterAndFind(t *testing.T) {
	r := New(WithClock(steppingClock()))

	require.NoError(t, r.Register(newCmd("commit", "git", "vcs")))
	require.NoError(t, r.Register(newCmd("lint", "")))

	e, ok := r.Find("git:commit")
	require.True(t, ok)
	assert.Equal(t, "commit", e.Command.Name)
	assert.Equal(t, 0, e.UseCount)
	assert.Nil(t, e.LastUsed)
	assert.False(t, e.RegisteredAt.IsZero())

	e, ok = r.Find("commit")
	require.True(t, ok, "unique bare name resolves")
	assert.Equal(t, "git:commit", e.Key())

	e, ok = r.Find("lint")
	require.True(t, ok)
	assert.Equal(t, "lint", e.Key())

	_, ok = r.Find("missing")
	assert.False(t, ok)
}

func TestRegisterDuplicate(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newCmd("commit", "git")))

	err := r.Register(newCmd("commit", "git"))
	var dup *DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "git:commit", dup.Key)
	assert.Equal(t, 1, r.Len())

	require.NoError(t, r.Register(newCmd("commit", "other")), "same name in another namespace is distinct")
	assert.Equal(t, 2, r.Len())
}

func TestFindAmbiguousBareName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newCmd("review", "frontend")))
	require.NoError(t, r.Register(newCmd("review", "backend")))

	_, ok := r.Find("review")
	assert.False(t, ok)

	matches := r.Matches("review")
	require.Len(t, matches, 2)
	assert.Equal(t, "backend:review", matches[0].Key())
	assert.Equal(t, "frontend:review", matches[1].Key())

	e, ok := r.Find("frontend:review")
	require.True(t, ok)
	assert.Equal(t, "frontend", e.Command.Namespace)
}

func TestRegistryStoresCopies(t *testing.T) {
	r := New()
	cmd := newCmd("commit", "git", "vcs")
	require.NoError(t, r.Register(cmd))

	cmd.Description = "mutated"
	cmd.Metadata.Tags[0] = "changed"

	e, ok := r.Find("git:commit")
	require.True(t, ok)
	assert.Equal(t, "desc commit", e.Command.Description)
	assert.Equal(t, []string{"vcs"}, e.Command.Metadata.Tags)

	e.Command.Description = "snapshot mutated"
	again, _ := r.Find("git:commit")
	assert.Equal(t, "desc commit", again.Command.Description)
}

func TestUnregisterScrubsIndexes(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newCmd("commit", "git", "vcs", "daily")))
	require.NoError(t, r.Register(newCmd("push", "git", "vcs")))

	assert.True(t, r.Unregister("git:commit"))
	assert.False(t, r.Unregister("git:commit"))

	_, ok := r.Find("git:commit")
	assert.False(t, ok)
	_, ok = r.Find("commit")
	assert.False(t, ok)

	assert.Empty(t, r.FindAll(Filters{Tag: "daily"}))
	assert.Equal(t, []string{"vcs"}, r.ListTags(), "empty tag buckets are pruned")

	vcs := r.FindAll(Filters{Tag: "vcs"})
	require.Len(t, vcs, 1)
	assert.Equal(t, "git:push", vcs[0].Key())
}

func TestFindAllFilters(t *testing.T) {
	r := New()
	wf := newCmd("deploy", "ops", "ci")
	wf.Metadata.Custom = map[string]any{"type": "workflow"}
	require.NoError(t, r.Register(wf))
	require.NoError(t, r.Register(newCmd("build", "ops", "ci")))
	require.NoError(t, r.Register(newCmd("test", "dev", "ci")))
	require.NoError(t, r.Register(newCmd("notes", "")))

	keys := func(entries []Entry) []string {
		var out []string
		for _, e := range entries {
			out = append(out, e.Key())
		}
		return out
	}

	assert.Equal(t, []string{"dev:test", "notes", "ops:build", "ops:deploy"}, keys(r.FindAll(Filters{})))
	assert.Equal(t, []string{"ops:build", "ops:deploy"}, keys(r.FindAll(Filters{Namespace: "ops"})))
	assert.Equal(t, []string{"dev:test", "ops:build", "ops:deploy"}, keys(r.FindAll(Filters{Tag: "ci"})))
	assert.Equal(t, []string{"ops:deploy"}, keys(r.FindAll(Filters{Tag: "ci", Type: "workflow"})))
	assert.Empty(t, r.FindAll(Filters{Namespace: "dev", Type: "workflow"}))
	assert.Empty(t, r.FindAll(Filters{Tag: "nope"}))
}

func TestRecordUsage(t *testing.T) {
	r := New(WithClock(steppingClock()))
	require.NoError(t, r.Register(newCmd("commit", "git")))

	r.RecordUsage("git:commit")
	r.RecordUsage("git:commit")
	r.RecordUsage("missing")

	e, _ := r.Find("git:commit")
	assert.Equal(t, 2, e.UseCount)
	require.NotNil(t, e.LastUsed)
	assert.True(t, e.LastUsed.After(e.RegisteredAt))
}

func TestSeedUsage(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newCmd("commit", "git")))

	last := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	r.SeedUsage("git:commit", 7, &last)
	r.SeedUsage("missing", 3, nil)

	e, _ := r.Find("git:commit")
	assert.Equal(t, 7, e.UseCount)
	require.NotNil(t, e.LastUsed)
	assert.True(t, last.Equal(*e.LastUsed))
}

func TestStats(t *testing.T) {
	r := New(WithClock(steppingClock()))
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		require.NoError(t, r.Register(newCmd(name, "ns", "t-"+name)))
	}
	require.NoError(t, r.Register(newCmd("solo", "")))

	r.SeedUsage("ns:c", 5, nil)
	r.SeedUsage("ns:a", 2, nil)
	r.RecordUsage("ns:f")

	st := r.Stats()
	assert.Equal(t, 7, st.Total)
	assert.Equal(t, 1, st.Namespaces)
	assert.Equal(t, 6, st.Tags)
	assert.Equal(t, map[string]int{"ns": 6, "": 1}, st.ByNamespace)
	assert.Equal(t, 8, st.TotalUseCount)

	require.Len(t, st.MostUsed, 3, "unused commands are excluded")
	assert.Equal(t, "ns:c", st.MostUsed[0].Key())
	assert.Equal(t, "ns:a", st.MostUsed[1].Key())
	assert.Equal(t, "ns:f", st.MostUsed[2].Key())

	require.Len(t, st.RecentlyAdded, 5)
	assert.Equal(t, "solo", st.RecentlyAdded[0].Key())
	assert.Equal(t, "ns:f", st.RecentlyAdded[1].Key())
}

func TestListNamespacesAndClear(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(newCmd("x", "b")))
	require.NoError(t, r.Register(newCmd("y", "a")))
	require.NoError(t, r.Register(newCmd("z", "")))

	assert.Equal(t, []string{"a", "b"}, r.ListNamespaces())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.ListNamespaces())
	_, ok := r.Find("b:x")
	assert.False(t, ok)
}
