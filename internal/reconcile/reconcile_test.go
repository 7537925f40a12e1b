package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/sources"
)

func cmd(name, namespace, version string) *command.Command {
	return &command.Command{Name: name, Namespace: namespace, Version: version, Description: "d"}
}

type fakeSource struct {
	cmds  []*command.Command
	err   error
	calls int
}

func (f *fakeSource) Kind() command.SourceKind { return command.SourceGit }

func (f *fakeSource) Fetch(context.Context, string) (*sources.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &sources.Result{Commands: f.cmds}, nil
}

type recordingPersister struct {
	saved []string
	fail  map[string]error
}

func (p *recordingPersister) Save(c *command.Command) (string, error) {
	if err := p.fail[c.Key()]; err != nil {
		return "", err
	}
	p.saved = append(p.saved, c.Key())
	return "/dir/" + c.Key() + ".md", nil
}

type countingSelector struct {
	calls int
	pick  func([]Candidate) ([]int, error)
}

func (s *countingSelector) Select(_ context.Context, cands []Candidate) ([]int, error) {
	s.calls++
	return s.pick(cands)
}

func TestPlan(t *testing.T) {
	local := []*command.Command{
		cmd("same", "ns", "1.0.0"),
		cmd("old", "ns", "1.0.0"),
		cmd("implicit", "", ""),
		cmd("moved", "a", "1.0.0"),
	}
	remote := Remote{Label: "git acme", Commands: []*command.Command{
		cmd("same", "ns", "1.0.0"),
		cmd("old", "ns", "1.1.0"),
		cmd("implicit", "", "1.0.0"),
		cmd("moved", "b", "1.0.0"),
		cmd("fresh", "", "0.1"),
	}}

	got := Plan(local, []Remote{remote})
	require.Len(t, got, 3)

	assert.Equal(t, ActionUpdate, got[0].Action)
	assert.Equal(t, "ns:old", got[0].Key())
	assert.Equal(t, "1.0.0", got[0].OldVersion)
	assert.Equal(t, "1.1.0", got[0].NewVersion)
	assert.Equal(t, "git acme", got[0].Source)

	assert.Equal(t, ActionNew, got[1].Action)
	assert.Equal(t, "b:moved", got[1].Key(), "namespace must match exactly")

	assert.Equal(t, ActionNew, got[2].Action)
	assert.Equal(t, "fresh", got[2].Key())
	assert.Empty(t, got[2].OldVersion)
}

func TestPlanComparesVersionsAsStrings(t *testing.T) {
	got := Plan(
		[]*command.Command{cmd("x", "", "1.0")},
		[]Remote{{Commands: []*command.Command{cmd("x", "", "1.0.0")}}},
	)
	require.Len(t, got, 1)
	assert.Equal(t, ActionUpdate, got[0].Action)
}

func TestRunAppliesSelected(t *testing.T) {
	local := []*command.Command{cmd("a", "ns", "1.0.0")}
	src := &fakeSource{cmds: []*command.Command{
		cmd("a", "ns", "2.0.0"),
		cmd("b", "ns", "1.0.0"),
		cmd("c", "ns", "1.0.0"),
	}}
	persister := &recordingPersister{}
	selector := &countingSelector{pick: func(c []Candidate) ([]int, error) {
		require.Len(t, c, 3)
		return []int{0, 2, 2}, nil
	}}

	r := &Reconciler{
		Local:     local,
		Remotes:   []RemoteSource{{Label: "remote", Source: src, Locator: "acme/cmds"}},
		Selector:  selector,
		Persister: persister,
	}
	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, selector.calls)
	assert.Equal(t, []string{"ns:a", "ns:c"}, persister.saved)
	require.Len(t, res.Applied, 2)
	assert.Equal(t, "/dir/ns:a.md", res.Applied[0].Path)
	assert.False(t, res.HadErrors)

	require.Len(t, res.Local, 2)
	assert.Equal(t, "2.0.0", res.Local[0].Version, "update replaces in place")
	assert.Equal(t, "ns:c", res.Local[1].Key())
	assert.Equal(t, "1.0.0", local[0].Version, "caller slice untouched")
}

func TestRunDryRunNeverPromptsOrWrites(t *testing.T) {
	src := &fakeSource{cmds: []*command.Command{cmd("new", "", "1.0.0")}}
	persister := &recordingPersister{}
	selector := &countingSelector{pick: func([]Candidate) ([]int, error) { return []int{0}, nil }}

	r := &Reconciler{
		Remotes:   []RemoteSource{{Label: "remote", Source: src}},
		Selector:  selector,
		Persister: persister,
	}
	res, err := r.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Len(t, res.Candidates, 1)
	assert.True(t, res.DryRun)
	assert.Equal(t, 0, selector.calls)
	assert.Empty(t, persister.saved)
	assert.Empty(t, res.Applied)
}

func TestRunCanceledWritesNothing(t *testing.T) {
	for name, pick := range map[string]func([]Candidate) ([]int, error){
		"cancel":          func([]Candidate) ([]int, error) { return nil, ErrCanceled },
		"empty selection": func([]Candidate) ([]int, error) { return []int{}, nil },
	} {
		t.Run(name, func(t *testing.T) {
			persister := &recordingPersister{}
			r := &Reconciler{
				Remotes:   []RemoteSource{{Source: &fakeSource{cmds: []*command.Command{cmd("x", "", "1")}}}},
				Selector:  &countingSelector{pick: pick},
				Persister: persister,
			}
			res, err := r.Run(context.Background(), Options{})
			require.NoError(t, err)
			assert.True(t, res.Canceled)
			assert.Empty(t, persister.saved)
		})
	}
}

func TestRunSelectorError(t *testing.T) {
	boom := errors.New("tty gone")
	r := &Reconciler{
		Remotes:   []RemoteSource{{Source: &fakeSource{cmds: []*command.Command{cmd("x", "", "1")}}}},
		Selector:  SelectorFunc(func(context.Context, []Candidate) ([]int, error) { return nil, boom }),
		Persister: &recordingPersister{},
	}
	_, err := r.Run(context.Background(), Options{})
	assert.ErrorIs(t, err, boom)
}

func TestRunFetchErrorContinues(t *testing.T) {
	failing := &fakeSource{err: errors.New("network down")}
	working := &fakeSource{cmds: []*command.Command{cmd("x", "", "1.0.0")}}
	persister := &recordingPersister{}

	r := &Reconciler{
		Remotes: []RemoteSource{
			{Label: "bad", Source: failing, Locator: "bad/repo"},
			{Label: "good", Source: working, Locator: "good/repo"},
		},
		Selector:  SelectAll,
		Persister: persister,
	}
	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.True(t, res.HadErrors)
	require.Len(t, res.FetchErrors, 1)
	var fe *sources.SourceFetchError
	require.ErrorAs(t, res.FetchErrors[0], &fe)
	assert.Equal(t, "bad/repo", fe.Locator)

	assert.Equal(t, 1, working.calls)
	assert.Equal(t, []string{"x"}, persister.saved)
}

func TestRunWriteErrorContinues(t *testing.T) {
	persister := &recordingPersister{fail: map[string]error{"a": errors.New("disk full")}}
	r := &Reconciler{
		Remotes: []RemoteSource{{Source: &fakeSource{cmds: []*command.Command{
			cmd("a", "", "1"), cmd("b", "", "1"),
		}}}},
		Selector:  SelectAll,
		Persister: persister,
	}
	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.True(t, res.HadErrors)
	require.Len(t, res.WriteErrors, 1)
	assert.Equal(t, "a", res.WriteErrors[0].Key)
	assert.Equal(t, []string{"b"}, persister.saved)
}

func TestRunNoCandidatesSkipsSelector(t *testing.T) {
	selector := &countingSelector{pick: func([]Candidate) ([]int, error) { return nil, nil }}
	r := &Reconciler{
		Local:    []*command.Command{cmd("x", "", "1")},
		Remotes:  []RemoteSource{{Source: &fakeSource{cmds: []*command.Command{cmd("x", "", "1")}}}},
		Selector: selector,
	}
	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Equal(t, 0, selector.calls)
}
