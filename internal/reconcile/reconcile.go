package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/DreamCats/opencommands/internal/command"
	"github.com/DreamCats/opencommands/internal/sources"
)

// ErrCanceled is returned by a Selector when the operator backs out.
var ErrCanceled = errors.New("selection canceled")

// Selector asks the operator which candidates to apply. Every candidate is
// offered pre-selected; the returned indexes refer to candidates.
type Selector interface {
	Select(ctx context.Context, candidates []Candidate) ([]int, error)
}

// SelectorFunc adapts a function to Selector.
type SelectorFunc func(ctx context.Context, candidates []Candidate) ([]int, error)

func (f SelectorFunc) Select(ctx context.Context, candidates []Candidate) ([]int, error) {
	return f(ctx, candidates)
}

// SelectAll is a Selector that accepts every candidate.
var SelectAll = SelectorFunc(func(_ context.Context, candidates []Candidate) ([]int, error) {
	out := make([]int, len(candidates))
	for i := range out {
		out[i] = i
	}
	return out, nil
})

// Persister writes a command and returns where it went.
type Persister interface {
	Save(cmd *command.Command) (string, error)
}

// RemoteSource is a configured remote collection.
type RemoteSource struct {
	Label   string
	Source  sources.Source
	Locator string
}

// Reconciler runs one reconciliation between Local and Remotes.
type Reconciler struct {
	Local     []*command.Command
	Remotes   []RemoteSource
	Selector  Selector
	Persister Persister
	Logger    *slog.Logger
}

// Options controls a run.
type Options struct {
	// DryRun plans and reports without prompting or writing.
	DryRun bool
}

// Applied is one candidate that was written.
type Applied struct {
	Candidate Candidate `json:"candidate"`
	Path      string    `json:"path"`
}

// WriteError is a candidate that could not be persisted.
type WriteError struct {
	Key string `json:"key"`
	Err error  `json:"-"`
}

func (e WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Key, e.Err)
}

// Result is the outcome of a run.
type Result struct {
	Candidates  []Candidate        `json:"candidates"`
	Applied     []Applied          `json:"applied"`
	Local       []*command.Command `json:"-"`
	FetchErrors []error            `json:"-"`
	WriteErrors []WriteError       `json:"-"`
	HadErrors   bool               `json:"had_errors"`
	Canceled    bool               `json:"canceled"`
	DryRun      bool               `json:"dry_run"`
}

// Run fetches every remote in order, plans candidates, and applies the
// selection. Fetch and write failures are recorded and set HadErrors; they
// never stop the run. Only the Selector's error, other than ErrCanceled, is
// returned.
func (r *Reconciler) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	res := &Result{
		Local:  append([]*command.Command(nil), r.Local...),
		DryRun: opts.DryRun,
	}

	var remotes []Remote
	for _, rs := range r.Remotes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fetched, err := rs.Source.Fetch(ctx, rs.Locator)
		if err != nil {
			var fe *sources.SourceFetchError
			if !errors.As(err, &fe) {
				err = &sources.SourceFetchError{Kind: rs.Source.Kind(), Locator: rs.Locator, Err: err}
			}
			logger.Warn("source failed", "source", rs.Label, "error", err)
			res.FetchErrors = append(res.FetchErrors, err)
			res.HadErrors = true
			continue
		}
		logger.Debug("fetched source", "source", rs.Label, "commands", len(fetched.Commands))
		remotes = append(remotes, Remote{Label: rs.Label, Commands: fetched.Commands})
	}

	res.Candidates = Plan(r.Local, remotes)
	if len(res.Candidates) == 0 || opts.DryRun {
		return res, nil
	}

	selected, err := r.Selector.Select(ctx, res.Candidates)
	if errors.Is(err, ErrCanceled) {
		res.Canceled = true
		return res, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select candidates: %w", err)
	}
	if len(selected) == 0 {
		res.Canceled = true
		return res, nil
	}

	for _, idx := range dedupe(selected) {
		if idx < 0 || idx >= len(res.Candidates) {
			continue
		}
		cand := res.Candidates[idx]

		path, err := r.Persister.Save(cand.Command)
		if err != nil {
			logger.Warn("write failed", "command", cand.Key(), "error", err)
			res.WriteErrors = append(res.WriteErrors, WriteError{Key: cand.Key(), Err: err})
			res.HadErrors = true
			continue
		}

		res.Local = applyToLocal(res.Local, cand)
		res.Applied = append(res.Applied, Applied{Candidate: cand, Path: path})
	}
	return res, nil
}

func applyToLocal(local []*command.Command, cand Candidate) []*command.Command {
	if cand.Action == ActionUpdate {
		for i, c := range local {
			if c.SameIdentity(cand.Command) {
				local[i] = cand.Command
				return local
			}
		}
	}
	return append(local, cand.Command)
}

func dedupe(idxs []int) []int {
	seen := make(map[int]bool, len(idxs))
	out := make([]int, 0, len(idxs))
	for _, i := range idxs {
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out
}
