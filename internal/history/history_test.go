package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUsage(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Hour)
		return clock
	}

	require.NoError(t, s.RecordUsage(ctx, "git:commit"))
	require.NoError(t, s.RecordUsage(ctx, "git:commit"))
	require.NoError(t, s.RecordUsage(ctx, "lint"))

	summary, err := s.UsageSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 2)

	commit := summary["git:commit"]
	assert.Equal(t, 2, commit.Count)
	assert.True(t, commit.LastUsed.Equal(time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, summary["lint"].Count)
}

func TestUsageSummaryEmpty(t *testing.T) {
	summary, err := openTest(t).UsageSummary(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary)
}

func TestSyncRuns(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	first, err := s.RecordSync(ctx, SyncRun{
		StartedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Candidates: 3,
		Applied:    2,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(first.ID)
	assert.NoError(t, err, "id is a uuid")

	_, err = s.RecordSync(ctx, SyncRun{
		StartedAt:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		DryRun:     true,
		Candidates: 1,
		HadErrors:  true,
	})
	require.NoError(t, err)

	runs, err := s.RecentSyncs(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.True(t, runs[0].DryRun)
	assert.True(t, runs[0].HadErrors)
	assert.Equal(t, first.ID, runs[1].ID)
	assert.Equal(t, 3, runs[1].Candidates)
	assert.Equal(t, 2, runs[1].Applied)
	assert.False(t, runs[1].HadErrors)

	limited, err := s.RecentSyncs(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordUsage(context.Background(), "x"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	summary, err := reopened.UsageSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary["x"].Count)
}
