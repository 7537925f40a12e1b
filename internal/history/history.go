// Package history records command usage and sync runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the history database handle.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Usage is the aggregate usage of one command.
type Usage struct {
	Key      string    `json:"key"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// SyncRun is one completed `ocmd sync`.
type SyncRun struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	DryRun     bool      `json:"dry_run"`
	Candidates int       `json:"candidates"`
	Applied    int       `json:"applied"`
	HadErrors  bool      `json:"had_errors"`
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	return initialize(db)
}

// OpenInMemory opens an in-memory database (for testing).
func OpenInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return initialize(db)
}

func initialize(db *sql.DB) (*Store, error) {
	schema := `
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS usage (
			key TEXT NOT NULL,
			used_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_usage_key ON usage(key);

		CREATE TABLE IF NOT EXISTS sync_runs (
			id TEXT PRIMARY KEY,
			started_at INTEGER NOT NULL,
			dry_run INTEGER NOT NULL,
			candidates INTEGER NOT NULL,
			applied INTEGER NOT NULL,
			had_errors INTEGER NOT NULL
		);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordUsage appends one use of key.
func (s *Store) RecordUsage(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage (key, used_at) VALUES (?, ?)`,
		key, s.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record usage of %s: %w", key, err)
	}
	return nil
}

// UsageSummary returns the use count and last use of every recorded key.
func (s *Store) UsageSummary(ctx context.Context) (map[string]Usage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, COUNT(*), MAX(used_at) FROM usage GROUP BY key`,
	)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	list, err := scanRows(rows, func(rows *sql.Rows) (Usage, error) {
		var u Usage
		var last int64
		if err := rows.Scan(&u.Key, &u.Count, &last); err != nil {
			return u, err
		}
		u.LastUsed = time.UnixMilli(last)
		return u, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan usage: %w", err)
	}

	out := make(map[string]Usage, len(list))
	for _, u := range list {
		out[u.Key] = u
	}
	return out, nil
}

// RecordSync stores a sync run, assigning an ID and start time when unset.
func (s *Store) RecordSync(ctx context.Context, run SyncRun) (SyncRun, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (id, started_at, dry_run, candidates, applied, had_errors)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UnixMilli(), boolInt(run.DryRun), run.Candidates, run.Applied, boolInt(run.HadErrors),
	)
	if err != nil {
		return run, fmt.Errorf("record sync run: %w", err)
	}
	return run, nil
}

// RecentSyncs returns up to limit runs, newest first.
func (s *Store) RecentSyncs(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, dry_run, candidates, applied, had_errors
		 FROM sync_runs ORDER BY started_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	runs, err := scanRows(rows, func(rows *sql.Rows) (SyncRun, error) {
		var r SyncRun
		var started int64
		var dryRun, hadErrors int
		if err := rows.Scan(&r.ID, &started, &dryRun, &r.Candidates, &r.Applied, &hadErrors); err != nil {
			return r, err
		}
		r.StartedAt = time.UnixMilli(started)
		r.DryRun = dryRun != 0
		r.HadErrors = hadErrors != 0
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sync runs: %w", err)
	}
	return runs, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanRows scans all rows into a slice using the provided scanner.
func scanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
