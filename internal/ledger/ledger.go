// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger journals per-document conversion outcomes in SQLite so a
// fleet of workers leaves one shared history behind.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pdf2png/pkg/types"
)

// defaultLimit caps Recent when the query sets no limit.
const defaultLimit = 50

// Ledger is the outcome journal.
type Ledger struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path. WAL mode and a busy
// timeout let several worker processes append concurrently.
func Open(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=10000")
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	l := &Ledger{db: db}
	if err := l.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return l, nil
}

// Close releases the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func (l *Ledger) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS outcomes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			document TEXT NOT NULL,
			base TEXT NOT NULL,
			outcome TEXT NOT NULL,
			error TEXT,
			host TEXT,
			pid INTEGER,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_base ON outcomes(base)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id)`,
	}
	for _, stmt := range statements {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one outcome.
func (l *Ledger) Record(ctx context.Context, e types.LedgerEntry) error {
	if !e.Outcome.Valid() {
		return fmt.Errorf("invalid outcome %q", e.Outcome)
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, document, base, outcome, error, host, pid, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Document, e.Base, string(e.Outcome), e.Error, e.Host, e.PID,
		e.StartedAt.UTC().Format(time.RFC3339Nano), e.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording outcome for %s: %w", e.Base, err)
	}
	return nil
}

// Query filters Recent.
type Query struct {
	Outcome types.Outcome
	RunID   string
	Base    string
	Limit   int
}

// Recent returns matching entries, newest first.
func (l *Ledger) Recent(ctx context.Context, q Query) ([]types.LedgerEntry, error) {
	stmt := `SELECT id, run_id, document, base, outcome, COALESCE(error, ''), COALESCE(host, ''),
		COALESCE(pid, 0), started_at, finished_at FROM outcomes WHERE 1=1`
	var args []any
	if q.Outcome != "" {
		stmt += ` AND outcome = ?`
		args = append(args, string(q.Outcome))
	}
	if q.RunID != "" {
		stmt += ` AND run_id = ?`
		args = append(args, q.RunID)
	}
	if q.Base != "" {
		stmt += ` AND base = ?`
		args = append(args, q.Base)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	stmt += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying outcomes: %w", err)
	}
	defer rows.Close()

	var entries []types.LedgerEntry
	for rows.Next() {
		var (
			e                 types.LedgerEntry
			outcome           string
			started, finished string
		)
		if err := rows.Scan(&e.ID, &e.RunID, &e.Document, &e.Base, &outcome, &e.Error,
			&e.Host, &e.PID, &started, &finished); err != nil {
			return nil, fmt.Errorf("scanning outcome: %w", err)
		}
		e.Outcome = types.Outcome(outcome)
		if e.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if e.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("parsing finished_at: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Counts returns the number of entries per outcome.
func (l *Ledger) Counts(ctx context.Context) (map[types.Outcome]int, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT outcome, count(*) FROM outcomes GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("counting outcomes: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Outcome]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[types.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}
