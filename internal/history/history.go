// Package history persists validation reports in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ppiankov/taskgraph/internal/task"
)

// ErrNotFound is returned by Get when no report has the given id.
var ErrNotFound = errors.New("report not found")

const schema = `
CREATE TABLE IF NOT EXISTS reports (
	id             TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	created_at     INTEGER NOT NULL,
	is_valid       INTEGER NOT NULL,
	total_tasks    INTEGER NOT NULL,
	critical_hours REAL NOT NULL,
	report         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_created_at ON reports (created_at);
`

// Entry is one stored report. Report is only populated by Get.
type Entry struct {
	ID            string       `json:"id"`
	Source        string       `json:"source"`
	CreatedAt     time.Time    `json:"createdAt"`
	IsValid       bool         `json:"isValid"`
	TotalTasks    int          `json:"totalTasks"`
	CriticalHours float64      `json:"criticalHours"`
	Report        *task.Report `json:"report,omitempty"`
}

// Store is a report history backed by SQLite. Safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the default history database path.
func DefaultPath() string {
	return filepath.Join(".taskgraph", "history.db")
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	// one writer at a time; SQLite locks the whole file anyway
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure history: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a report and returns its generated id.
func (s *Store) Save(ctx context.Context, source string, r *task.Report) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, source, created_at, is_valid, total_tasks, critical_hours, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, source, s.now().UnixNano(), r.IsValid, r.TotalTasks, r.CriticalPath.TotalHours, string(data))
	if err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return id, nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, created_at, is_valid, total_tasks, critical_hours
		 FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.Source, &created, &e.IsValid, &e.TotalTasks, &e.CriticalHours); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		e.CreatedAt = time.Unix(0, created)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given id, including the full report.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	var created int64
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, created_at, is_valid, total_tasks, critical_hours, report
		 FROM reports WHERE id = ?`, id).
		Scan(&e.ID, &e.Source, &created, &e.IsValid, &e.TotalTasks, &e.CriticalHours, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}

	e.CreatedAt = time.Unix(0, created)
	e.Report = &task.Report{}
	if err := json.Unmarshal([]byte(data), e.Report); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", id, err)
	}
	return &e, nil
}

// Prune deletes all but the newest keep reports and returns how many were
// removed. keep <= 0 keeps everything.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM reports WHERE id NOT IN (
			SELECT id FROM reports ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune reports: %w", err)
	}
	return res.RowsAffected()
}
