// Package journal records export runs in a local SQLite database so an
// operator can see what was captured, when, and why a run stopped.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownRun is returned by Finish for an id Begin never produced.
var ErrUnknownRun = errors.New("journal: unknown run")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	url         TEXT NOT NULL,
	browser     TEXT NOT NULL,
	output      TEXT NOT NULL DEFAULT '',
	images_dir  TEXT NOT NULL DEFAULT '',
	total       INTEGER NOT NULL DEFAULT 0,
	frames      INTEGER NOT NULL DEFAULT 0,
	stop        TEXT NOT NULL DEFAULT '',
	error       TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	finished_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

CREATE TABLE IF NOT EXISTS run_frames (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	idx    INTEGER NOT NULL,
	name   TEXT NOT NULL,
	bytes  INTEGER NOT NULL,
	sha256 TEXT NOT NULL,
	PRIMARY KEY (run_id, idx)
);
`

// Run is one journaled export.
type Run struct {
	ID         string
	URL        string
	Browser    string
	Output     string
	ImagesDir  string
	Total      int
	Frames     int
	Stop       string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running or after a crash
}

// Frame is one recorded page image.
type Frame struct {
	// Name is the image file name, relative to the run's ImagesDir when
	// images were kept.
	Name   string
	Bytes  int64
	SHA256 string
}

// Outcome is what Finish records.
type Outcome struct {
	Output    string
	ImagesDir string
	Total     int
	// Frames are the captured pages, page 1 first.
	Frames []Frame
	Stop   string
	Err    error
}

// Generator produces run ids.
type Generator func() string

// UUIDv7 returns a Generator of RFC 9562 UUID v7 strings, which sort by
// creation time.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Journal is a run journal backed by SQLite.
type Journal struct {
	db    *sql.DB
	newID Generator
	now   func() time.Time
}

// Open opens (creating if needed) the journal database at path.
func Open(path string, opts ...Option) (*Journal, error) {
	db, err := openDB(path, append([]Option{WithMkdirAll()}, opts...)...)
	if err != nil {
		return nil, err
	}
	j, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// New wraps an open database and applies the schema.
func New(db *sql.DB) (*Journal, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("journal: schema: %w", err)
	}
	return &Journal{db: db, newID: UUIDv7(), now: time.Now}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Begin records the start of a run and returns its id.
func (j *Journal) Begin(ctx context.Context, url, browser string) (string, error) {
	id := j.newID()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, url, browser, started_at) VALUES (?, ?, ?, ?)`,
		id, url, browser, j.now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("journal: begin: %w", err)
	}
	return id, nil
}

// Finish records the outcome of run id and its frames.
func (j *Journal) Finish(ctx context.Context, id string, o Outcome) error {
	errText := ""
	if o.Err != nil {
		errText = o.Err.Error()
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal: finish: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE runs SET output = ?, images_dir = ?, total = ?, frames = ?, stop = ?, error = ?, finished_at = ?
		 WHERE id = ?`,
		o.Output, o.ImagesDir, o.Total, len(o.Frames), o.Stop, errText, j.now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("journal: finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrUnknownRun, id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_frames WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("journal: finish frames: %w", err)
	}
	for i, f := range o.Frames {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_frames (run_id, idx, name, bytes, sha256) VALUES (?, ?, ?, ?, ?)`,
			id, i+1, f.Name, f.Bytes, f.SHA256); err != nil {
			return fmt.Errorf("journal: finish frame %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal: finish commit: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, url, browser, output, images_dir, total, frames, stop, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.URL, &r.Browser, &r.Output, &r.ImagesDir,
			&r.Total, &r.Frames, &r.Stop, &r.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("journal: recent scan: %w", err)
		}
		r.StartedAt = time.UnixMilli(started)
		if finished.Valid {
			r.FinishedAt = time.UnixMilli(finished.Int64)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return runs, nil
}

// Frames returns the recorded frames of run id, page 1 first.
func (j *Journal) Frames(ctx context.Context, id string) ([]Frame, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT name, bytes, sha256 FROM run_frames WHERE run_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("journal: frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		if err := rows.Scan(&f.Name, &f.Bytes, &f.SHA256); err != nil {
			return nil, fmt.Errorf("journal: frames scan: %w", err)
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
