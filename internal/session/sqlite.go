package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/model-critic/internal/logging"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS session_snapshots (
	snapshot_id   TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	payload_json  TEXT NOT NULL,
	scores_json   TEXT NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_snapshots_name
	ON session_snapshots(name, created_at);

CREATE TABLE IF NOT EXISTS decision_log (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT NOT NULL,
	session_name    TEXT,
	model_type      TEXT NOT NULL,
	signals_json    TEXT,
	risk_level      TEXT NOT NULL,
	deploy          INTEGER NOT NULL,
	confidence      REAL NOT NULL,
	blocking_issues TEXT,
	created_at      TEXT NOT NULL
);
`
// #endregion schema

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// SQLiteStore keeps every saved snapshot; Load returns the newest per name.
type SQLiteStore struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewSQLiteStore opens a SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}
// #endregion constructor

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for the decision log.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// #region save
// Save appends a snapshot. A missing ID or timestamp is filled in.
func (s *SQLiteStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.Name == "" {
		return ErrInvalidName
	}
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}
	scores, err := json.Marshal(snap.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_snapshots (snapshot_id, name, payload_json, scores_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, string(snap.Payload), string(scores), snap.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
// #endregion save

// #region load
// Load returns the newest snapshot saved under name.
func (s *SQLiteStore) Load(ctx context.Context, name string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT snapshot_id, name, payload_json, scores_json, created_at
		 FROM session_snapshots WHERE name = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT 1`, name,
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load session %s: %w", name, err)
	}
	return snap, nil
}
// #endregion load

// #region history
// History returns up to limit snapshots saved under name, newest first.
func (s *SQLiteStore) History(ctx context.Context, name string, limit int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT snapshot_id, name, payload_json, scores_json, created_at
		 FROM session_snapshots WHERE name = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, name, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", name, err)
	}
	return collect(rows)
}

// List returns the newest snapshot of each session, most recent first.
// A limit of zero or less returns every session.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT snapshot_id, name, payload_json, scores_json, created_at
		 FROM session_snapshots AS s
		 WHERE rowid = (SELECT rowid FROM session_snapshots WHERE name = s.name
		                ORDER BY created_at DESC, rowid DESC LIMIT 1)
		 ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return collect(rows)
}
// #endregion history

// #region scan
type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (Snapshot, error) {
	var snap Snapshot
	var payload, scores, created string
	if err := row.Scan(&snap.ID, &snap.Name, &payload, &scores, &created); err != nil {
		return Snapshot{}, err
	}
	snap.Payload = json.RawMessage(payload)
	if err := json.Unmarshal([]byte(scores), &snap.Scores); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal scores: %w", err)
	}
	ts, err := logging.ParseTime(created)
	if err != nil {
		return Snapshot{}, err
	}
	snap.Timestamp = ts
	return snap, nil
}

func collect(rows *sql.Rows) ([]Snapshot, error) {
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
// #endregion scan
