// Package history keeps an optional SQLite log of what was played.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Outcome records how a play ended
type Outcome string

const (
	OutcomeFinished Outcome = "finished"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeStopped  Outcome = "stopped"
	OutcomeFailed   Outcome = "failed"
)

// Play is one row of the history log
type Play struct {
	ID        int64
	Session   string // one id per ttyplay run
	Path      string
	Title     string
	Artist    string
	Album     string
	StartedAt time.Time
	Played    time.Duration // listening time, excluding pauses
	Duration  time.Duration // track length, 0 when unknown
	Outcome   Outcome
	Listened  bool // met the listened threshold
	Error     string
}

// Store is the SQLite-backed history log
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dbPath
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// one connection keeps :memory: databases consistent
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS plays (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session TEXT NOT NULL,
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album TEXT,
			started_at INTEGER NOT NULL,
			played_ms INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			listened BOOLEAN DEFAULT 0,
			error TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_plays_started ON plays(started_at);
		CREATE INDEX IF NOT EXISTS idx_plays_path ON plays(path);
	`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record appends a play and returns its id
func (s *Store) Record(ctx context.Context, p Play) (int64, error) {
	query := `
		INSERT INTO plays (session, path, title, artist, album, started_at, played_ms, duration_ms, outcome, listened, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		p.Session,
		p.Path,
		p.Title,
		p.Artist,
		p.Album,
		p.StartedAt.Unix(),
		p.Played.Milliseconds(),
		p.Duration.Milliseconds(),
		string(p.Outcome),
		p.Listened,
		nullString(p.Error),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert play: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// Recent returns up to limit plays, newest first. limit <= 0 returns all.
func (s *Store) Recent(ctx context.Context, limit int) ([]Play, error) {
	query := `
		SELECT id, session, path, title, COALESCE(artist, ''), COALESCE(album, ''),
			started_at, played_ms, duration_ms, outcome, listened, COALESCE(error, '')
		FROM plays
		ORDER BY started_at DESC, id DESC
	`

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plays: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var plays []Play
	for rows.Next() {
		var p Play
		var startedUnix, playedMs, durationMs int64
		var outcome string

		err := rows.Scan(
			&p.ID,
			&p.Session,
			&p.Path,
			&p.Title,
			&p.Artist,
			&p.Album,
			&startedUnix,
			&playedMs,
			&durationMs,
			&outcome,
			&p.Listened,
			&p.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan play: %w", err)
		}

		p.StartedAt = time.Unix(startedUnix, 0)
		p.Played = time.Duration(playedMs) * time.Millisecond
		p.Duration = time.Duration(durationMs) * time.Millisecond
		p.Outcome = Outcome(outcome)
		plays = append(plays, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plays: %w", err)
	}

	return plays, nil
}

// Cleanup removes plays older than maxAge and returns how many were deleted
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()

	result, err := s.db.ExecContext(ctx, "DELETE FROM plays WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup plays: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}

// Count returns the number of plays, optionally only listened ones
func (s *Store) Count(ctx context.Context, listenedOnly bool) (int, error) {
	query := "SELECT COUNT(*) FROM plays"
	if listenedOnly {
		query += " WHERE listened = 1"
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count plays: %w", err)
	}

	return count, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
