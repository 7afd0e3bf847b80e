package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maheshwarip/naamjaap/internal/domain"
	"github.com/maheshwarip/naamjaap/internal/logger"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Compile-time interface checks.
var (
	_ domain.CounterStore   = (*SQLiteStore)(nil)
	_ domain.DailyStatStore = (*SQLiteStore)(nil)
	_ domain.HistoryStore   = (*SQLiteStore)(nil)
)

// SQLiteStore persists the tally, daily stats, and session history in a
// SQLite database. All rows are scoped to a single user id so one
// database file can hold several practitioners.
type SQLiteStore struct {
	db     *sql.DB
	userID string
	log    *logger.Logger
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(path, userID string, log *logger.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	store := &SQLiteStore{db: db, userID: userID, log: log}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Debug("opened sqlite store at %s (user=%s)", path, userID)
	return store, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS counters (
			user_id TEXT PRIMARY KEY,
			count INTEGER NOT NULL,
			mala_count INTEGER NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS daily_stats (
			user_id TEXT NOT NULL,
			date TEXT NOT NULL,
			chant_count INTEGER NOT NULL,
			PRIMARY KEY (user_id, date)
		);`,
		`CREATE TABLE IF NOT EXISTS jaap_sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			start_time TEXT NOT NULL,
			end_time TEXT NOT NULL,
			total_count INTEGER NOT NULL,
			mala_count INTEGER NOT NULL,
			chant_text TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_jaap_sessions_user_start ON jaap_sessions(user_id, start_time);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SaveCounter upserts the tally row. Merge-style: the latest write wins.
func (s *SQLiteStore) SaveCounter(ctx context.Context, state domain.TallyState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO counters (user_id, count, mala_count, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			count = excluded.count,
			mala_count = excluded.mala_count,
			updated_at = excluded.updated_at`,
		s.userID, state.Count, state.MalaCount, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	return nil
}

// LoadCounter reads the tally row. Returns ErrNotFound for a new user.
func (s *SQLiteStore) LoadCounter(ctx context.Context) (domain.TallyState, error) {
	var state domain.TallyState
	err := s.db.QueryRowContext(ctx,
		`SELECT count, mala_count FROM counters WHERE user_id = ?`, s.userID,
	).Scan(&state.Count, &state.MalaCount)
	if err == sql.ErrNoRows {
		return domain.TallyState{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.TallyState{}, fmt.Errorf("load counter: %w", err)
	}
	return state, nil
}

// AddDaily increments the day's aggregate, creating the row if absent.
// Read-check-then-write: two processes writing the same day can
// under-count. The app runs one process per user, so this stays.
func (s *SQLiteStore) AddDaily(ctx context.Context, date string, n int) error {
	var current int
	err := s.db.QueryRowContext(ctx,
		`SELECT chant_count FROM daily_stats WHERE user_id = ? AND date = ?`,
		s.userID, date,
	).Scan(&current)
	switch {
	case err == sql.ErrNoRows:
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO daily_stats (user_id, date, chant_count) VALUES (?, ?, ?)`,
			s.userID, date, n)
	case err != nil:
		return fmt.Errorf("read daily: %w", err)
	default:
		_, err = s.db.ExecContext(ctx,
			`UPDATE daily_stats SET chant_count = ? WHERE user_id = ? AND date = ?`,
			current+n, s.userID, date)
	}
	if err != nil {
		return fmt.Errorf("write daily: %w", err)
	}
	return nil
}

// Daily reads the aggregate for a day, zero if none recorded.
func (s *SQLiteStore) Daily(ctx context.Context, date string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT chant_count FROM daily_stats WHERE user_id = ? AND date = ?`,
		s.userID, date,
	).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read daily: %w", err)
	}
	return n, nil
}

// AppendSession inserts a finished session into the history log.
func (s *SQLiteStore) AppendSession(ctx context.Context, rec domain.SessionRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jaap_sessions (id, user_id, start_time, end_time, total_count, mala_count, chant_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, s.userID,
		rec.StartTime.UTC().Format(time.RFC3339Nano),
		rec.EndTime.UTC().Format(time.RFC3339Nano),
		rec.TotalCount, rec.MalaCount, rec.ChantText,
	)
	if err != nil {
		return fmt.Errorf("append session: %w", err)
	}
	s.log.Debug("recorded session %s (total=%d, malas=%d)", rec.ID, rec.TotalCount, rec.MalaCount)
	return nil
}

// ListSessions returns the user's history, most recent first.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]domain.SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, start_time, end_time, total_count, mala_count, chant_text
		 FROM jaap_sessions
		 WHERE user_id = ?
		 ORDER BY start_time DESC`, s.userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var recs []domain.SessionRecord
	for rows.Next() {
		var rec domain.SessionRecord
		var start, end string
		if err := rows.Scan(&rec.ID, &start, &end, &rec.TotalCount, &rec.MalaCount, &rec.ChantText); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if rec.StartTime, err = time.Parse(time.RFC3339Nano, start); err != nil {
			return nil, fmt.Errorf("parse start_time: %w", err)
		}
		if rec.EndTime, err = time.Parse(time.RFC3339Nano, end); err != nil {
			return nil, fmt.Errorf("parse end_time: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return recs, nil
}
