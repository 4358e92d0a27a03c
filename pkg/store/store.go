// Package store is the durable local store for sessions. It is the source of
// truth: every lifecycle operation persists here synchronously, and analytics
// and export read only from here.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/anshul-jain-devx108/shopmind/pkg/logger"
	"github.com/anshul-jain-devx108/shopmind/pkg/types"
)

// ErrNotFound is returned by Load when no readable session exists for the id.
// A stored record whose body fails to parse is treated the same as a missing
// one: the caller proceeds as if the session never existed.
var ErrNotFound = errors.New("session not found")

// Store wraps the SQLite database holding session records. Each row carries
// the index summary in plain columns plus the full session document as JSON,
// so the index can be listed without decoding message bodies.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens or creates the session database at the given path.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	st := &Store{
		conn: conn,
		path: path,
	}

	if err := st.initSchema(); err != nil {
		conn.Close()
		return nil, err
	}

	return st, nil
}

// Close closes the database connection
func (st *Store) Close() error {
	return st.conn.Close()
}

// Path returns the database file path
func (st *Store) Path() string {
	return st.path
}

// initSchema creates tables if they don't exist
func (st *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME,
		message_count INTEGER NOT NULL DEFAULT 0,
		body TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_active ON sessions(user_id, end_time);
	`

	if _, err := st.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// Save writes the full session record and upserts its index summary. An
// update keeps the row's original position so ListIndex stays in
// first-creation order.
func (st *Store) Save(session *types.Session) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	var endTime sql.NullTime
	if session.EndTime != nil {
		endTime = sql.NullTime{Time: *session.EndTime, Valid: true}
	}

	query := `
		INSERT INTO sessions (session_id, user_id, start_time, end_time, message_count, body)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			end_time = excluded.end_time,
			message_count = excluded.message_count,
			body = excluded.body
	`
	_, err = st.conn.Exec(query,
		session.SessionID,
		session.UserID,
		session.StartTime,
		endTime,
		session.Metadata.MessageCount,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Load returns the full session for the id, or ErrNotFound when the record
// is absent or its stored body is corrupt.
func (st *Store) Load(sessionID string) (*types.Session, error) {
	var body string
	err := st.conn.QueryRow("SELECT body FROM sessions WHERE session_id = ?", sessionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	var session types.Session
	if err := json.Unmarshal([]byte(body), &session); err != nil {
		logger.Warn("Stored session %s is corrupt, treating as absent: %v", sessionID, err)
		return nil, ErrNotFound
	}

	return &session, nil
}

// ListIndex returns all session summaries in first-creation order.
func (st *Store) ListIndex() ([]types.SessionIndexEntry, error) {
	query := `
		SELECT session_id, user_id, start_time, end_time, message_count
		FROM sessions
		ORDER BY rowid
	`

	rows, err := st.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query session index: %w", err)
	}
	defer rows.Close()

	var entries []types.SessionIndexEntry
	for rows.Next() {
		var e types.SessionIndexEntry
		var endTime sql.NullTime
		if err := rows.Scan(
			&e.SessionID,
			&e.UserID,
			&e.StartTime,
			&endTime,
			&e.MessageCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan index entry: %w", err)
		}
		if endTime.Valid {
			t := endTime.Time
			e.EndTime = &t
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session index: %w", err)
	}

	return entries, nil
}

// ActiveSession returns the id of the newest un-ended session for the user,
// or ErrNotFound when the user has none.
func (st *Store) ActiveSession(userID string) (string, error) {
	var sessionID string
	query := `
		SELECT session_id FROM sessions
		WHERE user_id = ? AND end_time IS NULL
		ORDER BY rowid DESC
		LIMIT 1
	`
	err := st.conn.QueryRow(query, userID).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query active session: %w", err)
	}
	return sessionID, nil
}

// Delete removes the session record. Missing rows are not an error; the
// caller only cares that the id is gone.
func (st *Store) Delete(sessionID string) error {
	if _, err := st.conn.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Count returns the total number of stored sessions.
func (st *Store) Count() (int, error) {
	var count int
	err := st.conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}
