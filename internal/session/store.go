// Package session keeps each configuring user's form state between requests
// and drives the quote pipeline on every change.
package session

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/displayquote/internal/form"
)

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// Session is one user's configurator state.
type Session struct {
	ID        string      `json:"id"`
	State     *form.State `json:"state"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// New returns a fresh session with no display selected.
func New() *Session {
	return &Session{ID: uuid.NewString(), State: form.NewState("")}
}

// Store persists sessions.
type Store interface {
	Get(id string) (*Session, error)
	Save(s *Session) error
	Delete(id string) error
	PurgeBefore(t time.Time) (int64, error)
}

// SQLStore keeps sessions in the sqlite sessions table.
type SQLStore struct {
	db *sql.DB
}

// NewSQLStore wraps an open database that has been migrated.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Get loads a session by id.
func (s *SQLStore) Get(id string) (*Session, error) {
	var (
		stateJSON string
		updatedAt string
	)
	err := s.db.QueryRow(`
		SELECT state_json, updated_at
		FROM sessions
		WHERE id = ?
	`, id).Scan(&stateJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	st := form.NewState("")
	if err := json.Unmarshal([]byte(stateJSON), st); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	if st.Values == nil {
		st.Values = make(form.Form)
	}
	if st.Touched == nil {
		st.Touched = make(map[string]bool)
	}

	sess := &Session{ID: id, State: st}
	if t, err := time.Parse(timeLayout, updatedAt); err == nil {
		sess.UpdatedAt = t
	}
	return sess, nil
}

// Save inserts or replaces a session.
func (s *SQLStore) Save(sess *Session) error {
	stateJSON, err := json.Marshal(sess.State)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}

	sess.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, display, state_json, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			display = excluded.display,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at
	`, sess.ID, sess.State.Display, string(stateJSON), sess.UpdatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (s *SQLStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeBefore deletes sessions not updated since t.
func (s *SQLStore) PurgeBefore(t time.Time) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, t.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return affected, nil
}
