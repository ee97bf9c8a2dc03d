package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_session_store.go -package=mocks timesheet-ai/internal/storage SessionStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SessionStore defines the interface for session storage operations.
type SessionStore interface {
	// Create inserts a session. ID and timestamps are assigned when empty.
	Create(ctx context.Context, session *SessionRecord) error
	// Get returns a session by ID. Returns ErrNotFound if not found.
	Get(ctx context.Context, id string) (*SessionRecord, error)
	// Update stores every mutable column of the session and bumps
	// UpdatedAt. Returns ErrNotFound if the session does not exist.
	Update(ctx context.Context, session *SessionRecord) error
	// DeleteOlderThan removes sessions last updated before cutoff together
	// with their chunk logs, returning how many sessions were removed.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionRepo provides methods for session operations.
// It implements the SessionStore interface.
type SessionRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a session.
func (r *SessionRepo) Create(ctx context.Context, session *SessionRecord) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.Status == "" {
		session.Status = StatusUploaded
	}
	now := r.now()
	session.CreatedAt = now
	session.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, filename, status, sheet, mapping, settings, mapped_table, result, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Filename, session.Status, session.Sheet, session.Mapping,
		session.Settings, session.Table, session.Result, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Get returns a session by ID.
func (r *SessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	var s SessionRecord
	err := r.db.QueryRowContext(ctx,
		`SELECT id, filename, status, sheet, mapping, settings, mapped_table, result, created_at, updated_at
		FROM sessions WHERE id = ?`,
		id,
	).Scan(&s.ID, &s.Filename, &s.Status, &s.Sheet, &s.Mapping, &s.Settings, &s.Table, &s.Result, &s.CreatedAt, &s.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &s, nil
}

// Update stores the mutable columns of a session.
func (r *SessionRepo) Update(ctx context.Context, session *SessionRecord) error {
	session.UpdatedAt = r.now()

	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET status = ?, mapping = ?, settings = ?, mapped_table = ?, result = ?, updated_at = ?
		WHERE id = ?`,
		session.Status, session.Mapping, session.Settings, session.Table, session.Result, session.UpdatedAt,
		session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes sessions not updated since cutoff.
func (r *SessionRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete sessions: %w", err)
	}
	return n, nil
}
