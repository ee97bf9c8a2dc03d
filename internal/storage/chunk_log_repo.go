package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_log_store.go -package=mocks timesheet-ai/internal/storage ChunkLogStore

import (
	"context"
	"database/sql"
	"fmt"
)

// ChunkLogStore defines the interface for chunk log storage operations.
type ChunkLogStore interface {
	// Replace swaps the logs of a session for the logs of its latest run.
	Replace(ctx context.Context, sessionID string, logs []ChunkLogRecord) error
	// ListBySession returns the logs of a session ordered by chunk index.
	// Returns an empty slice if there are none (not an error).
	ListBySession(ctx context.Context, sessionID string) ([]ChunkLogRecord, error)
}

// ChunkLogRepo provides methods for chunk log operations.
// It implements the ChunkLogStore interface.
type ChunkLogRepo struct {
	db *sql.DB
}

// NewChunkLogRepo creates a new ChunkLogRepo.
func NewChunkLogRepo(db *sql.DB) *ChunkLogRepo {
	return &ChunkLogRepo{db: db}
}

// Replace deletes the session's logs and inserts the new ones in one
// transaction.
func (r *ChunkLogRepo) Replace(ctx context.Context, sessionID string, logs []ChunkLogRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunk_logs WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to delete chunk logs: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunk_logs (session_id, chunk_index, row_offset, row_count, prompt, response, error, kept, dropped)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare chunk log insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, l := range logs {
		if _, err := stmt.ExecContext(ctx,
			sessionID, l.ChunkIndex, l.RowOffset, l.Rows, l.Prompt, l.Response, l.Error, l.Kept, l.Dropped,
		); err != nil {
			return fmt.Errorf("failed to insert chunk log %d: %w", l.ChunkIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk logs: %w", err)
	}
	return nil
}

// ListBySession returns the logs of a session ordered by chunk index.
func (r *ChunkLogRepo) ListBySession(ctx context.Context, sessionID string) ([]ChunkLogRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT session_id, chunk_index, row_offset, row_count, prompt, response, error, kept, dropped
		FROM chunk_logs WHERE session_id = ? ORDER BY chunk_index`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk logs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	logs := []ChunkLogRecord{}
	for rows.Next() {
		var l ChunkLogRecord
		if err := rows.Scan(&l.SessionID, &l.ChunkIndex, &l.RowOffset, &l.Rows, &l.Prompt, &l.Response, &l.Error, &l.Kept, &l.Dropped); err != nil {
			return nil, fmt.Errorf("failed to scan chunk log: %w", err)
		}
		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk logs: %w", err)
	}

	return logs, nil
}
