package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/infra/postgres"
)

var ErrSnapshotNotFound = errors.New("session snapshot not found")

// SessionRepository stores session snapshots and user settings in PostgreSQL.
type SessionRepository struct {
	db postgres.DBTX
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db postgres.DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

// SaveSnapshot inserts or replaces the snapshot of a user.
func (r *SessionRepository) SaveSnapshot(ctx context.Context, userID int64, snap *entities.Snapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO session_snapshots (user_id, snapshot, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, userID, data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	return nil
}

// LoadSnapshot returns the snapshot of a user.
// Returns ErrSnapshotNotFound if none was saved.
func (r *SessionRepository) LoadSnapshot(ctx context.Context, userID int64) (*entities.Snapshot, error) {
	query := `SELECT snapshot FROM session_snapshots WHERE user_id = $1`

	var data []byte
	if err := r.db.QueryRow(ctx, query, userID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return DecodeSnapshot(data)
}

// DeleteSnapshot removes the snapshot of a user.
func (r *SessionRepository) DeleteSnapshot(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM session_snapshots WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
