package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/repository"
)

// Store keeps snapshots, settings and exam history in SQLite.
type Store struct {
	db   *sql.DB
	keep int
	now  func() time.Time
}

// NewStore creates a Store keeping at most keep exam results per user.
func NewStore(db *sql.DB, keep int) *Store {
	if keep <= 0 {
		keep = repository.DefaultHistoryKeep
	}
	return &Store{db: db, keep: keep, now: time.Now}
}

func (s *Store) SaveSnapshot(ctx context.Context, userID int64, snap *entities.Snapshot) error {
	data, err := repository.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (user_id, snapshot, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, userID, string(data), s.now().Unix())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context, userID int64) (*entities.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM session_snapshots WHERE user_id = ?`, userID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	return repository.DecodeSnapshot([]byte(data))
}

func (s *Store) SaveSettings(ctx context.Context, userID int64, settings entities.Settings) error {
	data, err := repository.EncodeSettings(settings)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_settings (user_id, settings, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET settings = excluded.settings, updated_at = excluded.updated_at
	`, userID, string(data), s.now().Unix())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (s *Store) LoadSettings(ctx context.Context, userID int64) (*entities.Settings, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT settings FROM user_settings WHERE user_id = ?`, userID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return repository.DecodeSettings([]byte(data))
}

// SaveExamResult stores a result and trims the user's history in one transaction.
func (s *Store) SaveExamResult(ctx context.Context, userID int64, result *entities.ExamResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode exam result: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO exam_results (id, user_id, result_json, finished_at) VALUES (?, ?, ?, ?)`,
		result.ID, userID, string(data), result.FinishedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("insert exam result: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM exam_results
		WHERE user_id = ?
		  AND id NOT IN (
			SELECT id FROM exam_results
			WHERE user_id = ?
			ORDER BY finished_at DESC
			LIMIT ?
		  )
	`, userID, userID, s.keep); err != nil {
		return fmt.Errorf("trim exam history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exam result: %w", err)
	}
	return nil
}

// ListExamResults returns up to limit results of a user, newest first.
func (s *Store) ListExamResults(ctx context.Context, userID int64, limit int) ([]entities.ExamResult, error) {
	if limit <= 0 || limit > s.keep {
		limit = s.keep
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT result_json FROM exam_results
		WHERE user_id = ?
		ORDER BY finished_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []entities.ExamResult
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan exam result: %w", err)
		}

		var res entities.ExamResult
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			return nil, fmt.Errorf("decode exam result: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam results: %w", err)
	}
	return results, nil
}
