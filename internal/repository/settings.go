package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

var ErrSettingsNotFound = errors.New("settings not found")

// SaveSettings inserts or replaces the settings of a user.
func (r *SessionRepository) SaveSettings(ctx context.Context, userID int64, settings entities.Settings) error {
	data, err := EncodeSettings(settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_settings (user_id, settings, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET settings = EXCLUDED.settings, updated_at = NOW()
	`

	if _, err := r.db.Exec(ctx, query, userID, data); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}

	return nil
}

// LoadSettings retrieves the settings of a user.
// Returns ErrSettingsNotFound if settings don't exist.
func (r *SessionRepository) LoadSettings(ctx context.Context, userID int64) (*entities.Settings, error) {
	query := `SELECT settings FROM user_settings WHERE user_id = $1`

	var data []byte
	if err := r.db.QueryRow(ctx, query, userID).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("load settings: %w", err)
	}

	return DecodeSettings(data)
}
