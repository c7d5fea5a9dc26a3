package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_snapshots (
	user_id    BIGINT PRIMARY KEY,
	snapshot   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id    BIGINT PRIMARY KEY,
	settings   JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS exam_results (
	id               UUID PRIMARY KEY,
	user_id          BIGINT NOT NULL,
	exam_name        TEXT NOT NULL,
	earned_score     DOUBLE PRECISION NOT NULL,
	total_score      DOUBLE PRECISION NOT NULL,
	score_percentage INTEGER NOT NULL,
	accuracy         INTEGER NOT NULL,
	correct_count    INTEGER NOT NULL,
	answered_count   INTEGER NOT NULL,
	unanswered_count INTEGER NOT NULL,
	question_count   INTEGER NOT NULL,
	items            JSONB NOT NULL,
	started_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL,
	elapsed_seconds  BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS exam_results_user_finished_idx
	ON exam_results (user_id, finished_at DESC);
`

// EnsureSchema creates the tables used by the bot if they do not exist.
func EnsureSchema(ctx context.Context, db DBTX) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
