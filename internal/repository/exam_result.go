package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/infra/postgres"
)

// DefaultHistoryKeep is the number of exam results kept per user.
const DefaultHistoryKeep = 50

// TxRunner runs a function inside a transaction. *postgres.Transactor implements it.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx postgres.DBTX) error) error
}

// ExamResultRepository stores finished exams in PostgreSQL.
type ExamResultRepository struct {
	db   postgres.DBTX
	tr   TxRunner
	keep int
}

// NewExamResultRepository creates a new ExamResultRepository keeping at most keep
// results per user; keep <= 0 means DefaultHistoryKeep.
func NewExamResultRepository(db postgres.DBTX, tr TxRunner, keep int) *ExamResultRepository {
	if keep <= 0 {
		keep = DefaultHistoryKeep
	}
	return &ExamResultRepository{db: db, tr: tr, keep: keep}
}

// SaveExamResult stores a result and trims the user's history in one transaction.
func (r *ExamResultRepository) SaveExamResult(ctx context.Context, userID int64, result *entities.ExamResult) error {
	items, err := json.Marshal(result.Items)
	if err != nil {
		return fmt.Errorf("encode exam result items: %w", err)
	}

	insert := `
		INSERT INTO exam_results (
			id, user_id, exam_name, earned_score, total_score,
			score_percentage, accuracy, correct_count, answered_count,
			unanswered_count, question_count, items,
			started_at, finished_at, elapsed_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	trim := `
		DELETE FROM exam_results
		WHERE user_id = $1
		  AND id NOT IN (
			SELECT id FROM exam_results
			WHERE user_id = $1
			ORDER BY finished_at DESC
			LIMIT $2
		  )
	`

	return r.tr.WithinTx(ctx, func(ctx context.Context, tx postgres.DBTX) error {
		if _, err := tx.Exec(ctx, insert,
			result.ID,
			userID,
			result.ExamName,
			result.EarnedScore,
			result.TotalScore,
			result.ScorePercentage,
			result.Accuracy,
			result.CorrectCount,
			result.AnsweredCount,
			result.UnansweredCount,
			result.QuestionCount,
			items,
			result.StartedAt,
			result.FinishedAt,
			result.ElapsedSeconds,
		); err != nil {
			return fmt.Errorf("insert exam result: %w", err)
		}

		if _, err := tx.Exec(ctx, trim, userID, r.keep); err != nil {
			return fmt.Errorf("trim exam history: %w", err)
		}

		return nil
	})
}

// ListExamResults returns up to limit results of a user, newest first.
func (r *ExamResultRepository) ListExamResults(ctx context.Context, userID int64, limit int) ([]entities.ExamResult, error) {
	if limit <= 0 || limit > r.keep {
		limit = r.keep
	}

	query := `
		SELECT id::text, exam_name, earned_score, total_score,
		       score_percentage, accuracy, correct_count, answered_count,
		       unanswered_count, question_count, items,
		       started_at, finished_at, elapsed_seconds
		FROM exam_results
		WHERE user_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	defer rows.Close()

	var results []entities.ExamResult
	for rows.Next() {
		var (
			res   entities.ExamResult
			items []byte
		)
		if err := rows.Scan(
			&res.ID,
			&res.ExamName,
			&res.EarnedScore,
			&res.TotalScore,
			&res.ScorePercentage,
			&res.Accuracy,
			&res.CorrectCount,
			&res.AnsweredCount,
			&res.UnansweredCount,
			&res.QuestionCount,
			&items,
			&res.StartedAt,
			&res.FinishedAt,
			&res.ElapsedSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan exam result: %w", err)
		}

		if err := json.Unmarshal(items, &res.Items); err != nil {
			return nil, fmt.Errorf("decode exam result items: %w", err)
		}

		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exam results: %w", err)
	}

	return results, nil
}
