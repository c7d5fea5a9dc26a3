package service

import (
	"context"
	"time"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// BankLoader resolves question banks and exam templates.
type BankLoader interface {
	LoadBank(ctx context.Context, key string) ([]entities.Question, error)
	BankName(ctx context.Context, key string) string
	LoadExamTemplate(ctx context.Context, ref string) (*entities.ExamTemplate, error)
	LoadExamQuestions(ctx context.Context, tpl *entities.ExamTemplate) ([]entities.Question, error)
}

// SnapshotStore persists session snapshots and user settings.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, userID int64, snap *entities.Snapshot) error
	LoadSnapshot(ctx context.Context, userID int64) (*entities.Snapshot, error)
	SaveSettings(ctx context.Context, userID int64, settings entities.Settings) error
	LoadSettings(ctx context.Context, userID int64) (*entities.Settings, error)
}

// ResultStore keeps the history of finished exams.
type ResultStore interface {
	SaveExamResult(ctx context.Context, userID int64, result *entities.ExamResult) error
	ListExamResults(ctx context.Context, userID int64, limit int) ([]entities.ExamResult, error)
}

// Presenter executes the render and notification instructions of a controller.
// Calls are made while the controller holds its lock, so a Presenter must not
// call back into the controller.
type Presenter interface {
	Notify(ctx context.Context, notice Notice)
	Confirm(ctx context.Context, req ConfirmRequest)
	RenderControls(ctx context.Context, view ControlsView)
	RenderNavigation(ctx context.Context, view NavigationView)
	RenderQuestion(ctx context.Context, view QuestionView)
	RenderExamResult(ctx context.Context, result entities.ExamResult)
	ReportElapsed(ctx context.Context, elapsed time.Duration)
}
