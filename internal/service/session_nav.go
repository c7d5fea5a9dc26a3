package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// LoadBank fetches the bank identified by key and makes it the active question set.
// Reloading the active bank keeps the position and answers; switching banks,
// or loading in study mode, starts over from the first question.
func (c *SessionController) LoadBank(ctx context.Context, key string) error {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.session.Mode == entities.ModeExam {
		err := c.rejectLocked(ctx, NoticeExamInProgress, ErrExamInProgress)
		c.mu.Unlock()
		return err
	}
	if key == "" {
		err := c.rejectLocked(ctx, NoticeChooseBank, ErrNoBank)
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	questions, loadErr := c.banks.LoadBank(ctx, key)
	name := c.banks.BankName(ctx, key)
	if loadErr == nil && len(questions) == 0 {
		loadErr = ErrNoQuestions
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if loadErr != nil {
		c.logger.Warn("failed to load bank", zap.String("bank", key), zap.Error(loadErr))
		c.notifyLocked(ctx, Notice{Code: NoticeBankLoadFailed, Bank: name})
		return fmt.Errorf("%w: bank %q: %w", ErrLoadFailed, key, loadErr)
	}

	s := c.session
	if s.Mode == entities.ModeExam {
		c.logger.Info("discarding bank loaded during exam", zap.String("bank", key))
		return c.rejectLocked(ctx, NoticeExamInProgress, ErrExamInProgress)
	}

	if s.Bank != key || s.Mode == entities.ModeStudy {
		s.Answers = make(entities.Answers)
		s.Current = 0
	}
	s.Bank = key
	s.Questions = questions
	s.Current = s.ClampPosition(s.Current)
	c.bankName = name
	c.tasks.cancelAll()

	c.persistLocked(ctx)
	c.presenter.RenderControls(ctx, buildControls(s))
	c.renderLocked(ctx)
	c.notifyLocked(ctx, Notice{Code: NoticeBankLoaded, Bank: name, Count: len(questions)})

	c.logger.Info("bank loaded", zap.String("bank", key), zap.Int("questions", len(questions)))
	return nil
}

// GoTo makes pos the current question.
func (c *SessionController) GoTo(ctx context.Context, pos int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.goToLocked(ctx, pos)
}

// Next moves to the following question.
func (c *SessionController) Next(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.goToLocked(ctx, c.session.Current+1)
}

// Prev moves to the preceding question.
func (c *SessionController) Prev(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.goToLocked(ctx, c.session.Current-1)
}

func (c *SessionController) goToLocked(ctx context.Context, pos int) error {
	if err := c.checkOpenLocked(); err != nil {
		return err
	}

	s := c.session
	if !s.HasQuestions() {
		return c.rejectLocked(ctx, NoticeNoQuestions, ErrNoQuestions)
	}
	if !s.ValidPosition(pos) {
		return c.rejectLocked(ctx, NoticeOutOfRange, ErrOutOfRange)
	}

	s.Current = pos
	c.persistLocked(ctx)
	c.renderLocked(ctx)
	return nil
}

// ResetPractice clears every practice answer and returns to the first question.
func (c *SessionController) ResetPractice(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}

	s := c.session
	switch s.Mode {
	case entities.ModeExam:
		return c.rejectLocked(ctx, NoticeExamInProgress, ErrExamInProgress)
	case entities.ModeStudy:
		return c.rejectLocked(ctx, NoticeSwitchToPractice, ErrReadOnly)
	}

	c.tasks.cancelAll()
	s.Answers = make(entities.Answers)
	s.Current = 0

	c.persistLocked(ctx)
	c.renderLocked(ctx)
	c.notifyLocked(ctx, Notice{Code: NoticeResetDone})
	return nil
}

// ToggleLanguage switches the primary text language.
func (c *SessionController) ToggleLanguage(ctx context.Context) (entities.Language, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return "", err
	}

	s := c.session
	s.Language = s.Language.Toggle()

	c.persistLocked(ctx)
	c.renderQuestionLocked(ctx)
	c.notifyLocked(ctx, Notice{Code: NoticeLanguageChanged})
	return s.Language, nil
}

// UpdateSettings applies fn to the user settings and saves them.
// Settings are locked while an exam runs.
func (c *SessionController) UpdateSettings(ctx context.Context, fn func(*entities.Settings)) (entities.Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return entities.Settings{}, err
	}

	s := c.session
	if s.Mode == entities.ModeExam {
		return s.Settings, c.rejectLocked(ctx, NoticeExamInProgress, ErrExamInProgress)
	}

	fn(&s.Settings)

	if c.store != nil {
		if err := c.store.SaveSettings(ctx, s.UserID, s.Settings); err != nil {
			c.logger.Warn("failed to save settings", zap.Error(err))
		}
	}
	c.persistLocked(ctx)
	c.renderQuestionLocked(ctx)
	c.notifyLocked(ctx, Notice{Code: NoticeSettingsSaved})
	return s.Settings, nil
}
