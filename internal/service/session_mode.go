package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// ChangeMode switches between practice and study. Exam mode is entered with
// StartExam and left with EndExam or AbortExam only.
func (c *SessionController) ChangeMode(ctx context.Context, target entities.Mode) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}

	s := c.session
	switch {
	case s.Mode == entities.ModeExam:
		return c.rejectLocked(ctx, NoticeExamInProgress, ErrExamInProgress)
	case target == entities.ModeExam:
		return c.rejectLocked(ctx, NoticeUseStartExam, ErrInvalidMode)
	case target != entities.ModePractice && target != entities.ModeStudy:
		return fmt.Errorf("%w: %q", ErrInvalidMode, target)
	}

	c.tasks.cancelAll()
	s.Answers = make(entities.Answers)
	s.Mode = target

	c.presenter.RenderControls(ctx, buildControls(s))
	c.renderLocked(ctx)
	c.persistLocked(ctx)

	c.logger.Info("mode changed", zap.String("mode", string(target)))
	return nil
}

// StartExam loads the exam template ref and its questions, then enters exam mode.
// A load failure leaves the session untouched.
func (c *SessionController) StartExam(ctx context.Context, ref string) error {
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
	c.mu.Unlock()

	tpl, questions, loadErr := c.loadExam(ctx, ref)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if loadErr != nil {
		c.logger.Warn("failed to load exam", zap.String("template", ref), zap.Error(loadErr))
		c.notifyLocked(ctx, Notice{Code: NoticeExamLoadFailed})
		return fmt.Errorf("%w: %w", ErrLoadFailed, loadErr)
	}

	s := c.session
	if s.Mode == entities.ModeExam {
		return c.rejectLocked(ctx, NoticeExamInProgress, ErrExamInProgress)
	}

	var clk *ExamClock
	clk, err := StartExamClock(c.opts.ClockSpec, func() { c.tick(clk) })
	if err != nil {
		c.notifyLocked(ctx, Notice{Code: NoticeExamLoadFailed})
		return err
	}

	c.tasks.cancelAll()
	c.pending = nil
	c.clock = clk

	s.PriorMode = s.Mode
	s.PriorBank = s.Bank
	s.Mode = entities.ModeExam
	s.ExamTemplate = tpl
	s.ExamStarted = c.opts.Now()
	s.ExamElapsed = 0
	s.Questions = questions
	s.Answers = make(entities.Answers)
	s.Current = 0

	c.presenter.RenderControls(ctx, buildControls(s))
	c.notifyLocked(ctx, Notice{Code: NoticeExamStarted, Count: len(questions)})
	c.renderLocked(ctx)

	c.logger.Info("exam started",
		zap.String("exam", tpl.Name),
		zap.Int("questions", len(questions)),
	)
	return nil
}

func (c *SessionController) loadExam(ctx context.Context, ref string) (*entities.ExamTemplate, []entities.Question, error) {
	tpl, err := c.banks.LoadExamTemplate(ctx, ref)
	if err != nil {
		return nil, nil, fmt.Errorf("load exam template %q: %w", ref, err)
	}

	questions, err := c.banks.LoadExamQuestions(ctx, tpl)
	if err != nil {
		return nil, nil, fmt.Errorf("load questions for exam %q: %w", tpl.Name, err)
	}
	if len(questions) == 0 {
		return nil, nil, fmt.Errorf("exam %q: %w", tpl.Name, ErrNoQuestions)
	}

	return tpl, questions, nil
}

// EndExam scores the exam, stores the result and returns to the mode and bank
// that were active before the exam.
func (c *SessionController) EndExam(ctx context.Context) (*entities.ExamResult, error) {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	s := c.session
	if s.Mode != entities.ModeExam {
		err := c.rejectLocked(ctx, NoticeNotInExam, ErrNotInExam)
		c.mu.Unlock()
		return nil, err
	}

	c.stopClockLocked()

	now := c.opts.Now()
	result := CalculateExamResult(s.Questions, s.Answers)
	result.ID = uuid.NewString()
	result.StartedAt = s.ExamStarted
	result.FinishedAt = now
	result.ElapsedSeconds = int64(now.Sub(s.ExamStarted) / time.Second)
	if s.ExamTemplate != nil {
		result.ExamName = s.ExamTemplate.Name
	}

	c.presenter.RenderExamResult(ctx, result)
	bank := c.leaveExamLocked(ctx)
	userID := s.UserID
	c.mu.Unlock()

	c.logger.Info("exam finished",
		zap.String("result_id", result.ID),
		zap.String("exam", result.ExamName),
		zap.Int("score_percentage", result.ScorePercentage),
		zap.Int("answered", result.AnsweredCount),
		zap.Int("questions", result.QuestionCount),
	)

	if c.results != nil {
		if err := c.results.SaveExamResult(ctx, userID, &result); err != nil {
			c.logger.Warn("failed to save exam result", zap.String("result_id", result.ID), zap.Error(err))
		}
	}

	if err := c.LoadBank(ctx, bank); err != nil {
		c.logger.Warn("failed to reload bank after exam", zap.String("bank", bank), zap.Error(err))
	}

	return &result, nil
}

// AbortExam leaves exam mode without scoring.
func (c *SessionController) AbortExam(ctx context.Context) error {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if c.session.Mode != entities.ModeExam {
		err := c.rejectLocked(ctx, NoticeNotInExam, ErrNotInExam)
		c.mu.Unlock()
		return err
	}

	bank := c.leaveExamLocked(ctx)
	c.notifyLocked(ctx, Notice{Code: NoticeExamAborted})
	c.mu.Unlock()

	c.logger.Info("exam aborted")

	if err := c.LoadBank(ctx, bank); err != nil {
		c.logger.Warn("failed to reload bank after exam", zap.String("bank", bank), zap.Error(err))
	}
	return nil
}

// RequestEndExam asks the user to confirm ending the exam.
func (c *SessionController) RequestEndExam(ctx context.Context) error {
	return c.confirmExam(ctx, ConfirmEndExam)
}

// ResolveConfirmation completes a confirmation previously requested through
// Presenter.Confirm. An accepted confirmation ends the exam and returns its result.
func (c *SessionController) ResolveConfirmation(ctx context.Context, kind ConfirmKind, accepted bool) (*entities.ExamResult, error) {
	c.mu.Lock()
	if err := c.checkOpenLocked(); err != nil {
		c.mu.Unlock()
		return nil, err
	}

	// A stale button of another kind leaves the live confirmation pending.
	if c.pending == nil || c.pending.Kind != kind || c.session.Mode != entities.ModeExam {
		err := c.rejectLocked(ctx, NoticeConfirmationStale, ErrNoPendingConfirmation)
		c.mu.Unlock()
		return nil, err
	}
	c.pending = nil
	c.mu.Unlock()

	if !accepted {
		return nil, nil
	}
	return c.EndExam(ctx)
}

func (c *SessionController) confirmExam(ctx context.Context, kind ConfirmKind) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if c.session.Mode != entities.ModeExam {
		return c.rejectLocked(ctx, NoticeNotInExam, ErrNotInExam)
	}

	return c.confirmExamLocked(ctx, kind)
}

func (c *SessionController) confirmExamLocked(ctx context.Context, kind ConfirmKind) error {
	unanswered := 0
	for i := range c.session.Questions {
		if rec := c.session.Answers[i]; rec == nil || !rec.Submitted {
			unanswered++
		}
	}

	req := ConfirmRequest{Kind: kind, Unanswered: unanswered}
	c.pending = &req
	c.presenter.Confirm(ctx, req)
	return nil
}

// leaveExamLocked restores the pre-exam mode and clears every exam field.
// It returns the bank to reload.
func (c *SessionController) leaveExamLocked(ctx context.Context) string {
	s := c.session

	bank := s.PriorBank
	if bank == "" {
		bank = c.opts.DefaultBank
	}
	mode := s.PriorMode
	if mode == "" || mode == entities.ModeExam {
		mode = entities.ModePractice
	}

	c.stopClockLocked()
	c.tasks.cancelAll()
	c.pending = nil

	s.ClearExam()
	s.Mode = mode
	s.Bank = ""
	s.Questions = nil
	s.Answers = make(entities.Answers)
	s.Current = 0
	c.bankName = ""

	c.presenter.RenderControls(ctx, buildControls(s))
	return bank
}

func (c *SessionController) tick(clk *ExamClock) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.clock != clk || c.session.Mode != entities.ModeExam {
		return
	}

	c.session.ExamElapsed = c.opts.Now().Sub(c.session.ExamStarted).Truncate(time.Second)
	c.presenter.ReportElapsed(c.ctx, c.session.ExamElapsed)
}
