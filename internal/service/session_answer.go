package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// SelectOption applies a selection to the question at pos: single-select
// questions replace the selection, multi-select questions toggle the option.
func (c *SessionController) SelectOption(ctx context.Context, pos, option int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}

	s := c.session
	if s.Mode == entities.ModeStudy {
		return c.rejectLocked(ctx, NoticeReadOnly, ErrReadOnly)
	}
	if !s.ValidPosition(pos) || option < 0 || option >= len(s.Questions[pos].Options) {
		return c.rejectLocked(ctx, NoticeOutOfRange, ErrOutOfRange)
	}

	rec := s.Answers[pos]
	if rec != nil && rec.Submitted && s.Mode != entities.ModeExam {
		return c.rejectLocked(ctx, NoticeAlreadySubmitted, ErrAlreadySubmitted)
	}
	if rec == nil {
		rec = &entities.AnswerRecord{}
		s.Answers[pos] = rec
	}

	q := &s.Questions[pos]
	if q.IsMultiSelect() {
		rec.Toggle(option)
	} else {
		rec.Replace(option)
	}

	c.tasks.cancel(pos)
	s.Current = pos

	c.persistLocked(ctx)
	c.renderLocked(ctx)

	if s.Settings.AutoSubmitSingle && !q.IsMultiSelect() {
		c.deferLocked(pos, c.opts.AutoSubmitDelay, func(ctx context.Context) {
			c.autoSubmitLocked(ctx, pos)
		})
	}
	return nil
}

// autoSubmitLocked submits pos on behalf of the user. It does nothing when
// the record was emptied or already submitted in the meantime.
func (c *SessionController) autoSubmitLocked(ctx context.Context, pos int) {
	s := c.session
	if !s.ValidPosition(pos) {
		return
	}

	rec := s.Answers[pos]
	if rec.IsEmpty() {
		return
	}

	var err error
	switch s.Mode {
	case entities.ModeExam:
		err = c.recordExamAnswerLocked(ctx, pos)
	case entities.ModePractice:
		if rec.Submitted {
			return
		}
		err = c.submitAnswerLocked(ctx, pos)
	}
	if err != nil {
		c.logger.Debug("auto-submit skipped", zap.Int("position", pos), zap.Error(err))
	}
}

// SubmitAnswer locks in the answer at pos and reports its correctness.
// In exam mode it submits the whole exam instead.
func (c *SessionController) SubmitAnswer(ctx context.Context, pos int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}

	if c.session.Mode == entities.ModeExam {
		return c.confirmExamLocked(ctx, ConfirmSubmitExam)
	}
	if !c.session.ValidPosition(pos) {
		return c.rejectLocked(ctx, NoticeOutOfRange, ErrOutOfRange)
	}
	return c.submitAnswerLocked(ctx, pos)
}

func (c *SessionController) submitAnswerLocked(ctx context.Context, pos int) error {
	s := c.session
	rec := s.Answers[pos]
	if rec.IsEmpty() {
		return c.rejectLocked(ctx, NoticeSelectFirst, ErrNothingSelected)
	}
	if rec.Submitted {
		return c.rejectLocked(ctx, NoticeAlreadySubmitted, ErrAlreadySubmitted)
	}

	rec.Submit(c.opts.Now())
	correct := IsCorrectAnswer(&s.Questions[pos], rec)

	c.tasks.cancel(pos)
	s.Current = pos
	c.renderLocked(ctx)

	code := NoticeIncorrect
	if correct {
		code = NoticeCorrect
	}
	c.notifyLocked(ctx, Notice{Code: code})
	c.persistLocked(ctx)

	switch {
	case s.Mode == entities.ModeStudy && s.Settings.AutoNext:
		c.advanceLater(pos, c.opts.StudyAutoNextDelay)
	case s.Mode == entities.ModePractice && correct:
		c.advanceLater(pos, c.opts.CorrectAdvanceDelay)
	case s.Mode == entities.ModePractice && s.Settings.AutoNext:
		c.advanceLater(pos, c.opts.AutoNextDelay)
	}
	return nil
}

// SubmitSingleAnswer records the exam answer at pos without revealing
// correctness, then moves on to the next question.
func (c *SessionController) SubmitSingleAnswer(ctx context.Context, pos int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpenLocked(); err != nil {
		return err
	}
	if c.session.Mode != entities.ModeExam {
		return c.rejectLocked(ctx, NoticeNotInExam, ErrNotInExam)
	}
	if !c.session.ValidPosition(pos) {
		return c.rejectLocked(ctx, NoticeOutOfRange, ErrOutOfRange)
	}
	return c.recordExamAnswerLocked(ctx, pos)
}

func (c *SessionController) recordExamAnswerLocked(ctx context.Context, pos int) error {
	s := c.session
	rec := s.Answers[pos]
	if rec.IsEmpty() {
		return c.rejectLocked(ctx, NoticeSelectFirst, ErrNothingSelected)
	}

	rec.Submit(c.opts.Now())
	c.tasks.cancel(pos)
	s.Current = pos

	c.renderLocked(ctx)
	c.notifyLocked(ctx, Notice{Code: NoticeAnswerRecorded})
	c.advanceLater(pos, c.opts.ExamAdvanceDelay)
	return nil
}

// SubmitExam asks the user to confirm handing in the exam. The confirmation
// reports how many questions have not been submitted.
func (c *SessionController) SubmitExam(ctx context.Context) error {
	return c.confirmExam(ctx, ConfirmSubmitExam)
}
