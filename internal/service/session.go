package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// Options tunes the pacing of a session controller.
type Options struct {
	CorrectAdvanceDelay time.Duration // practice: advance after a correct answer
	AutoNextDelay       time.Duration // practice: advance after a wrong answer when AutoNext is on
	StudyAutoNextDelay  time.Duration // study: advance after submit when AutoNext is on
	ExamAdvanceDelay    time.Duration // exam: advance after a single answer is recorded
	AutoSubmitDelay     time.Duration // auto-submit of single-select questions
	ClockSpec           string        // cron spec of the exam clock
	DefaultBank         string
	Now                 func() time.Time
}

// DefaultOptions returns the pacing used by the web front end.
func DefaultOptions() Options {
	return Options{
		CorrectAdvanceDelay: 50 * time.Millisecond,
		AutoNextDelay:       3 * time.Second,
		StudyAutoNextDelay:  1500 * time.Millisecond,
		ExamAdvanceDelay:    400 * time.Millisecond,
		AutoSubmitDelay:     0,
		ClockSpec:           DefaultClockSpec,
		DefaultBank:         entities.DefaultBank,
		Now:                 time.Now,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.ClockSpec == "" {
		o.ClockSpec = def.ClockSpec
	}
	if o.DefaultBank == "" {
		o.DefaultBank = def.DefaultBank
	}
	if o.Now == nil {
		o.Now = def.Now
	}
	return o
}

// SessionController is the exam session state machine of one user.
// Every operation holds the controller lock from its first mutation to its
// last render, so operations never interleave.
type SessionController struct {
	mu sync.Mutex

	ctx       context.Context // context of deferred tasks and clock ticks
	session   *entities.Session
	bankName  string
	banks     BankLoader
	store     SnapshotStore
	results   ResultStore
	presenter Presenter
	logger    *zap.Logger
	opts      Options

	tasks   *taskQueue
	clock   *ExamClock
	pending *ConfirmRequest
	closed  bool
}

// NewSessionController creates a controller for a fresh practice session.
// ctx bounds deferred tasks and the exam clock; results may be nil.
func NewSessionController(
	ctx context.Context,
	userID int64,
	banks BankLoader,
	store SnapshotStore,
	results ResultStore,
	presenter Presenter,
	logger *zap.Logger,
	opts Options,
) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionController{
		ctx:       ctx,
		session:   entities.NewSession(userID),
		banks:     banks,
		store:     store,
		results:   results,
		presenter: presenter,
		logger:    logger.With(zap.Int64("user_id", userID)),
		opts:      opts.withDefaults(),
		tasks:     newTaskQueue(),
	}
}

// Hydrate restores persisted state. The session never resumes in exam mode,
// and study mode never restores answers.
func (c *SessionController) Hydrate(snap *entities.Snapshot, settings *entities.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	if snap != nil {
		s.Bank = snap.CurrentBank
		s.Current = max(snap.CurrentQuestionIndex, 0)
		s.Mode = entities.ModePractice
		if snap.IsStudyMode {
			s.Mode = entities.ModeStudy
		}
		if snap.CurrentLanguage != "" {
			s.Language = snap.CurrentLanguage
		}
		s.Settings.ShowTranslation = snap.ShowTranslation
		s.Settings.AutoNext = snap.AutoNext

		s.Answers = make(entities.Answers)
		if !snap.IsStudyMode && snap.UserAnswers != nil {
			s.Answers = snap.UserAnswers.Clone()
		}
	}
	if settings != nil {
		s.Settings = *settings
	}
	s.ClearExam()
}

// Start loads the saved bank, or the default bank when none was saved.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	bank := c.session.Bank
	c.mu.Unlock()

	if bank == "" {
		bank = c.opts.DefaultBank
	}
	return c.LoadBank(ctx, bank)
}

// Refresh re-renders controls, navigation and the current question.
func (c *SessionController) Refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.presenter.RenderControls(ctx, buildControls(c.session))
	c.renderLocked(ctx)
}

// Snapshot returns the persisted view of the session.
// During an exam it describes the session the exam will return to.
func (c *SessionController) Snapshot() *entities.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

// State returns a copy of the session state.
func (c *SessionController) State() entities.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := *c.session
	out.Questions = slices.Clone(c.session.Questions)
	out.Answers = c.session.Answers.Clone()
	if c.session.ExamTemplate != nil {
		tpl := *c.session.ExamTemplate
		out.ExamTemplate = &tpl
	}
	return out
}

// Stats returns the stats panel data for the active question set.
func (c *SessionController) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return computeStats(c.session)
}

// Close stops the exam clock and every deferred task. Later deferred work is dropped.
func (c *SessionController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.stopClockLocked()
	c.tasks.cancelAll()
	c.pending = nil
}

func (c *SessionController) snapshotLocked() *entities.Snapshot {
	s := c.session
	snap := &entities.Snapshot{
		CurrentBank:          s.Bank,
		CurrentQuestionIndex: s.Current,
		IsStudyMode:          s.Mode == entities.ModeStudy,
		UserAnswers:          make(entities.Answers),
		ShowTranslation:      s.Settings.ShowTranslation,
		AutoNext:             s.Settings.AutoNext,
		CurrentLanguage:      s.Language,
	}

	switch s.Mode {
	case entities.ModeExam:
		snap.CurrentBank = s.PriorBank
		snap.CurrentQuestionIndex = 0
		snap.IsStudyMode = s.PriorMode == entities.ModeStudy
	case entities.ModePractice:
		snap.UserAnswers = s.Answers.Clone()
	}

	return snap
}

// persistLocked saves the snapshot. Exam state is never persisted, and
// persistence failures are logged rather than failing the operation.
func (c *SessionController) persistLocked(ctx context.Context) {
	if c.store == nil || c.session.Mode == entities.ModeExam {
		return
	}
	if err := c.store.SaveSnapshot(ctx, c.session.UserID, c.snapshotLocked()); err != nil {
		c.logger.Warn("failed to save session snapshot", zap.Error(err))
	}
}

func (c *SessionController) notifyLocked(ctx context.Context, notice Notice) {
	c.presenter.Notify(ctx, notice)
}

func (c *SessionController) renderLocked(ctx context.Context) {
	c.presenter.RenderNavigation(ctx, buildNavigation(c.session))
	c.renderQuestionLocked(ctx)
}

func (c *SessionController) renderQuestionLocked(ctx context.Context) {
	if !c.session.HasQuestions() {
		return
	}
	c.session.Current = c.session.ClampPosition(c.session.Current)
	c.presenter.RenderQuestion(ctx, buildQuestionView(c.session, c.bankName))
}

func (c *SessionController) stopClockLocked() {
	c.clock.Stop()
	c.clock = nil
}

// deferLocked schedules fn for pos. fn runs under the controller lock and only
// if the task was not cancelled or superseded in the meantime.
func (c *SessionController) deferLocked(pos int, delay time.Duration, fn func(ctx context.Context)) {
	c.tasks.schedule(pos, delay, func(id uint64) {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.closed || c.ctx.Err() != nil || !c.tasks.claim(pos, id) {
			return
		}
		fn(c.ctx)
	})
}

// advanceLater moves from pos to pos+1 after delay, unless the user has moved on.
func (c *SessionController) advanceLater(pos int, delay time.Duration) {
	if pos+1 >= len(c.session.Questions) {
		return
	}
	c.deferLocked(pos, delay, func(ctx context.Context) {
		if c.session.Current != pos || !c.session.ValidPosition(pos+1) {
			return
		}
		c.session.Current = pos + 1
		c.persistLocked(ctx)
		c.renderLocked(ctx)
	})
}

func (c *SessionController) checkOpenLocked() error {
	if c.closed {
		return ErrSessionClosed
	}
	return nil
}

// rejectLocked reports a guard violation to the user and returns it.
func (c *SessionController) rejectLocked(ctx context.Context, code NoticeCode, err error) error {
	c.notifyLocked(ctx, Notice{Code: code})
	c.logger.Debug("operation rejected", zap.Error(err))
	return err
}
