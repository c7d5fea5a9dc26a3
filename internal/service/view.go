package service

import (
	"time"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// NoticeCode identifies a transient user notification.
type NoticeCode string

const (
	NoticeReadOnly          NoticeCode = "read_only"
	NoticeAlreadySubmitted  NoticeCode = "already_submitted"
	NoticeSelectFirst       NoticeCode = "select_first"
	NoticeCorrect           NoticeCode = "correct"
	NoticeIncorrect         NoticeCode = "incorrect"
	NoticeAnswerRecorded    NoticeCode = "answer_recorded"
	NoticeExamInProgress    NoticeCode = "exam_in_progress"
	NoticeUseStartExam      NoticeCode = "use_start_exam"
	NoticeExamStarted       NoticeCode = "exam_started"
	NoticeExamLoadFailed    NoticeCode = "exam_load_failed"
	NoticeExamAborted       NoticeCode = "exam_aborted"
	NoticeChooseBank        NoticeCode = "choose_bank"
	NoticeBankLoaded        NoticeCode = "bank_loaded"
	NoticeBankLoadFailed    NoticeCode = "bank_load_failed"
	NoticeResetDone         NoticeCode = "reset_done"
	NoticeSwitchToPractice  NoticeCode = "switch_to_practice"
	NoticeNoQuestions       NoticeCode = "no_questions"
	NoticeSettingsSaved     NoticeCode = "settings_saved"
	NoticeLanguageChanged   NoticeCode = "language_changed"
	NoticeConfirmationStale NoticeCode = "confirmation_stale"
	NoticeNotInExam         NoticeCode = "not_in_exam"
	NoticeOutOfRange        NoticeCode = "out_of_range"
	NoticeExamFinished      NoticeCode = "exam_finished"
)

// Notice is a short-lived message for the user.
type Notice struct {
	Code  NoticeCode
	Bank  string // bank display name for bank notices
	Count int    // question count for exam notices
}

// ConfirmKind identifies a pending yes/no confirmation.
type ConfirmKind string

const (
	ConfirmSubmitExam ConfirmKind = "submit_exam"
	ConfirmEndExam    ConfirmKind = "end_exam"
)

// ConfirmRequest asks the user to confirm a terminal action.
type ConfirmRequest struct {
	Kind       ConfirmKind
	Unanswered int
}

// ControlsView describes which controls are available in the current mode.
type ControlsView struct {
	Mode            entities.Mode
	ExamName        string
	StatsVisible    bool
	BankSelectable  bool
	SettingsEnabled bool
	ResetEnabled    bool
}

// NavStatus is the status of one cell of the question grid.
type NavStatus string

const (
	NavUnanswered NavStatus = "unanswered"
	NavSelected   NavStatus = "selected"
	NavSubmitted  NavStatus = "submitted" // exam mode hides correctness
	NavCorrect    NavStatus = "correct"
	NavIncorrect  NavStatus = "incorrect"
)

// Stats summarizes progress through the active question set.
type Stats struct {
	Total    int
	Answered int
	Correct  int
	Accuracy int
}

// NavigationView is the question grid plus stats.
type NavigationView struct {
	Mode    entities.Mode
	Current int
	Items   []NavStatus
	Stats   Stats
}

// OptionState is the display state of one option.
type OptionState struct {
	Text        string
	Translation string
	Selected    bool
	Correct     bool // set only when answers are revealed
	Incorrect   bool // selected but wrong, revealed only
	Missed      bool // correct, unselected, while another correct option was picked
}

// QuestionView is everything needed to render one question.
type QuestionView struct {
	Mode        entities.Mode
	BankName    string
	ExamName    string
	Position    int
	Total       int
	Prompt      string
	Translation string
	Options     []OptionState
	MultiSelect bool
	Submitted   bool
	Reveal      bool
	Explanation string
	Elapsed     time.Duration
}

func buildControls(s *entities.Session) ControlsView {
	view := ControlsView{
		Mode:            s.Mode,
		StatsVisible:    s.Mode == entities.ModePractice,
		BankSelectable:  s.Mode != entities.ModeExam,
		SettingsEnabled: s.Mode != entities.ModeExam,
		ResetEnabled:    s.Mode != entities.ModeExam,
	}
	if s.ExamTemplate != nil {
		view.ExamName = s.ExamTemplate.Name
	}
	return view
}

func computeStats(s *entities.Session) Stats {
	stats := Stats{Total: len(s.Questions)}
	for pos, rec := range s.Answers {
		if rec == nil || !rec.Submitted || !s.ValidPosition(pos) {
			continue
		}
		stats.Answered++
		if IsCorrectAnswer(&s.Questions[pos], rec) {
			stats.Correct++
		}
	}
	stats.Accuracy = percent(float64(stats.Correct), float64(stats.Answered))
	return stats
}

func buildNavigation(s *entities.Session) NavigationView {
	view := NavigationView{
		Mode:    s.Mode,
		Current: s.Current,
		Items:   make([]NavStatus, len(s.Questions)),
		Stats:   computeStats(s),
	}

	for i := range s.Questions {
		rec := s.Answers[i]
		switch {
		case s.Mode == entities.ModeStudy || rec == nil:
			view.Items[i] = NavUnanswered
		case rec.Submitted && s.Mode == entities.ModeExam:
			view.Items[i] = NavSubmitted
		case rec.Submitted && IsCorrectAnswer(&s.Questions[i], rec):
			view.Items[i] = NavCorrect
		case rec.Submitted:
			view.Items[i] = NavIncorrect
		case !rec.IsEmpty():
			view.Items[i] = NavSelected
		default:
			view.Items[i] = NavUnanswered
		}
	}

	return view
}

func buildQuestionView(s *entities.Session, bankName string) QuestionView {
	q := &s.Questions[s.Current]
	rec := s.Answers[s.Current]
	lang := s.Language

	view := QuestionView{
		Mode:        s.Mode,
		BankName:    bankName,
		Position:    s.Current,
		Total:       len(s.Questions),
		Prompt:      q.Prompt(lang),
		MultiSelect: q.IsMultiSelect(),
		Options:     make([]OptionState, len(q.Options)),
		Elapsed:     s.ExamElapsed,
	}
	if s.ExamTemplate != nil {
		view.ExamName = s.ExamTemplate.Name
	}
	if s.Settings.ShowTranslation {
		if t := q.Prompt(lang.Toggle()); t != view.Prompt {
			view.Translation = t
		}
	}

	submitted := rec != nil && rec.Submitted
	view.Submitted = submitted
	view.Reveal = s.Mode == entities.ModeStudy || (s.Mode != entities.ModeExam && submitted)
	missed := view.Reveal && HasMissedOptions(q, rec)

	for i, opt := range q.Options {
		state := OptionState{
			Text:     q.OptionText(i, lang),
			Selected: rec != nil && rec.Has(i),
		}
		if s.Settings.ShowTranslation {
			if t := q.OptionText(i, lang.Toggle()); t != state.Text {
				state.Translation = t
			}
		}
		if view.Reveal {
			state.Correct = opt.Flag
			state.Incorrect = state.Selected && !opt.Flag
			state.Missed = opt.Flag && !state.Selected && missed
		}
		view.Options[i] = state
	}

	if view.Reveal {
		view.Explanation = q.Explanation(lang)
	}

	return view
}
