package entities

import "time"

// Mode is the active session mode. Exactly one mode is active at a time.
type Mode string

const (
	ModePractice Mode = "practice" // immediate feedback, auto-advance on correct answer
	ModeStudy    Mode = "study"    // read-only review, answers revealed
	ModeExam     Mode = "exam"     // timed, scored only at the end
)

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModePractice, ModeStudy, ModeExam:
		return Mode(s), true
	default:
		return "", false
	}
}

// Language selects which text variant of a question is shown.
type Language string

const (
	LanguageChinese Language = "zhcn"
	LanguageEnglish Language = "enus"
)

// Toggle returns the other language.
func (l Language) Toggle() Language {
	if l == LanguageEnglish {
		return LanguageChinese
	}
	return LanguageEnglish
}

// DefaultBank is loaded when no bank was saved.
const DefaultBank = "general"

// Session is the state owned by a session controller.
type Session struct {
	UserID    int64
	Mode      Mode
	Bank      string // active bank key, empty when none is loaded
	Questions []Question
	Answers   Answers
	Current   int // meaningful only when Questions is not empty
	Language  Language
	Settings  Settings

	// Exam-only fields; zero outside exam mode.
	ExamTemplate *ExamTemplate
	ExamStarted  time.Time
	ExamElapsed  time.Duration
	PriorMode    Mode   // mode to return to after the exam
	PriorBank    string // bank to reload after the exam
}

// NewSession creates a fresh practice session for a user.
func NewSession(userID int64) *Session {
	return &Session{
		UserID:   userID,
		Mode:     ModePractice,
		Answers:  make(Answers),
		Language: LanguageChinese,
		Settings: DefaultSettings(),
	}
}

// HasQuestions reports whether a question set is active.
func (s *Session) HasQuestions() bool {
	return len(s.Questions) > 0
}

// ValidPosition reports whether pos addresses a question in the active set.
func (s *Session) ValidPosition(pos int) bool {
	return pos >= 0 && pos < len(s.Questions)
}

// ClampPosition bounds pos to the active question set.
func (s *Session) ClampPosition(pos int) int {
	if len(s.Questions) == 0 || pos < 0 {
		return 0
	}
	if pos >= len(s.Questions) {
		return len(s.Questions) - 1
	}
	return pos
}

// Record returns the answer record at pos, or nil if unanswered.
func (s *Session) Record(pos int) *AnswerRecord {
	return s.Answers[pos]
}

// ClearExam resets every exam-only field.
func (s *Session) ClearExam() {
	s.ExamTemplate = nil
	s.ExamStarted = time.Time{}
	s.ExamElapsed = 0
	s.PriorMode = ""
	s.PriorBank = ""
}
