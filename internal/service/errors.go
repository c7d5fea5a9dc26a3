package service

import "errors"

// Guard violations. The controller reports each of them to the user as a notice
// and leaves the session unchanged.
var (
	ErrReadOnly              = errors.New("session is read-only in study mode")
	ErrAlreadySubmitted      = errors.New("answer already submitted")
	ErrNothingSelected       = errors.New("no option selected")
	ErrExamInProgress        = errors.New("exam in progress")
	ErrNotInExam             = errors.New("not in exam mode")
	ErrInvalidMode           = errors.New("invalid mode")
	ErrOutOfRange            = errors.New("position or option out of range")
	ErrNoQuestions           = errors.New("no questions loaded")
	ErrNoBank                = errors.New("no bank selected")
	ErrNoPendingConfirmation = errors.New("no pending confirmation")
	ErrSessionClosed         = errors.New("session closed")
)

// ErrLoadFailed marks a bank or exam load failure that was reported to the user.
var ErrLoadFailed = errors.New("load failed")

// IsReported reports whether err was already shown to the user as a notice.
func IsReported(err error) bool {
	for _, target := range []error{
		ErrReadOnly,
		ErrAlreadySubmitted,
		ErrNothingSelected,
		ErrExamInProgress,
		ErrNotInExam,
		ErrInvalidMode,
		ErrOutOfRange,
		ErrNoQuestions,
		ErrNoBank,
		ErrNoPendingConfirmation,
		ErrLoadFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
