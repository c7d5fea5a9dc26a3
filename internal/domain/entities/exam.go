package entities

import "time"

// ExamSection selects questions from one bank for an exam.
type ExamSection struct {
	Bank  string   `json:"bank"`            // bank key in the catalog
	Count int      `json:"count"`           // number of questions to sample; <= 0 takes all
	Score *float64 `json:"score,omitempty"` // overrides the weight of every sampled question
}

// ExamTemplate describes how an exam question set is assembled.
type ExamTemplate struct {
	Ref         string        `json:"-"` // file the template was loaded from
	Name        string        `json:"exam_name"`
	Description string        `json:"description,omitempty"`
	Sections    []ExamSection `json:"sections"`
	Shuffle     bool          `json:"shuffle,omitempty"`
}

// ExamTemplateRef is an entry of the exam template index.
type ExamTemplateRef struct {
	File        string `json:"file"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ExamItemStatus is the outcome of one exam question.
type ExamItemStatus string

const (
	ExamItemCorrect    ExamItemStatus = "correct"
	ExamItemIncorrect  ExamItemStatus = "incorrect"
	ExamItemUnanswered ExamItemStatus = "unanswered"
)

// ExamResultItem is the per-question detail of an exam result.
type ExamResultItem struct {
	Position int            `json:"position"`
	Status   ExamItemStatus `json:"status"`
	Weight   float64        `json:"weight"`
}

// ExamResult is the aggregate outcome of an exam.
type ExamResult struct {
	ID              string           `json:"id"`
	ExamName        string           `json:"exam_name"`
	EarnedScore     float64          `json:"earned_score"`
	TotalScore      float64          `json:"total_score"`
	ScorePercentage int              `json:"score_percentage"`
	Accuracy        int              `json:"accuracy"`
	CorrectCount    int              `json:"correct_count"`
	AnsweredCount   int              `json:"answered_count"`
	UnansweredCount int              `json:"unanswered_count"`
	QuestionCount   int              `json:"question_count"`
	Items           []ExamResultItem `json:"items"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	ElapsedSeconds  int64            `json:"elapsed_seconds"`
}
