package service

import (
	"math"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// IsCorrectAnswer reports whether the selected set equals the set of correct options.
func IsCorrectAnswer(q *entities.Question, rec *entities.AnswerRecord) bool {
	if q == nil || rec == nil {
		return false
	}

	correct := q.CorrectIndices()
	if len(correct) != len(rec.Selected) {
		return false
	}
	for _, idx := range correct {
		if !rec.Has(idx) {
			return false
		}
	}
	return true
}

// HasMissedOptions reports whether some but not all correct options were selected.
// It drives review highlighting only and never affects scoring.
func HasMissedOptions(q *entities.Question, rec *entities.AnswerRecord) bool {
	if q == nil || rec == nil {
		return false
	}

	anySelected, allSelected := false, true
	for _, idx := range q.CorrectIndices() {
		if rec.Has(idx) {
			anySelected = true
		} else {
			allSelected = false
		}
	}
	return anySelected && !allSelected
}

// CalculateExamResult scores an exam. Only submitted records count as answered;
// unanswered and incorrect questions award zero.
func CalculateExamResult(questions []entities.Question, answers entities.Answers) entities.ExamResult {
	result := entities.ExamResult{
		QuestionCount: len(questions),
		Items:         make([]entities.ExamResultItem, 0, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		weight := q.Weight()
		result.TotalScore += weight

		item := entities.ExamResultItem{
			Position: i,
			Status:   entities.ExamItemUnanswered,
			Weight:   weight,
		}

		if rec := answers[i]; rec != nil && rec.Submitted {
			result.AnsweredCount++
			item.Status = entities.ExamItemIncorrect
			if IsCorrectAnswer(q, rec) {
				result.CorrectCount++
				result.EarnedScore += weight
				item.Status = entities.ExamItemCorrect
			}
		}

		result.Items = append(result.Items, item)
	}

	result.UnansweredCount = result.QuestionCount - result.AnsweredCount
	result.ScorePercentage = percent(result.EarnedScore, result.TotalScore)
	result.Accuracy = percent(float64(result.CorrectCount), float64(result.QuestionCount))

	return result
}

// percent rounds part/whole to a whole percentage; an empty whole yields 0.
func percent(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(part / whole * 100))
}
