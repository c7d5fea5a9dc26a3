package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

func submitted(selected ...int) *entities.AnswerRecord {
	rec := entities.NewAnswerRecord(selected...)
	rec.Submitted = true
	return rec
}

func TestIsCorrectAnswer(t *testing.T) {
	single := singleQuestion("S", 1)
	multi := multiQuestion("M", 0, 2)

	tests := []struct {
		name     string
		question *entities.Question
		record   *entities.AnswerRecord
		expected bool
	}{
		{name: "single correct", question: &single, record: entities.NewAnswerRecord(1), expected: true},
		{name: "single wrong", question: &single, record: entities.NewAnswerRecord(0), expected: false},
		{name: "empty selection", question: &single, record: entities.NewAnswerRecord(), expected: false},
		{name: "multi exact set", question: &multi, record: entities.NewAnswerRecord(2, 0), expected: true},
		{name: "multi subset", question: &multi, record: entities.NewAnswerRecord(0), expected: false},
		{name: "multi superset", question: &multi, record: entities.NewAnswerRecord(0, 1, 2), expected: false},
		{name: "nil record", question: &single, record: nil, expected: false},
		{name: "nil question", question: nil, record: entities.NewAnswerRecord(1), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCorrectAnswer(tt.question, tt.record))
		})
	}
}

func TestHasMissedOptions(t *testing.T) {
	multi := multiQuestion("M", 0, 2, 3)

	tests := []struct {
		name     string
		record   *entities.AnswerRecord
		expected bool
	}{
		{name: "some correct picked", record: entities.NewAnswerRecord(0), expected: true},
		{name: "some correct and a wrong one", record: entities.NewAnswerRecord(0, 1), expected: true},
		{name: "all correct picked", record: entities.NewAnswerRecord(0, 2, 3), expected: false},
		{name: "only wrong picked", record: entities.NewAnswerRecord(1), expected: false},
		{name: "nothing picked", record: entities.NewAnswerRecord(), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HasMissedOptions(&multi, tt.record))
		})
	}
}

func TestCalculateExamResult(t *testing.T) {
	questions := []entities.Question{
		singleQuestion("Q1", 0),
		weighted(multiQuestion("Q2", 1, 2), 2),
		singleQuestion("Q3", 3),
		singleQuestion("Q4", 0),
	}
	answers := entities.Answers{
		0: submitted(0),                // correct
		1: submitted(1, 2),             // correct, weight 2
		2: submitted(1),                // wrong
		3: entities.NewAnswerRecord(0), // selected but never submitted
		9: submitted(0),                // outside the question set
	}

	result := CalculateExamResult(questions, answers)

	assert.Equal(t, 4, result.QuestionCount)
	assert.Equal(t, 3, result.AnsweredCount)
	assert.Equal(t, 1, result.UnansweredCount)
	assert.Equal(t, 2, result.CorrectCount)
	assert.InDelta(t, 3.0, result.EarnedScore, 1e-9)
	assert.InDelta(t, 5.0, result.TotalScore, 1e-9)
	assert.Equal(t, 60, result.ScorePercentage)
	assert.Equal(t, 50, result.Accuracy)

	require.Len(t, result.Items, 4)
	assert.Equal(t, entities.ExamItemCorrect, result.Items[0].Status)
	assert.Equal(t, entities.ExamItemCorrect, result.Items[1].Status)
	assert.InDelta(t, 2.0, result.Items[1].Weight, 1e-9)
	assert.Equal(t, entities.ExamItemIncorrect, result.Items[2].Status)
	assert.Equal(t, entities.ExamItemUnanswered, result.Items[3].Status)
}

func TestCalculateExamResultRounding(t *testing.T) {
	questions := []entities.Question{
		singleQuestion("Q1", 0),
		singleQuestion("Q2", 0),
		singleQuestion("Q3", 0),
	}
	answers := entities.Answers{
		0: submitted(0),
		1: submitted(0),
	}

	result := CalculateExamResult(questions, answers)

	assert.Equal(t, 67, result.ScorePercentage)
	assert.Equal(t, 67, result.Accuracy)
}

func TestCalculateExamResultEmpty(t *testing.T) {
	result := CalculateExamResult(nil, entities.Answers{})

	assert.Equal(t, 0, result.QuestionCount)
	assert.Equal(t, 0, result.ScorePercentage)
	assert.Equal(t, 0, result.Accuracy)
	assert.Zero(t, result.TotalScore)
	assert.Empty(t, result.Items)
}

func TestCalculateExamResultZeroWeights(t *testing.T) {
	questions := []entities.Question{weighted(singleQuestion("Q1", 0), 0)}

	result := CalculateExamResult(questions, entities.Answers{0: submitted(0)})

	assert.Equal(t, 0, result.ScorePercentage)
	assert.Equal(t, 100, result.Accuracy)
}
