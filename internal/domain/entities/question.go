package entities

// DefaultScore is the weight of a question that does not declare one.
const DefaultScore = 1.0

// Option is a single answer choice of a question.
type Option struct {
	Text   string `json:"option_text"`              // option text in the bank's primary language
	TextEN string `json:"option_text_en,omitempty"` // optional English translation
	Flag   bool   `json:"option_flag"`              // whether the option is correct
}

// Question is one item of a question bank.
// Index is the position of the question in the active set and is not part of the bank file.
type Question struct {
	Index      int      `json:"-"`
	Question   string   `json:"question"`
	QuestionEN string   `json:"question_en,omitempty"`
	Options    []Option `json:"option"`
	Analysis   string   `json:"analysis,omitempty"`
	AnalysisEN string   `json:"analysis_en,omitempty"`
	Score      *float64 `json:"score,omitempty"` // nil means DefaultScore
}

// Weight returns the score weight of the question.
func (q *Question) Weight() float64 {
	if q.Score == nil {
		return DefaultScore
	}
	return *q.Score
}

// CorrectIndices returns the indices of the options flagged as correct, in ascending order.
func (q *Question) CorrectIndices() []int {
	correct := make([]int, 0, 1)
	for i, opt := range q.Options {
		if opt.Flag {
			correct = append(correct, i)
		}
	}
	return correct
}

// IsMultiSelect reports whether more than one option is correct.
func (q *Question) IsMultiSelect() bool {
	n := 0
	for _, opt := range q.Options {
		if opt.Flag {
			n++
		}
	}
	return n > 1
}

// Prompt returns the question text for the given language, falling back to the primary text.
func (q *Question) Prompt(lang Language) string {
	if lang == LanguageEnglish && q.QuestionEN != "" {
		return q.QuestionEN
	}
	return q.Question
}

// Explanation returns the analysis text for the given language.
func (q *Question) Explanation(lang Language) string {
	if lang == LanguageEnglish && q.AnalysisEN != "" {
		return q.AnalysisEN
	}
	return q.Analysis
}

// OptionText returns the text of option i for the given language.
func (q *Question) OptionText(i int, lang Language) string {
	if i < 0 || i >= len(q.Options) {
		return ""
	}
	opt := q.Options[i]
	if lang == LanguageEnglish && opt.TextEN != "" {
		return opt.TextEN
	}
	return opt.Text
}

// Reindex assigns positions to questions in order.
func Reindex(questions []Question) []Question {
	for i := range questions {
		questions[i].Index = i
	}
	return questions
}
