package entities

// Settings holds user preferences persisted apart from the session snapshot.
type Settings struct {
	ShowTranslation  bool `json:"showTranslation"`  // show the English text next to the primary text
	AutoNext         bool `json:"autoNext"`         // advance after a wrong answer once a delay passes
	AutoSubmitSingle bool `json:"autoSubmitSingle"` // submit single-select questions right after selection
}

// DefaultSettings returns the settings of a new user.
func DefaultSettings() Settings {
	return Settings{
		ShowTranslation:  true,
		AutoNext:         false,
		AutoSubmitSingle: false,
	}
}

// Snapshot is the persisted view of a session. Exam state is never part of it.
type Snapshot struct {
	CurrentBank          string   `json:"currentBank"`
	CurrentQuestionIndex int      `json:"currentQuestionIndex"`
	IsStudyMode          bool     `json:"isStudyMode"`
	UserAnswers          Answers  `json:"userAnswers"`
	ShowTranslation      bool     `json:"showTranslation"`
	AutoNext             bool     `json:"autoNext"`
	CurrentLanguage      Language `json:"currentLanguage"`
}
