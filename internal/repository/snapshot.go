package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// snapshotDocument is the stored form of a snapshot. Optional fields are
// pointers so that missing keys keep their defaults.
type snapshotDocument struct {
	CurrentBank          *string         `json:"currentBank"`
	CurrentQuestionIndex *int            `json:"currentQuestionIndex"`
	IsStudyMode          *bool           `json:"isStudyMode"`
	IsExamMode           bool            `json:"isExamMode"`
	UserAnswers          json.RawMessage `json:"userAnswers"`
	ShowTranslation      *bool           `json:"showTranslation"`
	AutoNext             *bool           `json:"autoNext"`
	CurrentLanguage      string          `json:"currentLanguage"`
}

type settingsDocument struct {
	ShowTranslation  *bool `json:"showTranslation"`
	AutoNext         *bool `json:"autoNext"`
	AutoSubmitSingle *bool `json:"autoSubmitSingle"`
}

// EncodeSnapshot serializes a snapshot.
func EncodeSnapshot(snap *entities.Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot. Answer records written by older
// clients are upgraded: bare option arrays become unsubmitted records and
// unreadable entries are dropped. Only a document that is not JSON at all is an error.
func DecodeSnapshot(data []byte) (*entities.Snapshot, error) {
	var doc snapshotDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	def := entities.DefaultSettings()
	snap := &entities.Snapshot{
		ShowTranslation: def.ShowTranslation,
		AutoNext:        def.AutoNext,
		CurrentLanguage: entities.LanguageChinese,
		UserAnswers:     make(entities.Answers),
	}

	if doc.CurrentBank != nil {
		snap.CurrentBank = *doc.CurrentBank
	}
	if doc.CurrentQuestionIndex != nil && *doc.CurrentQuestionIndex > 0 {
		snap.CurrentQuestionIndex = *doc.CurrentQuestionIndex
	}
	if doc.IsStudyMode != nil {
		snap.IsStudyMode = *doc.IsStudyMode
	}
	if doc.ShowTranslation != nil {
		snap.ShowTranslation = *doc.ShowTranslation
	}
	if doc.AutoNext != nil {
		snap.AutoNext = *doc.AutoNext
	}
	switch lang := entities.Language(doc.CurrentLanguage); lang {
	case entities.LanguageChinese, entities.LanguageEnglish:
		snap.CurrentLanguage = lang
	}

	if !snap.IsStudyMode && !doc.IsExamMode {
		snap.UserAnswers = decodeAnswers(doc.UserAnswers)
	}

	return snap, nil
}

// decodeAnswers accepts the ledger either as an object keyed by position or as
// an array indexed by position.
func decodeAnswers(raw json.RawMessage) entities.Answers {
	out := make(entities.Answers)

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}

	switch raw[0] {
	case '{':
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return out
		}
		for key, entry := range entries {
			pos, err := strconv.Atoi(key)
			if err != nil || pos < 0 {
				continue
			}
			if rec, ok := decodeAnswerRecord(entry); ok {
				out[pos] = rec
			}
		}
	case '[':
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return out
		}
		for pos, entry := range entries {
			if rec, ok := decodeAnswerRecord(entry); ok {
				out[pos] = rec
			}
		}
	}

	return out
}

// decodeAnswerRecord upgrades one ledger entry. Entries without a selection are dropped.
func decodeAnswerRecord(raw json.RawMessage) (*entities.AnswerRecord, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false
	}

	switch raw[0] {
	case '[':
		selected, ok := decodeOptions(raw)
		if !ok {
			return nil, false
		}
		rec := entities.NewAnswerRecord(selected...)
		return rec, !rec.IsEmpty()

	case '{':
		var obj struct {
			Options       json.RawMessage `json:"options"`
			IsSubmitted   *bool           `json:"isSubmitted"`
			SubmittedDate *string         `json:"submittedDate"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false
		}
		if obj.Options == nil && obj.IsSubmitted == nil {
			return nil, false
		}

		rec := entities.NewAnswerRecord()
		if selected, ok := decodeOptions(obj.Options); ok {
			rec = entities.NewAnswerRecord(selected...)
		}
		if obj.IsSubmitted != nil && *obj.IsSubmitted {
			rec.Submitted = true
			if obj.SubmittedDate != nil {
				if at, err := time.Parse(time.RFC3339, *obj.SubmittedDate); err == nil {
					rec.SubmittedAt = &at
				}
			}
		}
		// A submitted record without options could never be answered again.
		return rec, !rec.IsEmpty()
	}

	return nil, false
}

func decodeOptions(raw json.RawMessage) ([]int, bool) {
	if len(raw) == 0 {
		return nil, false
	}

	var selected []int
	if err := json.Unmarshal(raw, &selected); err != nil {
		return nil, false
	}

	valid := selected[:0]
	for _, idx := range selected {
		if idx >= 0 {
			valid = append(valid, idx)
		}
	}
	return valid, true
}

// EncodeSettings serializes user settings.
func EncodeSettings(settings entities.Settings) ([]byte, error) {
	data, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return data, nil
}

// DecodeSettings parses stored settings; missing keys keep their defaults.
func DecodeSettings(data []byte) (*entities.Settings, error) {
	var doc settingsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}

	settings := entities.DefaultSettings()
	if doc.ShowTranslation != nil {
		settings.ShowTranslation = *doc.ShowTranslation
	}
	if doc.AutoNext != nil {
		settings.AutoNext = *doc.AutoNext
	}
	if doc.AutoSubmitSingle != nil {
		settings.AutoSubmitSingle = *doc.AutoSubmitSingle
	}

	return &settings, nil
}
