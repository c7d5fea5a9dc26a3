package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/service"
)

const optionsPerRow = 4

// buildQuestionKeyboard builds the option, submit and navigation buttons of a question.
func buildQuestionKeyboard(view service.QuestionView) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton

	if view.Mode != entities.ModeStudy {
		var row []tgbotapi.InlineKeyboardButton
		for i, opt := range view.Options {
			label := optionLetter(i)
			if opt.Selected {
				label = "☑️ " + label
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, buildOptionCallback(view.Position, i)))
			if len(row) == optionsPerRow {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}

		switch {
		case view.Mode == entities.ModeExam:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📨 Save answer", buildSubmitCallback(view.Position)),
			))
		case !view.Submitted:
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📨 Submit", buildSubmitCallback(view.Position)),
			))
		}
	}

	var nav []tgbotapi.InlineKeyboardButton
	if view.Position > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Previous", buildNavCallback(view.Position-1)))
	}
	if view.Position < view.Total-1 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Next ▶️", buildNavCallback(view.Position+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	if view.Mode == entities.ModeExam {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Hand in", buildExamCallback(examSubmit)),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Abort", buildExamCallback(examAbort)),
		))
	}

	if len(rows) == 0 {
		return nil
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}

// buildBankKeyboard lists the catalog banks, one per row.
func buildBankKeyboard(entries []entities.BankEntry, current string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries))
	for _, e := range entries {
		label := e.Name
		if label == "" {
			label = e.Key
		}
		if e.Key == current {
			label = "• " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, buildBankCallback(e.Key)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func buildModeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Practice", buildModeCallback(entities.ModePractice)),
			tgbotapi.NewInlineKeyboardButtonData("📖 Study", buildModeCallback(entities.ModeStudy)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Exam", buildExamCallback(examStart)),
		),
	)
}

func buildExamKeyboard(refs []entities.ExamTemplateRef) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(refs))
	for _, ref := range refs {
		label := ref.Name
		if label == "" {
			label = ref.File
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 "+label, buildExamCallback(examStart, ref.File)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func buildConfirmKeyboard(kind service.ConfirmKind) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, finish", buildConfirmCallback(kind, true)),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Continue", buildConfirmCallback(kind, false)),
		),
	)
}

func buildSettingsKeyboard(settings entities.Settings, lang entities.Language) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel("Show translation", settings.ShowTranslation), buildSettingsCallback(settingsTranslation)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel("Auto next after a wrong answer", settings.AutoNext), buildSettingsCallback(settingsAutoNext)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel("Auto-submit single choice", settings.AutoSubmitSingle), buildSettingsCallback(settingsAutoSubmit)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌐 Language: "+languageLabel(lang), buildSettingsCallback(settingsLanguage)),
		),
	)
}

// buildResultKeyboard offers the per-question details of resultID, history and a new exam.
func buildResultKeyboard(resultID string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if resultID != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔎 Details", buildDetailsCallback(resultID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📜 History", buildHistoryCallback()),
		tgbotapi.NewInlineKeyboardButtonData("📝 New exam", buildExamCallback(examStart)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func toggleLabel(label string, on bool) string {
	if on {
		return "✅ " + label
	}
	return "⬜ " + label
}
