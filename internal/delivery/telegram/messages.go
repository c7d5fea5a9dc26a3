// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/service"
)

// Error and prompt messages.
const (
	msgInternalError  = "Something went wrong. Please try again later."
	msgSessionClosed  = "The bot is restarting. Please try again in a moment."
	msgUnknownCommand = "Unknown command. Send /help for the list of commands."
	msgUnknownInput   = "Send a question number to jump to it, or /help for the list of commands."
	msgUseGoto        = "Usage: /goto N, where N is a question number."
	msgUnknownMode    = "Unknown mode. Use /mode practice or /mode study."
	msgNoHistory      = "No finished exams yet. Start one with /exam."
	msgHistoryFailed  = "Could not load the exam history. Please try again later."
	msgResultGone     = "This result is no longer available."
	msgChooseBank     = "Choose a question bank:"
	msgUnknownBank    = "No bank matches %q."
	msgChooseMode     = "Choose a mode:"
	msgChooseExam     = "Choose an exam:"
	msgSettings       = "Settings:"
)

const (
	historyLimit = 10
	// resultLookupLimit bounds the history searched for a result's details.
	resultLookupLimit = 50
)

var noticeTexts = map[service.NoticeCode]string{
	service.NoticeReadOnly:          "Study mode is read-only. Switch to practice to answer.",
	service.NoticeAlreadySubmitted:  "This question is already answered.",
	service.NoticeSelectFirst:       "Select an option first.",
	service.NoticeCorrect:           "✅ Correct!",
	service.NoticeIncorrect:         "❌ Incorrect.",
	service.NoticeAnswerRecorded:    "Answer recorded.",
	service.NoticeExamInProgress:    "An exam is in progress. Finish or abort it first.",
	service.NoticeUseStartExam:      "Use /exam to start an exam.",
	service.NoticeExamStarted:       "Exam started: %d questions. Good luck!",
	service.NoticeExamLoadFailed:    "Could not load the exam. Please try again later.",
	service.NoticeExamAborted:       "Exam aborted. No result was saved.",
	service.NoticeChooseBank:        "Choose a question bank first.",
	service.NoticeBankLoaded:        "Loaded %s: %d questions.",
	service.NoticeBankLoadFailed:    "Could not load %s.",
	service.NoticeResetDone:         "Progress reset.",
	service.NoticeSwitchToPractice:  "Switch to practice mode to reset progress.",
	service.NoticeNoQuestions:       "No questions loaded.",
	service.NoticeSettingsSaved:     "Settings saved.",
	service.NoticeLanguageChanged:   "Language switched.",
	service.NoticeConfirmationStale: "This confirmation has expired.",
	service.NoticeNotInExam:         "No exam is running.",
	service.NoticeOutOfRange:        "No such question or option.",
	service.NoticeExamFinished:      "Exam finished.",
}

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newEdit creates an edit with MarkdownV2 parse mode.
func newEdit(chatID int64, msgID int, text string) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	return edit
}

func welcomeText() string {
	var sb strings.Builder

	sb.WriteString(bold("CertiTester"))
	sb.WriteString("\n\n")
	sb.WriteString(md("Practice certification questions, review them in study mode or sit a timed exam."))
	sb.WriteString("\n\n")
	sb.WriteString(md("Tap an option to select it, then Submit. Use /banks to pick a question bank and /exam to start an exam."))

	return sb.String()
}

func helpText() string {
	var sb strings.Builder

	sb.WriteString(bold("Commands"))
	sb.WriteString("\n")
	for _, cmd := range botCommands() {
		sb.WriteString(md(fmt.Sprintf("/%s - %s", cmd.Command, cmd.Description)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(md("Send a number to jump to that question."))

	return sb.String()
}

func noticeText(n service.Notice) string {
	tpl, ok := noticeTexts[n.Code]
	if !ok {
		return ""
	}

	switch n.Code {
	case service.NoticeExamStarted:
		return fmt.Sprintf(tpl, n.Count)
	case service.NoticeBankLoaded:
		return fmt.Sprintf(tpl, n.Bank, n.Count)
	case service.NoticeBankLoadFailed:
		return fmt.Sprintf(tpl, n.Bank)
	default:
		return tpl
	}
}

func confirmText(req service.ConfirmRequest) string {
	var sb strings.Builder

	switch req.Kind {
	case service.ConfirmSubmitExam:
		sb.WriteString(bold("Submit the exam?"))
	default:
		sb.WriteString(bold("End the exam now?"))
	}

	if req.Unanswered > 0 {
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("%d question(s) are still unanswered and will score zero.", req.Unanswered)))
	}

	return sb.String()
}

func modeText(view service.ControlsView) string {
	switch view.Mode {
	case entities.ModeExam:
		return "📝 " + bold("Exam mode") + md(": "+view.ExamName)
	case entities.ModeStudy:
		return "📖 " + bold("Study mode") + "\n" + md("Answers are shown and selection is off.")
	default:
		return "✏️ " + bold("Practice mode")
	}
}

func optionLetter(i int) string {
	if i >= 0 && i < 26 {
		return string(rune('A' + i))
	}
	return strconv.Itoa(i + 1)
}

func optionMarker(opt service.OptionState) string {
	switch {
	case opt.Incorrect:
		return "❌"
	case opt.Missed:
		return "⚠️"
	case opt.Correct:
		return "✅"
	case opt.Selected:
		return "☑️"
	default:
		return "▫️"
	}
}

// formatQuestion renders a question together with the progress line of nav.
func formatQuestion(view service.QuestionView, nav service.NavigationView) string {
	var sb strings.Builder

	switch view.Mode {
	case entities.ModeExam:
		sb.WriteString("📝 " + bold(view.ExamName) + "  ⏱ " + md(formatElapsed(view.Elapsed)))
	case entities.ModeStudy:
		sb.WriteString("📖 " + bold(view.BankName))
	default:
		sb.WriteString("✏️ " + bold(view.BankName))
	}
	sb.WriteString("\n")

	line := fmt.Sprintf("Question %d/%d", view.Position+1, view.Total)
	if view.MultiSelect {
		line += " (multiple choice)"
	}
	sb.WriteString(md(line))
	sb.WriteString("\n")

	switch nav.Mode {
	case entities.ModePractice:
		if nav.Stats.Answered > 0 {
			sb.WriteString(md(fmt.Sprintf("Answered %d · Correct %d · Accuracy %d%%",
				nav.Stats.Answered, nav.Stats.Correct, nav.Stats.Accuracy)))
			sb.WriteString("\n")
		}
	case entities.ModeExam:
		sb.WriteString(md(fmt.Sprintf("Answered %d of %d", nav.Stats.Answered, nav.Stats.Total)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(md(view.Prompt))
	if view.Translation != "" {
		sb.WriteString("\n")
		sb.WriteString(italic(view.Translation))
	}
	sb.WriteString("\n")

	for i, opt := range view.Options {
		sb.WriteString("\n")
		sb.WriteString(optionMarker(opt) + " " + bold(optionLetter(i)+".") + " " + md(opt.Text))
		if opt.Translation != "" {
			sb.WriteString("\n    ")
			sb.WriteString(italic(opt.Translation))
		}
	}

	if view.Explanation != "" {
		sb.WriteString("\n\n💡 ")
		sb.WriteString(bold("Explanation"))
		sb.WriteString("\n")
		sb.WriteString(md(view.Explanation))
	}

	return sb.String()
}

func formatResult(r entities.ExamResult) string {
	var sb strings.Builder

	sb.WriteString("🏁 " + bold("Exam finished"))
	if r.ExamName != "" {
		sb.WriteString(md(": " + r.ExamName))
	}
	sb.WriteString("\n\n")

	sb.WriteString(md(fmt.Sprintf("Score: %d%% (%s of %s points)",
		r.ScorePercentage, formatScore(r.EarnedScore), formatScore(r.TotalScore))))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("Correct: %d of %d answered (accuracy %d%%)",
		r.CorrectCount, r.AnsweredCount, r.Accuracy)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("Unanswered: %d of %d", r.UnansweredCount, r.QuestionCount)))
	sb.WriteString("\n")
	sb.WriteString(md("Time: " + formatElapsed(time.Duration(r.ElapsedSeconds)*time.Second)))

	return sb.String()
}

func itemMarker(status entities.ExamItemStatus) string {
	switch status {
	case entities.ExamItemCorrect:
		return "✅"
	case entities.ExamItemIncorrect:
		return "❌"
	default:
		return "▫️"
	}
}

// formatResultDetails lists the outcome of every question of r.
func formatResultDetails(r entities.ExamResult) string {
	var sb strings.Builder

	sb.WriteString("🔎 " + bold("Details"))
	if r.ExamName != "" {
		sb.WriteString(md(": " + r.ExamName))
	}
	sb.WriteString("\n")

	for _, item := range r.Items {
		sb.WriteString("\n")
		sb.WriteString(itemMarker(item.Status) + " ")
		sb.WriteString(md(fmt.Sprintf("Question %d: %s (%s pt)",
			item.Position+1, item.Status, formatScore(item.Weight))))
	}

	return sb.String()
}

func formatHistory(results []entities.ExamResult) string {
	if len(results) == 0 {
		return md(msgNoHistory)
	}

	var sb strings.Builder
	sb.WriteString("📜 " + bold("Exam history"))
	sb.WriteString("\n")

	for i, r := range results {
		name := r.ExamName
		if name == "" {
			name = "Exam"
		}
		sb.WriteString("\n")
		sb.WriteString(md(fmt.Sprintf("%d. %s · %s · %d%% · %s",
			i+1,
			r.FinishedAt.Format("2006-01-02 15:04"),
			name,
			r.ScorePercentage,
			formatElapsed(time.Duration(r.ElapsedSeconds)*time.Second),
		)))
	}

	return sb.String()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatElapsed renders d as mm:ss, or h:mm:ss from one hour on.
func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func languageLabel(lang entities.Language) string {
	if lang == entities.LanguageEnglish {
		return "English"
	}
	return "中文"
}
