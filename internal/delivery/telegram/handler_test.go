package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/repository"
	"github.com/aliskhannn/certitester-bot/internal/service"
	"github.com/aliskhannn/certitester-bot/internal/storage"
)

const (
	testUserID int64 = 7
	testChat   int64 = 100
)

func bankJSON(prefix string, n int) string {
	questions := ""
	for i := range n {
		if i > 0 {
			questions += ","
		}
		questions += fmt.Sprintf(`{"question": "%s %d", "option": [
			{"option_text": "right", "option_flag": true},
			{"option_text": "wrong", "option_flag": false}
		]}`, prefix, i+1)
	}
	return "[" + questions + "]"
}

func handlerFS() fstest.MapFS {
	return fstest.MapFS{
		"bank/bank.json": {Data: []byte(`{
			"general": {"bank_name": "General", "bank_file": "general.json"},
			"networking": {"bank_name": "Networking", "bank_file": "networking.json"}
		}`)},
		"general.json":    {Data: []byte(bankJSON("G", 3))},
		"networking.json": {Data: []byte(bankJSON("N", 2))},
		"exam/mock.json": {Data: []byte(`{
			"exam_name": "Mock",
			"sections": [{"bank": "general", "count": 3}]
		}`)},
	}
}

type handlerEnv struct {
	h        *Handler
	api      *fakeSender
	sessions *service.SessionManager
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	banks := repository.NewBankRepository(repository.NewFileSource(handlerFS()))
	store := storage.NewSessionStorage(10)
	mgr := service.NewSessionManager(context.Background(), banks, store, store, zap.NewNop(), service.Options{
		CorrectAdvanceDelay: time.Hour,
		AutoNextDelay:       time.Hour,
		StudyAutoNextDelay:  time.Hour,
		ExamAdvanceDelay:    time.Hour,
		AutoSubmitDelay:     time.Hour,
		ClockSpec:           "@every 1h",
		DefaultBank:         "general",
	})
	t.Cleanup(mgr.Shutdown)

	api := &fakeSender{}
	return &handlerEnv{
		h: &Handler{
			api:        api,
			logger:     zap.NewNop(),
			sessions:   mgr,
			banks:      banks,
			messages:   storage.NewMessageStorage(),
			presenters: make(map[int64]*chatPresenter),
		},
		api:      api,
		sessions: mgr,
	}
}

func (e *handlerEnv) command(text string) {
	cmdLen := len(text)
	for i, r := range text {
		if r == ' ' {
			cmdLen = i
			break
		}
	}
	e.h.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUserID},
		Chat:      &tgbotapi.Chat{ID: testChat},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}},
	}})
}

func (e *handlerEnv) text(text string) {
	e.h.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUserID},
		Chat:      &tgbotapi.Chat{ID: testChat},
		Text:      text,
	}})
}

func (e *handlerEnv) callback(id, data string) {
	e.h.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      id,
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: testChat}},
		Data:    data,
	}})
}

func (e *handlerEnv) state(t *testing.T) entities.Session {
	t.Helper()
	c, ok := e.sessions.Lookup(testUserID)
	require.True(t, ok)
	return c.State()
}

func (e *handlerEnv) toast(id string) (tgbotapi.CallbackConfig, bool) {
	for _, cb := range e.api.callbacks() {
		if cb.CallbackQueryID == id {
			return cb, true
		}
	}
	return tgbotapi.CallbackConfig{}, false
}

func (e *handlerEnv) assertNoInternalError(t *testing.T) {
	t.Helper()
	_, ok := e.api.lastMessage(md(msgInternalError))
	assert.False(t, ok)
}

func TestHandlerStart(t *testing.T) {
	env := newHandlerEnv(t)
	env.command("/start")

	_, ok := env.api.lastMessage(bold("CertiTester"))
	assert.True(t, ok)
	_, ok = env.api.lastMessage(md("Loaded General: 3 questions."))
	assert.True(t, ok)

	question, ok := env.api.lastMessage(md("Question 1/3"))
	require.True(t, ok)
	assert.NotNil(t, question.ReplyMarkup)

	var questionMessages int
	for _, msg := range env.api.messages() {
		if msg.ReplyMarkup != nil {
			questionMessages++
		}
	}
	assert.Equal(t, 1, questionMessages, "the first render is edited, not repeated")

	state := env.state(t)
	assert.Equal(t, "general", state.Bank)
	assert.Len(t, state.Questions, 3)
	env.assertNoInternalError(t)
}

func TestHandlerPracticeAnswer(t *testing.T) {
	env := newHandlerEnv(t)
	env.command("/start")
	env.api.reset()

	env.callback("cb-opt", buildOptionCallback(0, 0))
	require.NotNil(t, env.state(t).Answers[0])
	assert.Equal(t, []int{0}, env.state(t).Answers[0].Selected)

	cb, ok := env.toast("cb-opt")
	require.True(t, ok)
	assert.Empty(t, cb.Text)

	env.callback("cb-sub", buildSubmitCallback(0))
	cb, ok = env.toast("cb-sub")
	require.True(t, ok)
	assert.Equal(t, "✅ Correct!", cb.Text)
	assert.True(t, env.state(t).Answers[0].Submitted)

	env.callback("cb-again", buildOptionCallback(0, 1))
	cb, ok = env.toast("cb-again")
	require.True(t, ok)
	assert.Equal(t, "This question is already answered.", cb.Text)

	env.callback("cb-range", buildOptionCallback(9, 0))
	cb, ok = env.toast("cb-range")
	require.True(t, ok)
	assert.Equal(t, "No such question or option.", cb.Text)

	assert.NotEmpty(t, env.api.edits())
	env.assertNoInternalError(t)
}

func TestHandlerNavigation(t *testing.T) {
	env := newHandlerEnv(t)
	env.command("/start")

	env.command("/goto 2")
	assert.Equal(t, 1, env.state(t).Current)

	env.text("3")
	assert.Equal(t, 3-1, env.state(t).Current)

	env.command("/prev")
	assert.Equal(t, 1, env.state(t).Current)

	env.callback("cb-nav", buildNavCallback(0))
	assert.Equal(t, 0, env.state(t).Current)

	env.api.reset()
	env.text("hello")
	_, ok := env.api.lastMessage(md(msgUnknownInput))
	assert.True(t, ok)

	env.command("/goto x")
	_, ok = env.api.lastMessage(md(msgUseGoto))
	assert.True(t, ok)
	assert.Equal(t, 0, env.state(t).Current)
}

func TestHandlerBanks(t *testing.T) {
	env := newHandlerEnv(t)
	env.command("/start")
	env.api.reset()

	env.command("/bank Netwrking")
	assert.Equal(t, "networking", env.state(t).Bank)
	_, ok := env.api.lastMessage(md("Loaded Networking: 2 questions."))
	assert.True(t, ok)

	env.api.reset()
	env.command("/bank zzzz")
	_, ok = env.api.lastMessage(md(fmt.Sprintf(msgUnknownBank, "zzzz")))
	assert.True(t, ok)

	menu, ok := env.api.lastMessage(md(msgChooseBank))
	require.True(t, ok)
	kb, ok := menu.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	assert.Equal(t, [][]string{{"bank:general"}, {"bank:networking"}}, keyboardData(kb))
	assert.Equal(t, "• Networking", kb.InlineKeyboard[1][0].Text)

	env.callback("cb-bank", buildBankCallback("general"))
	assert.Equal(t, "general", env.state(t).Bank)
	env.assertNoInternalError(t)
}

func TestHandlerExamFlow(t *testing.T) {
	env := newHandlerEnv(t)
	env.command("/start")

	env.command("/exam")
	menu, ok := env.api.lastMessage(md(msgChooseExam))
	require.True(t, ok)
	assert.NotNil(t, menu.ReplyMarkup)

	env.api.reset()
	env.callback("cb-start", buildExamCallback(examStart, "mock.json"))

	state := env.state(t)
	require.Equal(t, entities.ModeExam, state.Mode)
	assert.Len(t, state.Questions, 3)

	cb, ok := env.toast("cb-start")
	require.True(t, ok)
	assert.Equal(t, "Exam started: 3 questions. Good luck!", cb.Text)

	_, ok = env.api.lastMessage(bold("Exam mode"))
	assert.True(t, ok)
	_, ok = env.api.lastMessage("⏱ " + md("00:00"))
	assert.True(t, ok)

	env.callback("cb-opt", buildOptionCallback(0, 0))
	env.callback("cb-save", buildSubmitCallback(0))
	assert.True(t, env.state(t).Answers[0].Submitted)

	env.callback("cb-submit", buildExamCallback(examSubmit))
	confirm, ok := env.api.lastMessage(bold("Submit the exam?"))
	require.True(t, ok)
	assert.Contains(t, confirm.Text, md("2 question(s) are still unanswered"))

	env.callback("cb-yes", buildConfirmCallback(service.ConfirmSubmitExam, true))

	require.NotEmpty(t, env.api.markupEdits())
	assert.Equal(t, 99, env.api.markupEdits()[0].MessageID)

	result, ok := env.api.lastMessage(bold("Exam finished"))
	require.True(t, ok)
	assert.Contains(t, result.Text, md("Unanswered: 2 of 3"))

	kb, ok := result.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	details := keyboardData(kb)[0][0]
	require.True(t, strings.HasPrefix(details, actionDetails+":"), details)

	env.callback("cb-details", details)
	detailText, ok := env.api.lastMessage(bold("Details"))
	require.True(t, ok)
	assert.Contains(t, detailText.Text, md("Question 1: correct (1 pt)"))
	assert.Contains(t, detailText.Text, md("Question 3: unanswered (1 pt)"))

	env.callback("cb-gone", buildDetailsCallback("missing"))
	_, ok = env.api.lastMessage(md(msgResultGone))
	assert.True(t, ok)

	state = env.state(t)
	assert.Equal(t, entities.ModePractice, state.Mode)
	assert.Equal(t, "general", state.Bank)

	env.callback("cb-hist", buildHistoryCallback())
	history, ok := env.api.lastMessage(bold("Exam history"))
	require.True(t, ok)
	assert.Contains(t, history.Text, md(" · Mock · "))

	env.assertNoInternalError(t)
}

func TestHandlerExamAbort(t *testing.T) {
	env := newHandlerEnv(t)
	env.command("/start")
	env.callback("cb-start", buildExamCallback(examStart, "mock.json"))
	require.Equal(t, entities.ModeExam, env.state(t).Mode)

	env.callback("cb-declined", buildConfirmCallback(service.ConfirmSubmitExam, false))
	cb, ok := env.toast("cb-declined")
	require.True(t, ok)
	assert.Equal(t, "This confirmation has expired.", cb.Text)

	env.command("/abortexam")
	assert.Equal(t, entities.ModePractice, env.state(t).Mode)
	_, ok = env.api.lastMessage(md("Exam aborted. No result was saved."))
	assert.True(t, ok)

	env.api.reset()
	env.command("/history")
	_, ok = env.api.lastMessage(md(msgNoHistory))
	assert.True(t, ok)
	env.assertNoInternalError(t)
}

func TestHandlerModesAndSettings(t *testing.T) {
	env := newHandlerEnv(t)
	env.command("/start")

	env.command("/mode study")
	assert.Equal(t, entities.ModeStudy, env.state(t).Mode)

	env.command("/mode bogus")
	_, ok := env.api.lastMessage(md(msgUnknownMode))
	assert.True(t, ok)

	env.callback("cb-mode", buildModeCallback(entities.ModePractice))
	assert.Equal(t, entities.ModePractice, env.state(t).Mode)

	autoNext := env.state(t).Settings.AutoNext
	env.callback("cb-set", buildSettingsCallback(settingsAutoNext))
	assert.Equal(t, !autoNext, env.state(t).Settings.AutoNext)

	edits := env.api.markupEdits()
	require.NotEmpty(t, edits)
	last := edits[len(edits)-1]
	assert.Equal(t, 99, last.MessageID)

	lang := env.state(t).Language
	env.command("/lang")
	assert.NotEqual(t, lang, env.state(t).Language)

	env.api.reset()
	env.command("/nope")
	_, ok = env.api.lastMessage(md(msgUnknownCommand))
	assert.True(t, ok)

	env.command("/help")
	_, ok = env.api.lastMessage(bold("Commands"))
	assert.True(t, ok)
	env.assertNoInternalError(t)
}

func TestHandlerCallbackWithoutMessage(t *testing.T) {
	env := newHandlerEnv(t)
	env.h.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb-orphan",
		From: &tgbotapi.User{ID: testUserID},
		Data: buildNavCallback(0),
	}})

	cb, ok := env.toast("cb-orphan")
	require.True(t, ok)
	assert.Empty(t, cb.Text)
	assert.Empty(t, env.api.messages())

	_, opened := env.sessions.Lookup(testUserID)
	assert.False(t, opened)
}

func TestHandlerUnparsableCallback(t *testing.T) {
	env := newHandlerEnv(t)
	env.callback("cb-bad", "opt:x:y")

	cb, ok := env.toast("cb-bad")
	require.True(t, ok)
	assert.Empty(t, cb.Text)
	assert.Empty(t, env.api.messages())
}

func TestWithErrorHandling(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "nil", err: nil},
		{name: "reported", err: fmt.Errorf("select: %w", service.ErrOutOfRange)},
		{name: "load failure", err: fmt.Errorf("%w: bank %q", service.ErrLoadFailed, "general")},
		{name: "closed", err: service.ErrSessionClosed, expected: md(msgSessionClosed)},
		{name: "unexpected", err: errors.New("boom"), expected: md(msgInternalError)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newHandlerEnv(t)

			err := env.h.withErrorHandling(func(context.Context, int64) error {
				return tt.err
			})(context.Background(), testChat)
			require.NoError(t, err)

			msgs := env.api.messages()
			if tt.expected == "" {
				assert.Empty(t, msgs)
				return
			}
			require.Len(t, msgs, 1)
			assert.Equal(t, tt.expected, msgs[0].Text)
			assert.Equal(t, testChat, msgs[0].ChatID)
		})
	}
}

func TestRegisterCommands(t *testing.T) {
	env := newHandlerEnv(t)
	require.NoError(t, env.h.RegisterCommands())

	env.api.mu.Lock()
	defer env.api.mu.Unlock()
	require.Len(t, env.api.requests, 1)
	cfg, ok := env.api.requests[0].(tgbotapi.SetMyCommandsConfig)
	require.True(t, ok)
	assert.Len(t, cfg.Commands, len(botCommands()))
}
