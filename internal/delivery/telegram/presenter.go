package telegram

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/service"
	"github.com/aliskhannn/certitester-bot/internal/storage"
)

// timerEditInterval throttles edits of the exam timer message.
const timerEditInterval = 30 * time.Second

type toastKey struct{}

// toast is the pending answer of a callback query. The first notice raised
// while handling the callback is shown as its popup text.
type toast struct {
	id   string
	used bool
}

func withToast(ctx context.Context, callbackID string) (context.Context, *toast) {
	t := &toast{id: callbackID}
	return context.WithValue(ctx, toastKey{}, t), t
}

func toastFrom(ctx context.Context) *toast {
	t, _ := ctx.Value(toastKey{}).(*toast)
	return t
}

// chatPresenter renders a session into one chat. The current question lives
// in a single message that is edited in place until it is detached.
type chatPresenter struct {
	chatID   int64
	api      Sender
	messages *storage.MessageStorage
	logger   *zap.Logger

	mu        sync.Mutex
	controls  service.ControlsView
	nav       service.NavigationView
	nextTimer time.Duration
}

func newChatPresenter(chatID int64, api Sender, messages *storage.MessageStorage, logger *zap.Logger) *chatPresenter {
	return &chatPresenter{
		chatID:   chatID,
		api:      api,
		messages: messages,
		logger:   logger.With(zap.Int64("chat_id", chatID)),
	}
}

// detach makes the next question render a new message.
func (p *chatPresenter) detach() {
	p.messages.Delete(p.chatID, storage.MessageQuestion)
}

func (p *chatPresenter) Notify(ctx context.Context, notice service.Notice) {
	text := noticeText(notice)
	if text == "" {
		p.logger.Debug("notice without text", zap.String("code", string(notice.Code)))
		return
	}

	if t := toastFrom(ctx); t != nil && !t.used {
		t.used = true
		if _, err := p.api.Request(tgbotapi.NewCallback(t.id, text)); err == nil {
			return
		}
	}

	p.send(newMessage(p.chatID, md(text)))
}

func (p *chatPresenter) Confirm(_ context.Context, req service.ConfirmRequest) {
	msg := newMessage(p.chatID, confirmText(req))
	msg.ReplyMarkup = buildConfirmKeyboard(req.Kind)
	p.send(msg)
}

func (p *chatPresenter) RenderControls(_ context.Context, view service.ControlsView) {
	p.mu.Lock()
	prev := p.controls
	p.controls = view
	p.mu.Unlock()

	if prev.Mode == view.Mode && prev.ExamName == view.ExamName {
		return
	}

	if prev.Mode == entities.ModeExam {
		p.messages.Delete(p.chatID, storage.MessageTimer)
	}
	if prev.Mode == "" {
		return
	}

	p.detach()
	p.send(newMessage(p.chatID, modeText(view)))

	if view.Mode == entities.ModeExam {
		p.mu.Lock()
		p.nextTimer = timerEditInterval
		p.mu.Unlock()

		if sent, ok := p.send(newMessage(p.chatID, "⏱ "+md(formatElapsed(0)))); ok {
			p.messages.Store(p.chatID, storage.MessageTimer, sent.MessageID)
		}
	}
}

func (p *chatPresenter) RenderNavigation(_ context.Context, view service.NavigationView) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nav = view
}

func (p *chatPresenter) RenderQuestion(_ context.Context, view service.QuestionView) {
	p.mu.Lock()
	nav := p.nav
	p.mu.Unlock()

	text := formatQuestion(view, nav)
	kb := buildQuestionKeyboard(view)

	if prev, ok := p.messages.Get(p.chatID, storage.MessageQuestion); ok {
		edit := newEdit(p.chatID, prev.MessageID, text)
		edit.ReplyMarkup = kb
		_, err := p.api.Send(edit)
		if err == nil || isNotModified(err) {
			return
		}
		p.logger.Debug("question edit failed, sending a new message", zap.Error(err))
	}

	msg := newMessage(p.chatID, text)
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	if sent, ok := p.send(msg); ok {
		p.messages.Store(p.chatID, storage.MessageQuestion, sent.MessageID)
	}
}

func (p *chatPresenter) RenderExamResult(_ context.Context, result entities.ExamResult) {
	p.detach()

	msg := newMessage(p.chatID, formatResult(result))
	msg.ReplyMarkup = buildResultKeyboard(result.ID)
	p.send(msg)
}

func (p *chatPresenter) ReportElapsed(_ context.Context, elapsed time.Duration) {
	p.mu.Lock()
	if elapsed < p.nextTimer {
		p.mu.Unlock()
		return
	}
	p.nextTimer = elapsed.Truncate(timerEditInterval) + timerEditInterval
	p.mu.Unlock()

	timer, ok := p.messages.Get(p.chatID, storage.MessageTimer)
	if !ok {
		return
	}

	if _, err := p.api.Send(newEdit(p.chatID, timer.MessageID, "⏱ "+md(formatElapsed(elapsed)))); err != nil && !isNotModified(err) {
		p.logger.Debug("timer edit failed", zap.Error(err))
	}
}

func (p *chatPresenter) send(c tgbotapi.Chattable) (tgbotapi.Message, bool) {
	sent, err := p.api.Send(c)
	if err != nil {
		p.logger.Error("failed to send telegram message", zap.Error(err))
		return tgbotapi.Message{}, false
	}
	return sent, true
}

// isNotModified reports the Bot API error returned when an edit changes nothing.
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
