package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/service"
	"github.com/aliskhannn/certitester-bot/internal/storage"
)

type Handler struct {
	bot      *tgbotapi.BotAPI
	api      Sender
	logger   *zap.Logger
	sessions SessionService
	banks    BankCatalog
	messages *storage.MessageStorage

	mu         sync.Mutex
	presenters map[int64]*chatPresenter
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	logger *zap.Logger,
	sessions SessionService,
	banks BankCatalog,
	messages *storage.MessageStorage,
) *Handler {
	return &Handler{
		bot:        bot,
		api:        bot,
		logger:     logger,
		sessions:   sessions,
		banks:      banks,
		messages:   messages,
		presenters: make(map[int64]*chatPresenter),
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)
	defer h.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

// RegisterCommands publishes the command menu.
func (h *Handler) RegisterCommands() error {
	_, err := h.api.Request(tgbotapi.NewSetMyCommands(botCommands()...))
	return err
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	if update.Message.IsCommand() {
		h.handleCommand(ctx, update.Message)
		return
	}

	h.handleText(ctx, update.Message)
}

// handleText treats a bare number as a question number to jump to.
func (h *Handler) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	n, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil {
		h.send(newMessage(chatID, md(msgUnknownInput)))
		return
	}

	_ = h.withErrorHandling(h.gotoHandler(msg.From.ID, n))(ctx, chatID)
}

// presenter returns the presenter of a chat, creating it on first use.
func (h *Handler) presenter(chatID int64) *chatPresenter {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.presenters[chatID]
	if !ok {
		p = newChatPresenter(chatID, h.api, h.messages, h.logger)
		h.presenters[chatID] = p
	}
	return p
}

func (h *Handler) session(ctx context.Context, userID, chatID int64) (*service.SessionController, error) {
	return h.sessions.Open(ctx, userID, h.presenter(chatID))
}

func (h *Handler) sendError(chatID int64, err string) {
	h.send(newMessage(chatID, md(err)))
}

func (h *Handler) send(c tgbotapi.Chattable) {
	if _, err := h.api.Send(c); err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
}

func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.api.Request(c); err != nil {
		h.logger.Warn("telegram request failed",
			zap.Error(err),
		)
	}
}
