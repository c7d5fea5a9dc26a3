package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/service"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		h.request(tgbotapi.NewCallback(cb.ID, ""))
		return
	}

	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	ctx, t := withToast(ctx, cb.ID)

	if fn := h.callbackHandler(cb, userID, decodeCallback(cb.Data)); fn != nil {
		_ = h.withErrorHandling(fn)(ctx, chatID)
	}

	// Remove the user's "clock".
	if !t.used {
		t.used = true
		h.request(tgbotapi.NewCallback(cb.ID, ""))
	}
}

// callbackHandler maps callback data to a handler. It returns nil for data
// that cannot be parsed.
func (h *Handler) callbackHandler(cb *tgbotapi.CallbackQuery, userID int64, data callbackData) HandlerFunc {
	switch data.Action {
	case actionOption:
		pos, ok1 := data.intParam(0)
		option, ok2 := data.intParam(1)
		if !ok1 || !ok2 {
			break
		}
		return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
			return s.SelectOption(ctx, pos, option)
		})

	case actionSubmit:
		pos, ok := data.intParam(0)
		if !ok {
			break
		}
		return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
			if s.State().Mode == entities.ModeExam {
				return s.SubmitSingleAnswer(ctx, pos)
			}
			return s.SubmitAnswer(ctx, pos)
		})

	case actionNav:
		pos, ok := data.intParam(0)
		if !ok {
			break
		}
		return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
			return s.GoTo(ctx, pos)
		})

	case actionBank:
		if key := data.param(0); key != "" {
			return h.bankHandler(userID, key)
		}

	case actionMode:
		mode, ok := entities.ParseMode(data.param(0))
		if !ok {
			break
		}
		return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
			return s.ChangeMode(ctx, mode)
		})

	case actionExam:
		return h.examCallbackHandler(userID, data)

	case actionConfirm:
		kind := service.ConfirmKind(data.param(0))
		accepted := data.param(1) == confirmYes
		return h.confirmHandler(cb, userID, kind, accepted)

	case actionSettings:
		return h.settingsCallbackHandler(cb, userID, data.param(0))

	case actionHistory:
		return h.historyHandler(userID)

	case actionDetails:
		if id := data.param(0); id != "" {
			return h.detailsHandler(userID, id)
		}
	}

	h.logger.Debug("unhandled callback", zap.String("data", data.Raw))
	return nil
}

func (h *Handler) examCallbackHandler(userID int64, data callbackData) HandlerFunc {
	var op func(ctx context.Context, s *service.SessionController) error

	switch data.param(0) {
	case examStart:
		return h.examHandler(userID, data.param(1))
	case examSubmit:
		op = func(ctx context.Context, s *service.SessionController) error { return s.SubmitExam(ctx) }
	case examEnd:
		op = func(ctx context.Context, s *service.SessionController) error { return s.RequestEndExam(ctx) }
	case examAbort:
		op = func(ctx context.Context, s *service.SessionController) error { return s.AbortExam(ctx) }
	default:
		h.logger.Debug("unknown exam action", zap.String("data", data.Raw))
		return nil
	}

	return h.sessionHandler(userID, false, op)
}

// confirmHandler resolves a confirmation and strips the buttons from its message.
func (h *Handler) confirmHandler(cb *tgbotapi.CallbackQuery, userID int64, kind service.ConfirmKind, accepted bool) HandlerFunc {
	return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
		h.request(tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
			InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
		}))

		_, err := s.ResolveConfirmation(ctx, kind, accepted)
		return err
	})
}

// settingsCallbackHandler applies a settings toggle and refreshes the settings keyboard.
func (h *Handler) settingsCallbackHandler(cb *tgbotapi.CallbackQuery, userID int64, sub string) HandlerFunc {
	return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
		var err error
		switch sub {
		case settingsLanguage:
			_, err = s.ToggleLanguage(ctx)
		case settingsTranslation:
			_, err = s.UpdateSettings(ctx, func(st *entities.Settings) { st.ShowTranslation = !st.ShowTranslation })
		case settingsAutoNext:
			_, err = s.UpdateSettings(ctx, func(st *entities.Settings) { st.AutoNext = !st.AutoNext })
		case settingsAutoSubmit:
			_, err = s.UpdateSettings(ctx, func(st *entities.Settings) { st.AutoSubmitSingle = !st.AutoSubmitSingle })
		default:
			h.logger.Debug("unknown settings action", zap.String("action", sub))
			return nil
		}
		if err != nil {
			return err
		}

		state := s.State()
		h.request(tgbotapi.NewEditMessageReplyMarkup(
			cb.Message.Chat.ID,
			cb.Message.MessageID,
			buildSettingsKeyboard(state.Settings, state.Language),
		))
		return nil
	})
}
