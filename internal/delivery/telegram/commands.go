package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/service"
)

const (
	cmdStart     = "start"
	cmdHelp      = "help"
	cmdBanks     = "banks"
	cmdBank      = "bank"
	cmdMode      = "mode"
	cmdExam      = "exam"
	cmdSubmit    = "submit"
	cmdEndExam   = "endexam"
	cmdAbortExam = "abortexam"
	cmdNext      = "next"
	cmdPrev      = "prev"
	cmdGoto      = "goto"
	cmdReset     = "reset"
	cmdSettings  = "settings"
	cmdLang      = "lang"
	cmdHistory   = "history"
)

func botCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: cmdStart, Description: "Show the current question"},
		{Command: cmdBanks, Description: "Choose a question bank"},
		{Command: cmdMode, Description: "Switch between practice and study"},
		{Command: cmdExam, Description: "Start a timed exam"},
		{Command: cmdSubmit, Description: "Submit the current answer or the exam"},
		{Command: cmdEndExam, Description: "End the running exam"},
		{Command: cmdAbortExam, Description: "Abort the running exam"},
		{Command: cmdNext, Description: "Next question"},
		{Command: cmdPrev, Description: "Previous question"},
		{Command: cmdGoto, Description: "Jump to question N"},
		{Command: cmdReset, Description: "Clear practice answers"},
		{Command: cmdSettings, Description: "Settings"},
		{Command: cmdLang, Description: "Switch question language"},
		{Command: cmdHistory, Description: "Recent exam results"},
		{Command: cmdHelp, Description: "List commands"},
	}
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	var fn HandlerFunc
	switch msg.Command() {
	case cmdStart:
		h.send(newMessage(chatID, welcomeText()))
		fn = h.startHandler(userID)
	case cmdHelp:
		h.send(newMessage(chatID, helpText()))
		return
	case cmdBanks:
		fn = h.banksHandler(userID)
	case cmdBank:
		if args == "" {
			fn = h.banksHandler(userID)
		} else {
			fn = h.bankHandler(userID, args)
		}
	case cmdMode:
		fn = h.modeHandler(userID, args)
	case cmdExam:
		fn = h.examHandler(userID, args)
	case cmdSubmit:
		fn = h.submitHandler(userID)
	case cmdEndExam:
		fn = h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
			return s.RequestEndExam(ctx)
		})
	case cmdAbortExam:
		fn = h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
			return s.AbortExam(ctx)
		})
	case cmdNext:
		fn = h.sessionHandler(userID, true, func(ctx context.Context, s *service.SessionController) error {
			return s.Next(ctx)
		})
	case cmdPrev:
		fn = h.sessionHandler(userID, true, func(ctx context.Context, s *service.SessionController) error {
			return s.Prev(ctx)
		})
	case cmdGoto:
		n, err := strconv.Atoi(args)
		if err != nil {
			h.send(newMessage(chatID, md(msgUseGoto)))
			return
		}
		fn = h.gotoHandler(userID, n)
	case cmdReset:
		fn = h.sessionHandler(userID, true, func(ctx context.Context, s *service.SessionController) error {
			return s.ResetPractice(ctx)
		})
	case cmdSettings:
		fn = h.settingsHandler(userID)
	case cmdLang:
		fn = h.sessionHandler(userID, true, func(ctx context.Context, s *service.SessionController) error {
			_, err := s.ToggleLanguage(ctx)
			return err
		})
	case cmdHistory:
		fn = h.historyHandler(userID)
	default:
		h.send(newMessage(chatID, md(msgUnknownCommand)))
		return
	}

	_ = h.withErrorHandling(fn)(ctx, chatID)
}

// sessionHandler runs op on the session of userID. With fresh set, the
// question is re-sent below the command instead of editing the old message.
func (h *Handler) sessionHandler(userID int64, fresh bool, op func(ctx context.Context, s *service.SessionController) error) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		if fresh {
			h.presenter(chatID).detach()
		}
		s, err := h.session(ctx, userID, chatID)
		if err != nil {
			return err
		}
		return op(ctx, s)
	}
}

func (h *Handler) startHandler(userID int64) HandlerFunc {
	return h.sessionHandler(userID, true, func(ctx context.Context, s *service.SessionController) error {
		s.Refresh(ctx)
		return nil
	})
}

func (h *Handler) gotoHandler(userID int64, n int) HandlerFunc {
	return h.sessionHandler(userID, true, func(ctx context.Context, s *service.SessionController) error {
		return s.GoTo(ctx, n-1)
	})
}

// bankHandler loads the bank named by query, which may be a key or a display name.
func (h *Handler) bankHandler(userID int64, query string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		key, ok := h.banks.ResolveBank(ctx, query)
		if !ok {
			h.send(newMessage(chatID, md(fmt.Sprintf(msgUnknownBank, query))))
			return h.banksHandler(userID)(ctx, chatID)
		}
		return h.sessionHandler(userID, true, func(ctx context.Context, s *service.SessionController) error {
			return s.LoadBank(ctx, key)
		})(ctx, chatID)
	}
}

func (h *Handler) submitHandler(userID int64) HandlerFunc {
	return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
		state := s.State()
		if state.Mode == entities.ModeExam {
			return s.SubmitExam(ctx)
		}
		return s.SubmitAnswer(ctx, state.Current)
	})
}

func (h *Handler) banksHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		s, err := h.session(ctx, userID, chatID)
		if err != nil {
			return err
		}

		cat, err := h.banks.Catalog(ctx)
		if err != nil {
			h.logger.Warn("using default bank catalog", zap.Error(err))
		}

		msg := newMessage(chatID, md(msgChooseBank))
		msg.ReplyMarkup = buildBankKeyboard(cat.Entries(), s.State().Bank)
		h.send(msg)
		return nil
	}
}

func (h *Handler) modeHandler(userID int64, arg string) HandlerFunc {
	if arg == "" {
		return func(_ context.Context, chatID int64) error {
			msg := newMessage(chatID, md(msgChooseMode))
			msg.ReplyMarkup = buildModeKeyboard()
			h.send(msg)
			return nil
		}
	}

	return func(ctx context.Context, chatID int64) error {
		mode, ok := entities.ParseMode(strings.ToLower(arg))
		if !ok {
			h.send(newMessage(chatID, md(msgUnknownMode)))
			return nil
		}
		return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
			return s.ChangeMode(ctx, mode)
		})(ctx, chatID)
	}
}

func (h *Handler) examHandler(userID int64, ref string) HandlerFunc {
	if ref == "" {
		return h.examMenuHandler()
	}
	return h.sessionHandler(userID, false, func(ctx context.Context, s *service.SessionController) error {
		return s.StartExam(ctx, ref)
	})
}

func (h *Handler) examMenuHandler() HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		refs, err := h.banks.ExamTemplates(ctx)
		if err != nil {
			h.logger.Warn("using built-in exam templates", zap.Error(err))
		}

		msg := newMessage(chatID, md(msgChooseExam))
		msg.ReplyMarkup = buildExamKeyboard(refs)
		h.send(msg)
		return nil
	}
}

func (h *Handler) settingsHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		s, err := h.session(ctx, userID, chatID)
		if err != nil {
			return err
		}

		state := s.State()
		msg := newMessage(chatID, md(msgSettings))
		msg.ReplyMarkup = buildSettingsKeyboard(state.Settings, state.Language)
		h.send(msg)
		return nil
	}
}

// detailsHandler shows the per-question outcome of a finished exam.
func (h *Handler) detailsHandler(userID int64, resultID string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		results, err := h.sessions.History(ctx, userID, resultLookupLimit)
		if err != nil {
			h.logger.Error("failed to load exam history",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			h.sendError(chatID, msgHistoryFailed)
			return nil
		}

		for _, r := range results {
			if r.ID == resultID {
				h.send(newMessage(chatID, formatResultDetails(r)))
				return nil
			}
		}

		h.sendError(chatID, msgResultGone)
		return nil
	}
}

func (h *Handler) historyHandler(userID int64) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		results, err := h.sessions.History(ctx, userID, historyLimit)
		if err != nil {
			h.logger.Error("failed to load exam history",
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
			h.sendError(chatID, msgHistoryFailed)
			return nil
		}

		h.send(newMessage(chatID, formatHistory(results)))
		return nil
	}
}
