package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/service"
)

// Sender is the part of the Bot API used to talk to a chat.
// *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type SessionService interface {
	Open(ctx context.Context, userID int64, presenter service.Presenter) (*service.SessionController, error)
	History(ctx context.Context, userID int64, limit int) ([]entities.ExamResult, error)
}

type BankCatalog interface {
	Catalog(ctx context.Context) (entities.Catalog, error)
	ExamTemplates(ctx context.Context) ([]entities.ExamTemplateRef, error)
	ResolveBank(ctx context.Context, query string) (string, bool)
}
