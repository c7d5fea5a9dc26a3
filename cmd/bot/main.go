package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/config"
	httpapi "github.com/aliskhannn/certitester-bot/internal/delivery/http"
	"github.com/aliskhannn/certitester-bot/internal/delivery/telegram"
	"github.com/aliskhannn/certitester-bot/internal/infra/postgres"
	"github.com/aliskhannn/certitester-bot/internal/infra/sqlite"
	"github.com/aliskhannn/certitester-bot/internal/logger"
	"github.com/aliskhannn/certitester-bot/internal/repository"
	"github.com/aliskhannn/certitester-bot/internal/service"
	"github.com/aliskhannn/certitester-bot/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("bot stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, results, closeStores, err := openStores(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeStores()

	source, err := openSource(cfg)
	if err != nil {
		return err
	}
	banks := repository.NewBankRepository(source)

	sessions := service.NewSessionManager(ctx, banks, store, results, lg, sessionOptions(cfg))
	defer sessions.Shutdown()

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	bot.Debug = cfg.Env == "local"
	lg.Info("authorized on account", zap.String("username", bot.Self.UserName))

	handler := telegram.NewHandler(bot, lg, sessions, banks, storage.NewMessageStorage())
	if err := handler.RegisterCommands(); err != nil {
		lg.Warn("failed to set bot commands", zap.Error(err))
	}

	if cfg.HTTP.Addr != "" {
		srv := httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(banks, sessions, lg))
		go func() {
			lg.Info("status api listening", zap.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("status api stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				lg.Warn("failed to shut down status api", zap.Error(err))
			}
		}()
	}

	if err := handler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	lg.Info("shutdown signal received")
	return nil
}

// openStores returns the snapshot and result stores of the configured driver
// and a function releasing them.
func openStores(ctx context.Context, cfg *config.Config, lg *zap.Logger) (service.SnapshotStore, service.ResultStore, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLite.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		lg.Info("using sqlite storage")
		st := sqlite.NewStore(db, cfg.History.Keep)
		return st, st, func() { _ = db.Close() }, nil

	case config.StorageMemory:
		lg.Info("using in-memory storage")
		st := storage.NewSessionStorage(cfg.History.Keep)
		return st, st, func() {}, nil

	default:
		dsn, err := cfg.DB.DSN()
		if err != nil {
			return nil, nil, nil, err
		}
		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.DB.MaxConnections),
			MaxConnLifetime: cfg.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		lg.Info("using postgres storage")

		sessions := repository.NewSessionRepository(pool)
		results := repository.NewExamResultRepository(pool, postgres.NewTransactor(pool), cfg.History.Keep)
		return sessions, results, pool.Close, nil
	}
}

func openSource(cfg *config.Config) (repository.Source, error) {
	if cfg.Bank.Source == config.BankSourceHTTP {
		src, err := repository.NewHTTPSource(cfg.Bank.Base, nil)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	return repository.NewFileSource(os.DirFS(cfg.Bank.Base)), nil
}

func sessionOptions(cfg *config.Config) service.Options {
	return service.Options{
		CorrectAdvanceDelay: cfg.Session.CorrectAdvanceDelay,
		AutoNextDelay:       cfg.Session.AutoNextDelay,
		StudyAutoNextDelay:  cfg.Session.StudyAutoNextDelay,
		ExamAdvanceDelay:    cfg.Session.ExamAdvanceDelay,
		AutoSubmitDelay:     cfg.Session.AutoSubmitDelay,
		ClockSpec:           cfg.Session.ClockSpec,
		DefaultBank:         cfg.Bank.Default,
	}
}
