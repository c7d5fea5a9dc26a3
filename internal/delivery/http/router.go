package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
)

// BankCatalog lists banks and exam templates.
type BankCatalog interface {
	Catalog(ctx context.Context) (entities.Catalog, error)
	ExamTemplates(ctx context.Context) ([]entities.ExamTemplateRef, error)
}

// Sessions exposes session state and exam history.
type Sessions interface {
	Snapshot(ctx context.Context, userID int64) (*entities.Snapshot, error)
	History(ctx context.Context, userID int64, limit int) ([]entities.ExamResult, error)
	Len() int
}

// NewRouter builds the status API.
func NewRouter(banks BankCatalog, sessions Sessions, logger *zap.Logger) http.Handler {
	h := &Handler{banks: banks, sessions: sessions, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/banks", h.ListBanks)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/snapshot", h.GetSnapshot)
			r.Get("/results", h.ListResults)
		})
	})

	return r
}

// NewServer wraps the router in an http.Server.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
