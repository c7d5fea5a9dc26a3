package service

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/repository"
)

// SessionManager owns one SessionController per user.
type SessionManager struct {
	mu       sync.Mutex
	ctx      context.Context
	sessions map[int64]*SessionController

	banks   BankLoader
	store   SnapshotStore
	results ResultStore
	logger  *zap.Logger
	opts    Options
}

// NewSessionManager creates a SessionManager. ctx bounds the background work
// of every controller it creates.
func NewSessionManager(
	ctx context.Context,
	banks BankLoader,
	store SnapshotStore,
	results ResultStore,
	logger *zap.Logger,
	opts Options,
) *SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		ctx:      ctx,
		sessions: make(map[int64]*SessionController),
		banks:    banks,
		store:    store,
		results:  results,
		logger:   logger,
		opts:     opts,
	}
}

// Open returns the controller of userID. On first use the controller is
// hydrated from the stores and its saved bank is loaded.
func (m *SessionManager) Open(ctx context.Context, userID int64, presenter Presenter) (*SessionController, error) {
	if c, ok := m.Lookup(userID); ok {
		return c, nil
	}

	snap, settings := m.loadState(ctx, userID)

	c := NewSessionController(m.ctx, userID, m.banks, m.store, m.results, presenter, m.logger, m.opts)
	c.Hydrate(snap, settings)

	m.mu.Lock()
	if existing, ok := m.sessions[userID]; ok {
		m.mu.Unlock()
		c.Close()
		return existing, nil
	}
	m.sessions[userID] = c
	m.mu.Unlock()

	if err := c.Start(ctx); err != nil {
		m.logger.Warn("failed to start session", zap.Int64("user_id", userID), zap.Error(err))
	}

	return c, nil
}

// Lookup returns the controller of userID if one is open.
func (m *SessionManager) Lookup(userID int64) (*SessionController, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.sessions[userID]
	return c, ok
}

// Snapshot returns the live snapshot of an open session, falling back to the store.
func (m *SessionManager) Snapshot(ctx context.Context, userID int64) (*entities.Snapshot, error) {
	if c, ok := m.Lookup(userID); ok {
		return c.Snapshot(), nil
	}
	if m.store == nil {
		return nil, repository.ErrSnapshotNotFound
	}
	return m.store.LoadSnapshot(ctx, userID)
}

// History returns the most recent exam results of userID, newest first.
func (m *SessionManager) History(ctx context.Context, userID int64, limit int) ([]entities.ExamResult, error) {
	if m.results == nil {
		return nil, nil
	}
	return m.results.ListExamResults(ctx, userID, limit)
}

// Len returns the number of open sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Shutdown closes every controller. Controllers opened afterwards still work.
func (m *SessionManager) Shutdown() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[int64]*SessionController)
	m.mu.Unlock()

	for _, c := range sessions {
		c.Close()
	}
	m.logger.Info("sessions closed", zap.Int("count", len(sessions)))
}

func (m *SessionManager) loadState(ctx context.Context, userID int64) (*entities.Snapshot, *entities.Settings) {
	if m.store == nil {
		return nil, nil
	}

	snap, err := m.store.LoadSnapshot(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrSnapshotNotFound) {
			m.logger.Warn("discarding unreadable snapshot", zap.Int64("user_id", userID), zap.Error(err))
		}
		snap = nil
	}

	settings, err := m.store.LoadSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingsNotFound) {
			m.logger.Warn("failed to load settings", zap.Int64("user_id", userID), zap.Error(err))
		}
		settings = nil
	}

	return snap, settings
}
