package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/repository"
)

// SessionStorage is an in-memory snapshot, settings and exam history store.
// Snapshots are kept in encoded form so that loads go through the same
// decoding as the database stores.
type SessionStorage struct {
	mu        sync.RWMutex
	snapshots map[int64][]byte
	settings  map[int64]entities.Settings
	results   map[int64][]entities.ExamResult
	keep      int
}

// NewSessionStorage creates a new SessionStorage keeping at most keep results per user.
func NewSessionStorage(keep int) *SessionStorage {
	if keep <= 0 {
		keep = repository.DefaultHistoryKeep
	}
	return &SessionStorage{
		snapshots: make(map[int64][]byte),
		settings:  make(map[int64]entities.Settings),
		results:   make(map[int64][]entities.ExamResult),
		keep:      keep,
	}
}

func (s *SessionStorage) SaveSnapshot(_ context.Context, userID int64, snap *entities.Snapshot) error {
	data, err := repository.EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = data
	return nil
}

func (s *SessionStorage) LoadSnapshot(_ context.Context, userID int64) (*entities.Snapshot, error) {
	s.mu.RLock()
	data, ok := s.snapshots[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return repository.DecodeSnapshot(data)
}

// PutRawSnapshot stores an already encoded snapshot, e.g. one written by an older client.
func (s *SessionStorage) PutRawSnapshot(userID int64, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = slices.Clone(data)
}

func (s *SessionStorage) SaveSettings(_ context.Context, userID int64, settings entities.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[userID] = settings
	return nil
}

func (s *SessionStorage) LoadSettings(_ context.Context, userID int64) (*entities.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	settings, ok := s.settings[userID]
	if !ok {
		return nil, repository.ErrSettingsNotFound
	}
	return &settings, nil
}

func (s *SessionStorage) SaveExamResult(_ context.Context, userID int64, result *entities.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := *result
	res.Items = slices.Clone(result.Items)

	history := append([]entities.ExamResult{res}, s.results[userID]...)
	if len(history) > s.keep {
		history = history[:s.keep]
	}
	s.results[userID] = history
	return nil
}

// ListExamResults returns up to limit results of a user, newest first.
func (s *SessionStorage) ListExamResults(_ context.Context, userID int64, limit int) ([]entities.ExamResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.results[userID]
	if limit <= 0 || limit > len(history) {
		limit = len(history)
	}
	return slices.Clone(history[:limit]), nil
}
