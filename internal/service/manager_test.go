package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/repository"
	"github.com/aliskhannn/certitester-bot/internal/storage"
)

func newTestManager(t *testing.T) (*SessionManager, *storage.SessionStorage) {
	t.Helper()

	store := storage.NewSessionStorage(10)
	m := NewSessionManager(context.Background(), newFakeBanks(), store, store, zap.NewNop(), testOptions())
	t.Cleanup(m.Shutdown)
	return m, store
}

func TestSessionManagerOpen(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	c, err := m.Open(ctx, 7, &recordingPresenter{})
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "general", c.State().Bank)
	assert.Equal(t, 1, m.Len())

	again, err := m.Open(ctx, 7, &recordingPresenter{})
	require.NoError(t, err)
	assert.Same(t, c, again)

	found, ok := m.Lookup(7)
	assert.True(t, ok)
	assert.Same(t, c, found)

	_, ok = m.Lookup(8)
	assert.False(t, ok)
}

func TestSessionManagerSnapshot(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	c, err := m.Open(ctx, 7, &recordingPresenter{})
	require.NoError(t, err)
	require.NoError(t, c.SelectOption(ctx, 1, 1))

	snap, err := m.Snapshot(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, c.Snapshot(), snap)

	_, err = m.Snapshot(ctx, 8)
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	m.Shutdown()
	assert.Zero(t, m.Len())
	assert.ErrorIs(t, c.GoTo(ctx, 0), ErrSessionClosed)

	stored, err := m.Snapshot(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "general", stored.CurrentBank)
	require.Contains(t, stored.UserAnswers, 1)
}

func TestSessionManagerRestoresAfterShutdown(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	c, err := m.Open(ctx, 7, &recordingPresenter{})
	require.NoError(t, err)
	require.NoError(t, c.LoadBank(ctx, "other"))
	require.NoError(t, c.SelectOption(ctx, 1, 0))
	_, err = c.UpdateSettings(ctx, func(s *entities.Settings) { s.AutoSubmitSingle = true })
	require.NoError(t, err)

	m.Shutdown()

	restored, err := m.Open(ctx, 7, &recordingPresenter{})
	require.NoError(t, err)
	assert.NotSame(t, c, restored)

	state := restored.State()
	assert.Equal(t, "other", state.Bank)
	assert.Equal(t, 1, state.Current)
	assert.Equal(t, []int{0}, state.Answers[1].Selected)
	assert.True(t, state.Settings.AutoSubmitSingle)
}

func TestSessionManagerUnreadableSnapshot(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	store.PutRawSnapshot(9, []byte("not json"))

	c, err := m.Open(ctx, 9, &recordingPresenter{})
	require.NoError(t, err)

	state := c.State()
	assert.Equal(t, "general", state.Bank)
	assert.Empty(t, state.Answers)
}

func TestSessionManagerHistory(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	c, err := m.Open(ctx, 7, &recordingPresenter{})
	require.NoError(t, err)
	require.NoError(t, c.StartExam(ctx, "mock.json"))
	_, err = c.EndExam(ctx)
	require.NoError(t, err)

	history, err := m.History(ctx, 7, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Mock exam", history[0].ExamName)

	history, err = m.History(ctx, 8, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSessionManagerWithoutStores(t *testing.T) {
	ctx := context.Background()
	m := NewSessionManager(ctx, newFakeBanks(), nil, nil, nil, testOptions())
	t.Cleanup(m.Shutdown)

	c, err := m.Open(ctx, 7, &recordingPresenter{})
	require.NoError(t, err)
	assert.Equal(t, "general", c.State().Bank)

	m.Shutdown()

	_, err = m.Snapshot(ctx, 7)
	assert.ErrorIs(t, err, repository.ErrSnapshotNotFound)

	history, err := m.History(ctx, 7, 10)
	require.NoError(t, err)
	assert.Nil(t, history)
}
