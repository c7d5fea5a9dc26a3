package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/repository"
)

type fakeCatalog struct {
	catalog entities.Catalog
	err     error
}

func (f fakeCatalog) Catalog(context.Context) (entities.Catalog, error) {
	return f.catalog, f.err
}

func (f fakeCatalog) ExamTemplates(context.Context) ([]entities.ExamTemplateRef, error) {
	return []entities.ExamTemplateRef{{File: "mock.json", Name: "Mock"}}, nil
}

type fakeSessions struct {
	snapshots  map[int64]*entities.Snapshot
	results    []entities.ExamResult
	historyErr error
	lastLimit  int
}

func (f *fakeSessions) Snapshot(_ context.Context, userID int64) (*entities.Snapshot, error) {
	if userID == 500 {
		return nil, errors.New("database down")
	}
	snap, ok := f.snapshots[userID]
	if !ok {
		return nil, repository.ErrSnapshotNotFound
	}
	return snap, nil
}

func (f *fakeSessions) History(_ context.Context, _ int64, limit int) ([]entities.ExamResult, error) {
	f.lastLimit = limit
	return f.results, f.historyErr
}

func (f *fakeSessions) Len() int { return len(f.snapshots) }

func newTestRouter(catalog fakeCatalog, sessions *fakeSessions) http.Handler {
	return NewRouter(catalog, sessions, zap.NewNop())
}

func serve(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	sessions := &fakeSessions{snapshots: map[int64]*entities.Snapshot{1: {}, 2: {}}}
	rec := serve(t, newTestRouter(fakeCatalog{}, sessions), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status": "ok", "sessions": 2}`, rec.Body.String())
}

func TestListBanks(t *testing.T) {
	catalog := fakeCatalog{catalog: entities.Catalog{
		"general": {Name: "General", File: "general.json"},
		"acp":     {Name: "ACP"},
	}}
	rec := serve(t, newTestRouter(catalog, &fakeSessions{}), "/api/banks")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"banks": [
			{"key": "acp", "name": "ACP"},
			{"key": "general", "name": "General", "file": "general.json"}
		],
		"templates": [{"file": "mock.json", "name": "Mock"}],
		"fallback": false
	}`, rec.Body.String())

	catalog.err = errors.New("catalog unavailable")
	rec = serve(t, newTestRouter(catalog, &fakeSessions{}), "/api/banks")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Fallback bool `json:"fallback"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Fallback)
}

func TestGetSnapshot(t *testing.T) {
	sessions := &fakeSessions{snapshots: map[int64]*entities.Snapshot{
		7: {CurrentBank: "general", CurrentQuestionIndex: 3, UserAnswers: entities.Answers{}},
	}}
	router := newTestRouter(fakeCatalog{}, sessions)

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{name: "found", target: "/api/users/7/snapshot", code: http.StatusOK},
		{name: "not found", target: "/api/users/8/snapshot", code: http.StatusNotFound},
		{name: "bad id", target: "/api/users/abc/snapshot", code: http.StatusBadRequest},
		{name: "store failure", target: "/api/users/500/snapshot", code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, tt.target)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := serve(t, router, "/api/users/7/snapshot")
	var snap entities.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, "general", snap.CurrentBank)
	assert.Equal(t, 3, snap.CurrentQuestionIndex)

	rec = serve(t, router, "/api/users/500/snapshot")
	assert.JSONEq(t, `{"error": "internal error"}`, rec.Body.String())
}

func TestListResults(t *testing.T) {
	t.Run("default limit and empty history", func(t *testing.T) {
		sessions := &fakeSessions{}
		rec := serve(t, newTestRouter(fakeCatalog{}, sessions), "/api/users/7/results")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
		assert.Equal(t, defaultResultsLimit, sessions.lastLimit)
	})

	t.Run("explicit limit", func(t *testing.T) {
		sessions := &fakeSessions{results: []entities.ExamResult{{ID: "r1", ScorePercentage: 80}}}
		rec := serve(t, newTestRouter(fakeCatalog{}, sessions), "/api/users/7/results?limit=3")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, sessions.lastLimit)

		var results []entities.ExamResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
		require.Len(t, results, 1)
		assert.Equal(t, 80, results[0].ScorePercentage)
	})

	t.Run("bad limit", func(t *testing.T) {
		for _, limit := range []string{"0", "-2", "many"} {
			rec := serve(t, newTestRouter(fakeCatalog{}, &fakeSessions{}), "/api/users/7/results?limit="+limit)
			assert.Equal(t, http.StatusBadRequest, rec.Code, limit)
		}
	})

	t.Run("history failure", func(t *testing.T) {
		sessions := &fakeSessions{historyErr: errors.New("timeout")}
		rec := serve(t, newTestRouter(fakeCatalog{}, sessions), "/api/users/7/results")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestUnknownRoute(t *testing.T) {
	rec := serve(t, newTestRouter(fakeCatalog{}, &fakeSessions{}), "/api/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServer(t *testing.T) {
	srv := NewServer(":0", http.NotFoundHandler())
	assert.Equal(t, ":0", srv.Addr)
	assert.NotZero(t, srv.ReadHeaderTimeout)
}
