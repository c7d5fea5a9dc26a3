package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/certitester-bot/internal/domain/entities"
	"github.com/aliskhannn/certitester-bot/internal/repository"
)

const defaultResultsLimit = 10

// Handler serves the status API.
type Handler struct {
	banks    BankCatalog
	sessions Sessions
	logger   *zap.Logger
}

type bankEntryJSON struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	File string `json:"file,omitempty"`
}

// Health reports liveness and the number of open sessions.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}

// ListBanks returns the bank catalog and the exam templates.
func (h *Handler) ListBanks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cat, catErr := h.banks.Catalog(ctx)
	if catErr != nil {
		h.logger.Warn("serving default bank catalog", zap.Error(catErr))
	}

	templates, err := h.banks.ExamTemplates(ctx)
	if err != nil {
		h.logger.Warn("serving built-in exam templates", zap.Error(err))
	}

	entries := cat.Entries()
	banks := make([]bankEntryJSON, 0, len(entries))
	for _, e := range entries {
		banks = append(banks, bankEntryJSON{Key: e.Key, Name: e.Name, File: e.File})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"banks":     banks,
		"templates": templates,
		"fallback":  catErr != nil,
	})
}

// GetSnapshot returns the persisted view of a user's session.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	snap, err := h.sessions.Snapshot(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			writeError(w, http.StatusNotFound, err)
			return
		}
		h.logger.Error("failed to load snapshot", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// ListResults returns the latest exam results of a user.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	results, err := h.sessions.History(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("failed to list exam results", zap.Int64("user_id", userID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		return
	}
	if results == nil {
		results = []entities.ExamResult{}
	}

	writeJSON(w, http.StatusOK, results)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid user id"))
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
