package handle

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"assessment-pipeline/api/internal/store"
	"assessment-pipeline/api/internal/types"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 100
)

func (h *Handle) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if s := strings.TrimSpace(r.URL.Query().Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		limit = min(max(n, 1), maxHistoryLimit)
	}

	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	var (
		out []types.RunArtifact
		err error
	)
	if userID != "" {
		out, err = h.repo.ListByUser(r.Context(), userID, limit)
	} else {
		out, err = h.repo.ListAll(r.Context(), limit)
	}
	if err != nil {
		h.log.Error("history", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if out == nil {
		out = []types.RunArtifact{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handle) Artifact(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("run_id")
	a, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Artifact "+id+" not found")
		return
	}
	if err != nil {
		h.log.Error("get artifact", "run_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handle) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.repo.Stats(r.Context())
	if err != nil {
		h.log.Error("stats", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}
