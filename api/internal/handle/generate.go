package handle

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"assessment-pipeline/api/internal/types"
)

// Generate runs the pipeline for the posted {grade, topic} and stores the artifact.
// Pipeline rejections are normal 200 responses.
func (h *Handle) Generate(w http.ResponseWriter, r *http.Request) {
	var req types.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "bad json: "+err.Error())
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if err := types.Validate(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

	ctx := r.Context()
	if h.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.runTimeout)
		defer cancel()
	}

	art := h.pipe.Run(ctx, req, userID)

	// the run is already finished; store it even if the client went away
	if _, err := h.repo.Save(context.WithoutCancel(ctx), art); err != nil {
		h.log.Error("save artifact", "run_id", art.RunID, "error", err)
		writeError(w, http.StatusInternalServerError, "save artifact: "+err.Error())
		return
	}
	h.log.Info("pipeline complete", "run_id", art.RunID, "status", art.Final.Status, "attempts", len(art.Attempts))
	writeJSON(w, http.StatusOK, art)
}
