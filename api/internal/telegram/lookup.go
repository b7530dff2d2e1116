package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"assessment-pipeline/api/internal/store"
)

const (
	defaultHistory = 5
	maxHistory     = 20
)

func (r *Router) handleArtifact(ctx context.Context, chatID int64, args string) {
	id := strings.TrimSpace(args)
	if id == "" {
		r.send(chatID, "Usage: /artifact <run_id>")
		return
	}
	a, err := r.Repo.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		r.send(chatID, "Artifact "+id+" not found")
		return
	}
	if err != nil {
		r.sendError(chatID, "Could not load the run", err)
		return
	}
	r.send(chatID, formatAudit(a))
}

func (r *Router) handleHistory(ctx context.Context, chatID int64, args string) {
	limit := defaultHistory
	if args != "" {
		n, err := strconv.Atoi(args)
		if err != nil {
			r.send(chatID, "Usage: /history [n]")
			return
		}
		limit = min(max(n, 1), maxHistory)
	}
	runs, err := r.Repo.ListByUser(ctx, userID(chatID), limit)
	if err != nil {
		r.sendError(chatID, "Could not load history", err)
		return
	}
	r.send(chatID, formatHistory(runs))
}

func (r *Router) handleStats(ctx context.Context, chatID int64) {
	st, err := r.Repo.Stats(ctx)
	if err != nil {
		r.sendError(chatID, "Could not load stats", err)
		return
	}
	r.send(chatID, formatStats(st))
}
