package telegram

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"assessment-pipeline/api/internal/store"
)

func (r *Router) handleCallback(ctx context.Context, cb tgbotapi.CallbackQuery) {
	if _, err := r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil { // ack
		r.log().Warn("callback ack", "error", err)
	}
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, cbTags):
		r.onTags(ctx, cid, strings.TrimPrefix(cb.Data, cbTags))
	case strings.HasPrefix(cb.Data, cbAudit):
		r.handleArtifact(ctx, cid, strings.TrimPrefix(cb.Data, cbAudit))
	}
}

func (r *Router) onTags(ctx context.Context, chatID int64, runID string) {
	a, err := r.Repo.Get(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		r.send(chatID, "Artifact "+runID+" not found")
		return
	}
	if err != nil {
		r.sendError(chatID, "Could not load the run", err)
		return
	}
	if a.Final.Tags == nil {
		r.send(chatID, "This run was not approved, so it has no tags.")
		return
	}
	r.send(chatID, formatTags(*a.Final.Tags))
}
