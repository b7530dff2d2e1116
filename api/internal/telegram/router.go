// Package telegram serves the pipeline through a Telegram bot.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/store"
	"assessment-pipeline/api/internal/types"
	"assessment-pipeline/api/internal/util"
)

// maxMessage stays below Telegram's 4096 character limit.
const maxMessage = 3900

// Sender is the part of *tgbotapi.BotAPI the router uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Pipeline interface {
	Run(ctx context.Context, req types.Request, userID string) types.RunArtifact
}

type Router struct {
	Bot  Sender
	Repo store.Repository

	// Pipelines holds one orchestrator per configured provider, keyed by
	// provider name. Chats start on DefaultEngine and may switch with /engine.
	Pipelines     map[string]Pipeline
	DefaultEngine string

	RunTimeout time.Duration
	Log        *slog.Logger

	chats chatState
	wg    sync.WaitGroup
}

// Wait blocks until every background run started by /generate has replied.
func (r *Router) Wait() { r.wg.Wait() }

func (r *Router) log() *slog.Logger { return logging.Component(r.Log, "telegram") }

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, *upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	if upd.Message.IsCommand() {
		r.HandleCommand(ctx, upd.Message)
		return
	}
	if strings.TrimSpace(upd.Message.Text) != "" {
		r.send(upd.Message.Chat.ID, "Send /generate <grade> <topic>, e.g. /generate 5 Fractions. /help lists every command.")
	}
}

func (r *Router) HandleCommand(ctx context.Context, m *tgbotapi.Message) {
	cid := m.Chat.ID
	args := strings.TrimSpace(m.CommandArguments())
	switch m.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.send(cid, "✅ OK")
	case "generate":
		r.handleGenerate(ctx, cid, args)
	case "artifact":
		r.handleArtifact(ctx, cid, args)
	case "history":
		r.handleHistory(ctx, cid, args)
	case "stats":
		r.handleStats(ctx, cid)
	case "engine":
		r.handleEngine(cid, args)
	default:
		r.send(cid, "Unknown command. /help lists what I can do.")
	}
}

const helpText = `I write grade-appropriate lessons with quiz questions and have them reviewed before you see them.

/generate <grade> <topic>  new lesson, e.g. /generate 5 Fractions
/history [n]  your latest runs
/artifact <run_id>  full audit of one run
/stats  approval statistics
/engine [openai|gemini|deepseek]  show or switch the model provider`

func (r *Router) send(chatID int64, text string) {
	r.sendMessage(tgbotapi.NewMessage(chatID, util.Truncate(text, maxMessage)))
}

func (r *Router) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().Warn("send message", "chat_id", msg.ChatID, "error", err)
	}
}

func (r *Router) sendError(chatID int64, what string, err error) {
	r.log().Error(what, "chat_id", chatID, "error", err)
	r.send(chatID, fmt.Sprintf("❌ %s: %v", what, err))
}

// userID ties stored runs to the chat that requested them.
func userID(chatID int64) string { return fmt.Sprintf("tg:%d", chatID) }
