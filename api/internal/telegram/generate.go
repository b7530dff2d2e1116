package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"assessment-pipeline/api/internal/types"
)

const generateUsage = "Usage: /generate <grade 1-12> <topic>, e.g. /generate 5 Fractions"

func parseGenerateArgs(args string) (types.Request, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return types.Request{}, fmt.Errorf("need a grade and a topic")
	}
	grade, err := strconv.Atoi(fields[0])
	if err != nil {
		return types.Request{}, fmt.Errorf("grade %q is not a number", fields[0])
	}
	req := types.Request{Grade: grade, Topic: strings.Join(fields[1:], " ")}
	if err := types.Validate(req); err != nil {
		return types.Request{}, err
	}
	return req, nil
}

// handleGenerate answers immediately and runs the pipeline in the background.
// One run per chat at a time.
func (r *Router) handleGenerate(ctx context.Context, chatID int64, args string) {
	req, err := parseGenerateArgs(args)
	if err != nil {
		r.send(chatID, "⚠️ "+err.Error()+"\n"+generateUsage)
		return
	}
	pipe, engine := r.pipelineFor(chatID)
	if pipe == nil {
		r.send(chatID, "❌ Provider "+engine+" is not configured.")
		return
	}
	if !r.chats.begin(chatID) {
		r.send(chatID, "⏳ A run is already in progress for this chat, please wait.")
		return
	}

	r.send(chatID, fmt.Sprintf("⏳ Writing a grade %d lesson on %q with %s. This can take a minute.", req.Grade, req.Topic, engine))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.chats.end(chatID)
		r.runGenerate(ctx, chatID, pipe, req)
	}()
}

func (r *Router) runGenerate(ctx context.Context, chatID int64, pipe Pipeline, req types.Request) {
	if r.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.RunTimeout)
		defer cancel()
	}
	art := pipe.Run(ctx, req, userID(chatID))

	if _, err := r.Repo.Save(context.WithoutCancel(ctx), art); err != nil {
		r.sendError(chatID, "Could not store the run", err)
		return
	}
	r.log().Info("run delivered", "chat_id", chatID, "run_id", art.RunID, "status", art.Final.Status)

	msg := newTextMessage(chatID, formatArtifact(art))
	msg.ReplyMarkup = makeRunKeyboard(art)
	r.sendMessage(msg)
}
