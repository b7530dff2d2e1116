package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/store"
	"assessment-pipeline/api/internal/testutil"
	"assessment-pipeline/api/internal/types"
)

type fakeBot struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	acked []string
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if cb, ok := c.(tgbotapi.CallbackConfig); ok {
		f.acked = append(f.acked, cb.CallbackQueryID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeBot) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.Text
	}
	return out
}

func (f *fakeBot) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakePipeline struct {
	name    string
	status  types.Status
	release chan struct{}

	mu    sync.Mutex
	calls []types.Request
	users []string
}

func (p *fakePipeline) Run(ctx context.Context, req types.Request, userID string) types.RunArtifact {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	p.calls = append(p.calls, req)
	p.users = append(p.users, userID)
	n := len(p.calls)
	p.mu.Unlock()

	art := types.RunArtifact{
		RunID:      fmt.Sprintf("%s-%d", p.name, n),
		UserID:     userID,
		Input:      req,
		Timestamps: types.Timestamps{StartedAt: time.Date(2026, 3, 1, 10, n, 0, 0, time.UTC)},
		Metadata:   map[string]string{"provider": p.name, "model": "m"},
		Final:      types.FinalResult{Status: types.StatusApproved},
	}
	if p.status == types.StatusRejected {
		art.Attempts = []types.AttemptRecord{{Attempt: 1, Draft: testutil.SampleDraft(), Review: testutil.FailingReview()}}
		art.Final = types.FinalResult{Status: types.StatusRejected, RejectionReason: "Failed review after 1 attempts. Final issues: clarity"}
		return art
	}
	d, tags := testutil.SampleDraft(), testutil.SampleTags()
	art.Attempts = []types.AttemptRecord{{Attempt: 1, Draft: d, Review: testutil.PassingReview()}}
	art.Final.Content, art.Final.Tags = &d, &tags
	return art
}

func (p *fakePipeline) runs() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newRouter(t *testing.T, pipes ...*fakePipeline) (*Router, *fakeBot) {
	t.Helper()
	repo, err := store.OpenFile(filepath.Join(t.TempDir(), "runs.json"))
	require.NoError(t, err)
	bot := &fakeBot{}
	r := &Router{
		Bot:        bot,
		Repo:       repo,
		Pipelines:  map[string]Pipeline{},
		RunTimeout: time.Minute,
		Log:        logging.Discard(),
	}
	for i, p := range pipes {
		r.Pipelines[p.name] = p
		if i == 0 {
			r.DefaultEngine = p.name
		}
	}
	return r, bot
}

func command(chatID int64, text string) tgbotapi.Update {
	cmd := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}}
}

func callback(chatID int64, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func TestGenerateRunsInBackgroundAndStores(t *testing.T) {
	pipe := &fakePipeline{name: "openai"}
	r, bot := newRouter(t, pipe)
	ctx := context.Background()

	r.HandleUpdate(ctx, command(42, "/generate 5 Fractions of a whole"))
	r.Wait()

	texts := bot.texts()
	require.Len(t, texts, 2)
	assert.Contains(t, texts[0], `grade 5 lesson on "Fractions of a whole" with openai`)
	assert.Contains(t, texts[1], "✅ Approved after 1 review(s) (run openai-1)")
	assert.Contains(t, texts[1], "Answer: B")

	kb, ok := bot.last().ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Len(t, kb.InlineKeyboard[0], 2)

	stored, err := r.Repo.Get(ctx, "openai-1")
	require.NoError(t, err)
	assert.Equal(t, "tg:42", stored.UserID)
	assert.Equal(t, types.Request{Grade: 5, Topic: "Fractions of a whole"}, stored.Input)
}

func TestGenerateRejectedRun(t *testing.T) {
	r, bot := newRouter(t, &fakePipeline{name: "openai", status: types.StatusRejected})

	r.HandleUpdate(context.Background(), command(1, "/generate 3 Plants"))
	r.Wait()

	last := bot.last()
	assert.Contains(t, last.Text, "❌ Not approved (run openai-1)")
	assert.Contains(t, last.Text, "Failed review after 1 attempts")
	kb := last.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.Len(t, kb.InlineKeyboard[0], 1)
	assert.Equal(t, "🔍 Audit", kb.InlineKeyboard[0][0].Text)
}

func TestGenerateBadArguments(t *testing.T) {
	for _, text := range []string{
		"/generate",
		"/generate 5",
		"/generate five Fractions",
		"/generate 13 Fractions",
		"/generate 5 ab",
	} {
		t.Run(text, func(t *testing.T) {
			pipe := &fakePipeline{name: "openai"}
			r, bot := newRouter(t, pipe)

			r.HandleUpdate(context.Background(), command(1, text))
			r.Wait()

			assert.Zero(t, pipe.runs())
			assert.Contains(t, bot.last().Text, generateUsage)
		})
	}
}

func TestGenerateOneRunPerChat(t *testing.T) {
	pipe := &fakePipeline{name: "openai", release: make(chan struct{})}
	r, bot := newRouter(t, pipe)
	ctx := context.Background()

	r.HandleUpdate(ctx, command(9, "/generate 5 Fractions"))
	r.HandleUpdate(ctx, command(9, "/generate 6 Decimals"))
	assert.Contains(t, bot.last().Text, "already in progress")

	close(pipe.release)
	r.Wait()
	assert.Equal(t, 1, pipe.runs())

	// the chat is free again once the run replied
	r.HandleUpdate(ctx, command(9, "/generate 6 Decimals"))
	r.Wait()
	assert.Equal(t, 2, pipe.runs())
}

func TestEngineSwitch(t *testing.T) {
	openai := &fakePipeline{name: "openai"}
	gemini := &fakePipeline{name: "gemini"}
	r, bot := newRouter(t, openai, gemini)
	ctx := context.Background()

	r.HandleUpdate(ctx, command(5, "/engine"))
	assert.Contains(t, bot.last().Text, "Current provider: openai")
	assert.Contains(t, bot.last().Text, "gemini | openai")

	r.HandleUpdate(ctx, command(5, "/engine deepseek"))
	assert.Contains(t, bot.last().Text, "Unknown or unconfigured provider")

	r.HandleUpdate(ctx, command(5, "/engine Gemini"))
	assert.Equal(t, "✅ Provider: gemini", bot.last().Text)

	r.HandleUpdate(ctx, command(5, "/generate 4 Magnets"))
	r.Wait()
	assert.Equal(t, 1, gemini.runs())
	assert.Zero(t, openai.runs())

	// other chats keep the default
	r.HandleUpdate(ctx, command(6, "/engine gpt"))
	assert.Equal(t, "✅ Provider: openai", bot.last().Text)
}

func TestUnconfiguredDefaultEngine(t *testing.T) {
	r, bot := newRouter(t)
	r.DefaultEngine = "gemini"

	r.HandleUpdate(context.Background(), command(1, "/generate 5 Fractions"))
	assert.Equal(t, "❌ Provider gemini is not configured.", bot.last().Text)
}

func TestHistoryArtifactAndStats(t *testing.T) {
	pipe := &fakePipeline{name: "openai"}
	r, bot := newRouter(t, pipe)
	ctx := context.Background()

	r.HandleUpdate(ctx, command(3, "/history"))
	assert.Contains(t, bot.last().Text, "No runs yet")

	r.HandleUpdate(ctx, command(3, "/generate 5 Fractions"))
	r.Wait()
	r.HandleUpdate(ctx, command(4, "/generate 7 Ratios"))
	r.Wait()

	r.HandleUpdate(ctx, command(3, "/history"))
	hist := bot.last().Text
	assert.Contains(t, hist, "openai-1")
	assert.NotContains(t, hist, "openai-2", "history is scoped to the chat")

	r.HandleUpdate(ctx, command(3, "/history x"))
	assert.Equal(t, "Usage: /history [n]", bot.last().Text)

	r.HandleUpdate(ctx, command(3, "/artifact openai-2"))
	audit := bot.last().Text
	assert.Contains(t, audit, "🔍 Run openai-2")
	assert.Contains(t, audit, `Input: grade 7, "Ratios"`)
	assert.Contains(t, audit, "Model: openai/m")

	r.HandleUpdate(ctx, command(3, "/artifact nope"))
	assert.Equal(t, "Artifact nope not found", bot.last().Text)

	r.HandleUpdate(ctx, command(3, "/artifact"))
	assert.Equal(t, "Usage: /artifact <run_id>", bot.last().Text)

	r.HandleUpdate(ctx, command(3, "/stats"))
	assert.Contains(t, bot.last().Text, "Runs: 2")
	assert.Contains(t, bot.last().Text, "Approval rate: 100%")
}

func TestCallbacks(t *testing.T) {
	r, bot := newRouter(t, &fakePipeline{name: "openai"})
	ctx := context.Background()
	r.HandleUpdate(ctx, command(8, "/generate 5 Fractions"))
	r.Wait()

	r.HandleUpdate(ctx, callback(8, cbTags+"openai-1"))
	assert.Contains(t, bot.last().Text, "Subject: Mathematics")
	assert.Contains(t, bot.last().Text, "Bloom's level: Understanding")

	r.HandleUpdate(ctx, callback(8, cbAudit+"openai-1"))
	assert.Contains(t, bot.last().Text, "Review 1: pass")

	r.HandleUpdate(ctx, callback(8, cbTags+"missing"))
	assert.Equal(t, "Artifact missing not found", bot.last().Text)

	bot.mu.Lock()
	assert.Len(t, bot.acked, 3)
	bot.mu.Unlock()
}

func TestPlainTextAndUnknownCommand(t *testing.T) {
	r, bot := newRouter(t, &fakePipeline{name: "openai"})
	ctx := context.Background()

	r.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hello"}})
	assert.Contains(t, bot.last().Text, "/generate <grade> <topic>")

	r.HandleUpdate(ctx, command(1, "/dance"))
	assert.Contains(t, bot.last().Text, "Unknown command")

	r.HandleUpdate(ctx, command(1, "/start"))
	assert.Equal(t, helpText, bot.last().Text)

	r.HandleUpdate(ctx, tgbotapi.Update{})
	assert.Len(t, bot.texts(), 3)
}

func TestFormatAuditShowsOverride(t *testing.T) {
	review := testutil.ReviewWithScores(3, 5, 5, 5, true)
	review.Pass = false
	review.Reconciliation = &types.Reconciliation{ReportedPass: true, ComputedPass: false, Overridden: true, Average: 4.5}
	refined := testutil.RevisedDraft()
	dur := 12.34
	a := types.RunArtifact{
		RunID:      "r1",
		Input:      types.Request{Grade: 5, Topic: "Fractions"},
		Attempts:   []types.AttemptRecord{{Attempt: 1, Review: review, Refined: &refined}},
		Final:      types.FinalResult{Status: types.StatusRejected, RejectionReason: "Pipeline error: [RefinerAgent] boom"},
		Timestamps: types.Timestamps{DurationSeconds: &dur},
	}

	out := formatAudit(a)
	assert.Contains(t, out, "Status: rejected")
	assert.Contains(t, out, "Duration: 12.3s")
	assert.Contains(t, out, "Review 1: fail (avg 4.50)")
	assert.Contains(t, out, "model said pass, thresholds said fail")
	assert.Contains(t, out, "• [critical] explanation.text: Vocabulary too complex for Grade 5")
	assert.Contains(t, out, "→ refined")
	assert.Contains(t, out, "Reason: Pipeline error: [RefinerAgent] boom")
	assert.NotContains(t, out, "Model:")
}

func TestFormatStats(t *testing.T) {
	assert.Equal(t, "📊 Runs: 4\nApproved: 1\nRejected: 3\nApproval rate: 25%", formatStats(types.NewStats(4, 1, 3)))
}
