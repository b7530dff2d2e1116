package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"assessment-pipeline/api/internal/bootstrap"
	"assessment-pipeline/api/internal/config"
	"assessment-pipeline/api/internal/httpserver"
	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/metrics"
	"assessment-pipeline/api/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.TelegramBotToken == "" {
		log.Error("missing required env TELEGRAM_BOT_TOKEN")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = dsnFromPostgresEnv()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("bot stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	engines, err := bootstrap.Engines(cfg)
	if err != nil {
		return err
	}
	repo, closeStore, err := bootstrap.Store(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close store", "error", err)
		}
	}()

	// one orchestrator per configured provider so chats can switch with /engine
	m := metrics.Default()
	pipelines := map[string]telegram.Pipeline{}
	for _, name := range []string{"openai", "gemini", "deepseek"} {
		client, err := engines.GetEngine(name)
		if err != nil {
			continue
		}
		pipelines[name] = bootstrap.Orchestrator(cfg.Pipeline, client, log, m)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	bot.Debug = false
	log.Info("telegram authorized", "bot", bot.Self.UserName, "providers", len(pipelines))

	r := &telegram.Router{
		Bot:           bot,
		Repo:          repo,
		Pipelines:     pipelines,
		DefaultEngine: cfg.LLMProvider,
		RunTimeout:    cfg.RunTimeout,
		Log:           log,
	}
	defer r.Wait()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	httpserver.WithMetrics(mux, prometheus.DefaultGatherer)

	addr := "0.0.0.0:" + cfg.Port
	if webhookURL := strings.TrimSpace(cfg.WebhookURL); webhookURL != "" {
		return runWebhook(ctx, addr, mux, bot, r, webhookURL, log)
	}

	go func() {
		if err := httpserver.Run(ctx, httpserver.New(addr, mux, log), log); err != nil {
			log.Error("health server", "error", err)
		}
	}()
	runPolling(ctx, bot, func(upd tgbotapi.Update) { r.HandleUpdate(ctx, upd) }, log)
	return nil
}

func runWebhook(ctx context.Context, addr string, mux *http.ServeMux, bot *tgbotapi.BotAPI, r *telegram.Router, baseURL string, log *slog.Logger) error {
	// secret path derived from the token
	path := "/webhook/" + shortHash(bot.Token)
	public := strings.TrimRight(baseURL, "/") + path

	wh, err := tgbotapi.NewWebhook(public)
	if err != nil {
		return err
	}
	wh.DropPendingUpdates = true
	if _, err := bot.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}

	mux.HandleFunc("POST "+path, func(w http.ResponseWriter, req *http.Request) {
		upd, err := bot.HandleUpdate(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.HandleUpdate(ctx, *upd)
		w.WriteHeader(http.StatusOK)
	})

	log.Info("webhook mode", "addr", addr, "path", path)
	return httpserver.Run(ctx, httpserver.New(addr, mux, log), log)
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// updateSource is the long-polling half of *tgbotapi.BotAPI.
type updateSource interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

// runPolling long-polls until ctx ends, backing off on errors instead of exiting.
func runPolling(ctx context.Context, bot updateSource, handle func(tgbotapi.Update), log *slog.Logger) {
	log = logging.Component(log, "polling")
	offset := 0
	const (
		baseDelay = 1 * time.Second
		maxDelay  = 15 * time.Second
	)

	for {
		if ctx.Err() != nil {
			log.Info("polling stopped")
			return
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = 30

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := min(max(retryDelayFromError(err), baseDelay), maxDelay)
			log.Warn("polling error", "error", err, "retry_in", d)
			sleep(ctx, d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}
		if len(updates) == 0 {
			sleep(ctx, 200*time.Millisecond)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// dsnFromPostgresEnv builds a DSN from POSTGRES_* / PG* when POSTGRES_PASSWORD
// is set, for single-container deployments. Empty means use the file store.
func dsnFromPostgresEnv() string {
	pass := os.Getenv("POSTGRES_PASSWORD")
	if pass == "" {
		return ""
	}
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(getenvDefault("POSTGRES_USER", "assessment"), pass),
		Host:     net.JoinHostPort(getenvDefault("PGHOST", "db"), getenvDefault("PGPORT", "5432")),
		Path:     "/" + getenvDefault("POSTGRES_DB", "assessment"),
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func getenvDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// shortHash is the 64-bit FNV-1a of s in hex. Stable for a given token.
func shortHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}
