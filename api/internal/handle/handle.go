package handle

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"assessment-pipeline/api/internal/logging"
	"assessment-pipeline/api/internal/store"
	"assessment-pipeline/api/internal/types"
)

const (
	ServiceName = "AI Assessment API"
	Version     = "2.0.0"
)

// Pipeline runs one request to completion. *pipeline.Orchestrator satisfies it.
type Pipeline interface {
	Run(ctx context.Context, req types.Request, userID string) types.RunArtifact
}

type Handle struct {
	pipe       Pipeline
	repo       store.Repository
	runTimeout time.Duration
	log        *slog.Logger
}

// New builds the handlers. runTimeout bounds POST /generate; zero means no bound.
func New(pipe Pipeline, repo store.Repository, runTimeout time.Duration, log *slog.Logger) *Handle {
	return &Handle{
		pipe:       pipe,
		repo:       repo,
		runTimeout: runTimeout,
		log:        logging.Component(log, "http"),
	}
}

// Register mounts every route on mux.
func (h *Handle) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("POST /generate", h.Generate)
	mux.HandleFunc("GET /history", h.History)
	mux.HandleFunc("GET /artifact/{run_id}", h.Artifact)
	mux.HandleFunc("GET /stats", h.Stats)
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Detail: msg})
}
