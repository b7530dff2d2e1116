// Package deepseek talks to DeepSeek through its OpenAI-compatible chat API.
package deepseek

import (
	"errors"
	"strings"

	"assessment-pipeline/api/internal/llm/openai"
)

const DefaultBaseURL = "https://api.deepseek.com"

type Engine struct {
	*openai.Engine
}

// New builds an engine for model. An empty baseURL uses DefaultBaseURL.
func New(apiKey, model, baseURL string) (*Engine, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("DEEPSEEK_API_KEY is empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	e, err := openai.New(apiKey, model, baseURL)
	if err != nil {
		return nil, err
	}
	return &Engine{Engine: e}, nil
}

func (e *Engine) Name() string { return "deepseek" }
