// Package llm defines the text-completion contract every stage agent talks to.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Request is one chat completion: a system instruction and a user prompt.
// Providers are asked for a JSON object response.
type Request struct {
	System      string
	User        string
	Temperature float64
}

// Client returns the raw text of a completion. Implementations must respect
// ctx cancellation and deadlines.
type Client interface {
	Name() string
	GetModel() string
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when the provider answered without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Engines holds one client per provider; nil means not configured.
type Engines struct {
	OpenAI   Client
	Gemini   Client
	DeepSeek Client
}

func (e *Engines) GetEngine(name string) (Client, error) {
	var c Client
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gpt", "openai":
		c = e.OpenAI
	case "gemini":
		c = e.Gemini
	case "deepseek":
		c = e.DeepSeek
	default:
		return nil, fmt.Errorf("unknown llm provider %q; use 'openai', 'gemini' or 'deepseek'", name)
	}
	if c == nil {
		return nil, fmt.Errorf("llm provider %q is not configured", name)
	}
	return c, nil
}
