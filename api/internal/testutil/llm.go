package testutil

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"assessment-pipeline/api/internal/llm"
)

// Reply is one scripted answer of a ScriptedClient: either raw text or an error.
type Reply struct {
	Text string
	Err  error
}

// JSONReply marshals v into a Reply.
func JSONReply(v any) Reply {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Reply{Text: string(b)}
}

// ScriptedClient is an llm.Client that replays replies in order and records requests.
// Once the script is exhausted the last reply is repeated.
type ScriptedClient struct {
	mu       sync.Mutex
	replies  []Reply
	requests []llm.Request
}

func NewScriptedClient(replies ...Reply) *ScriptedClient {
	return &ScriptedClient{replies: replies}
}

func (c *ScriptedClient) Name() string     { return "scripted" }
func (c *ScriptedClient) GetModel() string { return "scripted-model" }

func (c *ScriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(c.replies) == 0 {
		return "", errors.New("scripted client: no replies")
	}
	r := c.replies[0]
	if len(c.replies) > 1 {
		c.replies = c.replies[1:]
	}
	return r.Text, r.Err
}

// Calls returns how many completions were requested.
func (c *ScriptedClient) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}

// Requests returns a copy of every request seen so far.
func (c *ScriptedClient) Requests() []llm.Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]llm.Request(nil), c.requests...)
}
