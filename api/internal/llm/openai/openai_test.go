package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-pipeline/api/internal/llm"
)

func TestNewRequiresKeyAndModel(t *testing.T) {
	_, err := New("", "gpt-4o-mini", "")
	assert.Error(t, err)
	_, err = New("sk-test", " ", "")
	assert.Error(t, err)
}

func TestCompleteSendsJSONModeRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"ok\": true}"}}]
		}`))
	}))
	defer srv.Close()

	e, err := New("sk-test", "gpt-4o-mini", srv.URL)
	require.NoError(t, err)

	out, err := e.Complete(context.Background(), llm.Request{System: "sys", User: "usr", Temperature: 0.7})
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, out)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.7, got["temperature"], 1e-9)
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`))
	}))
	defer srv.Close()

	e, err := New("sk-test", "m", srv.URL)
	require.NoError(t, err)
	_, err = e.Complete(context.Background(), llm.Request{})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestCompleteServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"boom"}}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	e, err := New("sk-test", "m", srv.URL)
	require.NoError(t, err)
	_, err = e.Complete(context.Background(), llm.Request{})
	assert.Error(t, err)
}
