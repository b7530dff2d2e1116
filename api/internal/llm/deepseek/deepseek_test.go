package deepseek

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

func TestNew(t *testing.T) {
	_, err := New(" ", "deepseek-chat", "")
	assert.ErrorContains(t, err, "DEEPSEEK_API_KEY")

	_, err = New("ds-key", "", "")
	assert.Error(t, err)

	e, err := New("ds-key", "deepseek-chat", "")
	require.NoError(t, err)
	assert.Equal(t, "deepseek", e.Name())
	assert.Equal(t, "deepseek-chat", e.GetModel())

	var c llm.Client = e
	assert.Equal(t, "deepseek", c.Name())
}

func TestCompleteUsesChatCompletions(t *testing.T) {
	var model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer ds-key", r.Header.Get("Authorization"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		model, _ = body["model"].(string)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"deepseek-chat",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"{\"a\":1}"}}]}`))
	}))
	defer srv.Close()

	e, err := New("ds-key", "deepseek-chat", srv.URL)
	require.NoError(t, err)
	out, err := e.Complete(context.Background(), llm.Request{System: "s", User: "u"})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Equal(t, "deepseek-chat", model)
}
