package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSystem(t *testing.T) {
	system, conv := splitSystem([]ChatMessage{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "a"},
		{Role: "user", Content: "b"},
		{Role: "assistant", Content: "c"},
		{Role: "system", Content: "more rules"},
		{Role: "user", Content: "d"},
	})

	assert.Equal(t, "rules\n\nmore rules", system)
	require.Len(t, conv, 3)
	assert.Equal(t, ChatMessage{Role: "user", Content: "a\n\nb"}, conv[0])
	assert.Equal(t, "assistant", conv[1].Role)
	assert.Equal(t, "d", conv[2].Content)
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ProviderOpenAI, Options{})
	require.Error(t, err)

	c, err := NewClient(ProviderOpenAI, Options{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	c, err = NewClient(ProviderAnthropic, Options{APIKey: "key", BaseURL: "http://localhost:1"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())

	_, err = NewClient("other", Options{APIKey: "key"})
	require.Error(t, err)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model": "gpt-4o",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Привет!"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(Options{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), &CompletionRequest{
		Messages:    []ChatMessage{{Role: "system", Content: "rules"}, {Role: "user", Content: "hi"}},
		Temperature: 0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Привет!", resp.Content)
	assert.Equal(t, 12, resp.TokensIn)
	assert.Equal(t, 3, resp.TokensOut)
	assert.Equal(t, "stop", resp.StopReason)
	assert.Equal(t, defaultOpenAIModel, got["model"])
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model": "gpt-4o", "choices": []}`))
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(Options{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), &CompletionRequest{Messages: []ChatMessage{{Role: "user", Content: "hi"}}})
	require.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestEstimateTokens(t *testing.T) {
	assert.Zero(t, EstimateTokens(nil))

	short := EstimateTokens([]ChatMessage{{Role: "user", Content: "hi"}})
	long := EstimateTokens([]ChatMessage{{Role: "user", Content: "Составь маршрут на 3 дня по Сочи, пожалуйста, с морем и горами"}})
	assert.Greater(t, short, perMessageOverhead-1)
	assert.Greater(t, long, short)
}
