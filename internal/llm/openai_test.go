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

func testRequest() CompletionRequest {
	return CompletionRequest{
		Model: "gpt-4o",
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a writing assistant."},
			{Role: RoleUser, Content: "Say hi"},
		},
		Temperature: 0.7,
		MaxTokens:   1500,
	}
}

func TestCompleteSuccess(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Hello world"}, "finish_reason": "stop"},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL)
	got, err := p.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "Hello world", got.Content)
	assert.Equal(t, "stop", got.FinishReason)
	assert.False(t, got.NoContent)

	assert.Equal(t, "gpt-4o", captured["model"])
	assert.Equal(t, 0.7, captured["temperature"])
	assert.Equal(t, float64(1500), captured["max_tokens"])
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
}

func TestCompleteAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "rate limited"},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL)
	_, err := p.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, "rate limited", err.Error())
}

func TestCompleteErrorBodyWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream broke"))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL)
	_, err := p.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion API error 500")
}

func TestCompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL)
	got, err := p.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, got.NoContent)
	assert.Equal(t, "", got.Content)
}

func TestCompleteEmptyContentIsNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{}, "finish_reason": "stop"},
			},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL)
	got, err := p.Complete(context.Background(), testRequest())
	require.NoError(t, err)
	assert.True(t, got.NoContent)
}

func TestCompleteErrorInOKBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "model overloaded"},
		})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL)
	_, err := p.Complete(context.Background(), testRequest())
	require.Error(t, err)
	assert.Equal(t, "model overloaded", err.Error())
}
