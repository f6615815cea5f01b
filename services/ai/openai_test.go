package aisvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specedu/caseboard/core"
)

func newTestChat(t *testing.T, handler http.HandlerFunc) *ChatCompletion {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewChatCompletion(&core.Config{AI: core.AIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
	}})
}

func TestChatCompletion_Summarize(t *testing.T) {
	var got chatRequest
	chat := newTestChat(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"- 重點一"}}]}`))
	})

	summary, err := chat.Summarize(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "- 重點一", summary)
	assert.Equal(t, defaultChatModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "prompt", got.Messages[1].Content)
}

func TestChatCompletion_SummarizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusUnauthorized, body: `{"error":{"message":"invalid key"}}`, wantErr: "chat completions: status 401: invalid key"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: errEmptyResponse.Error()},
		{name: "not json", status: http.StatusBadGateway, body: `<html>`, wantErr: "decoding chat response (status 502)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := newTestChat(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := chat.Summarize(context.Background(), "prompt")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
