package aisvc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/message"
)

const (
	defaultChatModel = "deepseek-chat"
	systemPrompt     = "你是一位專業的特教個案管理師，回答精簡且使用繁體中文。"
)

type (
	chatRequest struct {
		Model    string        `json:"model"`
		Messages []chatMessage `json:"messages"`
		Stream   bool          `json:"stream"`
	}

	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	chatResponse struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error,omitempty"`
	}
)

// ChatCompletion summarizes through an OpenAI compatible chat completions API, such as DeepSeek.
type ChatCompletion struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

var _ message.Summarizer = (*ChatCompletion)(nil)

func NewChatCompletion(conf *core.Config) *ChatCompletion {
	model := conf.AI.Model
	if model == "" {
		model = defaultChatModel
	}
	return &ChatCompletion{
		client:  &http.Client{Timeout: conf.AI.Timeout},
		baseURL: conf.AI.BaseURL,
		apiKey:  conf.AI.APIKey,
		model:   model,
	}
}

func (c *ChatCompletion) Summarize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding chat request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "creating chat request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "calling chat completions")
	}
	defer func() { _ = resp.Body.Close() }()

	var out chatResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", errors.Wrapf(err, "decoding chat response (status %d)", resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		msg := http.StatusText(resp.StatusCode)
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", errors.Errorf("chat completions: status %d: %s", resp.StatusCode, msg)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}
