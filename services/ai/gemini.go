// Package aisvc summarizes text with large language models.
package aisvc

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"google.golang.org/api/option"

	"github.com/specedu/caseboard/core"
	"github.com/specedu/caseboard/core/message"
)

const defaultGeminiModel = "gemini-pro"

var errEmptyResponse = errors.New("model returned no text")

// Gemini summarizes with Google's Gemini models.
type Gemini struct {
	client *genai.Client
	model  string
}

var _ message.Summarizer = (*Gemini)(nil)

func NewGemini(ctx context.Context, conf *core.Config, extra ...option.ClientOption) (*Gemini, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(conf.AI.APIKey)}, extra...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating gemini client")
	}
	model := conf.AI.Model
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Summarize(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", errors.Wrap(err, "generating content")
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
		break // first candidate only
	}
	if sb.Len() == 0 {
		return "", errEmptyResponse
	}
	return sb.String(), nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}
