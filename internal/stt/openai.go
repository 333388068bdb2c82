package stt

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

type OpenAIRecognizer struct {
	client *openai.Client
	model  string
}

func NewOpenAIRecognizer(httpClient *http.Client, baseURL, apiKey, model string) *OpenAIRecognizer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/"); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if httpClient != nil {
		cfg.HTTPClient = httpClient
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAIRecognizer{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAIRecognizer) Name() string {
	return "openai"
}

func (o *OpenAIRecognizer) Recognize(ctx context.Context, req Request) (string, error) {
	if req.Task != TaskTranscribe {
		return "", fmt.Errorf("openai recognizer: unsupported task %q", req.Task)
	}
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: req.WavPath,
		Language: req.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
