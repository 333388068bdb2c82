package stt

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type Config struct {
	Provider              string
	Timeout               time.Duration
	WhisperBaseURL        string
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModel           string
	GoogleCredentialsFile string
}

func NewRecognizer(ctx context.Context, cfg Config) (Recognizer, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case "whisper":
		return NewWhisperRecognizer(client, cfg.WhisperBaseURL), nil
	case "openai":
		return NewOpenAIRecognizer(client, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel), nil
	case "google":
		return NewGoogleRecognizer(ctx, cfg.GoogleCredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported STT provider: %s", cfg.Provider)
	}
}
