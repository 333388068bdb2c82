// Package stt turns normalized waveforms into text through a pluggable
// speech-recognition backend.
package stt

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"voicenav/internal/audio"
	"voicenav/internal/domain"
)

// TaskTranscribe asks the backend for same-language transcription, never
// translation.
const TaskTranscribe = "transcribe"

type Request struct {
	WavPath  string
	Language string
	Task     string
}

// Recognizer is a speech-recognition backend.
type Recognizer interface {
	Name() string
	Recognize(ctx context.Context, req Request) (string, error)
}

// Transcriber runs every waveform through the backend with one fixed language.
type Transcriber struct {
	recognizer Recognizer
	language   string
	logger     *slog.Logger
}

func NewTranscriber(recognizer Recognizer, language string, logger *slog.Logger) *Transcriber {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transcriber{recognizer: recognizer, language: language, logger: logger}
}

func (t *Transcriber) Transcribe(ctx context.Context, wf *audio.Waveform) (domain.TranscriptionResult, error) {
	const op = "stt.Transcribe"
	start := time.Now()
	text, err := t.recognizer.Recognize(ctx, Request{
		WavPath:  wf.Path,
		Language: t.language,
		Task:     TaskTranscribe,
	})
	if err != nil {
		t.logger.Error("speech recognition failed", "provider", t.recognizer.Name(), "error", err)
		return domain.TranscriptionResult{}, domain.NewError(domain.KindTranscriptionService, op, err.Error(), err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.TranscriptionResult{}, domain.NewError(domain.KindEmptyTranscription, op, "Speech not recognized, please try again", nil)
	}

	t.logger.Debug("speech recognized", "provider", t.recognizer.Name(), "chars", len(text), "cost", time.Since(start))
	return domain.TranscriptionResult{Text: text}, nil
}
