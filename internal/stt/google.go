package stt

import (
	"context"
	"fmt"
	"os"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"voicenav/internal/audio"
)

// GoogleRecognizer uses synchronous Cloud Speech-to-Text recognition.
// Credentials come from the given file or Application Default Credentials.
type GoogleRecognizer struct {
	client *speech.Client
}

func NewGoogleRecognizer(ctx context.Context, credentialsFile string) (*GoogleRecognizer, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create google speech client: %w", err)
	}
	return &GoogleRecognizer{client: c}, nil
}

func (g *GoogleRecognizer) Name() string {
	return "google"
}

func (g *GoogleRecognizer) Recognize(ctx context.Context, req Request) (string, error) {
	if req.Task != TaskTranscribe {
		return "", fmt.Errorf("google recognizer: unsupported task %q", req.Task)
	}
	data, err := os.ReadFile(req.WavPath)
	if err != nil {
		return "", fmt.Errorf("read waveform: %w", err)
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:          speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:   audio.SampleRate,
			AudioChannelCount: audio.Channels,
			LanguageCode:      googleLanguageCode(req.Language),
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: data},
		},
	})
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		parts = append(parts, strings.TrimSpace(r.Alternatives[0].Transcript))
	}
	return strings.Join(parts, " "), nil
}

func (g *GoogleRecognizer) Close() error {
	return g.client.Close()
}

// googleLanguageCode maps a bare language to the BCP-47 tag the API expects.
func googleLanguageCode(lang string) string {
	switch strings.ToLower(lang) {
	case "", "en":
		return "en-US"
	default:
		return lang
	}
}
