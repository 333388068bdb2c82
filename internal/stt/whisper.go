package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// WhisperRecognizer talks to a self-hosted whisper ASR webservice
// (POST /asr?task=...&language=...&output=json).
type WhisperRecognizer struct {
	client  *http.Client
	baseURL string
}

func NewWhisperRecognizer(client *http.Client, baseURL string) *WhisperRecognizer {
	return &WhisperRecognizer{client: client, baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

func (w *WhisperRecognizer) Name() string {
	return "whisper"
}

func (w *WhisperRecognizer) Recognize(ctx context.Context, req Request) (string, error) {
	f, err := os.Open(req.WavPath)
	if err != nil {
		return "", fmt.Errorf("open waveform: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("audio_file", filepath.Base(req.WavPath))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("read waveform: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("task", req.Task)
	q.Set("language", req.Language)
	q.Set("output", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/asr?"+q.Encode(), &body)
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("whisper service status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decode whisper response: %w", err)
	}
	return out.Text, nil
}
