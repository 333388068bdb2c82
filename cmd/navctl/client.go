package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"voicenav/internal/domain"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string, httpClient *http.Client) *apiClient {
	return &apiClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *apiClient) transcribe(ctx context.Context, audioPath string) (domain.TranscriptionResult, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio_blob", filepath.Base(audioPath))
	if err != nil {
		return domain.TranscriptionResult{}, err
	}
	if _, err := fw.Write(data); err != nil {
		return domain.TranscriptionResult{}, err
	}
	if err := mw.Close(); err != nil {
		return domain.TranscriptionResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcribe", &body)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out domain.TranscriptionResult
	return out, c.do(req, &out)
}

func (c *apiClient) geocode(ctx context.Context, text string) (domain.GeocodeResult, error) {
	var out domain.GeocodeResult
	return out, c.postJSON(ctx, "/geocode", domain.GeocodeRequest{Text: &text}, &out)
}

func (c *apiClient) directions(ctx context.Context, dest domain.Coordinate, terminalID string) (domain.DirectionsResponse, error) {
	req := domain.DirectionsRequest{
		End:        &domain.EndpointInput{Lat: &dest.Lat, Lon: &dest.Lon},
		TerminalID: terminalID,
	}
	var out domain.DirectionsResponse
	return out, c.postJSON(ctx, "/directions", req, &out)
}

func (c *apiClient) postJSON(ctx context.Context, path string, in, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		var er domain.ErrorResponse
		if json.Unmarshal(body, &er) == nil && er.Error != "" {
			return fmt.Errorf("%s: %s (status=%d)", req.URL.Path, er.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s: status=%d body=%s", req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}
