package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/transcribe", func(w http.ResponseWriter, req *http.Request) {
		f, header, err := req.FormFile("audio_blob")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(f)
		assert.Equal(t, "dest.webm", header.Filename)
		assert.Equal(t, "webm", string(data))
		_, _ = w.Write([]byte(`{"text":"Marina Beach"}`))
	})
	r.Post("/geocode", func(w http.ResponseWriter, req *http.Request) {
		var in map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		if in["text"] == "Atlantis" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"No geocoding result"}`))
			return
		}
		_, _ = w.Write([]byte(`{"lat":13.05,"lon":80.2825,"label":"Marina Beach, Chennai"}`))
	})
	r.Post("/directions", func(w http.ResponseWriter, req *http.Request) {
		var in map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&in))
		assert.Equal(t, map[string]any{"lat": 13.05, "lon": 80.2825}, in["end"])
		_, _ = w.Write([]byte(`{"steps":[{"instruction":"Head east","distance":12.5,"duration":9,"lat":13.04,"lon":80.04},{"instruction":null,"distance":0,"duration":0,"lat":13.05,"lon":80.28}]}`))
	})
	s := httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

func TestRunFromAudio(t *testing.T) {
	s := fakeServer(t)
	path := filepath.Join(t.TempDir(), "dest.webm")
	require.NoError(t, os.WriteFile(path, []byte("webm"), 0o600))

	var out bytes.Buffer
	err := run(context.Background(), newAPIClient(s.URL, s.Client()), options{Audio: path}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Transcribed: Marina Beach")
	assert.Contains(t, out.String(), "Destination: Marina Beach, Chennai")
	assert.Contains(t, out.String(), "Head east")
	assert.Contains(t, out.String(), " 2. ")
}

func TestRunFromTextSkipsTranscription(t *testing.T) {
	s := fakeServer(t)
	var out bytes.Buffer
	err := run(context.Background(), newAPIClient(s.URL, s.Client()), options{Text: "Marina Beach"}, &out)
	require.NoError(t, err)
	assert.NotContains(t, out.String(), "Transcribed")
}

func TestRunReportsServerError(t *testing.T) {
	s := fakeServer(t)
	err := run(context.Background(), newAPIClient(s.URL, s.Client()), options{Text: "Atlantis"}, io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No geocoding result")
	assert.Contains(t, err.Error(), "status=404")
}

func TestRunRequiresInput(t *testing.T) {
	err := run(context.Background(), newAPIClient("http://127.0.0.1:1", http.DefaultClient), options{}, io.Discard)
	require.Error(t, err)
}
