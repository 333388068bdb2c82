package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenav/internal/domain"
)

type fakeRunner struct {
	mu     sync.Mutex
	calls  [][]string
	output []byte
	err    error
	// writeOutput controls whether the fake produces the output file.
	writeOutput bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string{name}, args...))
	f.mu.Unlock()

	if f.writeOutput {
		if err := os.WriteFile(args[len(args)-1], []byte("RIFF....WAVE"), 0o600); err != nil {
			return nil, err
		}
	}
	return f.output, f.err
}

func newTestNormalizer(t *testing.T, r Runner) (*Normalizer, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNormalizer(Config{FFmpegPath: "/usr/bin/ffmpeg", TempDir: dir}, r, logger), dir
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestNormalizeSuccess(t *testing.T) {
	runner := &fakeRunner{writeOutput: true}
	n, dir := newTestNormalizer(t, runner)

	wf, err := n.Normalize(context.Background(), domain.AudioBlob{Filename: "recording.webm", Data: []byte("webm-bytes")})
	require.NoError(t, err)
	require.NotNil(t, wf)

	// Only the waveform remains while the caller holds it.
	assert.Equal(t, []string{filepath.Base(wf.Path)}, dirEntries(t, dir))

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "/usr/bin/ffmpeg", call[0])
	joined := strings.Join(call, " ")
	assert.Contains(t, joined, "-ar 16000")
	assert.Contains(t, joined, "-ac 1")
	assert.Contains(t, joined, "-c:a pcm_s16le")
	assert.True(t, strings.HasSuffix(call[len(call)-1], ".wav"))

	inputIdx := indexOf(call, "-i") + 1
	assert.True(t, strings.HasSuffix(call[inputIdx], ".webm"), "input keeps container hint: %s", call[inputIdx])

	require.NoError(t, wf.Close())
	require.NoError(t, wf.Close())
	assert.Empty(t, dirEntries(t, dir))
}

func TestNormalizeTranscodeFailureCleansUp(t *testing.T) {
	runner := &fakeRunner{
		writeOutput: true,
		output:      []byte("[matroska,webm] EBML header parsing failed\nInvalid data found when processing input\n"),
		err:         errors.New("exit status 1"),
	}
	n, dir := newTestNormalizer(t, runner)

	wf, err := n.Normalize(context.Background(), domain.AudioBlob{Filename: "broken.webm", Data: []byte("junk")})
	require.Error(t, err)
	assert.Nil(t, wf)
	assert.Equal(t, domain.KindTranscode, domain.KindOf(err))

	var de *domain.Error
	require.ErrorAs(t, err, &de)
	assert.Contains(t, de.PublicMessage(), "ffmpeg conversion failed")
	assert.Contains(t, de.PublicMessage(), "Invalid data found when processing input")

	assert.Empty(t, dirEntries(t, dir))
}

func TestNormalizeMissingOutput(t *testing.T) {
	n, dir := newTestNormalizer(t, &fakeRunner{})

	_, err := n.Normalize(context.Background(), domain.AudioBlob{Filename: "a.ogg", Data: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, domain.KindTranscode, domain.KindOf(err))
	assert.Empty(t, dirEntries(t, dir))
}

func TestNormalizeEmptyBlob(t *testing.T) {
	runner := &fakeRunner{writeOutput: true}
	n, dir := newTestNormalizer(t, runner)

	_, err := n.Normalize(context.Background(), domain.AudioBlob{Filename: "empty.webm"})
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidInput, domain.KindOf(err))
	assert.Empty(t, runner.calls)
	assert.Empty(t, dirEntries(t, dir))
}

func TestNormalizeConcurrentRequestsUseDistinctFiles(t *testing.T) {
	runner := &fakeRunner{writeOutput: true}
	n, dir := newTestNormalizer(t, runner)

	const workers = 8
	var wg sync.WaitGroup
	paths := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wf, err := n.Normalize(context.Background(), domain.AudioBlob{Filename: "r.webm", Data: []byte("x")})
			if !assert.NoError(t, err) {
				return
			}
			paths <- wf.Path
		}()
	}
	wg.Wait()
	close(paths)

	seen := map[string]bool{}
	for p := range paths {
		assert.False(t, seen[p], "duplicate waveform path %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, workers)
	assert.Len(t, dirEntries(t, dir), workers)
}

func TestUploadExt(t *testing.T) {
	tests := map[string]string{
		"recording.webm":  ".webm",
		"Voice.M4A":       ".m4a",
		"noext":           "",
		"../../etc/x.sh;": "",
		"weird.we bm":     "",
		"long.extension1": "",
	}
	for in, want := range tests {
		assert.Equal(t, want, uploadExt(in), in)
	}
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}
