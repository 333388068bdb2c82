package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"voicenav/internal/domain"
)

const (
	SampleRate = 16000
	Channels   = 1
)

// Runner executes the transcoding tool. Output is the tool's diagnostic text.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (output []byte, err error)
}

type Config struct {
	FFmpegPath string
	TempDir    string
	Timeout    time.Duration
}

type Normalizer struct {
	ffmpegPath string
	tempDir    string
	timeout    time.Duration
	runner     Runner
	logger     *slog.Logger
}

func NewNormalizer(cfg Config, runner Runner, logger *slog.Logger) *Normalizer {
	if runner == nil {
		runner = ExecRunner{}
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		ffmpegPath: cfg.FFmpegPath,
		tempDir:    cfg.TempDir,
		timeout:    cfg.Timeout,
		runner:     runner,
		logger:     logger,
	}
}

// Waveform is a normalized mono 16 kHz PCM WAV file on disk. The caller owns
// it and must Close it, which deletes the file.
type Waveform struct {
	Path string

	once sync.Once
	err  error
}

func (w *Waveform) Close() error {
	if w == nil {
		return nil
	}
	w.once.Do(func() {
		if err := os.Remove(w.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			w.err = err
		}
	})
	return w.err
}

// Normalize writes blob to a uniquely named file, converts it with ffmpeg and
// returns the resulting waveform. The upload file never outlives this call.
func (n *Normalizer) Normalize(ctx context.Context, blob domain.AudioBlob) (*Waveform, error) {
	const op = "audio.Normalize"
	if len(blob.Data) == 0 {
		return nil, domain.NewError(domain.KindInvalidInput, op, "No audio file received", nil)
	}

	id := uuid.NewString()
	inPath := filepath.Join(n.tempDir, "upload-"+id+uploadExt(blob.Filename))
	outPath := filepath.Join(n.tempDir, "wave-"+id+".wav")

	if err := os.WriteFile(inPath, blob.Data, 0o600); err != nil {
		return nil, domain.NewError(domain.KindTranscode, op, "store upload failed", err)
	}
	defer n.remove(inPath)

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := n.runner.Run(ctx, n.ffmpegPath, ffmpegArgs(inPath, outPath)...)
	if err != nil {
		n.remove(outPath)
		diag := strings.TrimSpace(string(out))
		n.logger.Warn("ffmpeg conversion failed", "error", err, "diagnostic", diag, "filename", blob.Filename)
		msg := "ffmpeg conversion failed: " + err.Error()
		if diag != "" {
			msg += ": " + lastLine(diag)
		}
		return nil, domain.NewError(domain.KindTranscode, op, msg, err)
	}
	if _, err := os.Stat(outPath); err != nil {
		return nil, domain.NewError(domain.KindTranscode, op, "ffmpeg conversion failed: no output produced", err)
	}

	n.logger.Debug("audio normalized", "bytes", len(blob.Data), "cost", time.Since(start))
	return &Waveform{Path: outPath}, nil
}

func (n *Normalizer) remove(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		n.logger.Warn("remove temp audio failed", "path", path, "error", err)
	}
}

func ffmpegArgs(in, out string) []string {
	return []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", in,
		"-ar", fmt.Sprint(SampleRate),
		"-ac", fmt.Sprint(Channels),
		"-c:a", "pcm_s16le",
		out,
	}
}

// uploadExt keeps a short alphanumeric extension from the client filename as
// a container hint for ffmpeg.
func uploadExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
