package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"voicenav/internal/domain"
)

type options struct {
	Server     string
	Audio      string
	Text       string
	TerminalID string
	Timeout    time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.Server, "server", getenvDefault("VOICENAV_SERVER", "http://localhost:5000"), "voicenav server base URL")
	flag.StringVar(&opts.Audio, "audio", "", "recorded destination audio file")
	flag.StringVar(&opts.Text, "text", "", "destination text, skips transcription")
	flag.StringVar(&opts.TerminalID, "terminal", "", "also push the route to this terminal")
	flag.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "overall request timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	client := newAPIClient(opts.Server, &http.Client{})
	if err := run(ctx, client, opts, os.Stdout); err != nil {
		logger.Error("navigation failed", "error", err)
		os.Exit(1)
	}
}

// run walks the same flow as the browser page: transcribe, geocode, route.
func run(ctx context.Context, c *apiClient, opts options, out io.Writer) error {
	text := strings.TrimSpace(opts.Text)
	if text == "" {
		if opts.Audio == "" {
			return errors.New("either -audio or -text is required")
		}
		tr, err := c.transcribe(ctx, opts.Audio)
		if err != nil {
			return err
		}
		text = tr.Text
		fmt.Fprintf(out, "Transcribed: %s\n", text)
	}

	dest, err := c.geocode(ctx, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Destination: %s (%.6f, %.6f)\n", dest.Label, dest.Lat, dest.Lon)

	route, err := c.directions(ctx, domain.Coordinate{Lat: dest.Lat, Lon: dest.Lon}, opts.TerminalID)
	if err != nil {
		return err
	}
	if len(route.Steps) == 0 {
		fmt.Fprintln(out, "No navigation steps available.")
		return nil
	}
	for i, s := range route.Steps {
		instr := ""
		if s.Instruction != nil {
			instr = *s.Instruction
		}
		fmt.Fprintf(out, "%2d. %-40s %7.1fm %6.0fs  (%.6f, %.6f)\n", i+1, instr, s.Distance, s.Duration, s.Lat, s.Lon)
	}
	return nil
}

func getenvDefault(key, val string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return val
}
