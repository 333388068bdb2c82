// Package navigation wires the pipeline stages behind the HTTP handlers:
// audio normalization, transcription, locality-biased geocoding and
// route step extraction.
package navigation

import (
	"context"
	"log/slog"
	"time"

	"voicenav/internal/audio"
	"voicenav/internal/domain"
	"voicenav/internal/events"
	"voicenav/internal/metrics"
)

type Normalizer interface {
	Normalize(ctx context.Context, blob domain.AudioBlob) (*audio.Waveform, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, wf *audio.Waveform) (domain.TranscriptionResult, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, text string) (domain.GeocodeResult, error)
}

type StepExtractor interface {
	Origin() domain.Coordinate
	Steps(ctx context.Context, dest domain.Coordinate) ([]domain.StepView, error)
}

type RoutePusher interface {
	PushRoute(ctx context.Context, push domain.RoutePush) error
}

type Config struct {
	OriginLabel string
	Locality    string
	// EventTimeout bounds each publish and push; zero means two seconds.
	EventTimeout time.Duration
}

type Service struct {
	cfg         Config
	normalizer  Normalizer
	transcriber Transcriber
	geocoder    Geocoder
	extractor   StepExtractor
	events      events.Publisher
	pusher      RoutePusher
	metrics     *metrics.Metrics
	logger      *slog.Logger
}

type Deps struct {
	Normalizer  Normalizer
	Transcriber Transcriber
	Geocoder    Geocoder
	Extractor   StepExtractor
	// Events and Pusher are optional.
	Events  events.Publisher
	Pusher  RoutePusher
	Metrics *metrics.Metrics
}

func New(cfg Config, deps Deps, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.EventTimeout <= 0 {
		cfg.EventTimeout = 2 * time.Second
	}
	return &Service{
		cfg:         cfg,
		normalizer:  deps.Normalizer,
		transcriber: deps.Transcriber,
		geocoder:    deps.Geocoder,
		extractor:   deps.Extractor,
		events:      deps.Events,
		pusher:      deps.Pusher,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// Transcribe normalizes blob and recognizes it. The waveform is removed
// before returning, whatever the outcome.
func (s *Service) Transcribe(ctx context.Context, blob domain.AudioBlob) (domain.TranscriptionResult, error) {
	start := time.Now()
	wf, err := s.normalizer.Normalize(ctx, blob)
	s.observe(metrics.StageTranscode, start, err)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}
	defer func() {
		if cerr := wf.Close(); cerr != nil {
			s.logger.Warn("remove waveform failed", "path", wf.Path, "error", cerr)
		}
	}()

	start = time.Now()
	res, err := s.transcriber.Transcribe(ctx, wf)
	s.observe(metrics.StageTranscribe, start, err)
	if err != nil {
		return domain.TranscriptionResult{}, err
	}

	s.emit(ctx, domain.EventTranscribed, res)
	return res, nil
}

func (s *Service) Geocode(ctx context.Context, text string) (domain.GeocodeResult, error) {
	start := time.Now()
	res, err := s.geocoder.Geocode(ctx, text)
	s.observe(metrics.StageGeocode, start, err)
	if err != nil {
		return domain.GeocodeResult{}, err
	}

	s.emit(ctx, domain.EventGeocoded, struct {
		Text string `json:"text"`
		domain.GeocodeResult
	}{text, res})
	return res, nil
}

// Directions returns the walking steps from the configured origin to dest.
// When terminalID is set the steps are also pushed to that terminal; a push
// failure is only logged.
func (s *Service) Directions(ctx context.Context, dest domain.Coordinate, terminalID string) ([]domain.StepView, error) {
	start := time.Now()
	steps, err := s.extractor.Steps(ctx, dest)
	s.observe(metrics.StageRoute, start, err)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRoute(len(steps))

	s.emit(ctx, domain.EventRouted, struct {
		Destination domain.Coordinate `json:"destination"`
		Steps       int               `json:"steps"`
		TerminalID  string            `json:"terminal_id,omitempty"`
	}{dest, len(steps), terminalID})

	if terminalID != "" && s.pusher != nil {
		push := domain.RoutePush{
			TerminalID:  terminalID,
			Origin:      s.extractor.Origin(),
			Destination: dest,
			Steps:       steps,
		}
		pushCtx, cancel := context.WithTimeout(ctx, s.cfg.EventTimeout)
		err := s.pusher.PushRoute(pushCtx, push)
		cancel()
		if err != nil {
			s.logger.Warn("route push failed", "terminal_id", terminalID, "error", err)
		}
	}
	return steps, nil
}

func (s *Service) Origin() domain.OriginResponse {
	o := s.extractor.Origin()
	return domain.OriginResponse{
		Lat:      o.Lat,
		Lon:      o.Lon,
		Label:    s.cfg.OriginLabel,
		Locality: s.cfg.Locality,
	}
}

func (s *Service) observe(stage string, start time.Time, err error) {
	kind := ""
	if err != nil {
		kind = string(domain.KindOf(err))
	}
	s.metrics.ObserveStage(stage, time.Since(start).Seconds(), kind)
}

// emit never fails the request and waits at most EventTimeout for the sinks.
func (s *Service) emit(ctx context.Context, typ domain.EventType, payload any) {
	if s.events == nil {
		return
	}
	ev, err := events.NewEvent(typ, payload)
	if err != nil {
		s.logger.Warn("build event failed", "type", typ, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.EventTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish event failed", "type", typ, "id", ev.ID, "error", err)
	}
}
