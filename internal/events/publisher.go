// Package events delivers navigation events to downstream sinks.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"voicenav/internal/domain"
)

type Publisher interface {
	Name() string
	Publish(ctx context.Context, ev domain.NavigationEvent) error
	Close() error
}

// Recorder counts publish outcomes per sink. *metrics.Metrics satisfies it.
type Recorder interface {
	RecordPublish(sink string, err error)
}

// NewEvent stamps payload with a fresh id and the current time.
func NewEvent(typ domain.EventType, payload any) (domain.NavigationEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.NavigationEvent{}, err
	}
	return domain.NavigationEvent{
		ID:      uuid.NewString(),
		Type:    typ,
		Time:    time.Now().UTC(),
		Payload: raw,
	}, nil
}

// LogPublisher writes events to the logger only.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Name() string { return "log" }

func (p *LogPublisher) Publish(_ context.Context, ev domain.NavigationEvent) error {
	p.logger.Info("navigation event", "id", ev.ID, "type", ev.Type, "payload", string(ev.Payload))
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Multi fans an event out to every sink. One failing sink does not stop
// delivery to the others; the errors are joined.
type Multi struct {
	sinks    []Publisher
	recorder Recorder
}

func NewMulti(recorder Recorder, sinks ...Publisher) *Multi {
	return &Multi{sinks: sinks, recorder: recorder}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Publish(ctx context.Context, ev domain.NavigationEvent) error {
	var errs []error
	for _, s := range m.sinks {
		err := s.Publish(ctx, ev)
		if m.recorder != nil {
			m.recorder.RecordPublish(s.Name(), err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
