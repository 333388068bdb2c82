package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenav/internal/domain"
)

type fakeSink struct {
	name   string
	err    error
	got    []domain.NavigationEvent
	closed bool
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Publish(_ context.Context, ev domain.NavigationEvent) error {
	f.got = append(f.got, ev)
	return f.err
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

type recorded struct {
	sink string
	err  error
}

type fakeRecorder struct{ calls []recorded }

func (r *fakeRecorder) RecordPublish(sink string, err error) {
	r.calls = append(r.calls, recorded{sink, err})
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent(domain.EventGeocoded, domain.GeocodeResult{Lat: 1, Lon: 2, Label: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, domain.EventGeocoded, ev.Type)
	assert.False(t, ev.Time.IsZero())
	assert.JSONEq(t, `{"lat":1,"lon":2,"label":"x"}`, string(ev.Payload))

	other, err := NewEvent(domain.EventGeocoded, nil)
	require.NoError(t, err)
	assert.NotEqual(t, ev.ID, other.ID)
}

func TestMultiDeliversToAllSinks(t *testing.T) {
	boom := errors.New("broker down")
	a := &fakeSink{name: "a", err: boom}
	b := &fakeSink{name: "b"}
	rec := &fakeRecorder{}
	m := NewMulti(rec, a, b)

	ev, err := NewEvent(domain.EventRouted, map[string]int{"steps": 3})
	require.NoError(t, err)

	err = m.Publish(context.Background(), ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, a.got, 1)
	assert.Len(t, b.got, 1)
	assert.Equal(t, []recorded{{"a", boom}, {"b", nil}}, rec.calls)

	require.NoError(t, m.Close())
	assert.True(t, a.closed)
	assert.True(t, b.closed)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
	ev, err := NewEvent(domain.EventTranscribed, domain.TranscriptionResult{Text: "Guindy"})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), ev))
	assert.Contains(t, buf.String(), "type=transcribed")
	assert.Contains(t, buf.String(), ev.ID)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisherMessage(t *testing.T) {
	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, topic: "voicenav.events", logger: slog.Default()}

	ev, err := NewEvent(domain.EventRouted, map[string]int{"steps": 2})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, ev.ID, string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "routed", string(msg.Headers[0].Value))

	var decoded domain.NavigationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.ID, decoded.ID)
	assert.JSONEq(t, `{"steps":2}`, string(decoded.Payload))
}

func TestKafkaPublisherWriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := &KafkaPublisher{writer: w, topic: "t", logger: slog.Default()}
	ev, err := NewEvent(domain.EventRouted, nil)
	require.NoError(t, err)
	assert.Error(t, p.Publish(context.Background(), ev))
}
