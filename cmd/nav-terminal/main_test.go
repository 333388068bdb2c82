package main

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenav/internal/domain"
)

func TestFormatRoute(t *testing.T) {
	instr := "Turn right onto Kamarajar Salai"
	got := formatRoute(domain.RoutePush{
		TerminalID:  "t-01",
		Destination: domain.Coordinate{Lat: 13.05, Lon: 80.2825},
		Steps: []domain.StepView{
			{Instruction: &instr, Distance: 240.4},
			{Distance: 0},
		},
	})
	assert.Equal(t, "route to (13.050000, 80.282500): 2 steps\n"+
		"  1. Turn right onto Kamarajar Salai (240m)\n"+
		"  2. - (0m)\n", got)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"TERMINAL_ID", "MQTT_BROKER_URL", "MQTT_CLIENT_ID", "MQTT_TOPIC_PREFIX"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig()
	assert.Contains(t, cfg.TerminalID, "terminal-")
	assert.Equal(t, "voicenav-"+cfg.TerminalID, cfg.MQTTClientID)
	assert.Equal(t, "voicenav", cfg.MQTTTopicPrefix)

	t.Setenv("TERMINAL_ID", "kiosk-7")
	assert.Equal(t, "kiosk-7", loadConfig().TerminalID)
}

type doneToken struct{}

func (doneToken) Wait() bool                     { return true }
func (doneToken) WaitTimeout(time.Duration) bool { return true }
func (doneToken) Error() error                   { return nil }
func (doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type routeMessage struct {
	paho.Message
	payload []byte
}

func (m routeMessage) Payload() []byte { return m.payload }

// recordingClient keeps what onConnect publishes and subscribes.
type recordingClient struct {
	paho.Client
	published []string
	subs      []string
	handler   paho.MessageHandler
}

func (c *recordingClient) Publish(topic string, _ byte, retained bool, payload interface{}) paho.Token {
	if retained {
		c.published = append(c.published, topic+"="+payload.(string))
	}
	return doneToken{}
}

func (c *recordingClient) Subscribe(topic string, _ byte, h paho.MessageHandler) paho.Token {
	c.subs = append(c.subs, topic)
	c.handler = h
	return doneToken{}
}

func TestOnConnectAnnouncesAndResubscribes(t *testing.T) {
	cfg := terminalConfig{TerminalID: "kiosk-7", MQTTTopicPrefix: "voicenav"}
	var out bytes.Buffer
	handler := onConnect(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), &out)

	c := &recordingClient{}
	handler(c)
	handler(c)

	assert.Equal(t, []string{"voicenav/terminal/kiosk-7/online=online", "voicenav/terminal/kiosk-7/online=online"}, c.published)
	assert.Equal(t, []string{"voicenav/terminal/kiosk-7/route", "voicenav/terminal/kiosk-7/route"}, c.subs)

	require.NotNil(t, c.handler)
	c.handler(c, routeMessage{payload: []byte(`{"terminal_id":"kiosk-7","destination":{"lat":1,"lon":2},"steps":[]}`)})
	assert.Equal(t, "route to (1.000000, 2.000000): 0 steps\n", out.String())
}
