package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"

	"voicenav/internal/domain"
)

type HubConfig struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// Hub pushes routes to companion terminals and mirrors navigation events
// onto the broker. It tracks which terminals have announced themselves
// online.
type Hub struct {
	cfg    HubConfig
	client paho.Client
	logger *slog.Logger

	onlineMu sync.RWMutex
	online   map[string]bool
}

func NewHub(cfg HubConfig, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		cfg:    cfg,
		logger: logger,
		online: make(map[string]bool),
	}
}

func (h *Hub) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(h.cfg.BrokerURL).
		SetClientID(h.cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	if h.cfg.Username != "" {
		opts.SetUsername(h.cfg.Username)
		opts.SetPassword(h.cfg.Password)
	}

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		h.logger.Error("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(h.onConnect)

	h.client = paho.NewClient(opts)
	if token := h.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}

	go func() {
		<-ctx.Done()
		h.client.Disconnect(100)
	}()

	return nil
}

// onConnect runs after every (re)connect; a clean session drops the
// broker-side subscriptions each time.
func (h *Hub) onConnect(c paho.Client) {
	topic := TopicTerminalOnline(h.cfg.TopicPrefix)
	token := c.Subscribe(topic, 1, h.handleOnline)
	go func() {
		if token.Wait() && token.Error() != nil {
			h.logger.Error("subscribe terminal online failed", "topic", topic, "error", token.Error())
			return
		}
		h.logger.Info("subscribed terminal online", "topic", topic)
	}()
}

func (h *Hub) handleOnline(_ paho.Client, msg paho.Message) {
	terminalID, err := ParseTerminalID(msg.Topic(), h.cfg.TopicPrefix)
	if err != nil {
		h.logger.Warn("skip invalid online topic", "topic", msg.Topic(), "error", err)
		return
	}

	payload := strings.TrimSpace(strings.ToLower(string(msg.Payload())))
	online := payload == "1" || payload == "true" || payload == "online"

	h.onlineMu.Lock()
	if online {
		h.online[terminalID] = true
	} else {
		delete(h.online, terminalID)
	}
	h.onlineMu.Unlock()
	h.logger.Info("terminal online status", "terminal_id", terminalID, "online", online)
}

func (h *Hub) IsOnline(terminalID string) bool {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	return h.online[terminalID]
}

// PushRoute delivers the step list to one terminal. Terminals that never
// announced themselves still get the message; the broker holds it for
// persistent sessions.
func (h *Hub) PushRoute(ctx context.Context, push domain.RoutePush) error {
	if !domain.ValidTerminalID(push.TerminalID) {
		return fmt.Errorf("invalid terminal id %q", push.TerminalID)
	}
	if !h.IsOnline(push.TerminalID) {
		h.logger.Warn("pushing route to terminal not seen online", "terminal_id", push.TerminalID)
	}
	body, err := json.Marshal(push)
	if err != nil {
		return err
	}
	return h.publish(ctx, TopicRoute(h.cfg.TopicPrefix, push.TerminalID), body)
}

func (h *Hub) Name() string { return "mqtt" }

// Publish mirrors a navigation event to {prefix}/events/{type}.
func (h *Hub) Publish(ctx context.Context, ev domain.NavigationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.publish(ctx, TopicEvent(h.cfg.TopicPrefix, string(ev.Type)), body)
}

// Close is a no-op; the connection is dropped when the Start context ends.
func (h *Hub) Close() error { return nil }

func (h *Hub) publish(ctx context.Context, topic string, body []byte) error {
	if h.client == nil {
		return fmt.Errorf("mqtt hub not started")
	}
	token := h.client.Publish(topic, 1, false, body)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-token.Done():
		return token.Error()
	}
}
