package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"voicenav/internal/domain"
	"voicenav/internal/mqtt"
)

type terminalConfig struct {
	TerminalID      string
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
}

func loadConfig() terminalConfig {
	id := getenvDefault("TERMINAL_ID", "terminal-"+uuid.NewString()[:8])
	return terminalConfig{
		TerminalID:      id,
		MQTTBrokerURL:   getenvDefault("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:    getenvDefault("MQTT_CLIENT_ID", "voicenav-"+id),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		MQTTTopicPrefix: getenvDefault("MQTT_TOPIC_PREFIX", "voicenav"),
	}
}

// nav-terminal is a companion device stand-in: it announces itself online
// and prints every route the server pushes to it.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := loadConfig()
	if !domain.ValidTerminalID(cfg.TerminalID) {
		logger.Error("invalid TERMINAL_ID", "terminal_id", cfg.TerminalID)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := startMQTT(cfg, logger)
	if err != nil {
		logger.Error("start terminal mqtt failed", "error", err)
		os.Exit(1)
	}
	logger.Info("terminal ready", "terminal_id", cfg.TerminalID, "route_topic", mqtt.TopicRoute(cfg.MQTTTopicPrefix, cfg.TerminalID))

	<-ctx.Done()
	onlineTopic := mqtt.TopicOnline(cfg.MQTTTopicPrefix, cfg.TerminalID)
	if tk := client.Publish(onlineTopic, 1, true, "offline"); tk.Wait() && tk.Error() != nil {
		logger.Warn("publish offline failed", "error", tk.Error())
	}
	client.Disconnect(250)
}

func startMQTT(cfg terminalConfig, logger *slog.Logger) (paho.Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID(cfg.MQTTClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	opts.SetWill(mqtt.TopicOnline(cfg.MQTTTopicPrefix, cfg.TerminalID), "offline", 1, true)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", "error", err)
	})
	opts.SetOnConnectHandler(onConnect(cfg, logger, os.Stdout))

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return client, nil
}

// onConnect re-announces the terminal and resubscribes on every connect;
// the will has already marked it offline after a drop.
func onConnect(cfg terminalConfig, logger *slog.Logger, out io.Writer) paho.OnConnectHandler {
	onlineTopic := mqtt.TopicOnline(cfg.MQTTTopicPrefix, cfg.TerminalID)
	routeTopic := mqtt.TopicRoute(cfg.MQTTTopicPrefix, cfg.TerminalID)
	return func(c paho.Client) {
		online := c.Publish(onlineTopic, 1, true, "online")
		sub := c.Subscribe(routeTopic, 1, func(_ paho.Client, msg paho.Message) {
			var push domain.RoutePush
			if err := json.Unmarshal(msg.Payload(), &push); err != nil {
				logger.Error("invalid route payload", "error", err)
				return
			}
			fmt.Fprint(out, formatRoute(push))
		})
		go func() {
			if online.Wait() && online.Error() != nil {
				logger.Error("publish online failed", "error", online.Error())
			}
			if sub.Wait() && sub.Error() != nil {
				logger.Error("subscribe route failed", "topic", routeTopic, "error", sub.Error())
			}
		}()
	}
}

func formatRoute(push domain.RoutePush) string {
	var b strings.Builder
	fmt.Fprintf(&b, "route to (%.6f, %.6f): %d steps\n", push.Destination.Lat, push.Destination.Lon, len(push.Steps))
	for i, s := range push.Steps {
		instr := "-"
		if s.Instruction != nil && *s.Instruction != "" {
			instr = *s.Instruction
		}
		fmt.Fprintf(&b, "  %d. %s (%.0fm)\n", i+1, instr, s.Distance)
	}
	return b.String()
}

func getenvDefault(key, val string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return val
}
