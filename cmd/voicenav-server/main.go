package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"voicenav/internal/audio"
	"voicenav/internal/config"
	"voicenav/internal/domain"
	"voicenav/internal/events"
	"voicenav/internal/geocode"
	"voicenav/internal/httpapi"
	"voicenav/internal/metrics"
	"voicenav/internal/mqtt"
	"voicenav/internal/navigation"
	"voicenav/internal/ors"
	"voicenav/internal/route"
	"voicenav/internal/stt"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load env file failed", "path", *envFile, "error", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config failed", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Server)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	recognizer, err := stt.NewRecognizer(ctx, stt.Config{
		Provider:              cfg.STT.Provider,
		Timeout:               cfg.STT.Timeout,
		WhisperBaseURL:        cfg.STT.WhisperBaseURL,
		OpenAIAPIKey:          cfg.STT.OpenAIAPIKey,
		OpenAIBaseURL:         cfg.STT.OpenAIBaseURL,
		OpenAIModel:           cfg.STT.OpenAIModel,
		GoogleCredentialsFile: cfg.STT.GoogleCredentialsFile,
	})
	if err != nil {
		logger.Error("init speech recognizer failed", "error", err)
		os.Exit(1)
	}
	if c, ok := recognizer.(io.Closer); ok {
		defer c.Close()
	}

	orsClient := ors.NewClient(cfg.ORS.BaseURL, cfg.ORS.APIKey, cfg.ORS.Timeout)
	origin := domain.Coordinate{Lat: cfg.Navigation.OriginLat, Lon: cfg.Navigation.OriginLon}

	sinks := []events.Publisher{events.NewLogPublisher(logger)}
	var pusher navigation.RoutePusher
	if cfg.MQTT.BrokerURL != "" {
		hub := mqtt.NewHub(mqtt.HubConfig{
			BrokerURL:   cfg.MQTT.BrokerURL,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		}, logger)
		if err := hub.Start(ctx); err != nil {
			logger.Error("start mqtt hub failed", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, hub)
		pusher = hub
	}
	if len(cfg.Kafka.Brokers) > 0 {
		sinks = append(sinks, events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		}, logger))
	}
	publisher := events.NewMulti(m, sinks...)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("close event publishers failed", "error", err)
		}
	}()

	svc := navigation.New(navigation.Config{
		OriginLabel:  cfg.Navigation.OriginLabel,
		Locality:     cfg.Navigation.Locality,
		EventTimeout: cfg.Navigation.EventTimeout,
	}, navigation.Deps{
		Normalizer: audio.NewNormalizer(audio.Config{
			FFmpegPath: cfg.Audio.FFmpegPath,
			TempDir:    cfg.Audio.TempDir,
			Timeout:    cfg.Audio.TranscodeTimeout,
		}, audio.ExecRunner{}, logger),
		Transcriber: stt.NewTranscriber(recognizer, cfg.STT.Language, logger),
		Geocoder:    geocode.NewGeocoder(orsClient, cfg.Navigation.Locality, logger),
		Extractor:   route.NewExtractor(orsClient, origin, logger),
		Events:      publisher,
		Pusher:      pusher,
		Metrics:     m,
	}, logger)

	api := httpapi.NewServer(httpapi.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
	}, svc, m, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           api.Router(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("voicenav server started",
			"addr", cfg.Server.HTTPAddr,
			"stt_provider", recognizer.Name(),
			"locality", cfg.Navigation.Locality,
			"origin_lat", origin.Lat,
			"origin_lon", origin.Lon,
			"mqtt", cfg.MQTT.BrokerURL != "",
			"kafka", len(cfg.Kafka.Brokers) > 0,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
}

func newLogger(cfg config.ServerConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
