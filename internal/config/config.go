package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
}

type AudioConfig struct {
	FFmpegPath       string        `yaml:"ffmpeg_path"`
	TempDir          string        `yaml:"temp_dir"`
	TranscodeTimeout time.Duration `yaml:"transcode_timeout"`
}

type STTConfig struct {
	Provider              string        `yaml:"provider"`
	Language              string        `yaml:"language"`
	Timeout               time.Duration `yaml:"timeout"`
	WhisperBaseURL        string        `yaml:"whisper_base_url"`
	OpenAIAPIKey          string        `yaml:"openai_api_key"`
	OpenAIBaseURL         string        `yaml:"openai_base_url"`
	OpenAIModel           string        `yaml:"openai_model"`
	GoogleCredentialsFile string        `yaml:"google_credentials_file"`
}

type ORSConfig struct {
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type NavigationConfig struct {
	OriginLat   float64 `yaml:"origin_lat"`
	OriginLon   float64 `yaml:"origin_lon"`
	OriginLabel string  `yaml:"origin_label"`
	Locality    string  `yaml:"locality"`

	// EventTimeout bounds each event publish and route push.
	EventTimeout time.Duration `yaml:"event_timeout"`
}

type MQTTConfig struct {
	BrokerURL   string `yaml:"broker_url"`
	ClientID    string `yaml:"client_id"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	TopicPrefix string `yaml:"topic_prefix"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	STT        STTConfig        `yaml:"stt"`
	ORS        ORSConfig        `yaml:"ors"`
	Navigation NavigationConfig `yaml:"navigation"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Kafka      KafkaConfig      `yaml:"kafka"`

	originSet bool
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			HTTPAddr:        ":5000",
			MaxUploadBytes:  25 << 20,
			MaxBodyBytes:    65536,
			ShutdownTimeout: 10 * time.Second,
			LogLevel:        "info",
			LogFormat:       "text",
		},
		Audio: AudioConfig{
			FFmpegPath:       "ffmpeg",
			TempDir:          os.TempDir(),
			TranscodeTimeout: 30 * time.Second,
		},
		STT: STTConfig{
			Provider:       "whisper",
			Language:       "en",
			Timeout:        60 * time.Second,
			WhisperBaseURL: "http://localhost:9000",
			OpenAIBaseURL:  "https://api.openai.com/v1",
			OpenAIModel:    "whisper-1",
		},
		ORS: ORSConfig{
			BaseURL: "https://api.openrouteservice.org",
			Timeout: 15 * time.Second,
		},
		Navigation: NavigationConfig{
			OriginLabel:  "origin",
			EventTimeout: 2 * time.Second,
		},
		MQTT: MQTTConfig{
			ClientID:    "voicenav-server",
			TopicPrefix: "voicenav",
		},
		Kafka: KafkaConfig{
			Topic: "voicenav.events",
		},
	}
}

// Load builds the configuration from defaults, then the optional YAML file at
// path, then environment variables, and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		if nav, ok := raw["navigation"].(map[string]any); ok {
			_, hasLat := nav["origin_lat"]
			_, hasLon := nav["origin_lon"]
			cfg.originSet = hasLat && hasLon
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Server.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.Server.HTTPAddr)
	cfg.Server.MaxUploadBytes = getenvInt64Default("MAX_UPLOAD_BYTES", cfg.Server.MaxUploadBytes)
	cfg.Server.MaxBodyBytes = getenvInt64Default("MAX_BODY_BYTES", cfg.Server.MaxBodyBytes)
	cfg.Server.ShutdownTimeout = getenvSecondsDefault("SHUTDOWN_TIMEOUT_SECONDS", cfg.Server.ShutdownTimeout)
	cfg.Server.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", cfg.Server.LogLevel))
	cfg.Server.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", cfg.Server.LogFormat))

	cfg.Audio.FFmpegPath = getenvDefault("FFMPEG_PATH", cfg.Audio.FFmpegPath)
	cfg.Audio.TempDir = getenvDefault("AUDIO_TEMP_DIR", cfg.Audio.TempDir)
	cfg.Audio.TranscodeTimeout = getenvSecondsDefault("TRANSCODE_TIMEOUT_SECONDS", cfg.Audio.TranscodeTimeout)

	cfg.STT.Provider = strings.ToLower(getenvDefault("STT_PROVIDER", cfg.STT.Provider))
	cfg.STT.Language = getenvDefault("STT_LANGUAGE", cfg.STT.Language)
	cfg.STT.Timeout = getenvSecondsDefault("STT_TIMEOUT_SECONDS", cfg.STT.Timeout)
	cfg.STT.WhisperBaseURL = strings.TrimRight(getenvDefault("WHISPER_BASE_URL", cfg.STT.WhisperBaseURL), "/")
	cfg.STT.OpenAIAPIKey = getenvDefault("OPENAI_API_KEY", cfg.STT.OpenAIAPIKey)
	cfg.STT.OpenAIBaseURL = strings.TrimRight(getenvDefault("OPENAI_BASE_URL", cfg.STT.OpenAIBaseURL), "/")
	cfg.STT.OpenAIModel = getenvDefault("OPENAI_STT_MODEL", cfg.STT.OpenAIModel)
	cfg.STT.GoogleCredentialsFile = getenvDefault("GOOGLE_CREDENTIALS_FILE", cfg.STT.GoogleCredentialsFile)

	cfg.ORS.APIKey = getenvDefault("ORS_API_KEY", cfg.ORS.APIKey)
	cfg.ORS.BaseURL = strings.TrimRight(getenvDefault("ORS_BASE_URL", cfg.ORS.BaseURL), "/")
	cfg.ORS.Timeout = getenvSecondsDefault("ORS_TIMEOUT_SECONDS", cfg.ORS.Timeout)

	lat, latSet, err := getenvFloat("ORIGIN_LAT")
	if err != nil {
		return err
	}
	lon, lonSet, err := getenvFloat("ORIGIN_LON")
	if err != nil {
		return err
	}
	if latSet != lonSet {
		return fmt.Errorf("ORIGIN_LAT and ORIGIN_LON must be set together")
	}
	if latSet {
		cfg.Navigation.OriginLat = lat
		cfg.Navigation.OriginLon = lon
		cfg.originSet = true
	}
	cfg.Navigation.OriginLabel = getenvDefault("ORIGIN_LABEL", cfg.Navigation.OriginLabel)
	cfg.Navigation.Locality = strings.TrimSpace(getenvDefault("LOCALITY", cfg.Navigation.Locality))
	cfg.Navigation.EventTimeout = getenvSecondsDefault("EVENT_TIMEOUT_SECONDS", cfg.Navigation.EventTimeout)

	cfg.MQTT.BrokerURL = getenvDefault("MQTT_BROKER_URL", cfg.MQTT.BrokerURL)
	cfg.MQTT.ClientID = getenvDefault("MQTT_CLIENT_ID", cfg.MQTT.ClientID)
	cfg.MQTT.Username = getenvDefault("MQTT_USERNAME", cfg.MQTT.Username)
	cfg.MQTT.Password = getenvDefault("MQTT_PASSWORD", cfg.MQTT.Password)
	cfg.MQTT.TopicPrefix = strings.Trim(getenvDefault("MQTT_TOPIC_PREFIX", cfg.MQTT.TopicPrefix), "/")

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	cfg.Kafka.Topic = getenvDefault("KAFKA_TOPIC", cfg.Kafka.Topic)
	return nil
}

func (c Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", c.Server.MaxUploadBytes)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be positive, got %d", c.Server.MaxBodyBytes)
	}
	if c.Navigation.EventTimeout <= 0 {
		return fmt.Errorf("EVENT_TIMEOUT_SECONDS must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of [debug, info, warn, error], got %q", c.Server.LogLevel)
	}
	switch c.Server.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Server.LogFormat)
	}

	if c.Audio.FFmpegPath == "" {
		return fmt.Errorf("FFMPEG_PATH is required")
	}
	if c.Audio.TranscodeTimeout <= 0 {
		return fmt.Errorf("TRANSCODE_TIMEOUT_SECONDS must be positive")
	}

	if strings.TrimSpace(c.STT.Language) == "" {
		return fmt.Errorf("STT_LANGUAGE is required")
	}
	switch c.STT.Provider {
	case "whisper":
		if c.STT.WhisperBaseURL == "" {
			return fmt.Errorf("WHISPER_BASE_URL is required when STT_PROVIDER=whisper")
		}
	case "openai":
		if c.STT.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when STT_PROVIDER=openai")
		}
	case "google":
	default:
		return fmt.Errorf("unsupported STT_PROVIDER: %s", c.STT.Provider)
	}

	if c.ORS.APIKey == "" {
		return fmt.Errorf("ORS_API_KEY is required")
	}
	if c.ORS.BaseURL == "" {
		return fmt.Errorf("ORS_BASE_URL is required")
	}

	if !c.originSet {
		return fmt.Errorf("ORIGIN_LAT and ORIGIN_LON are required")
	}
	if !validLat(c.Navigation.OriginLat) || !validLon(c.Navigation.OriginLon) {
		return fmt.Errorf("origin out of range: lat=%v lon=%v", c.Navigation.OriginLat, c.Navigation.OriginLon)
	}
	if c.Navigation.Locality == "" {
		return fmt.Errorf("LOCALITY is required")
	}

	if c.MQTT.BrokerURL != "" && c.MQTT.TopicPrefix == "" {
		return fmt.Errorf("MQTT_TOPIC_PREFIX is required when MQTT_BROKER_URL is set")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func validLat(v float64) bool {
	return !math.IsNaN(v) && v >= -90 && v <= 90
}

func validLon(v float64) bool {
	return !math.IsNaN(v) && v >= -180 && v <= 180
}

func getenvDefault(key, val string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return val
}

func getenvInt64Default(key string, val int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return val
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return val
	}
	return n
}

func getenvSecondsDefault(key string, val time.Duration) time.Duration {
	n := getenvInt64Default(key, -1)
	if n < 0 {
		return val
	}
	return time.Duration(n) * time.Second
}

func getenvFloat(key string) (float64, bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return f, true, nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
