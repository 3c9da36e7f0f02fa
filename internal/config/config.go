package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config stores runtime configuration resolved from the environment.
type Config struct {
	Deepgram DeepgramConfig
	Audio    AudioConfig
	Session  SessionConfig
	Database DatabaseConfig
	OpenAI   OpenAIConfig
	Notify   NotifyConfig
	Log      LogConfig
}

type DeepgramConfig struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
}

type SessionConfig struct {
	ChunkSize       int
	FallbackTimeout time.Duration
}

type DatabaseConfig struct {
	URL string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type NotifyConfig struct {
	Enabled bool
}

type LogConfig struct {
	Level string
}

// Load resolves configuration from environment variables and sensible
// defaults.
func Load() Config {
	cfg := Config{
		Deepgram: DeepgramConfig{
			APIKey:      strings.TrimSpace(os.Getenv("DEEPGRAM_API_KEY")),
			APIBaseURL:  envOrDefault("DEEPGRAM_API_BASE", "https://api.deepgram.com/v1"),
			Model:       envOrDefault("DEEPGRAM_MODEL", "nova-2"),
			Language:    strings.TrimSpace(os.Getenv("DEEPGRAM_LANGUAGE")),
			SmartFormat: envOrDefaultBool("DEEPGRAM_SMART_FORMAT", true),
		},
		Audio: AudioConfig{
			RecorderCommand: envOrDefault("FITVOICE_FFMPEG_COMMAND", "ffmpeg"),
			InputFormat:     envOrDefault("FITVOICE_AUDIO_INPUT_FORMAT", "pulse"),
			InputDevice:     envOrDefault("FITVOICE_AUDIO_INPUT_DEVICE", "default"),
			SampleRate:      envOrDefaultInt("FITVOICE_SAMPLE_RATE", 16000),
			Channels:        envOrDefaultInt("FITVOICE_CHANNELS", 1),
		},
		Session: SessionConfig{
			ChunkSize:       envOrDefaultInt("FITVOICE_AUDIO_CHUNK_SIZE", 4096),
			FallbackTimeout: time.Duration(envOrDefaultInt("FITVOICE_FALLBACK_TIMEOUT_MS", 2000)) * time.Millisecond,
		},
		Database: DatabaseConfig{
			URL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		},
		OpenAI: OpenAIConfig{
			APIKey: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			Model:  strings.TrimSpace(os.Getenv("OPENAI_MODEL")),
		},
		Notify: NotifyConfig{
			Enabled: envOrDefaultBool("FITVOICE_NOTIFICATIONS", true),
		},
		Log: LogConfig{
			Level: envOrDefault("FITVOICE_LOG_LEVEL", "info"),
		},
	}

	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Session.ChunkSize < 256 {
		cfg.Session.ChunkSize = 4096
	}
	if cfg.Session.FallbackTimeout <= 0 {
		cfg.Session.FallbackTimeout = 2 * time.Second
	}

	return cfg
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
