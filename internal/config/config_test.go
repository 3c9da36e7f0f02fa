package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	t.Setenv("DEEPGRAM_API_BASE", "")
	t.Setenv("FITVOICE_FFMPEG_COMMAND", "")
	t.Setenv("FITVOICE_FALLBACK_TIMEOUT_MS", "")
	t.Setenv("FITVOICE_NOTIFICATIONS", "")

	cfg := Load()

	if cfg.Deepgram.APIBaseURL != "https://api.deepgram.com/v1" || cfg.Deepgram.Model != "nova-2" {
		t.Fatalf("unexpected deepgram defaults: %+v", cfg.Deepgram)
	}
	if cfg.Audio.RecorderCommand != "ffmpeg" || cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Fatalf("unexpected audio defaults: %+v", cfg.Audio)
	}
	if cfg.Session.ChunkSize != 4096 || cfg.Session.FallbackTimeout != 2*time.Second {
		t.Fatalf("unexpected session defaults: %+v", cfg.Session)
	}
	if !cfg.Notify.Enabled {
		t.Fatalf("expected notifications enabled by default")
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
}

func TestLoadRespectsOverrides(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "dg-key")
	t.Setenv("DEEPGRAM_API_BASE", "https://example.com/v1")
	t.Setenv("DEEPGRAM_MODEL", "nova-3")
	t.Setenv("DEEPGRAM_LANGUAGE", "sv")
	t.Setenv("DEEPGRAM_SMART_FORMAT", "false")
	t.Setenv("FITVOICE_FFMPEG_COMMAND", "my-ffmpeg")
	t.Setenv("FITVOICE_AUDIO_INPUT_FORMAT", "alsa")
	t.Setenv("FITVOICE_AUDIO_INPUT_DEVICE", "mic0")
	t.Setenv("FITVOICE_SAMPLE_RATE", "22050")
	t.Setenv("FITVOICE_CHANNELS", "2")
	t.Setenv("FITVOICE_AUDIO_CHUNK_SIZE", "512")
	t.Setenv("FITVOICE_FALLBACK_TIMEOUT_MS", "1500")
	t.Setenv("DATABASE_URL", "postgres://localhost/fitvoice")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("FITVOICE_NOTIFICATIONS", "off")
	t.Setenv("FITVOICE_LOG_LEVEL", "debug")

	cfg := Load()

	if cfg.Deepgram.APIKey != "dg-key" || cfg.Deepgram.APIBaseURL != "https://example.com/v1" {
		t.Fatalf("unexpected deepgram config: %+v", cfg.Deepgram)
	}
	if cfg.Deepgram.Model != "nova-3" || cfg.Deepgram.Language != "sv" || cfg.Deepgram.SmartFormat {
		t.Fatalf("unexpected deepgram model/language: %+v", cfg.Deepgram)
	}
	if cfg.Audio.RecorderCommand != "my-ffmpeg" || cfg.Audio.InputFormat != "alsa" || cfg.Audio.InputDevice != "mic0" {
		t.Fatalf("unexpected audio config: %+v", cfg.Audio)
	}
	if cfg.Audio.SampleRate != 22050 || cfg.Audio.Channels != 2 {
		t.Fatalf("unexpected sample/channels: %+v", cfg.Audio)
	}
	if cfg.Session.ChunkSize != 512 || cfg.Session.FallbackTimeout != 1500*time.Millisecond {
		t.Fatalf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Database.URL != "postgres://localhost/fitvoice" {
		t.Fatalf("unexpected database url: %q", cfg.Database.URL)
	}
	if cfg.OpenAI.APIKey != "sk-test" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("unexpected openai config: %+v", cfg.OpenAI)
	}
	if cfg.Notify.Enabled {
		t.Fatalf("expected notifications disabled")
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level: %q", cfg.Log.Level)
	}
}

func TestLoadInvalidNumericValuesFallBack(t *testing.T) {
	t.Setenv("FITVOICE_SAMPLE_RATE", "bad")
	t.Setenv("FITVOICE_CHANNELS", "-1")
	t.Setenv("FITVOICE_AUDIO_CHUNK_SIZE", "5")
	t.Setenv("FITVOICE_FALLBACK_TIMEOUT_MS", "-10")
	t.Setenv("DEEPGRAM_SMART_FORMAT", "not-bool")

	cfg := Load()

	if cfg.Audio.SampleRate != 16000 || cfg.Audio.Channels != 1 {
		t.Fatalf("expected numeric fallbacks: %+v", cfg.Audio)
	}
	if cfg.Session.ChunkSize != 4096 || cfg.Session.FallbackTimeout != 2*time.Second {
		t.Fatalf("expected session fallbacks: %+v", cfg.Session)
	}
	if !cfg.Deepgram.SmartFormat {
		t.Fatalf("expected smart format default on bad bool")
	}
}
