// Package bootstrap assembles the runtime dependency graph.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"fitvoice/internal/audio"
	"fitvoice/internal/config"
	"fitvoice/internal/notes"
	"fitvoice/internal/permissions"
	"fitvoice/internal/planner"
	"fitvoice/internal/ports"
	"fitvoice/internal/providers/deepgram"
	"fitvoice/internal/session"
	"fitvoice/internal/store"
)

// Services is the assembled runtime graph. Store and Planner are nil when
// their backing services are not configured; the CLI degrades gracefully
// without them.
type Services struct {
	Session *session.Service
	Parser  *notes.Parser
	Store   ports.WorkoutStore
	Planner ports.PlanGenerator
	Config  config.Config
}

// Build wires all dependencies for the current environment.
func Build(ctx context.Context, events ports.EventSink, logger *log.Logger) (Services, error) {
	cfg := config.Load()

	recognizer := deepgram.NewRecognizer(deepgram.Config{
		APIKey:      cfg.Deepgram.APIKey,
		APIBaseURL:  cfg.Deepgram.APIBaseURL,
		Model:       cfg.Deepgram.Model,
		Language:    cfg.Deepgram.Language,
		SmartFormat: cfg.Deepgram.SmartFormat,
	})

	svc := session.New(
		permissions.NewChecker(cfg.Audio.RecorderCommand, cfg.Deepgram.APIKey),
		audio.NewCapture(cfg.Audio.RecorderCommand),
		recognizer,
		events,
		session.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Recognition: ports.RecognitionConfig{
				SampleRate:     cfg.Audio.SampleRate,
				Channels:       cfg.Audio.Channels,
				Encoding:       "linear16",
				Language:       cfg.Deepgram.Language,
				PartialResults: true,
			},
			ChunkSize:       cfg.Session.ChunkSize,
			FallbackTimeout: cfg.Session.FallbackTimeout,
		},
		logger,
	)

	services := Services{
		Session: svc,
		Parser:  notes.NewParser(),
		Config:  cfg,
	}

	if cfg.Database.URL != "" {
		db, err := store.Open(ctx, cfg.Database.URL)
		if err != nil {
			return Services{}, fmt.Errorf("open workout store: %w", err)
		}
		services.Store = db
	}

	if cfg.OpenAI.APIKey != "" {
		gen, err := planner.New(planner.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model})
		if err != nil {
			return Services{}, fmt.Errorf("build plan generator: %w", err)
		}
		services.Planner = gen
	}

	return services, nil
}
