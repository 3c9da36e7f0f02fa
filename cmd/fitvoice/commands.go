package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"fitvoice/internal/bootstrap"
	"fitvoice/internal/config"
	"fitvoice/internal/domain"
	"fitvoice/internal/notify"
	"fitvoice/internal/ports"
)

const transcriptWait = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:           "fitvoice",
	Short:         "Voice-driven workout logging and planning",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a spoken workout note and log it",
	RunE:  runRecord,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent workouts",
	RunE:  runHistory,
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a workout plan from preferences and history",
	RunE:  runPlan,
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or set training preferences",
	RunE:  runPrefs,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and provider availability",
	RunE:  runStatus,
}

var (
	historyLimit    int
	prefsGoal       string
	prefsExperience string
	prefsDays       int
	prefsEquipment  []string
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of workouts to show")
	prefsCmd.Flags().StringVar(&prefsGoal, "goal", "", "training goal, e.g. strength")
	prefsCmd.Flags().StringVar(&prefsExperience, "experience", "", "training experience level")
	prefsCmd.Flags().IntVar(&prefsDays, "days", 0, "training days per week")
	prefsCmd.Flags().StringSliceVar(&prefsEquipment, "equipment", nil, "available equipment")

	rootCmd.AddCommand(recordCmd, historyCmd, planCmd, prefsCmd, statusCmd)
}

func newLogger(cfg config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}
	return logger
}

func runRecord(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	console := newConsoleSink(logger)
	sink := multiSink{console, notify.NewDesktop(cfg.Notify.Enabled)}

	services, err := bootstrap.Build(ctx, sink, logger)
	if err != nil {
		return err
	}
	if services.Store != nil {
		defer services.Store.Close()
	}

	svc := services.Session
	svc.RequestPermissions(ctx)
	svc.Start(ctx)
	if st := svc.State(); st.Phase == domain.PhaseError {
		return errors.New(st.Message)
	}

	enter := make(chan struct{})
	go func() {
		_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		close(enter)
	}()

	select {
	case <-enter:
		svc.Stop()
	case <-ctx.Done():
		svc.Cancel()
		logger.Info("recording discarded")
		return nil
	case st := <-console.terminal:
		// The session failed mid-recording.
		return errors.New(st.Message)
	}

	var transcript string
	select {
	case st := <-console.terminal:
		if st.Phase == domain.PhaseError {
			return errors.New(st.Message)
		}
		transcript = st.Transcript
	case <-time.After(transcriptWait):
		svc.Cancel()
		return errors.New("timed out waiting for transcript")
	}

	fmt.Println()
	if transcript == "" {
		logger.Info("nothing was heard; nothing logged")
		return nil
	}
	fmt.Printf("Transcript: %s\n", transcript)

	entries, leftover := services.Parser.Parse(transcript)
	for _, e := range entries {
		line := fmt.Sprintf("  %s %dx%d", e.Name, e.Sets, e.Reps)
		if e.Weight > 0 {
			line += fmt.Sprintf(" @ %g%s", e.Weight, e.Unit)
		}
		fmt.Println(line)
	}
	if leftover != "" {
		fmt.Printf("  note: %s\n", leftover)
	}

	if services.Store == nil {
		logger.Warn("DATABASE_URL not set; workout not persisted")
		return nil
	}

	now := time.Now()
	if err := services.Store.SaveNote(ctx, domain.VoiceNote{ID: uuid.New(), CreatedAt: now, Transcript: transcript}); err != nil {
		return err
	}
	if len(entries) > 0 || leftover != "" {
		workout := domain.Workout{ID: uuid.New(), PerformedAt: now, Entries: entries, Notes: leftover}
		if err := services.Store.SaveWorkout(ctx, workout); err != nil {
			return err
		}
		logger.Info("workout logged", "entries", len(entries))
	}

	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	services, err := buildForData(cmd.Context())
	if err != nil {
		return err
	}
	defer services.Store.Close()

	workouts, err := services.Store.ListWorkouts(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(workouts) == 0 {
		fmt.Println("No workouts logged yet.")
		return nil
	}

	for _, w := range workouts {
		fmt.Printf("%s\n", w.PerformedAt.Format("2006-01-02 15:04"))
		for _, e := range w.Entries {
			line := fmt.Sprintf("  %s %dx%d", e.Name, e.Sets, e.Reps)
			if e.Weight > 0 {
				line += fmt.Sprintf(" @ %g%s", e.Weight, e.Unit)
			}
			fmt.Println(line)
		}
		if w.Notes != "" {
			fmt.Printf("  note: %s\n", w.Notes)
		}
	}
	return nil
}

func runPlan(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := newLogger(cfg)

	services, err := bootstrap.Build(cmd.Context(), noopSink{}, logger)
	if err != nil {
		return err
	}
	if services.Store != nil {
		defer services.Store.Close()
	}
	if services.Planner == nil {
		return errors.New("OPENAI_API_KEY is required for plan generation")
	}

	prefs := domain.Preferences{}
	var history []domain.Workout
	if services.Store != nil {
		if p, err := services.Store.GetPreferences(cmd.Context()); err == nil {
			prefs = p
		}
		if h, err := services.Store.ListWorkouts(cmd.Context(), 10); err == nil {
			history = h
		}
	}

	plan, err := services.Planner.GeneratePlan(cmd.Context(), prefs, history)
	if err != nil {
		return err
	}

	if plan.Title != "" {
		fmt.Printf("%s\n\n", plan.Title)
	}
	for i, day := range plan.Days {
		fmt.Printf("Day %d: %s\n", i+1, day.Focus)
		for _, e := range day.Exercises {
			line := fmt.Sprintf("  %s %d x %s", e.Name, e.Sets, e.Reps)
			if e.Notes != "" {
				line += fmt.Sprintf(" (%s)", e.Notes)
			}
			fmt.Println(line)
		}
	}
	return nil
}

func runPrefs(cmd *cobra.Command, _ []string) error {
	services, err := buildForData(cmd.Context())
	if err != nil {
		return err
	}
	defer services.Store.Close()

	setting := prefsGoal != "" || prefsExperience != "" || prefsDays > 0 || len(prefsEquipment) > 0
	if setting {
		prefs, err := services.Store.GetPreferences(cmd.Context())
		if err != nil {
			prefs = domain.Preferences{}
		}
		if prefsGoal != "" {
			prefs.Goal = prefsGoal
		}
		if prefsExperience != "" {
			prefs.Experience = prefsExperience
		}
		if prefsDays > 0 {
			prefs.DaysPerWeek = prefsDays
		}
		if len(prefsEquipment) > 0 {
			prefs.Equipment = prefsEquipment
		}
		if err := services.Store.SavePreferences(cmd.Context(), prefs); err != nil {
			return err
		}
		fmt.Println("Preferences saved.")
		return nil
	}

	prefs, err := services.Store.GetPreferences(cmd.Context())
	if err != nil {
		fmt.Println("No preferences saved yet; run fitvoice prefs --goal ... to onboard.")
		return nil
	}
	fmt.Printf("Goal:        %s\n", prefs.Goal)
	fmt.Printf("Experience:  %s\n", prefs.Experience)
	fmt.Printf("Days/week:   %d\n", prefs.DaysPerWeek)
	fmt.Printf("Equipment:   %s\n", strings.Join(prefs.Equipment, ", "))
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg := config.Load()

	fmt.Printf("recorder:        %s (%s/%s)\n", cfg.Audio.RecorderCommand, cfg.Audio.InputFormat, cfg.Audio.InputDevice)
	fmt.Printf("sample rate:     %d Hz, %d channel(s)\n", cfg.Audio.SampleRate, cfg.Audio.Channels)
	fmt.Printf("fallback:        %s\n", cfg.Session.FallbackTimeout)
	fmt.Printf("speech provider: %s\n", onOff(cfg.Deepgram.APIKey != "", "configured", "missing DEEPGRAM_API_KEY"))
	fmt.Printf("workout store:   %s\n", onOff(cfg.Database.URL != "", "configured", "missing DATABASE_URL"))
	fmt.Printf("plan generator:  %s\n", onOff(cfg.OpenAI.APIKey != "", "configured", "missing OPENAI_API_KEY"))
	fmt.Printf("notifications:   %s\n", onOff(cfg.Notify.Enabled, "enabled", "disabled"))
	return nil
}

// buildForData assembles services for commands that only touch the store.
func buildForData(ctx context.Context) (bootstrap.Services, error) {
	cfg := config.Load()
	if cfg.Database.URL == "" {
		return bootstrap.Services{}, errors.New("DATABASE_URL is required for this command")
	}
	return bootstrap.Build(ctx, noopSink{}, newLogger(cfg))
}

func onOff(on bool, yes string, no string) string {
	if on {
		return yes
	}
	return no
}

// consoleSink drives the interactive recording flow: it narrates progress
// and hands the terminal state back to the command.
type consoleSink struct {
	logger   *log.Logger
	terminal chan domain.RecordingState
}

func newConsoleSink(logger *log.Logger) *consoleSink {
	return &consoleSink{logger: logger, terminal: make(chan domain.RecordingState, 1)}
}

func (s *consoleSink) StateChanged(state domain.RecordingState) {
	switch state.Phase {
	case domain.PhaseRecording:
		s.logger.Info("recording; press Enter to stop, Ctrl-C to discard")
	case domain.PhaseProcessing:
		s.logger.Info("transcribing...")
	}
	if state.Terminal() {
		select {
		case s.terminal <- state:
		default:
		}
	}
}

func (s *consoleSink) PartialTranscript(text string) {
	fmt.Printf("\r> %s", text)
}

type noopSink struct{}

func (noopSink) StateChanged(_ domain.RecordingState) {}
func (noopSink) PartialTranscript(_ string)           {}

// multiSink fans session events out to every registered sink.
type multiSink []ports.EventSink

func (m multiSink) StateChanged(state domain.RecordingState) {
	for _, sink := range m {
		sink.StateChanged(state)
	}
}

func (m multiSink) PartialTranscript(text string) {
	for _, sink := range m {
		sink.PartialTranscript(text)
	}
}
