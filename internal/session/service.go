package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"fitvoice/internal/domain"
	"fitvoice/internal/ports"
)

// DefaultFallbackTimeout bounds how long a stopped session waits for a final
// recognition result before completing with the last cached partial.
const DefaultFallbackTimeout = 2 * time.Second

// Config controls recording session behavior.
type Config struct {
	Audio           ports.AudioConfig
	Recognition     ports.RecognitionConfig
	ChunkSize       int
	FallbackTimeout time.Duration
}

// Service owns one audio-capture plus speech-recognition cycle end to end.
// Callers drive it with RequestPermissions/Start/Stop/Cancel and observe it
// purely through RecordingState. Every transition funnels through the
// service mutex, and a generation counter turns callbacks from torn-down
// sessions into no-ops, so late recognizer results can never corrupt a
// newer session.
type Service struct {
	perms      ports.PermissionProvider
	audio      ports.AudioCapture
	recognizer ports.SpeechRecognizer
	events     ports.EventSink
	cfg        Config
	logger     *log.Logger

	mu            sync.Mutex
	state         domain.RecordingState
	hasPermission bool
	latestPartial string
	generation    int
	active        *capture
}

// capture bundles the exclusively-owned handles of one recording session.
type capture struct {
	audio ports.AudioSession
	task  ports.RecognitionTask

	finalizeOnce sync.Once
	pumpDone     chan struct{}
}

// finalize tears down the recognition task and deactivates audio capture.
// Safe to call from any completion path; second and later calls are no-ops.
func (c *capture) finalize() {
	c.finalizeOnce.Do(func() {
		c.task.Cancel()
		_ = c.audio.Close()
	})
}

func New(
	perms ports.PermissionProvider,
	audio ports.AudioCapture,
	recognizer ports.SpeechRecognizer,
	events ports.EventSink,
	cfg Config,
	logger *log.Logger,
) *Service {
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = DefaultFallbackTimeout
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Service{
		perms:      perms,
		audio:      audio,
		recognizer: recognizer,
		events:     events,
		cfg:        cfg,
		logger:     logger,
		state:      domain.Idle(),
	}

	go s.watchAvailability()

	return s
}

// State returns the current session state.
func (s *Service) State() domain.RecordingState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RequestPermissions asks for microphone and speech-recognition access and
// caches the combined outcome. Idempotent; an in-progress recording is never
// disturbed, but a denial outside a session surfaces as an Error state.
func (s *Service) RequestPermissions(ctx context.Context) {
	mic, err := s.perms.RequestMicrophone(ctx)
	if err != nil {
		s.logger.Warn("microphone permission request failed", "err", err)
		mic = false
	}
	speech, err := s.perms.RequestSpeech(ctx)
	if err != nil {
		s.logger.Warn("speech permission request failed", "err", err)
		speech = domain.SpeechAuthDenied
	}
	granted := mic && speech == domain.SpeechAuthAuthorized

	s.mu.Lock()
	s.hasPermission = granted
	recording := s.active != nil
	var emit *domain.RecordingState
	if !granted && !recording {
		st := domain.Errored("microphone and speech recognition permissions required")
		if s.state != st {
			s.state = st
			emit = &st
		}
	}
	s.mu.Unlock()

	if emit != nil {
		s.emitState(*emit)
	}
}

// Start begins a new capture/recognition session, tearing down any previous
// one first so two capture streams are never open at once.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	granted := s.hasPermission
	s.mu.Unlock()

	if !granted {
		s.RequestPermissions(ctx)
		s.mu.Lock()
		granted = s.hasPermission
		s.mu.Unlock()
		if !granted {
			return
		}
	}

	if !s.recognizer.Available() {
		s.transition(domain.Errored("speech recognition not available"))
		return
	}

	s.teardownActive()

	task, err := s.recognizer.Recognize(ctx, s.cfg.Recognition)
	if err != nil {
		s.transition(domain.Errored(fmt.Sprintf("recognition setup failed: %v", err)))
		return
	}

	audioSession, err := s.audio.Start(ctx, s.cfg.Audio)
	if err != nil {
		task.Cancel()
		s.transition(domain.Errored(fmt.Sprintf("audio capture setup failed: %v", err)))
		return
	}

	active := &capture{
		audio:    audioSession,
		task:     task,
		pumpDone: make(chan struct{}),
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.active = active
	s.latestPartial = ""
	st := domain.Recording()
	s.state = st
	s.mu.Unlock()

	go pumpAudio(audioSession, task, s.cfg.ChunkSize, active.pumpDone)
	go s.consumeResults(gen, active)

	s.logger.Debug("recording started", "generation", gen)
	s.emitState(st)
}

// Stop ends audio capture and waits for the recognizer to deliver its final
// transcript. The recognition task is deliberately left running so buffered
// audio can still improve the result; a fallback timer bounds the wait.
func (s *Service) Stop() {
	s.mu.Lock()
	active := s.active
	if active == nil || s.state.Phase != domain.PhaseRecording {
		s.mu.Unlock()
		return
	}
	gen := s.generation
	st := domain.Processing()
	s.state = st
	s.mu.Unlock()

	s.emitState(st)

	if err := active.audio.Stop(); err != nil {
		s.logger.Warn("audio capture did not stop cleanly", "err", err)
	}
	if err := active.task.EndAudio(); err != nil {
		s.logger.Warn("could not signal end of audio", "err", err)
	}

	time.AfterFunc(s.cfg.FallbackTimeout, func() {
		s.fallbackComplete(gen, active)
	})
}

// Cancel discards the session outright: handles are finalized and the state
// returns to Idle regardless of any cached transcript.
func (s *Service) Cancel() {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.generation++
	s.latestPartial = ""
	st := domain.Idle()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()

	if active != nil {
		_ = active.audio.Stop()
		_ = active.task.EndAudio()
		active.finalize()
	}
	if changed {
		s.emitState(st)
	}
}

// teardownActive closes the previous session's capture stream and recognition
// task before a fresh one starts.
func (s *Service) teardownActive() {
	s.mu.Lock()
	previous := s.active
	if previous != nil {
		s.active = nil
		s.generation++
	}
	s.mu.Unlock()

	if previous == nil {
		return
	}

	s.logger.Debug("restarting: discarding previous capture session")
	_ = previous.audio.Stop()
	_ = previous.task.EndAudio()
	previous.finalize()
}

// consumeResults drains one task's result channel and applies each callback
// against the current state. It is the only reader of the channel.
func (s *Service) consumeResults(gen int, active *capture) {
	for res := range active.task.Results() {
		if res.Err != nil {
			s.handleRecognitionError(gen, active, res.Err)
			continue
		}
		s.handleResult(gen, active, res.Text, res.Final)
	}
}

func (s *Service) handleResult(gen int, active *capture, text string, final bool) {
	trimmed := strings.TrimSpace(text)

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		active.finalize()
		return
	}

	if trimmed != "" {
		s.latestPartial = trimmed
	}

	if !final {
		s.mu.Unlock()
		if trimmed != "" {
			s.events.PartialTranscript(trimmed)
		}
		return
	}

	// A final result only completes the session once the user has stopped;
	// recognizers can declare spurious finals mid-recording, so those are
	// cached and otherwise ignored.
	if s.state.Phase != domain.PhaseProcessing {
		s.mu.Unlock()
		return
	}

	st := domain.Completed(trimmed)
	s.state = st
	s.active = nil
	s.generation++
	s.mu.Unlock()

	active.finalize()
	s.logger.Debug("final transcript received", "len", len(trimmed))
	s.emitState(st)
}

func (s *Service) handleRecognitionError(gen int, active *capture, err error) {
	s.mu.Lock()
	if gen != s.generation || s.state.Phase == domain.PhaseCompleted || s.state.Phase == domain.PhaseIdle {
		// Stale error from an already-settled session.
		s.mu.Unlock()
		active.finalize()
		return
	}

	var st domain.RecordingState
	if isNoSpeechErr(err) {
		st = domain.Completed(strings.TrimSpace(s.latestPartial))
	} else {
		st = domain.Errored("recognition failed: " + err.Error())
	}
	s.state = st
	s.active = nil
	s.generation++
	s.mu.Unlock()

	active.finalize()
	if st.Phase == domain.PhaseError {
		s.logger.Error("recognition failed", "err", err)
	}
	s.emitState(st)
}

// fallbackComplete forces completion with the last cached partial when no
// final result arrived in time. The still-Processing guard makes the timer
// harmless once any other path has settled the session.
func (s *Service) fallbackComplete(gen int, active *capture) {
	s.mu.Lock()
	if gen != s.generation || s.state.Phase != domain.PhaseProcessing {
		s.mu.Unlock()
		return
	}
	st := domain.Completed(strings.TrimSpace(s.latestPartial))
	s.state = st
	s.active = nil
	s.generation++
	s.mu.Unlock()

	active.finalize()
	s.logger.Debug("fallback completion", "transcript", st.Transcript)
	s.emitState(st)
}

// watchAvailability reacts to the recognizer dropping out mid-recording.
func (s *Service) watchAvailability() {
	changes := s.recognizer.Availability()
	if changes == nil {
		return
	}
	for available := range changes {
		if available {
			continue
		}
		s.mu.Lock()
		if s.state.Phase != domain.PhaseRecording {
			s.mu.Unlock()
			continue
		}
		active := s.active
		s.active = nil
		s.generation++
		st := domain.Errored("speech recognition became unavailable")
		s.state = st
		s.mu.Unlock()

		if active != nil {
			_ = active.audio.Stop()
			active.finalize()
		}
		s.emitState(st)
	}
}

// transition applies a state outside the normal session paths (setup
// failures, availability checks).
func (s *Service) transition(st domain.RecordingState) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	s.mu.Unlock()
	if changed {
		s.emitState(st)
	}
}

func (s *Service) emitState(st domain.RecordingState) {
	if st.Phase == domain.PhaseError {
		s.logger.Warn("session error", "message", st.Message)
	}
	s.events.StateChanged(st)
}

func isNoSpeechErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "no speech") || strings.Contains(msg, "no audio")
}
