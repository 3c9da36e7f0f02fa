package ports

import (
	"context"
	"io"

	"fitvoice/internal/domain"
)

// AudioConfig describes how the microphone should be captured.
type AudioConfig struct {
	SampleRate  int
	Channels    int
	InputFormat string
	InputDevice string
}

// AudioSession is a live capture stream.
type AudioSession interface {
	io.ReadCloser
	Stop() error
}

// AudioCapture opens microphone capture streams.
type AudioCapture interface {
	Start(ctx context.Context, cfg AudioConfig) (AudioSession, error)
}

// PermissionProvider resolves the two capability grants a recording session
// needs. Each call resolves exactly once.
type PermissionProvider interface {
	RequestMicrophone(ctx context.Context) (bool, error)
	RequestSpeech(ctx context.Context) (domain.SpeechAuthStatus, error)
}

// RecognitionConfig describes provider-agnostic recognition settings.
type RecognitionConfig struct {
	SampleRate     int
	Channels       int
	Encoding       string
	Language       string
	PartialResults bool
}

// RecognitionTask is one live recognition exchange: audio chunks in, zero or
// more partial results and at most one terminal result out. Results is
// closed once the task is finished; Cancel suppresses further results.
type RecognitionTask interface {
	SendAudio(chunk []byte) error
	EndAudio() error
	Cancel()
	Results() <-chan domain.RecognitionResult
}

// SpeechRecognizer starts recognition tasks and reports availability.
// Availability may return nil when the provider has no push notification for
// availability changes.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, cfg RecognitionConfig) (RecognitionTask, error)
	Available() bool
	Availability() <-chan bool
}

// EventSink receives session observations for the user-facing surface.
type EventSink interface {
	StateChanged(state domain.RecordingState)
	PartialTranscript(text string)
}

// WorkoutStore persists workout history, voice notes, and preferences.
type WorkoutStore interface {
	SaveWorkout(ctx context.Context, w domain.Workout) error
	ListWorkouts(ctx context.Context, limit int) ([]domain.Workout, error)
	SaveNote(ctx context.Context, n domain.VoiceNote) error
	RecentNotes(ctx context.Context, limit int) ([]domain.VoiceNote, error)
	SavePreferences(ctx context.Context, p domain.Preferences) error
	GetPreferences(ctx context.Context) (domain.Preferences, error)
	Close()
}

// PlanGenerator produces a workout plan from preferences and history.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, prefs domain.Preferences, history []domain.Workout) (domain.WorkoutPlan, error)
}
