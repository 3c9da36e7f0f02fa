package domain

import (
	"time"

	"github.com/google/uuid"
)

// RecordingPhase tags the transcription session lifecycle.
type RecordingPhase string

const (
	PhaseIdle       RecordingPhase = "idle"
	PhaseRecording  RecordingPhase = "recording"
	PhaseProcessing RecordingPhase = "processing"
	PhaseCompleted  RecordingPhase = "completed"
	PhaseError      RecordingPhase = "error"
)

// RecordingState is the session's observable state. Completed carries the
// finalized transcript, Error carries a human-readable reason; the other
// phases carry no payload. Values are comparable, so terminal states compare
// by payload and the rest by tag alone.
type RecordingState struct {
	Phase      RecordingPhase `json:"phase"`
	Transcript string         `json:"transcript,omitempty"`
	Message    string         `json:"message,omitempty"`
}

func Idle() RecordingState       { return RecordingState{Phase: PhaseIdle} }
func Recording() RecordingState  { return RecordingState{Phase: PhaseRecording} }
func Processing() RecordingState { return RecordingState{Phase: PhaseProcessing} }

// Completed builds the terminal success state. An empty transcript is a
// legitimate outcome of a short or silent recording.
func Completed(transcript string) RecordingState {
	return RecordingState{Phase: PhaseCompleted, Transcript: transcript}
}

// Errored builds the terminal failure state.
func Errored(message string) RecordingState {
	return RecordingState{Phase: PhaseError, Message: message}
}

// Terminal reports whether the session has reached a final outcome.
func (s RecordingState) Terminal() bool {
	return s.Phase == PhaseCompleted || s.Phase == PhaseError
}

// SpeechAuthStatus mirrors the platform speech-permission grant levels.
type SpeechAuthStatus string

const (
	SpeechAuthAuthorized    SpeechAuthStatus = "authorized"
	SpeechAuthDenied        SpeechAuthStatus = "denied"
	SpeechAuthRestricted    SpeechAuthStatus = "restricted"
	SpeechAuthNotDetermined SpeechAuthStatus = "not_determined"
)

// RecognitionResult is one callback from a recognition task: a partial or
// final transcript, or a recognizer error. A task emits zero or more partials
// and at most one terminal result.
type RecognitionResult struct {
	Text  string
	Final bool
	Err   error
}

// ExerciseEntry is one structured exercise parsed from a spoken note.
type ExerciseEntry struct {
	Name   string  `json:"name"`
	Sets   int     `json:"sets"`
	Reps   int     `json:"reps"`
	Weight float64 `json:"weight,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

// Workout is one logged training session.
type Workout struct {
	ID          uuid.UUID       `json:"id"`
	PerformedAt time.Time       `json:"performedAt"`
	Entries     []ExerciseEntry `json:"entries"`
	Notes       string          `json:"notes,omitempty"`
}

// VoiceNote keeps the raw transcript a workout was parsed from.
type VoiceNote struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"createdAt"`
	Transcript string    `json:"transcript"`
}

// Preferences holds the onboarding answers plan generation works from.
type Preferences struct {
	Goal        string   `json:"goal"`
	Experience  string   `json:"experience"`
	DaysPerWeek int      `json:"daysPerWeek"`
	Equipment   []string `json:"equipment"`
}

// WorkoutPlan is a generated multi-day training plan.
type WorkoutPlan struct {
	Title string    `json:"title"`
	Days  []PlanDay `json:"days"`
}

type PlanDay struct {
	Focus     string            `json:"focus"`
	Exercises []PlannedExercise `json:"exercises"`
}

type PlannedExercise struct {
	Name  string `json:"name"`
	Sets  int    `json:"sets"`
	Reps  string `json:"reps"`
	Notes string `json:"notes,omitempty"`
}
