// Package notify surfaces session outcomes as desktop notifications.
package notify

import (
	"github.com/gen2brain/beeep"

	"fitvoice/internal/domain"
)

const appName = "Fitvoice"

// Desktop implements ports.EventSink with system notifications. Delivery
// failures are ignored; notifications are never load-bearing.
type Desktop struct {
	enabled bool
}

func NewDesktop(enabled bool) *Desktop {
	return &Desktop{enabled: enabled}
}

func (n *Desktop) StateChanged(state domain.RecordingState) {
	switch state.Phase {
	case domain.PhaseRecording:
		n.send("Recording", "Speak your workout note")
	case domain.PhaseProcessing:
		n.send("Transcribing", "Finishing up your note")
	case domain.PhaseCompleted:
		if state.Transcript == "" {
			n.send("Done", "Nothing was heard")
			return
		}
		n.send("Done", truncate(state.Transcript, 100))
	case domain.PhaseError:
		n.send("Error", truncate(state.Message, 100))
	}
}

// PartialTranscript is intentionally silent; per-word notifications would be
// unusable.
func (n *Desktop) PartialTranscript(_ string) {}

func (n *Desktop) send(title string, message string) {
	if !n.enabled {
		return
	}
	_ = beeep.Notify(appName+": "+title, message, "")
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
