// Package permissions resolves the capability checks a recording session
// needs. There is no OS-level grant dialog on the desktop; microphone access
// means the recorder binary is runnable, and speech access means the
// recognition provider is configured.
package permissions

import (
	"context"
	"os/exec"
	"strings"

	"fitvoice/internal/domain"
)

// Checker implements ports.PermissionProvider.
type Checker struct {
	recorderCommand string
	speechKey       string
}

func NewChecker(recorderCommand string, speechKey string) *Checker {
	if recorderCommand == "" {
		recorderCommand = "ffmpeg"
	}
	return &Checker{recorderCommand: recorderCommand, speechKey: speechKey}
}

func (c *Checker) RequestMicrophone(_ context.Context) (bool, error) {
	_, err := exec.LookPath(c.recorderCommand)
	return err == nil, nil
}

func (c *Checker) RequestSpeech(_ context.Context) (domain.SpeechAuthStatus, error) {
	if strings.TrimSpace(c.speechKey) == "" {
		return domain.SpeechAuthNotDetermined, nil
	}
	return domain.SpeechAuthAuthorized, nil
}
