// Package speech provides the audible side of the brew timer: text to
// speech, the completion chime, audio playback and voice commands.
package speech

import (
	"context"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Announcer = (*NoOp)(nil)

// NoOp is an announcer that only logs. Used when speech is disabled or no
// audio device is available.
type NoOp struct {
	log *logger.Logger
}

// NewNoOp creates a silent announcer.
func NewNoOp(log *logger.Logger) *NoOp {
	return &NoOp{log: log}
}

// PlayCue does nothing.
func (n *NoOp) PlayCue(ctx context.Context) error {
	n.log.Debug("speech no-op: cue")
	return nil
}

// Speak does nothing.
func (n *NoOp) Speak(ctx context.Context, text string) error {
	n.log.Debug("speech no-op: would say %q", text)
	return nil
}
