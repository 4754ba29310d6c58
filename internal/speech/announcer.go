package speech

import (
	"context"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// Compile-time interface check.
var _ domain.Announcer = (*Announcer)(nil)

// Announcer renders timer transitions through a Mouth: the generated chime
// for the completion cue, synthesized speech for labels.
type Announcer struct {
	mouth *Mouth
	cue   []byte // nil disables the cue
	log   *logger.Logger
}

// NewAnnouncer creates an announcer. With cue false, PlayCue is silent.
func NewAnnouncer(mouth *Mouth, cue bool, log *logger.Logger) *Announcer {
	a := &Announcer{mouth: mouth, log: log}
	if cue {
		a.cue = Chime()
	}
	return a
}

// PlayCue plays the completion chime and waits for it to finish.
func (a *Announcer) PlayCue(ctx context.Context) error {
	if a.cue == nil {
		return nil
	}
	return a.mouth.Play(ctx, a.cue)
}

// Speak says a stage label and waits for it to finish.
func (a *Announcer) Speak(ctx context.Context, text string) error {
	return a.mouth.Speak(ctx, text)
}

// Warm prefetches every label the timer can speak, so announcements play
// without a synthesis round trip.
func (a *Announcer) Warm(ctx context.Context) {
	a.mouth.Prefetch(ctx, StageLabels()...)
	a.log.Debug("announcer: prefetching %d labels", len(StageLabels()))
}
