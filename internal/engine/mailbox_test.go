package engine

import (
	"context"
	"testing"
)

type panickyAnnouncer struct{ recordingAnnouncer }

func (a *panickyAnnouncer) PlayCue(ctx context.Context) error {
	panic("driver crashed")
}

func TestMailboxPreservesOrder(t *testing.T) {
	ann := &recordingAnnouncer{}
	m := newMailbox(ann, quietLogger())
	ctx := context.Background()

	m.post(announcement{ctx: ctx, label: "Pour"})
	m.post(announcement{ctx: ctx, cue: true, label: "Stir"})
	m.post(announcement{ctx: ctx, cue: true})
	m.waitIdle()

	assertCalls(t, ann.got(), []string{"speak:Pour", "cue", "speak:Stir", "cue"})
}

func TestMailboxSkipsCancelledRuns(t *testing.T) {
	ann := &recordingAnnouncer{}
	m := newMailbox(ann, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m.post(announcement{ctx: ctx, cue: true, label: "Stir"})
	m.post(announcement{ctx: context.Background(), label: "Pour"})
	m.waitIdle()

	assertCalls(t, ann.got(), []string{"speak:Pour"})
}

func TestMailboxRecoversFromPanic(t *testing.T) {
	ann := &panickyAnnouncer{}
	m := newMailbox(ann, quietLogger())
	ctx := context.Background()

	m.post(announcement{ctx: ctx, cue: true, label: "Stir"})
	m.post(announcement{ctx: ctx, label: "Steep"})
	m.waitIdle()

	// The panicking render loses its label; the next one still plays.
	assertCalls(t, ann.got(), []string{"speak:Steep"})
}

func TestMailboxWaitIdleWhenEmpty(t *testing.T) {
	m := newMailbox(silentAnnouncer{}, quietLogger())
	m.waitIdle()
}
