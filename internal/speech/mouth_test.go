package speech

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.LevelOff, io.Discard)
}

// fakeSynth returns the text itself as the "audio".
type fakeSynth struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *fakeSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	if s.err != nil {
		return nil, s.err
	}
	return []byte(text), nil
}

func (s *fakeSynth) Voice() string { return "test-voice" }

func (s *fakeSynth) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// fakeSink records played clips. When gate is set, every Play waits on it.
type fakeSink struct {
	mu      sync.Mutex
	played  []string
	gate    chan struct{}
	started chan string
	stops   int
}

func (s *fakeSink) Play(ctx context.Context, wav []byte) error {
	if s.started != nil {
		s.started <- string(wav)
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.played = append(s.played, string(wav))
	return nil
}

func (s *fakeSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *fakeSink) got() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.played))
	copy(out, s.played)
	return out
}

func startMouth(t *testing.T, synth *fakeSynth, sink *fakeSink, opts ...MouthOption) *Mouth {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := NewMouth(synth, sink, quietLogger(), opts...)
	m.Start(ctx)
	return m
}

func TestSpeakBlocksUntilPlayed(t *testing.T) {
	synth, sink := &fakeSynth{}, &fakeSink{}
	m := startMouth(t, synth, sink)

	if err := m.Speak(context.Background(), "Pour"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if got := sink.got(); len(got) != 1 || got[0] != "Pour" {
		t.Fatalf("played %v", got)
	}
}

func TestSpeakUsesCache(t *testing.T) {
	synth, sink := &fakeSynth{}, &fakeSink{}
	m := startMouth(t, synth, sink)

	for i := 0; i < 3; i++ {
		if err := m.Speak(context.Background(), "Stir"); err != nil {
			t.Fatalf("Speak: %v", err)
		}
	}
	if n := synth.callCount(); n != 1 {
		t.Fatalf("expected 1 synthesis, got %d", n)
	}
	if hits, misses := m.Cache().Stats(); hits != 2 || misses != 1 {
		t.Fatalf("cache stats hits=%d misses=%d", hits, misses)
	}
}

func TestSpeakReturnsSynthesisError(t *testing.T) {
	synth, sink := &fakeSynth{err: errors.New("quota exceeded")}, &fakeSink{}
	m := startMouth(t, synth, sink)

	if err := m.Speak(context.Background(), "Steep"); err == nil {
		t.Fatal("expected synthesis error")
	}
	if len(sink.got()) != 0 {
		t.Fatal("nothing should have played")
	}
}

func TestSpeakWithCancelledContext(t *testing.T) {
	synth, sink := &fakeSynth{}, &fakeSink{}
	m := startMouth(t, synth, sink)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := m.Speak(ctx, "Flip"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Speak = %v, want context.Canceled", err)
	}
	if synth.callCount() != 0 || m.QueueLen() != 0 {
		t.Fatal("cancelled request should never be queued")
	}
}

func TestCancelCutsOffPlayback(t *testing.T) {
	synth := &fakeSynth{}
	sink := &fakeSink{gate: make(chan struct{}), started: make(chan string, 4)}
	m := startMouth(t, synth, sink)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- m.Speak(ctx, "Plunge") }()

	<-sink.started
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Speak = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Speak did not return after cancel")
	}
}

func TestPriorityOrdering(t *testing.T) {
	synth := &fakeSynth{}
	sink := &fakeSink{gate: make(chan struct{}), started: make(chan string, 8)}
	m := startMouth(t, synth, sink)

	m.Say("first", PriorityNormal)
	<-sink.started // "first" is playing and holds the pipeline

	m.Say("reply", PriorityNormal)
	done := make(chan error, 1)
	go func() { done <- m.Speak(context.Background(), "Stir") }()

	// Wait until both are queued.
	deadline := time.Now().Add(time.Second)
	for m.QueueLen() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("requests never queued")
		}
		time.Sleep(time.Millisecond)
	}

	close(sink.gate)
	if err := <-done; err != nil {
		t.Fatalf("Speak: %v", err)
	}
	for len(sink.got()) < 3 {
		time.Sleep(time.Millisecond)
	}

	got := sink.got()
	if got[0] != "first" || got[1] != "Stir" || got[2] != "reply" {
		t.Fatalf("play order = %v, want [first Stir reply]", got)
	}
}

func TestInterruptDropsQueue(t *testing.T) {
	synth := &fakeSynth{}
	sink := &fakeSink{gate: make(chan struct{}), started: make(chan string, 8)}
	m := startMouth(t, synth, sink)

	m.Say("long reply", PriorityNormal)
	<-sink.started

	errc := make(chan error, 1)
	go func() { errc <- m.Speak(context.Background(), "Steep") }()
	for m.QueueLen() == 0 {
		time.Sleep(time.Millisecond)
	}

	m.Interrupt()

	if err := <-errc; !errors.Is(err, ErrInterrupted) {
		t.Fatalf("queued Speak = %v, want ErrInterrupted", err)
	}
	if m.QueueLen() != 0 {
		t.Fatalf("queue not cleared: %d", m.QueueLen())
	}
	sink.mu.Lock()
	stops := sink.stops
	sink.mu.Unlock()
	if stops != 1 {
		t.Fatalf("sink stopped %d times, want 1", stops)
	}
	close(sink.gate)
}

func TestPlayClipSkipsSynthesis(t *testing.T) {
	synth, sink := &fakeSynth{}, &fakeSink{}
	m := startMouth(t, synth, sink)

	if err := m.Play(context.Background(), []byte("ding")); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if synth.callCount() != 0 {
		t.Fatal("clip should not be synthesized")
	}
	if got := sink.got(); len(got) != 1 || got[0] != "ding" {
		t.Fatalf("played %v", got)
	}
}

func TestSplitChunks(t *testing.T) {
	m := NewMouth(&fakeSynth{}, &fakeSink{}, quietLogger(), WithChunkSize(20))

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"short", "Pour.", []string{"Pour."}},
		{"two sentences", "Pour the water. Now stir it well.", []string{"Pour the water.", "Now stir it well."}},
		{"no punctuation", "a very long sentence without any stops", []string{"a very long sentence without any stops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.splitChunks(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("splitChunks(%q) = %q, want %q", tt.text, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLongTextIsChunked(t *testing.T) {
	synth, sink := &fakeSynth{}, &fakeSink{}
	m := startMouth(t, synth, sink, WithChunkSize(20))

	if err := m.Speak(context.Background(), "Pour the water. Now stir it well."); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	got := sink.got()
	if len(got) != 2 || got[0] != "Pour the water." || got[1] != "Now stir it well." {
		t.Fatalf("played %q", got)
	}
}

func TestAnnouncerPlaysChime(t *testing.T) {
	synth, sink := &fakeSynth{}, &fakeSink{}
	m := startMouth(t, synth, sink)

	a := NewAnnouncer(m, true, quietLogger())
	if err := a.PlayCue(context.Background()); err != nil {
		t.Fatalf("PlayCue: %v", err)
	}
	if err := a.Speak(context.Background(), "Done"); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	got := sink.got()
	if len(got) != 2 || got[0] != string(Chime()) || got[1] != "Done" {
		t.Fatalf("unexpected playback (%d clips)", len(got))
	}

	silent := NewAnnouncer(m, false, quietLogger())
	if err := silent.PlayCue(context.Background()); err != nil {
		t.Fatalf("PlayCue: %v", err)
	}
	if len(sink.got()) != 2 {
		t.Fatal("disabled cue played")
	}
}

func TestPrefetchWarmsCache(t *testing.T) {
	synth, sink := &fakeSynth{}, &fakeSink{}
	m := NewMouth(synth, sink, quietLogger())

	m.Prefetch(context.Background(), StageLabels()...)

	deadline := time.Now().Add(time.Second)
	for m.Cache().Len() < len(StageLabels()) {
		if time.Now().After(deadline) {
			t.Fatalf("cache has %d of %d labels", m.Cache().Len(), len(StageLabels()))
		}
		time.Sleep(time.Millisecond)
	}

	m.Prefetch(context.Background(), StageLabels()...)
	time.Sleep(10 * time.Millisecond)
	if n := synth.callCount(); n != len(StageLabels()) {
		t.Fatalf("second prefetch re-synthesized: %d calls", n)
	}
}
