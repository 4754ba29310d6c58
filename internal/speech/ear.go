package speech

import (
	"context"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	audiotranscriber "github.com/sklyt/whisper/pkg"

	"github.com/hammamikhairi/brewtimer/internal/logger"
)

type earState int

const (
	// earDormant probes short clips for the wake word.
	earDormant earState = iota
	// earListening captures a command after the wake word.
	earListening
)

// Wake phrases, matched case-insensitively anywhere in a transcription.
// Whisper often splits or mishears "brew", hence the variants.
var defaultWakeWords = []string{
	"hey brew",
	"hey, brew",
	"brew timer",
	"hey timer",
	"hey bru",
}

// envAnnotation matches whisper annotations like "(keyboard clicking)".
var envAnnotation = regexp.MustCompile(`[\(\[][a-zA-Z_][a-zA-Z_\s]*[\)\]]`)

// timestampPrefix matches "[00:00:00.000 --> 00:00:02.000]".
var timestampPrefix = regexp.MustCompile(`^\[[0-9:.\s\->]+\]\s*`)

// Whole-utterance hallucinations whisper produces on silence.
var hallucinations = map[string]bool{
	"...":                     true,
	"you":                     true,
	"thank you.":              true,
	"thanks for watching!":    true,
	"thank you for watching.": true,
	"bye.":                    true,
}

// EarOption configures the Ear.
type EarOption func(*Ear)

// WithRecordDuration sets how long each active-listening chunk lasts.
func WithRecordDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.recordDuration = d }
}

// WithDormantDuration sets how long each wake-word probe lasts.
func WithDormantDuration(d time.Duration) EarOption {
	return func(e *Ear) { e.dormantDuration = d }
}

// WithTempDir sets the directory for temporary WAV files.
func WithTempDir(dir string) EarOption {
	return func(e *Ear) { e.tempDir = dir }
}

// WithWakeWords overrides the default wake phrases.
func WithWakeWords(words ...string) EarOption {
	return func(e *Ear) { e.wakeWords = words }
}

// WithListenTimeout caps the active listening window.
func WithListenTimeout(d time.Duration) EarOption {
	return func(e *Ear) { e.listenTimeout = d }
}

// Ear turns speech into command text using a local Whisper model.
//
// It idles in a dormant loop recording short clips until it hears a wake
// phrase. A command in the same breath ("hey brew, start") is delivered at
// once; otherwise it acknowledges and records until the user goes quiet.
// While the Mouth is speaking nothing is recorded, so announcements are
// never transcribed as commands.
type Ear struct {
	whisperBin string
	modelPath  string
	tempDir    string
	log        *logger.Logger
	mouth      *Mouth // optional

	wakeWords       []string
	recordDuration  time.Duration
	dormantDuration time.Duration
	listenTimeout   time.Duration

	mu     sync.Mutex
	state  earState
	textCh chan string
}

// NewEar creates a voice command listener.
func NewEar(whisperBin, modelPath string, mouth *Mouth, log *logger.Logger, opts ...EarOption) *Ear {
	e := &Ear{
		whisperBin:      whisperBin,
		modelPath:       modelPath,
		tempDir:         ".brewtimer-stt",
		log:             log,
		mouth:           mouth,
		wakeWords:       defaultWakeWords,
		recordDuration:  2 * time.Second,
		dormantDuration: 3 * time.Second,
		listenTimeout:   10 * time.Second,
		state:           earDormant,
		textCh:          make(chan string, 4),
	}
	for _, opt := range opts {
		opt(e)
	}

	if _, err := exec.LookPath(e.whisperBin); err != nil {
		log.Error("ear: whisper binary %q not found in PATH: %v", e.whisperBin, err)
	}
	return e
}

// C returns the channel of recognized command text.
func (e *Ear) C() <-chan string {
	return e.textCh
}

// Run listens until ctx is cancelled. Call it in a goroutine.
func (e *Ear) Run(ctx context.Context) {
	e.log.Info("ear: started (probe=%s, chunk=%s, wake=%v)", e.dormantDuration, e.recordDuration, e.wakeWords)

	for ctx.Err() == nil {
		if e.mouthBusy() {
			sleepCtx(ctx, 200*time.Millisecond)
			continue
		}

		switch e.getState() {
		case earDormant:
			e.doDormant(ctx)
		case earListening:
			e.doListening(ctx)
		}
	}
	e.log.Info("ear: stopped")
}

func (e *Ear) getState() earState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Ear) setState(s earState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Ear) mouthBusy() bool {
	return e.mouth != nil && (e.mouth.IsSpeaking() || e.mouth.QueueLen() > 0)
}

func (e *Ear) doDormant(ctx context.Context) {
	text := cleanTranscription(e.recordChunk(ctx, e.dormantDuration))
	if e.mouthBusy() {
		// The clip overlaps our own output.
		return
	}
	if text == "" {
		return
	}
	e.log.Debug("ear/dormant: heard %q", text)

	rest, ok := e.stripWakeWord(text)
	if !ok {
		return
	}
	e.log.Info("ear: wake word in %q", text)

	if e.mouth != nil {
		e.mouth.Interrupt()
	}

	if rest = cleanTranscription(rest); rest != "" {
		e.deliver(ctx, rest)
		return
	}

	if e.mouth != nil {
		e.mouth.Say(LineListening(), PriorityHigh)
	}
	e.setState(earListening)
}

// doListening records chunks until silence or the listen timeout, then
// delivers the joined text.
func (e *Ear) doListening(ctx context.Context) {
	defer e.setState(earDormant)

	for e.mouthBusy() && ctx.Err() == nil {
		sleepCtx(ctx, 100*time.Millisecond)
	}

	// Before the user starts talking, allow more silence.
	const graceEmpty = 3
	const postSpeechEmpty = 1

	deadline := time.Now().Add(e.listenTimeout)
	var parts []string
	empty := 0
	for ctx.Err() == nil && time.Now().Before(deadline) {
		chunk := cleanTranscription(e.recordChunk(ctx, e.recordDuration))
		if chunk == "" {
			empty++
			limit := graceEmpty
			if len(parts) > 0 {
				limit = postSpeechEmpty
			}
			if empty >= limit {
				break
			}
			continue
		}
		empty = 0
		if chunk = e.removeWakeWords(chunk); chunk != "" {
			parts = append(parts, chunk)
		}
	}

	if cmd := strings.TrimSpace(strings.Join(parts, " ")); cmd != "" {
		e.deliver(ctx, cmd)
	} else {
		e.log.Debug("ear: listening ended with no input")
	}
}

func (e *Ear) deliver(ctx context.Context, text string) {
	e.log.Info("ear: heard command %q", text)
	select {
	case e.textCh <- text:
	case <-ctx.Done():
	}
}

// stripWakeWord reports whether text contains a wake phrase and returns
// what follows it.
func (e *Ear) stripWakeWord(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range e.wakeWords {
		idx := strings.Index(lower, strings.ToLower(w))
		if idx < 0 {
			continue
		}
		rest := text[idx+len(w):]
		return strings.TrimLeft(rest, " ,.!?\t\r\n"), true
	}
	return "", false
}

// removeWakeWords deletes repeated wake phrases from a command chunk.
func (e *Ear) removeWakeWords(text string) string {
	lower := strings.ToLower(text)
	for _, w := range e.wakeWords {
		lower = strings.ReplaceAll(lower, strings.ToLower(w), "")
	}
	return strings.Trim(lower, " ,.!?")
}

// recordChunk records for duration and returns the transcription.
func (e *Ear) recordChunk(ctx context.Context, duration time.Duration) string {
	var result string
	var wg sync.WaitGroup
	wg.Add(1)

	callback := func(text string) {
		result = text
		wg.Done()
	}

	verbose := e.log.GetLevel() >= logger.LevelVerbose
	t, err := audiotranscriber.NewTranscriber(e.whisperBin, e.modelPath, e.tempDir, "wav", callback, verbose)
	if err != nil {
		e.log.Error("ear: transcriber init failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}
	if err := t.Start(); err != nil {
		e.log.Error("ear: recording start failed: %v", err)
		sleepCtx(ctx, 2*time.Second)
		return ""
	}

	sleepCtx(ctx, duration)
	t.Stop()
	wg.Wait()

	if ctx.Err() != nil {
		return ""
	}
	return result
}

// cleanTranscription normalizes whisper output: newlines, timestamps,
// [BLANK_AUDIO] style annotations and known silence hallucinations.
func cleanTranscription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = timestampPrefix.ReplaceAllString(s, "")
	s = envAnnotation.ReplaceAllString(s, "")
	s = strings.Join(strings.Fields(s), " ")

	if hallucinations[strings.ToLower(s)] {
		return ""
	}
	if strings.Trim(s, " ,.!?") == "" {
		return ""
	}
	return s
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
