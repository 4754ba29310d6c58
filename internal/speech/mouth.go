package speech

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// ErrInterrupted is returned to callers whose request was dropped by Interrupt.
var ErrInterrupted = errors.New("speech interrupted")

// Synthesizer turns text into a WAV clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Voice() string
}

// Sink plays WAV clips.
type Sink interface {
	Play(ctx context.Context, wav []byte) error
	Stop()
}

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithChunkSize sets the approximate max character count per TTS chunk.
// Longer text is split at sentence boundaries and synthesized in parallel.
func WithChunkSize(n int) MouthOption {
	return func(m *Mouth) {
		m.chunkSize = n
	}
}

// WithCacheDir sets the directory for the persistent audio cache. Empty
// keeps the cache in memory only.
func WithCacheDir(dir string) MouthOption {
	return func(m *Mouth) {
		m.cacheDir = dir
	}
}

// WithDiskWrite controls whether new cache entries are written to disk.
func WithDiskWrite(enabled bool) MouthOption {
	return func(m *Mouth) {
		m.diskWrite = enabled
	}
}

// request is one queued utterance or clip.
type request struct {
	ctx      context.Context
	text     string
	audio    []byte // pre-rendered clip; skips synthesis
	priority Priority
	queuedAt time.Time
	done     chan error // buffered; nil for fire-and-forget
}

// Mouth serializes all audio output through one pipeline:
// queue -> chunk -> synthesize (parallel) -> play (sequential). Only one
// thing plays at a time; higher priority requests go first.
type Mouth struct {
	tts   Synthesizer
	sink  Sink
	log   *logger.Logger
	cache *AudioCache

	chunkSize int
	cacheDir  string
	diskWrite bool

	mu          sync.Mutex
	queue       []*request
	notify      chan struct{}
	speaking    bool
	interrupted bool // checked between chunks
}

// NewMouth creates a speech dispatcher. Call Start before queueing.
func NewMouth(tts Synthesizer, sink Sink, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		tts:       tts,
		sink:      sink,
		log:       log,
		notify:    make(chan struct{}, 1),
		chunkSize: 200,
		diskWrite: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.cache = NewAudioCache(tts.Voice(), m.cacheDir, m.diskWrite, log)
	return m
}

// Start begins the processing goroutine. Non-blocking.
func (m *Mouth) Start(ctx context.Context) {
	go m.processLoop(ctx)
	m.log.Info("mouth started (voice=%s)", m.tts.Voice())
}

// Say queues text without waiting for it.
func (m *Mouth) Say(text string, priority Priority) {
	m.enqueue(&request{ctx: context.Background(), text: text, priority: priority})
}

// Speak says text at high priority and blocks until it has been played,
// failed, or ctx is done. A cancelled request still in the queue is
// withdrawn; one already playing is cut off.
func (m *Mouth) Speak(ctx context.Context, text string) error {
	return m.await(ctx, &request{ctx: ctx, text: text, priority: PriorityHigh, done: make(chan error, 1)})
}

// Play plays a pre-rendered clip at high priority and blocks like Speak.
func (m *Mouth) Play(ctx context.Context, wav []byte) error {
	return m.await(ctx, &request{ctx: ctx, audio: wav, priority: PriorityHigh, done: make(chan error, 1)})
}

func (m *Mouth) await(ctx context.Context, r *request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.enqueue(r)
	select {
	case err := <-r.done:
		return err
	case <-ctx.Done():
		m.withdraw(r)
		return ctx.Err()
	}
}

func (m *Mouth) enqueue(r *request) {
	r.queuedAt = time.Now()
	m.mu.Lock()
	m.queue = append(m.queue, r)
	qLen := len(m.queue)
	m.mu.Unlock()

	m.log.Debug("mouth: queued (priority=%d, queue_len=%d): %s", r.priority, qLen, r.describe())

	select {
	case m.notify <- struct{}{}:
	default: // already signaled
	}
}

// withdraw removes r if it has not been picked up yet.
func (m *Mouth) withdraw(r *request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, q := range m.queue {
		if q == r {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			return
		}
	}
}

// IsSpeaking reports whether audio is being synthesized or played.
func (m *Mouth) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// QueueLen returns the number of pending requests.
func (m *Mouth) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Interrupt stops playback and drops everything queued. Blocked callers
// get ErrInterrupted.
func (m *Mouth) Interrupt() {
	m.mu.Lock()
	dropped := m.queue
	m.queue = nil
	m.interrupted = true
	m.mu.Unlock()

	for _, r := range dropped {
		r.finish(ErrInterrupted)
	}
	m.sink.Stop()
	m.log.Debug("mouth: interrupted, dropped %d queued", len(dropped))
}

func (m *Mouth) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.log.Info("mouth stopped")
			return
		case <-m.notify:
			m.drain(ctx)
		}
	}
}

// drain processes queued requests, highest priority first.
func (m *Mouth) drain(ctx context.Context) {
	for ctx.Err() == nil {
		m.mu.Lock()
		m.interrupted = false
		r, ok := m.dequeueLocked()
		if ok {
			m.speaking = true
		}
		m.mu.Unlock()
		if !ok {
			return
		}

		r.finish(m.process(r))

		m.mu.Lock()
		m.speaking = false
		m.mu.Unlock()
	}
}

// dequeueLocked pops the oldest request of the highest priority.
func (m *Mouth) dequeueLocked() (*request, bool) {
	if len(m.queue) == 0 {
		return nil, false
	}
	best := 0
	for i, r := range m.queue {
		if r.priority > m.queue[best].priority {
			best = i
		}
	}
	r := m.queue[best]
	m.queue = append(m.queue[:best], m.queue[best+1:]...)
	return r, true
}

func (m *Mouth) process(r *request) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	m.log.Debug("mouth: playing (waited=%s): %s", time.Since(r.queuedAt).Round(time.Millisecond), r.describe())

	if r.audio != nil {
		return m.sink.Play(r.ctx, r.audio)
	}

	chunks := m.splitChunks(r.text)
	if len(chunks) <= 1 {
		audio, err := m.synthesizeWithCache(r.ctx, r.text)
		if err != nil {
			return err
		}
		return m.sink.Play(r.ctx, audio)
	}

	m.log.Debug("mouth: split into %d chunks for parallel synthesis", len(chunks))

	type result struct {
		idx   int
		audio []byte
		err   error
	}
	results := make(chan result, len(chunks))
	for i, chunk := range chunks {
		go func(idx int, text string) {
			audio, err := m.synthesizeWithCache(r.ctx, text)
			results <- result{idx: idx, audio: audio, err: err}
		}(i, chunk)
	}

	slots := make([][]byte, len(chunks))
	var firstErr error
	for range chunks {
		res := <-results
		if res.err != nil {
			m.log.Error("mouth: chunk %d synthesis failed: %v", res.idx, res.err)
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		slots[res.idx] = res.audio
	}

	for _, audio := range slots {
		if audio == nil {
			continue
		}
		if err := r.ctx.Err(); err != nil {
			return err
		}
		if m.isInterrupted() {
			return ErrInterrupted
		}
		if err := m.sink.Play(r.ctx, audio); err != nil {
			return err
		}
	}
	return firstErr
}

func (m *Mouth) isInterrupted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interrupted
}

// synthesizeWithCache checks the cache first, otherwise synthesizes and
// stores the result.
func (m *Mouth) synthesizeWithCache(ctx context.Context, text string) ([]byte, error) {
	if audio, ok := m.cache.Get(text); ok {
		return audio, nil
	}
	audio, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	m.cache.Put(text, audio)
	return audio, nil
}

// Prefetch synthesizes texts in the background so they play without a
// network round trip later. Already-cached texts are skipped.
func (m *Mouth) Prefetch(ctx context.Context, texts ...string) {
	for _, text := range texts {
		if text == "" {
			continue
		}
		for _, chunk := range m.splitChunks(text) {
			if m.cache.Has(chunk) {
				continue
			}
			go func(t string) {
				audio, err := m.tts.Synthesize(ctx, t)
				if err != nil {
					m.log.Warn("prefetch: synthesis failed for %q: %v", truncate(t, 40), err)
					return
				}
				m.cache.Put(t, audio)
				m.log.Debug("prefetch: cached %d bytes for %q", len(audio), truncate(t, 40))
			}(chunk)
		}
	}
}

// Cache returns the audio cache used by this Mouth.
func (m *Mouth) Cache() *AudioCache { return m.cache }

// splitChunks breaks text into sentence-boundary chunks of roughly
// chunkSize characters.
func (m *Mouth) splitChunks(text string) []string {
	if m.chunkSize <= 0 || len(text) <= m.chunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, s := range splitSentences(text) {
		if current.Len() > 0 && current.Len()+len(s) > m.chunkSize {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
		current.WriteString(s)
	}
	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// splitSentences splits at . ! ? keeping the punctuation and trailing
// whitespace with the preceding sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '!' || runes[i] == '?' {
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
				current.WriteRune(runes[i])
			}
			sentences = append(sentences, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}
	return sentences
}

func (r *request) finish(err error) {
	if r.done != nil {
		r.done <- err
	}
}

func (r *request) describe() string {
	if r.audio != nil {
		return "<clip>"
	}
	return truncate(r.text, 60)
}

// truncate shortens a string for logging.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
