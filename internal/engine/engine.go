// Package engine implements the brew timer: a state machine that walks a
// recipe's ordered steps on a wall-clock schedule, publishes remaining
// time and progress for display, and announces every transition once.
//
// All state lives behind one mutex. Scheduled callbacks capture the run
// generation and the step they belong to and discard themselves when
// either has moved on, so a completion racing with Cancel is a no-op.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
	"github.com/hammamikhairi/brewtimer/internal/timer"
)

// DefaultTickInterval is the cadence of progress updates (20 Hz).
const DefaultTickInterval = 50 * time.Millisecond

// doneLabel is spoken when the last step completes.
const doneLabel = "Done"

// Option configures the engine.
type Option func(*Engine)

// WithClock replaces the wall clock. Tests pass a *timer.Fake.
func WithClock(c timer.Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithTickInterval sets how often remaining time and progress are recomputed.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tickInterval = d
		}
	}
}

// WithAnnouncer sets the port that plays the cue and speaks stage labels.
func WithAnnouncer(a domain.Announcer) Option {
	return func(e *Engine) {
		e.announcer = a
	}
}

// WithStartNotifier sets the hook told about every started run.
func WithStartNotifier(n domain.StartNotifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithStrict makes misuse (starting twice, advancing past done) panic
// instead of returning an error. Meant for tests and debug runs.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// Engine runs one recipe. It is owned by a single session and may be
// started again after Cancel.
type Engine struct {
	recipe       domain.Recipe
	steps        []domain.Step
	clock        timer.Clock
	log          *logger.Logger
	announcer    domain.Announcer
	notifier     domain.StartNotifier
	tickInterval time.Duration
	strict       bool
	mail         *mailbox

	mu         sync.Mutex
	gen        uint64 // bumped on every start and cancel
	runID      string
	stage      Stage
	deadline   time.Time
	duration   time.Duration
	remaining  time.Duration
	progress   float64
	completion timer.Timer // one-shot for the current step
	ticker     timer.Timer // shared by every step of a run
	runCtx     context.Context
	runCancel  context.CancelFunc
	stopWatch  func() bool // unregisters the session-end hook
	closed     bool
	subs       []chan Event
}

// New creates an engine bound to the recipe's steps. The step list is
// copied; later changes to recipe do not affect the engine.
func New(recipe *domain.Recipe, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		recipe:       *recipe,
		clock:        timer.System,
		log:          log.Named("engine"),
		announcer:    silentAnnouncer{},
		tickInterval: DefaultTickInterval,
		stage:        GetReady(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.steps = make([]domain.Step, len(recipe.Steps))
	copy(e.steps, recipe.Steps)
	for i := range e.steps {
		if e.steps[i].Duration < 0 {
			e.log.Warn("step %d of %q has negative duration %s, using 0", i, recipe.ID, e.steps[i].Duration)
			e.steps[i].Duration = 0
		}
	}
	e.recipe.Steps = e.steps
	e.mail = newMailbox(e.announcer, e.log.Named("announce"))
	return e
}

// Recipe returns the recipe the engine is bound to.
func (e *Engine) Recipe() domain.Recipe { return e.recipe }

// Start begins a run: it fires the start notification and enters the
// first step, or goes straight to done for an empty recipe. The run is
// torn down when ctx is done. Starting a running or finished engine
// returns ErrAlreadyStarted; Cancel first to restart.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return domain.ErrClosed
	}
	if e.stage.Kind != StageGetReady {
		return e.misuseLocked(fmt.Errorf("%w (stage=%s)", domain.ErrAlreadyStarted, e.stage))
	}

	e.gen++
	gen := e.gen
	e.runID = newRunID()
	e.runCtx, e.runCancel = context.WithCancel(ctx)
	e.stopWatch = context.AfterFunc(e.runCtx, func() { e.sessionEnded(gen) })

	if e.notifier != nil {
		run := domain.RunStart{
			RunID:      e.runID,
			RecipeID:   e.recipe.ID,
			RecipeName: e.recipe.Name,
			StepCount:  len(e.steps),
			Total:      e.recipe.TotalDuration(),
			StartedAt:  e.clock.Now(),
		}
		go e.notifyStarted(context.WithoutCancel(ctx), run)
	}

	e.log.Info("run %s started: %s (%d steps)", shortID(e.runID), e.recipe.Name, len(e.steps))
	e.advanceLocked()
	return nil
}

// Cancel stops the current run, if any, and returns the engine to
// GetReady. Safe to call any number of times from any state. Once it
// returns, nothing from the cancelled run changes state or starts a new
// announcement.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked("cancelled")
}

// Close cancels the run and releases observers. The engine cannot be
// started again. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.cancelLocked("closed")
	e.closed = true
	for _, ch := range e.subs {
		close(ch)
	}
	e.subs = nil
	return nil
}

// Snapshot returns the current state with remaining time and progress
// recomputed against the clock.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshLocked(e.clock.Now())
	return e.snapshotLocked()
}

// Subscribe registers an observer. Delivery never blocks the engine: when
// the buffer is full the oldest pending event is dropped. The channel is
// closed by Close or Unsubscribe.
func (e *Engine) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		close(ch)
		return ch
	}
	e.subs = append(e.subs, ch)
	return ch
}

// Unsubscribe removes and closes an observer channel.
func (e *Engine) Unsubscribe(sub <-chan Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, ch := range e.subs {
		if ch == sub {
			e.subs = append(e.subs[:i], e.subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// advanceLocked performs one transition from the current stage.
func (e *Engine) advanceLocked() {
	prev := e.stage
	next, ok := nextStage(prev, len(e.steps))
	if !ok {
		_ = e.misuseLocked(fmt.Errorf("%w (run=%s)", domain.ErrPastDone, shortID(e.runID)))
		return
	}

	e.stage = next
	now := e.clock.Now()
	// The cue marks the end of a counted step, so the first step gets none.
	cue := prev.IsStep()

	if next.Kind == StageDone {
		e.stopSchedulesLocked()
		e.deadline = time.Time{}
		e.duration = 0
		e.remaining = 0
		e.progress = 1
		e.log.Info("run %s done", shortID(e.runID))
		e.mail.post(announcement{ctx: e.runCtx, cue: cue, label: doneLabel})
		e.emitLocked(EventStage, now)
		return
	}

	step := e.steps[next.Index]
	e.duration = step.Duration
	e.deadline = now.Add(step.Duration)
	e.remaining = step.Duration
	e.progress = 0

	gen, idx := e.gen, next.Index
	e.completion = e.clock.AfterFunc(step.Duration, func() { e.complete(gen, idx) })
	if e.ticker == nil {
		e.ticker = e.clock.TickFunc(e.tickInterval, func() { e.tick(gen) })
	}

	e.log.Debug("run %s: step %d/%d %s for %s", shortID(e.runID), idx+1, len(e.steps), step.Kind, step.Duration)
	e.mail.post(announcement{ctx: e.runCtx, cue: cue, label: step.Kind.String()})
	e.emitLocked(EventStage, now)
}

// complete is the one-shot deadline callback for step idx of run gen.
func (e *Engine) complete(gen uint64, idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != gen || e.stage != StepAt(idx) {
		e.log.Debug("discarding stale completion (gen=%d, step=%d, now=%s)", gen, idx, e.stage)
		return
	}
	e.completion = nil
	e.advanceLocked()
}

// tick recomputes the countdown. It never advances the stage.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != gen || !e.stage.IsStep() {
		return
	}
	now := e.clock.Now()
	e.refreshLocked(now)
	e.emitLocked(EventProgress, now)
}

// refreshLocked derives remaining and progress from the deadline. Within
// a step remaining only goes down, so a clock stepping backwards cannot
// make the countdown climb or the progress shrink.
func (e *Engine) refreshLocked(now time.Time) {
	if !e.stage.IsStep() {
		return
	}

	remaining := e.deadline.Sub(now)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > e.remaining {
		remaining = e.remaining
	}
	e.remaining = remaining

	progress := 1.0
	if e.duration > 0 {
		progress = 1 - float64(remaining)/float64(e.duration)
	}
	e.progress = clampFraction(progress)
}

func (e *Engine) cancelLocked(reason string) {
	idle := e.stage.Kind == StageGetReady && e.runCancel == nil
	runID := e.runID

	// Invalidate outstanding callbacks before touching state.
	e.gen++
	e.stopSchedulesLocked()
	if e.stopWatch != nil {
		e.stopWatch()
		e.stopWatch = nil
	}
	if e.runCancel != nil {
		e.runCancel()
		e.runCancel = nil
	}
	e.runCtx = nil

	e.stage = GetReady()
	e.runID = ""
	e.deadline = time.Time{}
	e.duration = 0
	e.remaining = 0
	e.progress = 0

	if idle {
		return
	}
	e.log.Info("run %s %s", shortID(runID), reason)
	e.emitLocked(EventCancelled, e.clock.Now())
}

// sessionEnded runs when the context given to Start is done.
func (e *Engine) sessionEnded(gen uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return
	}
	e.cancelLocked("ended with its session")
}

func (e *Engine) stopSchedulesLocked() {
	if e.completion != nil {
		e.completion.Stop()
		e.completion = nil
	}
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		RunID:     e.runID,
		Stage:     e.stage,
		StepCount: len(e.steps),
		Deadline:  e.deadline,
		Remaining: e.remaining,
		Progress:  e.progress,
	}
	if e.stage.IsStep() {
		s.Kind = e.steps[e.stage.Index].Kind
		s.Duration = e.duration
	}
	return s
}

// emitLocked delivers an event to every observer without blocking. A
// full buffer loses its oldest event so observers always see the latest.
func (e *Engine) emitLocked(typ EventType, at time.Time) {
	if len(e.subs) == 0 {
		return
	}
	ev := Event{Type: typ, Snapshot: e.snapshotLocked(), At: at}
	for _, ch := range e.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

func (e *Engine) misuseLocked(err error) error {
	if e.strict {
		panic(err)
	}
	e.log.Warn("%v", err)
	return err
}

func (e *Engine) notifyStarted(ctx context.Context, run domain.RunStart) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("start notifier panicked: %v", r)
		}
	}()
	if err := e.notifier.RecipeStarted(ctx, run); err != nil {
		e.log.Warn("start notification failed: %v", err)
	}
}
