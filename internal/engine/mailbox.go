package engine

import (
	"context"
	"sync"

	"github.com/hammamikhairi/brewtimer/internal/domain"
	"github.com/hammamikhairi/brewtimer/internal/logger"
)

// announcement is the audible output of one transition.
type announcement struct {
	ctx   context.Context // the run's context; cancelled runs are skipped
	cue   bool            // play the completion cue first
	label string          // spoken after the cue, empty for none
}

// mailbox renders announcements one at a time, in the order they were
// posted, off the caller's goroutine. A drain goroutine exists only while
// there is work.
type mailbox struct {
	port domain.Announcer
	log  *logger.Logger

	mu      sync.Mutex
	queue   []announcement
	running bool
	idle    chan struct{} // closed when the current drain finishes
}

func newMailbox(port domain.Announcer, log *logger.Logger) *mailbox {
	return &mailbox{port: port, log: log}
}

// post queues a. Never blocks.
func (m *mailbox) post(a announcement) {
	m.mu.Lock()
	m.queue = append(m.queue, a)
	qLen := len(m.queue)
	if m.running {
		m.mu.Unlock()
		m.log.Debug("queued behind in-flight announcement (queue_len=%d)", qLen)
		return
	}
	m.running = true
	m.idle = make(chan struct{})
	m.mu.Unlock()

	go m.drain()
}

func (m *mailbox) drain() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.running = false
			close(m.idle)
			m.mu.Unlock()
			return
		}
		a := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()

		m.render(a)
	}
}

// render performs one announcement. Failures are logged and swallowed so
// the countdown never depends on audio.
func (m *mailbox) render(a announcement) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("announcer panicked: %v", r)
		}
	}()

	if a.ctx.Err() != nil {
		m.log.Debug("dropping announcement from cancelled run (label=%q)", a.label)
		return
	}
	if a.cue {
		if err := m.port.PlayCue(a.ctx); err != nil {
			m.log.Warn("completion cue failed: %v", err)
		}
	}
	if a.label == "" || a.ctx.Err() != nil {
		return
	}
	if err := m.port.Speak(a.ctx, a.label); err != nil {
		m.log.Warn("speaking %q failed: %v", a.label, err)
	}
}

// waitIdle blocks until nothing is queued or rendering.
func (m *mailbox) waitIdle() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	idle := m.idle
	m.mu.Unlock()
	<-idle
}

// silentAnnouncer is used when no Announcer is configured.
type silentAnnouncer struct{}

func (silentAnnouncer) PlayCue(context.Context) error       { return nil }
func (silentAnnouncer) Speak(context.Context, string) error { return nil }
