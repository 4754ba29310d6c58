// Package timer provides the scheduling primitives the brew engine runs on:
// one-shot deadlines and periodic ticks, behind a Clock interface so tests
// can drive time by hand.
package timer

import (
	"sync"
	"time"
)

// Timer is a handle to scheduled work. Stop reports whether the call
// prevented further firing; it is safe to call more than once.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Callbacks run on a goroutine owned by the
// clock, never synchronously inside AfterFunc or TickFunc.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once, d from now. A zero or negative d fires on
	// the next scheduler turn.
	AfterFunc(d time.Duration, f func()) Timer
	// TickFunc calls f every period until stopped. period must be positive.
	TickFunc(period time.Duration, f func()) Timer
}

// System is the wall clock.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (systemClock) TickFunc(period time.Duration, f func()) Timer {
	t := &tickLoop{stop: make(chan struct{})}
	ticker := time.NewTicker(period)
	go t.loop(ticker, f)
	return t
}

// tickLoop runs f on every tick until Stop.
type tickLoop struct {
	stop chan struct{}
	once sync.Once
}

func (t *tickLoop) loop(ticker *time.Ticker, f func()) {
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			f()
		}
	}
}

// Stop ends the loop. Only the first call returns true.
func (t *tickLoop) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.stop)
		stopped = true
	})
	return stopped
}
