package timer

import (
	"sync"
	"time"
)

// Compile-time interface check.
var _ Clock = (*Fake)(nil)

// Fake is a manually driven Clock. Time only moves in Advance and Skew;
// due callbacks run synchronously inside Advance, in deadline order, with
// Now already set to their deadline.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	events []*fakeEvent
}

type fakeEvent struct {
	fake   *Fake
	when   time.Time
	period time.Duration // zero for one-shot
	seq    uint64
	f      func()
	active bool
}

// NewFake creates a fake clock reading start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake time.
func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f at Now()+d. It never runs f before the next Advance.
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	return c.schedule(d, 0, f)
}

// TickFunc schedules f every period.
func (c *Fake) TickFunc(period time.Duration, f func()) Timer {
	if period <= 0 {
		panic("timer: non-positive tick period")
	}
	return c.schedule(period, period, f)
}

func (c *Fake) schedule(d, period time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	ev := &fakeEvent{
		fake:   c,
		when:   c.now.Add(d),
		period: period,
		seq:    c.seq,
		f:      f,
		active: true,
	}
	c.events = append(c.events, ev)
	return ev
}

// Advance moves time forward by d, firing everything that falls due on
// the way. Callbacks may schedule more work; it fires too if it falls
// inside the window.
func (c *Fake) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		ev := c.nextDueLocked(target)
		if ev == nil {
			if target.After(c.now) {
				c.now = target
			}
			c.mu.Unlock()
			return
		}
		if ev.when.After(c.now) {
			c.now = ev.when
		}
		if ev.period > 0 {
			ev.when = ev.when.Add(ev.period)
		} else {
			c.removeLocked(ev)
		}
		fn := ev.f
		c.mu.Unlock()

		fn()
	}
}

// Skew shifts the reading by d (which may be negative) without firing
// anything. Used to simulate wall-clock jitter.
func (c *Fake) Skew(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Pending returns the number of scheduled timers and tickers.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *Fake) nextDueLocked(target time.Time) *fakeEvent {
	var best *fakeEvent
	for _, ev := range c.events {
		if ev.when.After(target) {
			continue
		}
		if best == nil || ev.when.Before(best.when) || (ev.when.Equal(best.when) && ev.seq < best.seq) {
			best = ev
		}
	}
	return best
}

func (c *Fake) removeLocked(ev *fakeEvent) {
	ev.active = false
	for i, e := range c.events {
		if e == ev {
			c.events = append(c.events[:i], c.events[i+1:]...)
			return
		}
	}
}

// Stop cancels the event. Returns false if it already fired or was stopped.
func (ev *fakeEvent) Stop() bool {
	c := ev.fake
	c.mu.Lock()
	defer c.mu.Unlock()
	if !ev.active {
		return false
	}
	c.removeLocked(ev)
	return true
}
