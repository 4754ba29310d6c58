package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	c := NewFake(epoch)
	var got []string

	c.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	c.AfterFunc(1*time.Second, func() { got = append(got, "a") })
	c.AfterFunc(2*time.Second, func() { got = append(got, "b") })

	c.Advance(10 * time.Second)

	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("unexpected order: %v", got)
	}
	if !c.Now().Equal(epoch.Add(10 * time.Second)) {
		t.Fatalf("expected clock at +10s, got %s", c.Now().Sub(epoch))
	}
}

func TestFakeNowIsDeadlineInsideCallback(t *testing.T) {
	c := NewFake(epoch)
	var at time.Time
	c.AfterFunc(1500*time.Millisecond, func() { at = c.Now() })

	c.Advance(5 * time.Second)

	if !at.Equal(epoch.Add(1500 * time.Millisecond)) {
		t.Fatalf("callback saw %s, want +1.5s", at.Sub(epoch))
	}
}

func TestFakeZeroDelayIsNotSynchronous(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(0, func() { fired = true })

	if fired {
		t.Fatal("zero-delay callback ran inside AfterFunc")
	}
	c.Advance(0)
	if !fired {
		t.Fatal("zero-delay callback did not run on the next Advance")
	}
}

func TestFakeChainedScheduling(t *testing.T) {
	c := NewFake(epoch)
	count := 0
	var next func()
	next = func() {
		count++
		if count < 3 {
			c.AfterFunc(time.Second, next)
		}
	}
	c.AfterFunc(time.Second, next)

	c.Advance(2500 * time.Millisecond)
	if count != 2 {
		t.Fatalf("expected 2 firings within 2.5s, got %d", count)
	}
	c.Advance(time.Second)
	if count != 3 {
		t.Fatalf("expected 3 firings, got %d", count)
	}
	if c.Pending() != 0 {
		t.Fatalf("expected nothing pending, got %d", c.Pending())
	}
}

func TestFakeStop(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	tm := c.AfterFunc(time.Second, func() { fired = true })

	if !tm.Stop() {
		t.Fatal("first Stop should report true")
	}
	if tm.Stop() {
		t.Fatal("second Stop should report false")
	}
	c.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
}

func TestFakeTicker(t *testing.T) {
	c := NewFake(epoch)
	ticks := 0
	tk := c.TickFunc(50*time.Millisecond, func() { ticks++ })

	c.Advance(time.Second)
	if ticks != 20 {
		t.Fatalf("expected 20 ticks in 1s at 50ms, got %d", ticks)
	}

	tk.Stop()
	c.Advance(time.Second)
	if ticks != 20 {
		t.Fatalf("ticker kept running after Stop: %d", ticks)
	}
}

func TestFakeSkewDoesNotFire(t *testing.T) {
	c := NewFake(epoch)
	fired := false
	c.AfterFunc(time.Second, func() { fired = true })

	c.Skew(5 * time.Second)
	if fired {
		t.Fatal("Skew fired a callback")
	}
	c.Skew(-10 * time.Second)
	if !c.Now().Equal(epoch.Add(-5 * time.Second)) {
		t.Fatalf("unexpected reading after skew: %s", c.Now().Sub(epoch))
	}
}

func TestSystemTickFuncStops(t *testing.T) {
	var ticks atomic.Int32
	tk := System.TickFunc(10*time.Millisecond, func() { ticks.Add(1) })

	time.Sleep(100 * time.Millisecond)
	if !tk.Stop() {
		t.Fatal("first Stop should report true")
	}
	if tk.Stop() {
		t.Fatal("second Stop should report false")
	}

	if ticks.Load() == 0 {
		t.Fatal("expected at least one tick")
	}
	after := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	if ticks.Load() > after+1 {
		t.Fatalf("ticks continued after Stop: %d -> %d", after, ticks.Load())
	}
}

func TestSystemAfterFunc(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	System.AfterFunc(10*time.Millisecond, wg.Done)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AfterFunc did not fire")
	}
}
