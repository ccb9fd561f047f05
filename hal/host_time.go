//go:build !tinygo

package hal

import (
	"sync"
	"time"
)

type hostTime struct {
	ch  chan uint64
	seq uint64

	last time.Time
	acc  time.Duration
}

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024)}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

func (t *hostTime) step(n uint64) {
	now := time.Now()
	if t.last.IsZero() {
		t.last = now
		t.acc = 0
		t.stepN(n)
		return
	}

	t.acc += now.Sub(t.last)
	t.last = now

	const tickDur = time.Millisecond
	ticks := uint64(t.acc / tickDur)
	if ticks == 0 {
		return
	}
	t.acc = t.acc % tickDur
	t.stepN(ticks)
}

func (t *hostTime) stepN(n uint64) {
	for i := uint64(0); i < n; i++ {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
		}
	}
}

// hostClock is the emulated wall clock.
//
// It runs at speed × real time from start and can be nudged forward by the
// emulator controls.
type hostClock struct {
	mu     sync.Mutex
	start  time.Time
	origin time.Time
	speed  float64
	offset time.Duration
	use24h bool
}

func newHostClock(start time.Time, speed float64, use24h bool) *hostClock {
	now := time.Now()
	if start.IsZero() {
		start = now
	}
	if speed <= 0 {
		speed = 1
	}
	return &hostClock{start: start, origin: now, speed: speed, use24h: use24h}
}

func (c *hostClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Duration(float64(time.Since(c.origin)) * c.speed)
	return c.start.Add(elapsed + c.offset)
}

func (c *hostClock) Is24Hour() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.use24h
}

func (c *hostClock) advance(d time.Duration) {
	c.mu.Lock()
	c.offset += d
	c.mu.Unlock()
}

func (c *hostClock) toggle24Hour() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.use24h = !c.use24h
	return c.use24h
}
