//go:build !tinygo

package hal

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"
)

const (
	hostDefaultWidth         = 180
	hostDefaultHeight        = 180
	hostDefaultOverlayHeight = 51
)

// HostConfig describes the emulated watch.
type HostConfig struct {
	Width  int
	Height int

	// FlashPath is the backing file for persistent storage. "none" disables
	// persistence, ":memory:" keeps it in RAM for the session.
	FlashPath string

	Use24Hour bool

	// ClockSpeed scales the passage of wall-clock time (1 = real time).
	ClockSpeed float64
	// ClockStart pins the emulated clock start; zero means time.Now().
	ClockStart time.Time

	OverlayHeight int
}

type hostHAL struct {
	logger    *hostLogger
	fb        *hostFramebuffer
	area      *hostUnobstructedArea
	kbd       *hostKeyboard
	t         *hostTime
	clock     *hostClock
	flash     Flash
	companion *hostCompanion

	overlayHeight int
}

// New returns a host HAL implementation.
func New(cfg HostConfig) HAL {
	return newHostHAL(cfg)
}

func newHostHAL(cfg HostConfig) *hostHAL {
	if cfg.Width <= 0 {
		cfg.Width = hostDefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = hostDefaultHeight
	}
	if cfg.OverlayHeight <= 0 || cfg.OverlayHeight >= cfg.Height {
		cfg.OverlayHeight = hostDefaultOverlayHeight
	}

	logger := &hostLogger{w: os.Stdout}

	var flash Flash
	switch cfg.FlashPath {
	case "none":
		flash = stubFlash{}
	case ":memory:":
		flash = NewMemFlash(hostFlashDefaultSizeBytes, hostFlashEraseBlockBytes)
	default:
		flash = newHostFlash(cfg.FlashPath)
	}

	return &hostHAL{
		logger:        logger,
		fb:            newHostFramebuffer(cfg.Width, cfg.Height),
		area:          newHostUnobstructedArea(image.Rect(0, 0, cfg.Width, cfg.Height)),
		kbd:           newHostKeyboard(),
		t:             newHostTime(),
		clock:         newHostClock(cfg.ClockStart, cfg.ClockSpeed, cfg.Use24Hour),
		flash:         flash,
		companion:     newHostCompanion(),
		overlayHeight: cfg.OverlayHeight,
	}
}

func (h *hostHAL) Logger() Logger       { return h.logger }
func (h *hostHAL) Display() Display     { return hostDisplay{fb: h.fb, area: h.area} }
func (h *hostHAL) Flash() Flash         { return h.flash }
func (h *hostHAL) Time() Time           { return h.t }
func (h *hostHAL) Clock() Clock         { return h.clock }
func (h *hostHAL) Companion() Companion { return h.companion }

// Push queues an encoded app message as if the companion had sent it.
//
// It reports false when the inbound queue is full.
func Push(h HAL, msg []byte) bool {
	hh, ok := h.(*hostHAL)
	if !ok {
		return false
	}
	return hh.companion.push(msg)
}

type hostDisplay struct {
	fb   *hostFramebuffer
	area *hostUnobstructedArea
}

func (d hostDisplay) Framebuffer() Framebuffer       { return d.fb }
func (d hostDisplay) Unobstructed() UnobstructedArea { return d.area }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostUnobstructedArea struct {
	mu     sync.Mutex
	full   image.Rectangle
	bounds image.Rectangle
	ch     chan image.Rectangle
}

func newHostUnobstructedArea(full image.Rectangle) *hostUnobstructedArea {
	return &hostUnobstructedArea{full: full, bounds: full, ch: make(chan image.Rectangle, 16)}
}

func (a *hostUnobstructedArea) Bounds() image.Rectangle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bounds
}

func (a *hostUnobstructedArea) Changes() <-chan image.Rectangle { return a.ch }

// setOverlay covers the bottom overlay pixels of the screen (0 removes it).
func (a *hostUnobstructedArea) setOverlay(overlay int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b := a.full
	if overlay > 0 && overlay < b.Dy() {
		b.Max.Y -= overlay
	}
	a.bounds = b

	// A full queue drops the oldest bounds; the latest must arrive.
	for {
		select {
		case a.ch <- b:
			return
		default:
		}
		select {
		case <-a.ch:
		default:
		}
	}
}

func (a *hostUnobstructedArea) obstructed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.bounds.Eq(a.full)
}

type hostCompanion struct {
	ch chan []byte
}

func newHostCompanion() *hostCompanion {
	return &hostCompanion{ch: make(chan []byte, 16)}
}

func (c *hostCompanion) Messages() <-chan []byte { return c.ch }

func (c *hostCompanion) push(msg []byte) bool {
	cp := make([]byte, len(msg))
	copy(cp, msg)
	select {
	case c.ch <- cp:
		return true
	default:
		return false
	}
}
