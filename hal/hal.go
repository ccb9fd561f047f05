package hal

import (
	"errors"
	"image"
	"time"
)

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

var ErrNotImplemented = errors.New("not implemented")

// ErrFlashWriteRequiresErase is returned when a write would set a bit that
// is currently cleared; NOR flash can only clear bits between erases.
var ErrFlashWriteRequiresErase = errors.New("flash write requires erase")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// UnobstructedArea reports the part of the screen not covered by system
// overlays (timeline peeks, notifications).
//
// Changes delivers the new bounds on every overlay transition. Repeated
// notifications with unchanged bounds are allowed.
type UnobstructedArea interface {
	Bounds() image.Rectangle
	Changes() <-chan image.Rectangle
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
	Unobstructed() UnobstructedArea
}

// Flash provides raw access to non-volatile memory.
//
// It is intentionally low-level: addresses and erase blocks only.
type Flash interface {
	SizeBytes() uint32
	EraseBlockBytes() uint32
	ReadAt(p []byte, off uint32) (int, error)
	WriteAt(p []byte, off uint32) (int, error)
	Erase(off, size uint32) error
}

// Time provides a base tick stream.
//
// The tick duration is platform-defined; higher-level timers live in userland.
type Time interface {
	Ticks() <-chan uint64
}

// Clock provides wall-clock time and the user's clock style preference.
type Clock interface {
	Now() time.Time
	Is24Hour() bool
}

// Companion delivers inbound app messages pushed by the phone companion.
//
// Each message is an encoded dictionary (see proto.AppMessage).
type Companion interface {
	Messages() <-chan []byte
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	Display() Display
	Flash() Flash
	Time() Time
	Clock() Clock
	Companion() Companion
}
