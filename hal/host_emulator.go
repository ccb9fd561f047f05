//go:build !tinygo

package hal

import (
	"fmt"
	"time"
)

// Emulator controls, active in window mode:
//
//	o      toggle the bottom overlay (unobstructed area change)
//	h      toggle 12/24 hour clock style
//	m      advance the clock by one minute
//	d      advance the clock by one day
//	other  push the preset companion message bound to the key, if any
func (h *hostHAL) handleKeys(presets map[rune][]byte) {
	for {
		select {
		case r := <-h.kbd.events():
			h.handleKey(r, presets)
		default:
			return
		}
	}
}

func (h *hostHAL) handleKey(r rune, presets map[rune][]byte) {
	switch r {
	case 'o':
		if h.area.obstructed() {
			h.area.setOverlay(0)
		} else {
			h.area.setOverlay(h.overlayHeight)
		}
	case 'h':
		use24h := h.clock.toggle24Hour()
		h.logger.WriteLineString(fmt.Sprintf("emulator: 24h=%t", use24h))
	case 'm':
		h.clock.advance(time.Minute)
	case 'd':
		h.clock.advance(24 * time.Hour)
	default:
		msg, ok := presets[r]
		if !ok {
			return
		}
		if !h.companion.push(msg) {
			h.logger.WriteLineString("emulator: companion queue full")
		}
	}
}
